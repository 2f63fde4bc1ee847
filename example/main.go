package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/envmon"
	"github.com/jpalmerr/envmon/internal/consumer"
	"github.com/jpalmerr/envmon/internal/sensor"
	"github.com/jpalmerr/envmon/internal/term"
)

func main() {
	// start mock sensor node (see mock_server.go)
	go StartMockSensorNode(":9999")
	time.Sleep(100 * time.Millisecond)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	node := sensor.NewHTTP(sensor.HTTPConfig{
		URL:     "http://localhost:9999/reading",
		Timeout: time.Second,
		Decoder: sensor.JSONFieldDecoder("env.temp_c", "env.rh"),
	})
	defer node.Close()

	mon, err := envmon.New(
		envmon.WithSensor(node),
		envmon.WithTitle("Demo"),
		envmon.WithSamplePeriod(2*time.Second),
		envmon.WithLED(term.NewLED("status", logger)),
		envmon.WithLevelStrip(term.NewStrip(os.Stdout, 10, "humidity "), 10),
		envmon.WithDisplay(term.NewDisplay(os.Stdout, consumer.DisplayWidth, consumer.DisplayHeight)),
		envmon.WithActuators(term.NewActuators(logger), "fan", "heater"),
		envmon.WithSeverityCallback(func(c envmon.SeverityChange) {
			fmt.Printf("severity %s -> %s (%.2f C, %.2f %%)\n",
				c.From, c.To, c.Snapshot.Reading.Temperature, c.Snapshot.Reading.Humidity)
		}),
		envmon.WithPort(8080),
		envmon.WithLogger(logger),
	)
	if err != nil {
		slog.Error("failed to create monitor", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   envmon Demo                                         ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Override panel: http://localhost:8080               ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Sensor: mock node on :9999, swinging from           ║")
	fmt.Println("  ║   Normal to Critical every two minutes                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := mon.Start(ctx); err != nil {
		slog.Error("monitor error", "error", err)
		os.Exit(1)
	}
}
