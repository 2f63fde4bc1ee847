package config

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jpalmerr/envmon"
	"github.com/jpalmerr/envmon/internal/climate"
	"github.com/jpalmerr/envmon/internal/sensor"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// safeBuffer is a bytes.Buffer safe for the monitor's output tasks.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func mustParse(t *testing.T, yaml string) *Config {
	t.Helper()
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return cfg
}

func TestBuildOptions_Defaults(t *testing.T) {
	cfg := mustParse(t, `
title: Bench
actuators: [fan]
server:
  port: 18081
`)

	var out bytes.Buffer
	opts, cleanup, err := BuildOptions(context.Background(), cfg, &out, discardLogger())
	if err != nil {
		t.Fatalf("BuildOptions() error = %v", err)
	}
	defer cleanup()

	mon, err := envmon.New(opts...)
	if err != nil {
		t.Fatalf("envmon.New() error = %v", err)
	}

	if mon.Title() != "Bench" {
		t.Errorf("Title() = %q, want Bench", mon.Title())
	}
	if mon.Port() != 18081 {
		t.Errorf("Port() = %d, want 18081", mon.Port())
	}
	if mon.SamplePeriod() != 2*time.Second {
		t.Errorf("SamplePeriod() = %v, want 2s", mon.SamplePeriod())
	}
	if mon.Thresholds() != climate.DefaultThresholds() {
		t.Errorf("Thresholds() = %+v, want defaults", mon.Thresholds())
	}

	states := mon.Actuators()
	if len(states) != 1 || states[0].Name != "fan" {
		t.Errorf("Actuators() = %+v, want [fan]", states)
	}
}

func TestBuildOptions_Thresholds(t *testing.T) {
	cfg := mustParse(t, `
thresholds:
  warning: {temperature: 25, humidity: 60}
  critical: {temperature: 32, humidity: 80}
server:
  enabled: false
`)

	opts, cleanup, err := BuildOptions(context.Background(), cfg, io.Discard, discardLogger())
	if err != nil {
		t.Fatalf("BuildOptions() error = %v", err)
	}
	defer cleanup()

	mon, err := envmon.New(opts...)
	if err != nil {
		t.Fatalf("envmon.New() error = %v", err)
	}

	want := climate.Thresholds{
		Warning:  climate.Limit{Temperature: 25, Humidity: 60},
		Critical: climate.Limit{Temperature: 32, Humidity: 80},
	}
	if mon.Thresholds() != want {
		t.Errorf("Thresholds() = %+v, want %+v", mon.Thresholds(), want)
	}
}

func TestBuildOptions_RunsSimulatedPipeline(t *testing.T) {
	cfg := mustParse(t, `
sample_period: 1s
sensor:
  seed: 7
led:
  enabled: false
server:
  enabled: false
`)

	var out safeBuffer
	opts, cleanup, err := BuildOptions(context.Background(), cfg, &out, discardLogger())
	if err != nil {
		t.Fatalf("BuildOptions() error = %v", err)
	}
	defer cleanup()

	mon, err := envmon.New(opts...)
	if err != nil {
		t.Fatalf("envmon.New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mon.Start(ctx) }()

	// the first sample is taken immediately
	deadline := time.After(3 * time.Second)
	for !mon.Snapshot().Published() || !strings.Contains(out.String(), "humidity") {
		select {
		case <-deadline:
			cancel()
			t.Fatalf("level bar never rendered, output %q", out.String())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Start() error = %v", err)
	}
}

func TestBuildOptions_LineSensorMissingFile(t *testing.T) {
	cfg := mustParse(t, `
sensor:
  type: line
  path: /nonexistent/envmon/tty
`)

	_, _, err := BuildOptions(context.Background(), cfg, io.Discard, discardLogger())
	if err == nil {
		t.Fatal("BuildOptions() expected error for missing device")
	}
	if !strings.Contains(err.Error(), "sensor:") {
		t.Errorf("error = %q, want sensor prefix", err.Error())
	}
}

func TestBuildOptions_LineTelemetry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.log")
	cfg := mustParse(t, `
server:
  enabled: false
telemetry:
  line:
    path: `+path+`
`)

	opts, cleanup, err := BuildOptions(context.Background(), cfg, io.Discard, discardLogger())
	if err != nil {
		t.Fatalf("BuildOptions() error = %v", err)
	}
	defer cleanup()

	if _, err := envmon.New(opts...); err != nil {
		t.Fatalf("envmon.New() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("line log not created: %v", err)
	}
}

func TestBuildOptions_KafkaSink(t *testing.T) {
	// kafka.Writer connects lazily, so building needs no broker.
	cfg := mustParse(t, `
server:
  enabled: false
telemetry:
  kafka:
    brokers: [localhost:9092]
    topic: readings
`)

	opts, cleanup, err := BuildOptions(context.Background(), cfg, io.Discard, discardLogger())
	if err != nil {
		t.Fatalf("BuildOptions() error = %v", err)
	}
	defer cleanup()

	if _, err := envmon.New(opts...); err != nil {
		t.Fatalf("envmon.New() error = %v", err)
	}
}

func TestBuildOptions_RedisUnreachable(t *testing.T) {
	cfg := mustParse(t, `
telemetry:
  line:
    path: `+filepath.Join(t.TempDir(), "raw.log")+`
  redis:
    addr: 127.0.0.1:1
    key: envmon
`)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, _, err := BuildOptions(ctx, cfg, io.Discard, discardLogger())
	if err == nil {
		t.Fatal("BuildOptions() expected error for unreachable redis")
	}
	if !strings.Contains(err.Error(), "telemetry.redis") {
		t.Errorf("error = %q, want telemetry.redis prefix", err.Error())
	}
}

func TestBuildDecoder(t *testing.T) {
	tests := []struct {
		name string
		dc   DecoderConfig
		body string
		want climate.Reading
	}{
		{
			name: "default reads state documents",
			dc:   DecoderConfig{},
			body: `{"reading":{"temperature":21.5,"humidity":40,"valid":true}}`,
			want: climate.NewReading(21.5, 40),
		},
		{
			name: "line",
			dc:   DecoderConfig{Type: "line"},
			body: "DATA,30.25,55.00\n",
			want: climate.NewReading(30.25, 55),
		},
		{
			name: "json paths",
			dc:   DecoderConfig{Type: "json", TemperaturePath: "env.t", HumidityPath: "env.h"},
			body: `{"env":{"t":18,"h":"72.5"}}`,
			want: climate.NewReading(18, 72.5),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dec sensor.Decoder = buildDecoder(tt.dc)
			got, err := dec([]byte(tt.body))
			if err != nil {
				t.Fatalf("decoder error = %v", err)
			}
			if got != tt.want {
				t.Errorf("decoder = %+v, want %+v", got, tt.want)
			}
		})
	}
}
