package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jpalmerr/envmon"
	"github.com/jpalmerr/envmon/internal/consumer"
	"github.com/jpalmerr/envmon/internal/sensor"
	"github.com/jpalmerr/envmon/internal/telemetry"
	"github.com/jpalmerr/envmon/internal/term"
)

// BuildOptions converts parsed configuration into Monitor options.
//
// Terminal outputs (display and level bar) draw to out. The returned
// cleanup function releases the sensor and must be called after the
// monitor has stopped. Telemetry sinks, including the line log file, are
// closed by the monitor.
func BuildOptions(ctx context.Context, cfg *Config, out io.Writer, logger *slog.Logger) ([]envmon.Option, func(), error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var closers []io.Closer
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logger.Warn("cleanup failed", "error", err)
			}
		}
	}

	src, closer, err := buildSensor(cfg.Sensor)
	if err != nil {
		return nil, nil, err
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	opts := []envmon.Option{
		envmon.WithSensor(src),
		envmon.WithLogger(logger),
		envmon.WithSamplePeriod(cfg.SamplePeriod.Duration()),
		envmon.WithThresholds(cfg.ClassifierThresholds()),
		envmon.WithActuators(term.NewActuators(logger), cfg.Actuators...),
	}

	if cfg.Title != "" {
		opts = append(opts, envmon.WithTitle(cfg.Title))
	}
	if cfg.SampleTimeout != 0 {
		opts = append(opts, envmon.WithSampleTimeout(cfg.SampleTimeout.Duration()))
	}

	if Enabled(cfg.LED.Enabled) {
		opts = append(opts,
			envmon.WithLED(term.NewLED("status", logger)),
			envmon.WithLEDLadder(cfg.BlinkLadder()),
		)
	}
	if Enabled(cfg.LevelBar.Enabled) {
		strip := term.NewStrip(out, cfg.LevelBar.Segments, "humidity")
		opts = append(opts, envmon.WithLevelStrip(strip, cfg.LevelBar.Segments))
	}
	if Enabled(cfg.Display.Enabled) {
		opts = append(opts, envmon.WithDisplay(term.NewDisplay(out, consumer.DisplayWidth, consumer.DisplayHeight)))
	}

	if Enabled(cfg.Server.Enabled) {
		opts = append(opts, envmon.WithPort(cfg.Server.Port))
	} else {
		opts = append(opts, envmon.WithoutServer())
	}

	sinks, err := buildSinks(ctx, cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if len(sinks) > 0 {
		opts = append(opts, envmon.WithTelemetrySinks(sinks...))
		if cfg.Telemetry.Timeout != 0 {
			opts = append(opts, envmon.WithTelemetryTimeout(cfg.Telemetry.Timeout.Duration()))
		}
	}

	return opts, cleanup, nil
}

// buildSensor creates the configured reading source and, when it holds a
// resource, the closer that releases it.
func buildSensor(sc SensorConfig) (envmon.Sensor, io.Closer, error) {
	switch sc.Type {
	case SensorSimulated:
		simCfg := sensor.DefaultSimulatedConfig()
		if sc.Seed != 0 {
			simCfg.Seed = sc.Seed
		}
		if sc.StartTemperature != 0 {
			simCfg.StartTemperature = sc.StartTemperature
		}
		if sc.StartHumidity != 0 {
			simCfg.StartHumidity = sc.StartHumidity
		}
		simCfg.FaultRate = sc.FaultRate
		return sensor.NewSimulated(simCfg), nil, nil

	case SensorLine:
		l, err := sensor.OpenLine(sc.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("sensor: %w", err)
		}
		return l, l, nil

	case SensorHTTP:
		h := sensor.NewHTTP(sensor.HTTPConfig{
			URL:     sc.URL,
			Timeout: sc.Timeout.Duration(),
			Headers: sc.Headers,
			Decoder: buildDecoder(sc.Decoder),
		})
		return h, h, nil
	}

	return nil, nil, fmt.Errorf("sensor: unknown type %q", sc.Type)
}

// buildDecoder converts a DecoderConfig to a sensor.Decoder.
func buildDecoder(dc DecoderConfig) sensor.Decoder {
	switch dc.Type {
	case "line":
		return sensor.LineDecoder
	case "json":
		return sensor.JSONFieldDecoder(dc.TemperaturePath, dc.HumidityPath)
	default:
		return sensor.StateDecoder
	}
}

// buildSinks connects every configured telemetry sink. On failure the
// sinks already connected are closed.
func buildSinks(ctx context.Context, cfg *Config) ([]envmon.TelemetrySink, error) {
	var sinks []envmon.TelemetrySink
	fail := func(err error) ([]envmon.TelemetrySink, error) {
		var errs []error
		for _, s := range sinks {
			errs = append(errs, s.Close())
		}
		if cerr := errors.Join(errs...); cerr != nil {
			err = errors.Join(err, cerr)
		}
		return nil, err
	}

	t := cfg.Telemetry

	if t.Line != nil {
		f, err := os.OpenFile(t.Line.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fail(fmt.Errorf("telemetry.line: %w", err))
		}
		sinks = append(sinks, telemetry.NewLineSink(f))
	}

	if m := t.MQTT; m != nil {
		sink, err := telemetry.NewMQTTSink(ctx, telemetry.MQTTConfig{
			Broker:   m.Broker,
			ClientID: m.ClientID,
			Username: m.Username,
			Password: m.Password,
			Topic:    m.Topic,
			QoS:      byte(m.QoS),
			Retained: m.Retained,
			Device:   cfg.Device,
		})
		if err != nil {
			return fail(fmt.Errorf("telemetry.mqtt: %w", err))
		}
		sinks = append(sinks, sink)
	}

	if r := t.Redis; r != nil {
		sink, err := telemetry.NewRedisSink(ctx, telemetry.RedisConfig{
			Addr:     r.Addr,
			Password: r.Password,
			DB:       r.DB,
			Key:      r.Key,
			TTL:      r.TTL.Duration(),
			Channel:  r.Channel,
			Device:   cfg.Device,
		})
		if err != nil {
			return fail(fmt.Errorf("telemetry.redis: %w", err))
		}
		sinks = append(sinks, sink)
	}

	if k := t.Kafka; k != nil {
		sink, err := telemetry.NewKafkaSink(telemetry.KafkaConfig{
			Brokers: k.Brokers,
			Topic:   k.Topic,
			Acks:    k.Acks,
			Device:  cfg.Device,
		})
		if err != nil {
			return fail(fmt.Errorf("telemetry.kafka: %w", err))
		}
		sinks = append(sinks, sink)
	}

	return sinks, nil
}
