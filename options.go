package envmon

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// monitorConfig holds mutable state during Monitor construction.
type monitorConfig struct {
	title          string
	sensor         Sensor
	led            LED
	strip          LevelStrip
	segments       int
	display        Display
	actuators      Actuators
	actuatorNames  []string
	samplePeriod   time.Duration
	sampleTimeout  time.Duration
	thresholds     Thresholds
	ladder         BlinkLadder
	port           int
	serverDisabled bool
	logger         *slog.Logger
	sinks          []TelemetrySink
	publishTimeout time.Duration
	callbacks      []func(SeverityChange)
}

// Option is a function that configures a [Monitor] instance during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
type Option func(*monitorConfig) error

// WithSensor sets the reading source. A sensor is required.
//
// Example:
//
//	mon, err := envmon.New(
//	    envmon.WithSensor(sensor),
//	)
//
// Returns an error if the sensor is nil.
func WithSensor(s Sensor) Option {
	return func(cfg *monitorConfig) error {
		if s == nil {
			return errors.New("sensor cannot be nil")
		}
		cfg.sensor = s
		return nil
	}
}

// WithLED adds the status LED output. Its blink pattern follows the
// temperature of every new reading.
func WithLED(led LED) Option {
	return func(cfg *monitorConfig) error {
		if led == nil {
			return errors.New("led cannot be nil")
		}
		cfg.led = led
		return nil
	}
}

// WithLevelStrip adds the humidity level bar drawn on the first segments
// lights of strip.
//
// Returns an error if strip is nil or segments is not positive.
func WithLevelStrip(strip LevelStrip, segments int) Option {
	return func(cfg *monitorConfig) error {
		if strip == nil {
			return errors.New("level strip cannot be nil")
		}
		if segments <= 0 {
			return fmt.Errorf("level strip segments must be positive, got %d", segments)
		}
		cfg.strip = strip
		cfg.segments = segments
		return nil
	}
}

// WithDisplay adds the status display. It is drawn once at startup, again
// for the first reading and then whenever the severity changes.
func WithDisplay(d Display) Option {
	return func(cfg *monitorConfig) error {
		if d == nil {
			return errors.New("display cannot be nil")
		}
		cfg.display = d
		return nil
	}
}

// WithActuators sets the actuator output and the names the override panel
// exposes. With no names, "relay1" and "relay2" are used. Without this
// option, overrides are only logged.
//
// Example:
//
//	mon, err := envmon.New(
//	    envmon.WithSensor(sensor),
//	    envmon.WithActuators(relays, "fan", "heater"),
//	)
func WithActuators(out Actuators, names ...string) Option {
	return func(cfg *monitorConfig) error {
		if out == nil {
			return errors.New("actuators cannot be nil")
		}
		cfg.actuators = out
		cfg.actuatorNames = append([]string(nil), names...)
		return nil
	}
}

// WithSamplePeriod sets how often the sensor is read. Defaults to 2 seconds.
//
// Returns an error if the duration is zero or negative.
func WithSamplePeriod(d time.Duration) Option {
	return func(cfg *monitorConfig) error {
		if d <= 0 {
			return errors.New("sample period must be positive")
		}
		cfg.samplePeriod = d
		return nil
	}
}

// WithSampleTimeout bounds one acquisition. Defaults to the sample period.
//
// Returns an error if the duration is zero or negative.
func WithSampleTimeout(d time.Duration) Option {
	return func(cfg *monitorConfig) error {
		if d <= 0 {
			return errors.New("sample timeout must be positive")
		}
		cfg.sampleTimeout = d
		return nil
	}
}

// WithThresholds replaces the classifier breakpoints.
//
// Example:
//
//	mon, err := envmon.New(
//	    envmon.WithSensor(sensor),
//	    envmon.WithThresholds(envmon.Thresholds{
//	        Warning:  envmon.Limit{Temperature: 28, Humidity: 65},
//	        Critical: envmon.Limit{Temperature: 33, Humidity: 80},
//	    }),
//	)
//
// Returns an error if the warning pair is not strictly below the critical pair.
func WithThresholds(th Thresholds) Option {
	return func(cfg *monitorConfig) error {
		if err := th.Validate(); err != nil {
			return fmt.Errorf("invalid thresholds: %w", err)
		}
		cfg.thresholds = th
		return nil
	}
}

// WithLEDLadder replaces the LED blink cadence.
//
// Returns an error if the breakpoints are out of order or a pattern is empty.
func WithLEDLadder(l BlinkLadder) Option {
	return func(cfg *monitorConfig) error {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("invalid led ladder: %w", err)
		}
		cfg.ladder = l
		return nil
	}
}

// WithPort sets the HTTP port for the override panel.
//
// The panel and API will be available at http://localhost:<port>.
// Defaults to 8080 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *monitorConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithoutServer disables the HTTP override panel. Overrides remain available
// through [Monitor.SetActuator].
func WithoutServer() Option {
	return func(cfg *monitorConfig) error {
		cfg.serverDisabled = true
		return nil
	}
}

// WithTitle sets the title shown on the display and the panel.
//
// If not specified, defaults to "envmon".
func WithTitle(title string) Option {
	return func(cfg *monitorConfig) error {
		cfg.title = title
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Monitor instance.
//
// This allows SDK consumers to control where logs are written and in what
// format. If not specified, [slog.Default] is used.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
//	mon, err := envmon.New(
//	    envmon.WithSensor(sensor),
//	    envmon.WithLogger(logger),
//	)
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *monitorConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithTelemetrySinks adds sinks that receive every published snapshot. The
// monitor closes them on shutdown, or straight away if [New] fails.
func WithTelemetrySinks(sinks ...TelemetrySink) Option {
	return func(cfg *monitorConfig) error {
		var err error
		for i, s := range sinks {
			if s == nil {
				err = fmt.Errorf("telemetry sink %d is nil", i)
				continue
			}
			cfg.sinks = append(cfg.sinks, s)
		}
		return err
	}
}

// WithTelemetryTimeout bounds each sink publish. Defaults to 3 seconds.
func WithTelemetryTimeout(d time.Duration) Option {
	return func(cfg *monitorConfig) error {
		if d <= 0 {
			return errors.New("telemetry timeout must be positive")
		}
		cfg.publishTimeout = d
		return nil
	}
}

// WithSeverityCallback registers a function to be called on every severity
// change.
//
// Multiple callbacks may be registered by calling WithSeverityCallback
// multiple times; they execute in registration order on the sampler's
// goroutine, after the new snapshot is published and the outputs are
// signalled.
//
// IMPORTANT: Callbacks must be non-blocking. A slow callback delays the next
// sample. Panics within callbacks are recovered and logged.
//
// Example:
//
//	mon, err := envmon.New(
//	    envmon.WithSensor(sensor),
//	    envmon.WithSeverityCallback(func(c envmon.SeverityChange) {
//	        if c.To == envmon.Critical {
//	            log.Printf("ALERT: %.1f C, %.1f %%", c.Snapshot.Reading.Temperature, c.Snapshot.Reading.Humidity)
//	        }
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithSeverityCallback(cb func(SeverityChange)) Option {
	return func(cfg *monitorConfig) error {
		if cb == nil {
			return nil // no-op for nil callback (safe to call)
		}
		cfg.callbacks = append(cfg.callbacks, cb)
		return nil
	}
}
