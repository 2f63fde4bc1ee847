// Package envmon provides an embeddable single-board environmental monitor.
//
// One sampler reads temperature and humidity on a fixed period, classifies
// each reading into a [Severity], publishes it as an immutable [Snapshot],
// and wakes every output through its own coalescing signal. Outputs render
// the same measurement in their own way: a blinking status LED, a humidity
// level bar, a text status display, telemetry sinks and a network override
// panel for manual actuator control.
//
// # Quick Start
//
// Supply a sensor and whichever outputs the board has, then block on Start
// until shutdown:
//
//	mon, err := envmon.New(
//	    envmon.WithSensor(sensor),
//	    envmon.WithLED(led),
//	    envmon.WithLevelStrip(strip, 10),
//	    envmon.WithDisplay(display),
//	)
//	if err != nil {
//	    slog.Error("failed to create monitor", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	mon.Start(ctx) // blocks until context is cancelled
//
// # Wake-ups
//
// The LED, level bar, telemetry and live panel feed are woken on every new
// reading. The status display is woken by the first reading and after that
// only when the severity changes. A
// signal raised twice before its consumer wakes is delivered once, and the
// consumer always loads the newest snapshot, so slow outputs skip stale
// readings rather than queueing them.
//
// # Faults
//
// A failed or invalid acquisition skips the cycle: nothing is published and
// no output is woken. Any output may implement Init() error; it is called
// once before that output's task starts, and if it fails the output stays
// inert while the rest of the monitor carries on.
//
// # Architecture
//
// envmon consists of several internal packages (under internal/):
//
//   - internal/signal: coalescing wake-up channel
//   - internal/climate: readings, severities and the classifier
//   - internal/state: the published snapshot cell
//   - internal/sampler: the periodic producer
//   - internal/consumer: LED, level-bar and display renderers plus the task loop
//   - internal/override: actuator override state
//   - internal/server: HTTP panel, JSON API and Server-Sent Events
//   - internal/feed: live event hub behind the panel
//   - internal/telemetry: line, MQTT, Redis and Kafka sinks
//   - internal/sensor: simulated, serial-line and HTTP sources
//   - internal/term: terminal renditions of the board's outputs
//   - internal/dataset: CSV training-set builder for recorded logs
//
// The internal packages are not part of the public API and may change
// without notice.
package envmon
