package envmon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jpalmerr/envmon/dashboard"
	"github.com/jpalmerr/envmon/internal/consumer"
	"github.com/jpalmerr/envmon/internal/feed"
	"github.com/jpalmerr/envmon/internal/override"
	"github.com/jpalmerr/envmon/internal/sampler"
	"github.com/jpalmerr/envmon/internal/server"
	"github.com/jpalmerr/envmon/internal/signal"
	"github.com/jpalmerr/envmon/internal/state"
	"github.com/jpalmerr/envmon/internal/telemetry"
	"github.com/jpalmerr/envmon/internal/term"
)

const (
	defaultSamplePeriod = 2 * time.Second
	defaultPort         = 8080
	defaultTitle        = "envmon"
)

// Monitor is the main orchestrator for sampling and output fan-out.
//
// Monitor owns the snapshot cell, one coalescing signal per output, the
// sampler, one consumer task per output, the override panel and the HTTP
// server. It is created using [New] with functional options and started
// with [Monitor.Start].
//
// The typical lifecycle is:
//
//	mon, err := envmon.New(envmon.WithSensor(sensor), envmon.WithLED(led))
//	if err != nil {
//	    slog.Error("failed to create monitor", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	mon.Start(ctx) // blocks until context cancelled
//
// The caller controls the lifecycle via the context. Cancel the context to
// trigger graceful shutdown.
type Monitor struct {
	title        string
	samplePeriod time.Duration
	thresholds   Thresholds
	port         int
	logger       *slog.Logger

	cell      *state.Cell
	sampler   *sampler.Sampler
	panel     *override.Panel
	hub       *feed.Hub
	publisher *telemetry.Publisher
	server    *server.Server
	tasks     []*consumer.Task

	started atomic.Bool
}

// New creates a new [Monitor] instance with the given options.
//
// A sensor must be configured via [WithSensor]. Other options have sensible
// defaults:
//   - Sample period: 2 seconds
//   - Thresholds: warning at 30 °C / 70 %, critical at 35 °C / 85 %
//   - Port: 8080
//   - Actuators: "relay1" and "relay2", logged only
//
// Returns an error if no sensor is configured or if any option is invalid.
// Telemetry sinks passed in are owned by the monitor from this call on: they
// are closed if New fails, otherwise when Start returns.
func New(opts ...Option) (_ *Monitor, err error) {
	cfg := &monitorConfig{
		title:        defaultTitle,
		samplePeriod: defaultSamplePeriod,
		thresholds:   DefaultThresholds(),
		ladder:       DefaultBlinkLadder(),
		port:         defaultPort,
	}
	defer func() {
		if err != nil {
			for _, s := range cfg.sinks {
				_ = s.Close()
			}
		}
	}()

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.sensor == nil {
		return nil, errors.New("a sensor is required")
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	actuators := cfg.actuators
	if actuators == nil {
		actuators = term.NewActuators(logger)
	}
	names := cfg.actuatorNames
	if len(names) == 0 {
		names = override.DefaultActuators
	}
	panel, err := override.NewPanel(actuators, names, logger)
	if err != nil {
		return nil, fmt.Errorf("invalid actuators: %w", err)
	}

	m := &Monitor{
		title:        cfg.title,
		samplePeriod: cfg.samplePeriod,
		thresholds:   cfg.thresholds,
		port:         cfg.port,
		logger:       logger,
		cell:         state.NewCell(),
		panel:        panel,
	}

	var onReading, onSeverity []*signal.Channel
	addTask := func(name string, r consumer.Renderer, severityOnly, renderOnStart bool) {
		sig := signal.New()
		if severityOnly {
			onSeverity = append(onSeverity, sig)
		} else {
			onReading = append(onReading, sig)
		}
		m.tasks = append(m.tasks, &consumer.Task{
			Name:          name,
			Signal:        sig,
			State:         m.cell.Reader(),
			Renderer:      r,
			RenderOnStart: renderOnStart,
			Logger:        logger,
		})
	}

	if cfg.led != nil {
		addTask("led", consumer.NewLEDModulator(cfg.led, cfg.ladder), false, false)
	}
	if cfg.strip != nil {
		addTask("level_bar", consumer.NewLevelBar(cfg.strip, cfg.segments, consumer.DefaultPalette()), false, false)
	}
	if cfg.display != nil {
		addTask("display", consumer.NewStatusDisplay(cfg.display, cfg.title), true, true)
	}
	if len(cfg.sinks) > 0 {
		m.publisher = telemetry.NewPublisher(cfg.sinks, cfg.publishTimeout, logger)
		addTask("telemetry", m.publisher, false, false)
	}
	if !cfg.serverDisabled {
		m.hub = feed.NewHub()
		addTask("panel_feed", m.hub, false, false)
		panel.OnChange(m.hub.PublishActuator)
	}

	m.sampler = sampler.NewSampler(cfg.sensor, m.cell, sampler.Config{
		Period:        cfg.samplePeriod,
		SampleTimeout: cfg.sampleTimeout,
		Thresholds:    cfg.thresholds,
		OnReading:     onReading,
		OnSeverity:    onSeverity,
		OnTransition:  cfg.callbacks,
	}, logger)

	if !cfg.serverDisabled {
		m.server, err = server.NewServer(server.Config{
			Port:         cfg.port,
			Title:        cfg.title,
			Assets:       dashboard.Assets,
			TemplatePath: dashboard.PanelTemplate,
			State:        m.cell.Reader(),
			Panel:        panel,
			Hub:          m.hub,
			Stats:        m.sampler.Stats,
		}, logger)
		if err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Start runs the monitor until ctx is cancelled.
//
// Start is a blocking call. During execution:
//
//   - Every output task initialises its output and waits for its signal
//   - The override panel starts on the configured port (unless disabled)
//   - The sensor is sampled immediately, then every sample period
//
// On cancellation the sampler is stopped first, then every output task is
// woken and joined, then telemetry sinks are closed.
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server
// fails to start or if Start is called twice.
func (m *Monitor) Start(ctx context.Context) error {
	if !m.started.CompareAndSwap(false, true) {
		return errors.New("monitor already started")
	}

	m.logger.Info("envmon starting",
		"outputs", len(m.tasks),
		"sample_period", m.samplePeriod.String(),
	)

	// check if context already cancelled
	if ctx.Err() != nil {
		m.closeSinks()
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, t := range m.tasks {
		wg.Add(1)
		go func(t *consumer.Task) {
			defer wg.Done()
			// init failures are logged by the task; the output stays inert
			_ = t.Run(runCtx)
		}(t)
	}

	// cleanup stops production first so no task is woken mid-shutdown
	cleanup := func() {
		m.sampler.Stop()
		cancel()
		wg.Wait()
		m.closeSinks()
	}

	if m.server != nil {
		if err := m.server.Start(runCtx); err != nil {
			cleanup()
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		m.logger.Info("override panel available", "url", fmt.Sprintf("http://localhost:%d", m.port))
	}

	m.sampler.Start(runCtx)

	<-ctx.Done()
	cleanup()
	m.logger.Info("envmon stopped")
	return nil
}

func (m *Monitor) closeSinks() {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.Close(); err != nil {
		m.logger.Warn("telemetry sinks closed with errors", "error", err.Error())
	}
}

// Snapshot returns the latest published snapshot. Before the first valid
// sample it returns a zero Snapshot with Severity Normal.
func (m *Monitor) Snapshot() Snapshot {
	return m.cell.Load()
}

// Severity returns the severity of the latest published reading.
func (m *Monitor) Severity() Severity {
	return m.sampler.LastSeverity()
}

// Stats returns the sampler's publication and fault counters.
func (m *Monitor) Stats() SamplerStats {
	return m.sampler.Stats()
}

// SetActuator applies an override as the panel would.
func (m *Monitor) SetActuator(name string, on bool) error {
	return m.panel.Set(name, on)
}

// Actuators returns every actuator's requested state, sorted by name.
func (m *Monitor) Actuators() []ActuatorState {
	return m.panel.States()
}

// Port returns the configured HTTP port for the override panel.
func (m *Monitor) Port() int {
	return m.port
}

// SamplePeriod returns the configured interval between samples.
func (m *Monitor) SamplePeriod() time.Duration {
	return m.samplePeriod
}

// Thresholds returns the classifier breakpoints in use.
func (m *Monitor) Thresholds() Thresholds {
	return m.thresholds
}

// Title returns the configured title.
func (m *Monitor) Title() string {
	return m.title
}
