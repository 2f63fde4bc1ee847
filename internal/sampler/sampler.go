package sampler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/envmon/internal/climate"
	"github.com/jpalmerr/envmon/internal/signal"
	"github.com/jpalmerr/envmon/internal/state"
)

// Sensor acquires one reading. Any returned error, and any reading that fails
// [climate.Reading.Check], is treated as an acquisition fault.
type Sensor interface {
	Sample(ctx context.Context) (climate.Reading, error)
}

// Transition describes a change of the classified severity.
type Transition struct {
	From     climate.Severity
	To       climate.Severity
	Snapshot state.Snapshot
}

// Config controls a [Sampler].
type Config struct {
	// Period is the fixed sampling period.
	Period time.Duration

	// SampleTimeout bounds a single acquisition. Zero means Period.
	SampleTimeout time.Duration

	// Thresholds are the joint classifier breakpoints.
	Thresholds climate.Thresholds

	// OnReading edges are notified after every valid reading.
	OnReading []*signal.Channel

	// OnSeverity edges are notified on the first valid reading and then only
	// when the severity changes.
	OnSeverity []*signal.Channel

	// OnTransition callbacks run on the sampler goroutine after the severity
	// edges have been notified. They must not block.
	OnTransition []func(Transition)
}

// Stats counts sampler outcomes since start.
type Stats struct {
	Published uint64 `json:"published"`
	Faults    uint64 `json:"faults"`
}

// Sampler periodically acquires readings and drives the notification fan-out.
//
// The first sample is taken immediately on [Sampler.Start]; later samples
// follow a fixed-period ticker, so slow acquisitions show up as jitter
// rather than drift. All lifecycle methods are safe for concurrent use.
type Sampler struct {
	sensor Sensor
	cell   *state.Cell
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	// lastSeverity is written only by the sampling goroutine; the atomic lets
	// diagnostics read it from elsewhere.
	lastSeverity atomic.Int32
	announced    bool // first reading has reached the severity edges
	published    atomic.Uint64
	faults       atomic.Uint64

	mu       sync.Mutex
	started  bool
	stopped  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	done     chan struct{}
	doneOnce sync.Once
}

// NewSampler creates a [Sampler] that publishes into cell.
//
// The sampler must be started with [Sampler.Start] and stopped with
// [Sampler.Stop].
func NewSampler(sensor Sensor, cell *state.Cell, cfg Config, logger *slog.Logger) *Sampler {
	if cfg.SampleTimeout <= 0 {
		cfg.SampleTimeout = cfg.Period
	}
	s := &Sampler{
		sensor: sensor,
		cell:   cell,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		done:   make(chan struct{}),
	}
	s.lastSeverity.Store(int32(climate.Normal))
	return s
}

// Start begins the sampling loop in a background goroutine.
//
// Start is non-blocking and idempotent. If Stop was called before Start,
// Start is a no-op. If ctx is nil, context.Background() is used.
func (s *Sampler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.doneOnce.Do(func() { close(s.done) })

		s.logger.Info("sampler started", "period", s.cfg.Period.String())

		s.sampleOnce(loopCtx)

		ticker := time.NewTicker(s.cfg.Period)
		defer ticker.Stop()

		for {
			select {
			case <-loopCtx.Done():
				s.logger.Info("sampler stopped",
					"published", s.published.Load(),
					"faults", s.faults.Load(),
				)
				return
			case <-ticker.C:
				s.sampleOnce(loopCtx)
			}
		}
	}()
}

// Stop halts the sampling loop and waits for it to exit.
//
// Stop is idempotent and safe to call before Start.
func (s *Sampler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.doneOnce.Do(func() { close(s.done) })
}

// Done returns a channel that is closed once the sampling loop has exited.
func (s *Sampler) Done() <-chan struct{} {
	return s.done
}

// LastSeverity returns the severity of the last published reading, or Normal
// before the first one.
func (s *Sampler) LastSeverity() climate.Severity {
	return climate.Severity(s.lastSeverity.Load())
}

// Stats returns the publication and fault counters.
func (s *Sampler) Stats() Stats {
	return Stats{Published: s.published.Load(), Faults: s.faults.Load()}
}

// sampleOnce runs one acquisition cycle and reports whether a reading was
// published.
//
// ORDERING: the snapshot is stored before any edge is notified, so a woken
// consumer always loads a reading at least as new as the one that woke it.
func (s *Sampler) sampleOnce(ctx context.Context) bool {
	reading, err := s.acquire(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		s.faults.Add(1)
		s.logger.Warn("sample skipped", "error", err.Error())
		return false
	}

	sev := climate.ClassifyReading(reading, s.cfg.Thresholds)
	snap := s.cell.Publish(reading, sev, s.now())
	s.published.Add(1)

	for _, ch := range s.cfg.OnReading {
		ch.Notify()
	}

	s.logger.Debug("sample published",
		"seq", snap.Seq,
		"temperature", reading.Temperature,
		"humidity", reading.Humidity,
		"severity", sev.String(),
	)

	prev := climate.Severity(s.lastSeverity.Load())
	first := !s.announced
	s.announced = true
	if sev == prev {
		// severity-only consumers still need the first reading to replace
		// their startup placeholder
		if first {
			s.notifySeverity()
		}
		return true
	}
	s.lastSeverity.Store(int32(sev))
	s.notifySeverity()

	s.logger.Info("severity changed",
		"from", prev.String(),
		"to", sev.String(),
		"temperature", reading.Temperature,
		"humidity", reading.Humidity,
	)

	tr := Transition{From: prev, To: sev, Snapshot: snap}
	for _, cb := range s.cfg.OnTransition {
		s.invokeCallbackSafe(cb, tr)
	}
	return true
}

func (s *Sampler) notifySeverity() {
	for _, ch := range s.cfg.OnSeverity {
		ch.Notify()
	}
}

// acquire samples the sensor under the per-sample timeout and validates the
// result.
func (s *Sampler) acquire(ctx context.Context) (climate.Reading, error) {
	sampleCtx, cancel := context.WithTimeout(ctx, s.cfg.SampleTimeout)
	defer cancel()

	reading, err := s.sensor.Sample(sampleCtx)
	if err != nil {
		return climate.Reading{}, fmt.Errorf("sensor: %w", err)
	}
	if err := reading.Check(); err != nil {
		return climate.Reading{}, err
	}
	return reading, nil
}

// invokeCallbackSafe calls a transition callback with panic recovery.
// Panics are logged with a correlation ID but do not stop the sampler.
func (s *Sampler) invokeCallbackSafe(cb func(Transition), tr Transition) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("transition callback panicked",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	cb(tr)
}
