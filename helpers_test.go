package envmon

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jpalmerr/envmon/internal/climate"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedSensor plays readings in order and then repeats the last one.
type scriptedSensor struct {
	mu       sync.Mutex
	readings []Reading
	errs     []error
	calls    int
}

func newScriptedSensor(readings ...Reading) *scriptedSensor {
	return &scriptedSensor{readings: readings}
}

func (s *scriptedSensor) Sample(ctx context.Context) (Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return Reading{}, s.errs[i]
	}
	if len(s.readings) == 0 {
		return Reading{}, errors.New("no readings scripted")
	}
	if i >= len(s.readings) {
		i = len(s.readings) - 1
	}
	return s.readings[i], nil
}

func (s *scriptedSensor) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// gatedSensor blocks every sample until release is closed, then returns r
// after delay.
type gatedSensor struct {
	release chan struct{}
	delay   time.Duration
	r       Reading
}

func (s *gatedSensor) Sample(ctx context.Context) (Reading, error) {
	select {
	case <-s.release:
	case <-ctx.Done():
		return Reading{}, ctx.Err()
	}
	select {
	case <-time.After(s.delay):
		return s.r, nil
	case <-ctx.Done():
		return Reading{}, ctx.Err()
	}
}

func reading(t, h float64) Reading {
	return climate.NewReading(t, h)
}

type fakeLED struct {
	mu    sync.Mutex
	lit   bool
	flips int
}

func (l *fakeLED) SetLit(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if on != l.lit {
		l.flips++
	}
	l.lit = on
}

func (l *fakeLED) Flips() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.flips
}

type fakeStrip struct {
	mu        sync.Mutex
	pending   []Segment
	presented []Segment
	presents  int
}

func (s *fakeStrip) Clear() {
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
}

func (s *fakeStrip) SetSegments(segs []Segment) {
	s.mu.Lock()
	s.pending = append([]Segment(nil), segs...)
	s.mu.Unlock()
}

func (s *fakeStrip) Present() {
	s.mu.Lock()
	s.presented = s.pending
	s.presents++
	s.mu.Unlock()
}

func (s *fakeStrip) Lit() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.presented)
}

type fakeDisplay struct {
	mu      sync.Mutex
	texts   []string
	filled  bool
	frame   []string
	initErr error
}

func (d *fakeDisplay) Init() error { return d.initErr }

func (d *fakeDisplay) Clear() {
	d.mu.Lock()
	d.texts = nil
	d.filled = false
	d.mu.Unlock()
}

func (d *fakeDisplay) DrawText(_ Point, text string) {
	d.mu.Lock()
	d.texts = append(d.texts, text)
	d.mu.Unlock()
}

func (d *fakeDisplay) DrawRect(_ Rect, filled bool) {
	d.mu.Lock()
	d.filled = d.filled || filled
	d.mu.Unlock()
}

func (d *fakeDisplay) Present() {
	d.mu.Lock()
	d.frame = append([]string(nil), d.texts...)
	d.mu.Unlock()
}

func (d *fakeDisplay) Frame() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.frame...)
}

func (d *fakeDisplay) Filled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filled
}

type fakeActuators struct {
	mu      sync.Mutex
	applied map[string]bool
}

func newFakeActuators() *fakeActuators {
	return &fakeActuators{applied: map[string]bool{}}
}

func (a *fakeActuators) SetActuator(name string, on bool) {
	a.mu.Lock()
	a.applied[name] = on
	a.mu.Unlock()
}

func (a *fakeActuators) Get(name string) (bool, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	on, ok := a.applied[name]
	return on, ok
}

type fakeSink struct {
	mu     sync.Mutex
	seqs   []uint64
	closed bool
}

func (s *fakeSink) Name() string { return "fake" }

func (s *fakeSink) Publish(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	s.seqs = append(s.seqs, snap.Seq)
	s.mu.Unlock()
	return nil
}

func (s *fakeSink) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *fakeSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seqs)
}

func (s *fakeSink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
