package consumer

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jpalmerr/envmon/internal/output"
	"github.com/jpalmerr/envmon/internal/state"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeLED records every SetLit call.
type fakeLED struct {
	mu      sync.Mutex
	calls   []bool
	initErr error
}

func (l *fakeLED) Init() error { return l.initErr }

func (l *fakeLED) SetLit(on bool) {
	l.mu.Lock()
	l.calls = append(l.calls, on)
	l.mu.Unlock()
}

func (l *fakeLED) history() []bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]bool(nil), l.calls...)
}

// fakeStrip keeps the presented frame.
type fakeStrip struct {
	mu        sync.Mutex
	pending   []output.Segment
	presented []output.Segment
	presents  int
}

func (s *fakeStrip) Clear() {
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
}

func (s *fakeStrip) SetSegments(segs []output.Segment) {
	s.mu.Lock()
	s.pending = append(s.pending, segs...)
	s.mu.Unlock()
}

func (s *fakeStrip) Present() {
	s.mu.Lock()
	s.presented = append([]output.Segment(nil), s.pending...)
	s.presents++
	s.mu.Unlock()
}

func (s *fakeStrip) frame() ([]output.Segment, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]output.Segment(nil), s.presented...), s.presents
}

// fakeDisplay records draw operations for the current frame.
type fakeDisplay struct {
	mu       sync.Mutex
	texts    map[output.Point]string
	rects    []drawnRect
	presents int
}

type drawnRect struct {
	rect   output.Rect
	filled bool
}

func (d *fakeDisplay) Clear() {
	d.mu.Lock()
	d.texts = map[output.Point]string{}
	d.rects = nil
	d.mu.Unlock()
}

func (d *fakeDisplay) DrawText(at output.Point, text string) {
	d.mu.Lock()
	d.texts[at] = text
	d.mu.Unlock()
}

func (d *fakeDisplay) DrawRect(r output.Rect, filled bool) {
	d.mu.Lock()
	d.rects = append(d.rects, drawnRect{r, filled})
	d.mu.Unlock()
}

func (d *fakeDisplay) Present() {
	d.mu.Lock()
	d.presents++
	d.mu.Unlock()
}

// recordingRenderer records the sequence numbers it was asked to render.
type recordingRenderer struct {
	mu    sync.Mutex
	seqs  []uint64
	delay time.Duration
	panic bool
}

func (r *recordingRenderer) Render(ctx context.Context, snap state.Snapshot) {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.mu.Lock()
	r.seqs = append(r.seqs, snap.Seq)
	shouldPanic := r.panic
	r.mu.Unlock()
	if shouldPanic {
		panic("render failure")
	}
}

func (r *recordingRenderer) rendered() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint64(nil), r.seqs...)
}
