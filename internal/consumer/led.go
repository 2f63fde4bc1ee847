package consumer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jpalmerr/envmon/internal/output"
	"github.com/jpalmerr/envmon/internal/state"
)

// Pattern is a blink sequence: Pulses repetitions of On lit then Off dark.
type Pattern struct {
	Name   string
	Pulses int
	On     time.Duration
	Off    time.Duration
}

// Duration is the total time the pattern takes to play.
func (p Pattern) Duration() time.Duration {
	return time.Duration(p.Pulses) * (p.On + p.Off)
}

// Default LED breakpoints. These are deliberately not the joint classifier's
// breakpoints; the LED follows temperature alone.
const (
	DefaultLEDWarmAt = 26.0
	DefaultLEDHotAt  = 31.0
)

// BlinkLadder selects a [Pattern] from temperature alone.
type BlinkLadder struct {
	// WarmAt is the temperature from which the Warm pattern plays.
	WarmAt float64

	// HotAt is the temperature from which the Hot pattern plays.
	HotAt float64

	Calm Pattern
	Warm Pattern
	Hot  Pattern
}

// DefaultBlinkLadder returns the built-in cadence: one slow pulse when calm,
// two medium pulses when warm, five fast pulses when hot.
func DefaultBlinkLadder() BlinkLadder {
	return BlinkLadder{
		WarmAt: DefaultLEDWarmAt,
		HotAt:  DefaultLEDHotAt,
		Calm:   Pattern{Name: "calm", Pulses: 1, On: 500 * time.Millisecond, Off: 500 * time.Millisecond},
		Warm:   Pattern{Name: "warm", Pulses: 2, On: 250 * time.Millisecond, Off: 250 * time.Millisecond},
		Hot:    Pattern{Name: "hot", Pulses: 5, On: 100 * time.Millisecond, Off: 100 * time.Millisecond},
	}
}

// PatternFor returns the pattern for a temperature.
func (l BlinkLadder) PatternFor(temperature float64) Pattern {
	switch {
	case temperature < l.WarmAt:
		return l.Calm
	case temperature < l.HotAt:
		return l.Warm
	default:
		return l.Hot
	}
}

// BlinkFor is [BlinkLadder.PatternFor] as a plain function.
func BlinkFor(temperature float64, l BlinkLadder) Pattern {
	return l.PatternFor(temperature)
}

// Validate checks breakpoint order and pattern shapes.
func (l BlinkLadder) Validate() error {
	if l.WarmAt >= l.HotAt {
		return fmt.Errorf("warm_at %.1f must be below hot_at %.1f", l.WarmAt, l.HotAt)
	}
	for _, p := range []Pattern{l.Calm, l.Warm, l.Hot} {
		if p.Pulses < 1 {
			return fmt.Errorf("pattern %q: pulses must be at least 1", p.Name)
		}
		if p.On <= 0 || p.Off < 0 {
			return fmt.Errorf("pattern %q: on must be positive and off non-negative", p.Name)
		}
	}
	return nil
}

// LEDModulator blinks an LED in the pattern chosen by [BlinkLadder] for the
// snapshot's temperature, then leaves it dark.
//
// A pattern always plays to completion (unless the monitor is shutting
// down); notifications that arrive meanwhile are held by the task's channel
// and picked up on the next wait.
type LEDModulator struct {
	led    output.LED
	ladder BlinkLadder
	sleep  func(ctx context.Context, d time.Duration) bool
}

// NewLEDModulator creates an [LEDModulator].
func NewLEDModulator(led output.LED, ladder BlinkLadder) *LEDModulator {
	return &LEDModulator{led: led, ladder: ladder, sleep: sleepCtx}
}

// Init initialises the LED if it needs it, and starts it dark.
func (m *LEDModulator) Init() error {
	if err := initOutput(m.led); err != nil {
		return err
	}
	m.led.SetLit(false)
	return nil
}

// Render implements [Renderer].
func (m *LEDModulator) Render(ctx context.Context, snap state.Snapshot) {
	if !snap.Published() {
		return
	}

	p := m.ladder.PatternFor(snap.Reading.Temperature)
	defer m.led.SetLit(false)

	for i := 0; i < p.Pulses; i++ {
		m.led.SetLit(true)
		if !m.sleep(ctx, p.On) {
			return
		}
		m.led.SetLit(false)
		if !m.sleep(ctx, p.Off) {
			return
		}
	}
}

// sleepCtx waits for d and reports whether it completed before ctx ended.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// initOutput runs Init on outputs that implement [output.Initializer].
func initOutput(out any) error {
	if out == nil {
		return errors.New("output is nil")
	}
	if in, ok := out.(output.Initializer); ok {
		return in.Init()
	}
	return nil
}
