package envmon

import (
	"context"

	"github.com/jpalmerr/envmon/internal/climate"
	"github.com/jpalmerr/envmon/internal/consumer"
	"github.com/jpalmerr/envmon/internal/output"
	"github.com/jpalmerr/envmon/internal/override"
	"github.com/jpalmerr/envmon/internal/sampler"
	"github.com/jpalmerr/envmon/internal/state"
	"github.com/jpalmerr/envmon/internal/telemetry"
)

// Reading is one temperature/humidity measurement.
type Reading = climate.Reading

// Severity is the classification of a reading: Normal < Warning < Critical.
type Severity = climate.Severity

// Severity levels.
const (
	Normal   = climate.Normal
	Warning  = climate.Warning
	Critical = climate.Critical
)

// Thresholds are the classifier's breakpoints.
type Thresholds = climate.Thresholds

// Limit is one temperature/humidity breakpoint pair.
type Limit = climate.Limit

// DefaultThresholds returns the built-in classifier breakpoints.
func DefaultThresholds() Thresholds {
	return climate.DefaultThresholds()
}

// Snapshot is the published view of the latest valid sample.
type Snapshot = state.Snapshot

// SeverityChange describes a severity transition.
type SeverityChange = sampler.Transition

// SamplerStats counts published samples and skipped faults.
type SamplerStats = sampler.Stats

// BlinkLadder maps temperature to LED blink patterns.
type BlinkLadder = consumer.BlinkLadder

// Pattern is one LED blink sequence.
type Pattern = consumer.Pattern

// DefaultBlinkLadder returns the built-in LED cadence.
func DefaultBlinkLadder() BlinkLadder {
	return consumer.DefaultBlinkLadder()
}

// ActuatorState is the requested state of one actuator.
type ActuatorState = override.ActuatorState

// Color, Segment, Point and Rect are the drawing primitives outputs receive.
type (
	Color   = output.Color
	Segment = output.Segment
	Point   = output.Point
	Rect    = output.Rect
)

// Sensor produces readings. Sample may block up to the sampling timeout; a
// returned error or an invalid reading skips that cycle.
type Sensor interface {
	Sample(ctx context.Context) (Reading, error)
}

// LED is a single status light.
type LED interface {
	SetLit(on bool)
}

// LevelStrip is an addressable light strip used as a level bar.
type LevelStrip interface {
	Clear()
	SetSegments(segs []Segment)
	Present()
}

// Display is a small character display.
type Display interface {
	Clear()
	DrawText(at Point, text string)
	DrawRect(r Rect, filled bool)
	Present()
}

// Actuators switches named outputs such as relays.
type Actuators interface {
	SetActuator(name string, on bool)
}

// TelemetrySink receives every published snapshot.
type TelemetrySink = telemetry.Sink

// ErrUnknownActuator is returned by [Monitor.SetActuator] for names the
// monitor was not configured with.
var ErrUnknownActuator = override.ErrUnknownActuator
