package consumer

import (
	"context"
	"math"

	"github.com/jpalmerr/envmon/internal/output"
	"github.com/jpalmerr/envmon/internal/state"
)

// DefaultSegments is the default strip length.
const DefaultSegments = 10

// Tier is the colour band of a strip segment.
type Tier int

const (
	TierSafe Tier = iota
	TierCaution
	TierDanger
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierSafe:
		return "safe"
	case TierCaution:
		return "caution"
	case TierDanger:
		return "danger"
	default:
		return "unknown"
	}
}

// Palette maps tiers to colours.
type Palette struct {
	Safe    output.Color
	Caution output.Color
	Danger  output.Color
}

// DefaultPalette is green, amber, red.
func DefaultPalette() Palette {
	return Palette{
		Safe:    output.Color{R: 0, G: 180, B: 60},
		Caution: output.Color{R: 255, G: 150, B: 0},
		Danger:  output.Color{R: 220, G: 0, B: 0},
	}
}

// Color returns the palette colour for a tier.
func (p Palette) Color(t Tier) output.Color {
	switch t {
	case TierSafe:
		return p.Safe
	case TierCaution:
		return p.Caution
	case TierDanger:
		return p.Danger
	default:
		return output.Color{}
	}
}

// LitSegments returns how many of n segments represent humidity percent,
// rounding half up and clamping to [0, n].
func LitSegments(humidity float64, n int) int {
	if n <= 0 || math.IsNaN(humidity) {
		return 0
	}
	lit := int(math.Floor(humidity/100*float64(n) + 0.5))
	switch {
	case lit < 0:
		return 0
	case lit > n:
		return n
	default:
		return lit
	}
}

// TierFor returns the tier of segment i on an n-segment strip: the lowest
// 30% of positions are safe, up to 70% caution, the rest danger.
func TierFor(i, n int) Tier {
	switch {
	case i*10 < n*3:
		return TierSafe
	case i*10 < n*7:
		return TierCaution
	default:
		return TierDanger
	}
}

// BarSegments returns the lit segments for a humidity, in index order.
func BarSegments(humidity float64, n int, p Palette) []output.Segment {
	lit := LitSegments(humidity, n)
	segs := make([]output.Segment, lit)
	for i := 0; i < lit; i++ {
		segs[i] = output.Segment{Index: i, Color: p.Color(TierFor(i, n))}
	}
	return segs
}

// LevelBar renders humidity as a bar on a light strip.
type LevelBar struct {
	strip    output.LevelStrip
	segments int
	palette  Palette
}

// NewLevelBar creates a [LevelBar] for a strip with the given number of
// segments.
func NewLevelBar(strip output.LevelStrip, segments int, p Palette) *LevelBar {
	return &LevelBar{strip: strip, segments: segments, palette: p}
}

// Init initialises the strip if it needs it, and blanks it.
func (b *LevelBar) Init() error {
	if err := initOutput(b.strip); err != nil {
		return err
	}
	b.strip.Clear()
	b.strip.Present()
	return nil
}

// Render implements [Renderer].
func (b *LevelBar) Render(_ context.Context, snap state.Snapshot) {
	if !snap.Published() {
		return
	}
	b.strip.Clear()
	b.strip.SetSegments(BarSegments(snap.Reading.Humidity, b.segments, b.palette))
	b.strip.Present()
}
