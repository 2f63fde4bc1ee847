package consumer

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/jpalmerr/envmon/internal/climate"
	"github.com/jpalmerr/envmon/internal/output"
	"github.com/jpalmerr/envmon/internal/state"
)

// Display layout, in character cells.
const (
	DisplayWidth  = 16
	DisplayHeight = 4

	rowTitle       = 0
	rowTemperature = 1
	rowHumidity    = 2
	rowSeverity    = 3
)

// StatusDisplay draws the latest reading and its severity as text.
type StatusDisplay struct {
	display output.Display
	title   string
}

// NewStatusDisplay creates a [StatusDisplay]. The title is truncated to the
// display width, counted in characters.
func NewStatusDisplay(d output.Display, title string) *StatusDisplay {
	if utf8.RuneCountInString(title) > DisplayWidth {
		title = string([]rune(title)[:DisplayWidth])
	}
	return &StatusDisplay{display: d, title: title}
}

// Init initialises the display if it needs it.
func (s *StatusDisplay) Init() error {
	return initOutput(s.display)
}

// Render implements [Renderer].
func (s *StatusDisplay) Render(_ context.Context, snap state.Snapshot) {
	d := s.display
	d.Clear()
	d.DrawText(output.Point{X: 0, Y: rowTitle}, s.title)

	if snap.Published() {
		d.DrawText(output.Point{X: 0, Y: rowTemperature}, fmt.Sprintf("T %6.1f C", snap.Reading.Temperature))
		d.DrawText(output.Point{X: 0, Y: rowHumidity}, fmt.Sprintf("H %6.1f %%", snap.Reading.Humidity))
	} else {
		d.DrawText(output.Point{X: 0, Y: rowTemperature}, "T   --.- C")
		d.DrawText(output.Point{X: 0, Y: rowHumidity}, "H   --.- %")
	}

	row := output.Rect{X: 0, Y: rowSeverity, W: DisplayWidth, H: 1}
	switch snap.Severity {
	case climate.Normal:
		d.DrawText(output.Point{X: 0, Y: rowSeverity}, climate.Normal.Label())
	case climate.Warning:
		d.DrawRect(row, false)
		d.DrawText(output.Point{X: 1, Y: rowSeverity}, climate.Warning.Label())
	case climate.Critical:
		d.DrawRect(row, true)
		d.DrawText(output.Point{X: 1, Y: rowSeverity}, "!"+climate.Critical.Label()+"!")
	}

	d.Present()
}
