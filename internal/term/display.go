package term

import (
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/jpalmerr/envmon/internal/output"
)

var (
	displayFrame = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62"))
	invertedCell = lipgloss.NewStyle().Reverse(true).Bold(true)
	outlinedCell = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("220"))
)

type cellStyle uint8

const (
	cellPlain cellStyle = iota
	cellOutlined
	cellInverted
)

// Display is a fixed-size character display drawn into a rounded box.
type Display struct {
	w      io.Writer
	width  int
	height int

	mu     sync.Mutex
	cells  [][]rune
	styles [][]cellStyle
	last   []string
}

// NewDisplay creates a width x height [Display] that writes frames to w.
func NewDisplay(w io.Writer, width, height int) *Display {
	d := &Display{w: w, width: width, height: height}
	d.cells = make([][]rune, height)
	d.styles = make([][]cellStyle, height)
	for y := range d.cells {
		d.cells[y] = make([]rune, width)
		d.styles[y] = make([]cellStyle, width)
	}
	d.clear()
	return d
}

// Init checks that the display has somewhere to draw.
func (d *Display) Init() error {
	if d.w == nil {
		return errors.New("display writer is nil")
	}
	if d.width <= 0 || d.height <= 0 {
		return errors.New("display size must be positive")
	}
	return nil
}

// Clear blanks the back buffer.
func (d *Display) Clear() {
	d.mu.Lock()
	d.clear()
	d.mu.Unlock()
}

func (d *Display) clear() {
	for y := range d.cells {
		for x := range d.cells[y] {
			d.cells[y][x] = ' '
			d.styles[y][x] = cellPlain
		}
	}
}

// DrawText writes text starting at a cell, clipped to the display.
func (d *Display) DrawText(at output.Point, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if at.Y < 0 || at.Y >= d.height {
		return
	}
	x := at.X
	for _, r := range text {
		if x >= d.width {
			break
		}
		if x >= 0 {
			d.cells[at.Y][x] = r
		}
		x++
	}
}

// DrawRect marks a rectangle. Filled rectangles invert their cells; outlines
// are underlined.
func (d *Display) DrawRect(r output.Rect, filled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	style := cellOutlined
	if filled {
		style = cellInverted
	}
	for y := max(r.Y, 0); y < min(r.Y+r.H, d.height); y++ {
		for x := max(r.X, 0); x < min(r.X+r.W, d.width); x++ {
			d.styles[y][x] = style
		}
	}
}

// Present writes the back buffer to the terminal.
func (d *Display) Present() {
	d.mu.Lock()
	lines := make([]string, d.height)
	plain := make([]string, d.height)
	for y := range d.cells {
		lines[y] = d.renderRow(y)
		plain[y] = string(d.cells[y])
	}
	d.last = plain
	d.mu.Unlock()

	_, _ = io.WriteString(d.w, displayFrame.Render(strings.Join(lines, "\n"))+"\n")
}

// renderRow styles runs of equally-styled cells.
func (d *Display) renderRow(y int) string {
	var sb strings.Builder
	start := 0
	for x := 1; x <= d.width; x++ {
		if x < d.width && d.styles[y][x] == d.styles[y][start] {
			continue
		}
		run := string(d.cells[y][start:x])
		switch d.styles[y][start] {
		case cellInverted:
			sb.WriteString(invertedCell.Render(run))
		case cellOutlined:
			sb.WriteString(outlinedCell.Render(run))
		default:
			sb.WriteString(run)
		}
		start = x
	}
	return sb.String()
}

// Frame returns the plain text of the last presented frame.
func (d *Display) Frame() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.last...)
}

// Inverted reports whether the cell at p was drawn inverted in the back
// buffer.
func (d *Display) Inverted(p output.Point) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p.Y < 0 || p.Y >= d.height || p.X < 0 || p.X >= d.width {
		return false
	}
	return d.styles[p.Y][p.X] == cellInverted
}
