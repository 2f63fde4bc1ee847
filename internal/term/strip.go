package term

import (
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/jpalmerr/envmon/internal/output"
)

const (
	litBlock   = "█"
	unlitBlock = "·"
)

var unlitStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("236"))

// Strip is a light strip drawn as one row of coloured blocks.
type Strip struct {
	w     io.Writer
	label string

	mu        sync.Mutex
	pending   []*output.Color
	presented []*output.Color
}

// NewStrip creates an n-segment [Strip] that writes to w, prefixing each row
// with label.
func NewStrip(w io.Writer, n int, label string) *Strip {
	return &Strip{
		w:         w,
		label:     label,
		pending:   make([]*output.Color, n),
		presented: make([]*output.Color, n),
	}
}

// Clear turns every segment off in the back buffer.
func (s *Strip) Clear() {
	s.mu.Lock()
	for i := range s.pending {
		s.pending[i] = nil
	}
	s.mu.Unlock()
}

// SetSegments lights segments; indices outside the strip are ignored.
func (s *Strip) SetSegments(segs []output.Segment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, seg := range segs {
		if seg.Index < 0 || seg.Index >= len(s.pending) {
			continue
		}
		c := seg.Color
		s.pending[seg.Index] = &c
	}
}

// Present writes the back buffer.
func (s *Strip) Present() {
	s.mu.Lock()
	copy(s.presented, s.pending)

	var sb strings.Builder
	sb.WriteString(s.label)
	for _, c := range s.presented {
		if c == nil {
			sb.WriteString(unlitStyle.Render(unlitBlock))
			continue
		}
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Render(litBlock))
	}
	s.mu.Unlock()

	sb.WriteString("\n")
	_, _ = io.WriteString(s.w, sb.String())
}

// Lit returns the colours of the presented frame; unlit segments are absent
// from the map.
func (s *Strip) Lit() map[int]output.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	lit := make(map[int]output.Color)
	for i, c := range s.presented {
		if c != nil {
			lit[i] = *c
		}
	}
	return lit
}
