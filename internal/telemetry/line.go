package telemetry

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/jpalmerr/envmon/internal/climate"
	"github.com/jpalmerr/envmon/internal/state"
)

// LineSink writes each snapshot as a "DATA,<temp>,<hum>" line. The output
// can be replayed through the line sensor or fed to the dataset builder.
type LineSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLineSink creates a [LineSink] writing to w. If w is an io.Closer it is
// closed by Close.
func NewLineSink(w io.Writer) *LineSink {
	return &LineSink{w: w}
}

// Name implements [Sink].
func (s *LineSink) Name() string { return "line" }

// Publish implements [Sink].
func (s *LineSink) Publish(_ context.Context, snap state.Snapshot) error {
	line := climate.FormatLine(snap.Reading) + "\n"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := io.WriteString(s.w, line); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	return nil
}

// Close implements [Sink].
func (s *LineSink) Close() error {
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
