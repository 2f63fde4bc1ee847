package sensor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/jpalmerr/envmon/internal/climate"
)

// ErrNoData is returned once a line source has reached the end of its input.
// A stream that ended on a read error returns that error first.
var ErrNoData = errors.New("no more sensor data")

type lineResult struct {
	reading climate.Reading
	err     error
}

// Line reads one "DATA,<temp>,<hum>" line per sample from a stream. Other
// lines (boot messages, debug prints) are skipped.
type Line struct {
	r         io.Reader
	lines     chan lineResult
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

// NewLine creates a [Line] source over r. If r is an io.Closer it is closed
// by [Line.Close].
func NewLine(r io.Reader) *Line {
	return &Line{
		r:     r,
		lines: make(chan lineResult),
		done:  make(chan struct{}),
	}
}

// OpenLine opens a file or character device (such as /dev/ttyUSB0) as a
// [Line] source.
func OpenLine(path string) (*Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sensor stream: %w", err)
	}
	return NewLine(f), nil
}

// Sample returns the next data line. Malformed data lines are returned as
// errors so the sampler counts them as faults.
func (l *Line) Sample(ctx context.Context) (climate.Reading, error) {
	l.startOnce.Do(func() { go l.scan() })

	select {
	case res, ok := <-l.lines:
		if !ok {
			return climate.Reading{}, ErrNoData
		}
		return res.reading, res.err
	case <-ctx.Done():
		return climate.Reading{}, ctx.Err()
	}
}

// Close stops the scanner and closes the underlying stream.
func (l *Line) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		if c, ok := l.r.(io.Closer); ok {
			err = c.Close()
		}
	})
	return err
}

func (l *Line) scan() {
	defer close(l.lines)

	sc := bufio.NewScanner(l.r)
	for sc.Scan() {
		reading, err := climate.ParseLine(sc.Text())
		if errors.Is(err, climate.ErrNotDataLine) {
			continue
		}
		select {
		case l.lines <- lineResult{reading: reading, err: err}:
		case <-l.done:
			return
		}
	}

	// a read failure or an over-long line ends the stream; report it once
	// before callers start seeing ErrNoData
	if err := sc.Err(); err != nil {
		select {
		case l.lines <- lineResult{err: fmt.Errorf("sensor stream: %w", err)}:
		case <-l.done:
		}
	}
}
