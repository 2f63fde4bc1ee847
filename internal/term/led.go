package term

import (
	"log/slog"
	"sync/atomic"
)

// LED logs indicator changes at debug level and remembers the current state.
type LED struct {
	name    string
	logger  *slog.Logger
	lit     atomic.Bool
	toggles atomic.Uint64
}

// NewLED creates a logging [LED].
func NewLED(name string, logger *slog.Logger) *LED {
	return &LED{name: name, logger: logger}
}

// SetLit implements output.LED.
func (l *LED) SetLit(on bool) {
	if l.lit.Swap(on) != on {
		l.toggles.Add(1)
		l.logger.Debug("led", "name", l.name, "lit", on)
	}
}

// Lit reports the current state.
func (l *LED) Lit() bool {
	return l.lit.Load()
}

// Toggles counts state changes.
func (l *LED) Toggles() uint64 {
	return l.toggles.Load()
}
