package term

import (
	"log/slog"
	"sync"
)

// Actuators logs relay changes and records the applied state.
type Actuators struct {
	logger *slog.Logger

	mu      sync.Mutex
	applied map[string]bool
	writes  int
}

// NewActuators creates logging [Actuators].
func NewActuators(logger *slog.Logger) *Actuators {
	return &Actuators{logger: logger, applied: make(map[string]bool)}
}

// SetActuator implements output.Actuators.
func (a *Actuators) SetActuator(name string, on bool) {
	a.mu.Lock()
	a.applied[name] = on
	a.writes++
	a.mu.Unlock()

	a.logger.Info("actuator applied", "actuator", name, "on", on)
}

// Applied returns the last applied state of an actuator.
func (a *Actuators) Applied(name string) (on, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	on, ok = a.applied[name]
	return on, ok
}

// Writes counts SetActuator calls.
func (a *Actuators) Writes() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.writes
}
