// Package override implements the manual actuator controls exposed on the
// network panel.
//
// The panel is deliberately outside the sampling pipeline: it owns its own
// actuator flags, applies them to the outputs synchronously and never
// signals any consumer.
package override

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/jpalmerr/envmon/internal/output"
)

// ErrUnknownActuator is returned for names the panel was not built with.
var ErrUnknownActuator = errors.New("unknown actuator")

// DefaultActuators are the relay names used when none are configured.
var DefaultActuators = []string{"relay1", "relay2"}

// ActuatorState is the requested state of one actuator.
type ActuatorState struct {
	Name string `json:"name"`
	On   bool   `json:"on"`
}

type actuator struct {
	mu sync.Mutex // serialises store+apply so output matches the flag
	on atomic.Bool
}

// Panel owns the actuator flags and applies them to the outputs.
type Panel struct {
	out       output.Actuators
	logger    *slog.Logger
	actuators map[string]*actuator
	names     []string
	onChange  func(ActuatorState)
}

// NewPanel creates a [Panel] for the given actuator names. Every actuator
// starts off, and that state is applied immediately.
func NewPanel(out output.Actuators, names []string, logger *slog.Logger) (*Panel, error) {
	if out == nil {
		return nil, errors.New("actuator output is required")
	}
	if len(names) == 0 {
		return nil, errors.New("at least one actuator is required")
	}

	p := &Panel{
		out:       out,
		logger:    logger,
		actuators: make(map[string]*actuator, len(names)),
	}
	for _, name := range names {
		if name == "" {
			return nil, errors.New("actuator name cannot be empty")
		}
		if _, dup := p.actuators[name]; dup {
			return nil, fmt.Errorf("duplicate actuator name: %q", name)
		}
		p.actuators[name] = &actuator{}
		p.names = append(p.names, name)
	}
	sort.Strings(p.names)

	for _, name := range p.names {
		out.SetActuator(name, false)
	}
	return p, nil
}

// Set records the requested state and applies it to the output before
// returning. Repeating a request is harmless.
func (p *Panel) Set(name string, on bool) error {
	a, ok := p.actuators[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownActuator, name)
	}

	a.mu.Lock()
	prev := a.on.Swap(on)
	p.out.SetActuator(name, on)
	if p.onChange != nil {
		p.onChange(ActuatorState{Name: name, On: on})
	}
	a.mu.Unlock()

	if prev != on {
		p.logger.Info("actuator override", "actuator", name, "on", on)
	}
	return nil
}

// OnChange registers fn to observe every applied request, repeats included.
// fn runs while the actuator is locked, so observers see requests for one
// actuator in the order they were applied. It must not call back into the
// panel. Register before the panel is shared.
func (p *Panel) OnChange(fn func(ActuatorState)) {
	p.onChange = fn
}

// Get returns the requested state of an actuator.
func (p *Panel) Get(name string) (bool, error) {
	a, ok := p.actuators[name]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownActuator, name)
	}
	return a.on.Load(), nil
}

// States returns every actuator's state sorted by name.
func (p *Panel) States() []ActuatorState {
	states := make([]ActuatorState, len(p.names))
	for i, name := range p.names {
		states[i] = ActuatorState{Name: name, On: p.actuators[name].on.Load()}
	}
	return states
}

// Names returns the actuator names in sorted order.
func (p *Panel) Names() []string {
	return append([]string(nil), p.names...)
}
