package feed

import (
	"context"
	"sort"
	"sync"

	"github.com/jpalmerr/envmon/internal/override"
	"github.com/jpalmerr/envmon/internal/state"
)

// subscriberBuffer is the per-subscriber channel capacity.
const subscriberBuffer = 16

// Kind says what an [Event] carries.
type Kind string

const (
	// KindReading carries a new snapshot.
	KindReading Kind = "reading"
	// KindActuator carries an actuator state change.
	KindActuator Kind = "actuator"
)

// Event is one update pushed to subscribers.
type Event struct {
	Kind     Kind                    `json:"kind"`
	Snapshot *state.Snapshot         `json:"snapshot,omitempty"`
	Actuator *override.ActuatorState `json:"actuator,omitempty"`
}

// Hub is an in-memory, latest-value event broadcaster.
type Hub struct {
	mu        sync.RWMutex
	reading   *Event
	actuators map[string]Event

	subMu       sync.RWMutex
	subscribers map[chan Event]struct{}
}

// NewHub creates an empty [Hub].
func NewHub() *Hub {
	return &Hub{
		actuators:   make(map[string]Event),
		subscribers: make(map[chan Event]struct{}),
	}
}

// Render publishes snap as a reading event. Unpublished snapshots are
// ignored.
func (h *Hub) Render(_ context.Context, snap state.Snapshot) {
	if !snap.Published() {
		return
	}
	h.Publish(Event{Kind: KindReading, Snapshot: &snap})
}

// PublishActuator publishes an actuator state change.
func (h *Hub) PublishActuator(st override.ActuatorState) {
	h.Publish(Event{Kind: KindActuator, Actuator: &st})
}

// Publish records ev as the latest of its kind and notifies subscribers.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	switch ev.Kind {
	case KindReading:
		h.reading = &ev
	case KindActuator:
		if ev.Actuator != nil {
			h.actuators[ev.Actuator.Name] = ev
		}
	}
	h.mu.Unlock()

	h.notifySubscribers(ev)
}

// Current returns the latest reading event (if any) followed by the latest
// event for each actuator, sorted by name.
func (h *Hub) Current() []Event {
	h.mu.RLock()
	defer h.mu.RUnlock()

	events := make([]Event, 0, len(h.actuators)+1)
	if h.reading != nil {
		events = append(events, *h.reading)
	}

	names := make([]string, 0, len(h.actuators))
	for name := range h.actuators {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		events = append(events, h.actuators[name])
	}
	return events
}

// Subscribe returns a channel receiving future events. Callers must
// [Hub.Unsubscribe] when done.
func (h *Hub) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)

	h.subMu.Lock()
	h.subscribers[ch] = struct{}{}
	h.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel. Safe to call
// more than once.
func (h *Hub) Unsubscribe(ch <-chan Event) {
	h.subMu.Lock()
	defer h.subMu.Unlock()

	for subCh := range h.subscribers {
		if subCh == ch {
			delete(h.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (h *Hub) Subscribers() int {
	h.subMu.RLock()
	defer h.subMu.RUnlock()
	return len(h.subscribers)
}

func (h *Hub) notifySubscribers(ev Event) {
	h.subMu.RLock()
	defer h.subMu.RUnlock()

	for ch := range h.subscribers {
		select {
		case ch <- ev:
		default:
			// slow subscriber, drop
		}
	}
}
