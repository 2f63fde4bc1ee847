package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/envmon/internal/state"
)

const (
	// DefaultPublishTimeout bounds one sink publish.
	DefaultPublishTimeout = 3 * time.Second

	// MaxConcurrentPublishes caps how many sinks are published to at once.
	MaxConcurrentPublishes = 4
)

// Sink receives snapshots.
type Sink interface {
	// Name identifies the sink in logs.
	Name() string

	// Publish delivers one snapshot.
	Publish(ctx context.Context, snap state.Snapshot) error

	// Close releases the sink's connection.
	Close() error
}

// Message is the JSON document the network sinks emit.
type Message struct {
	Device      string    `json:"device"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Severity    string    `json:"severity"`
	Seq         uint64    `json:"seq"`
	SampledAt   time.Time `json:"sampled_at"`
}

// NewMessage builds the wire message for snap.
func NewMessage(device string, snap state.Snapshot) Message {
	return Message{
		Device:      device,
		Temperature: snap.Reading.Temperature,
		Humidity:    snap.Reading.Humidity,
		Severity:    snap.Severity.String(),
		Seq:         snap.Seq,
		SampledAt:   snap.SampledAt,
	}
}

func encode(device string, snap state.Snapshot) ([]byte, error) {
	return json.Marshal(NewMessage(device, snap))
}

// Publisher fans snapshots out to sinks.
type Publisher struct {
	sinks   []Sink
	timeout time.Duration
	logger  *slog.Logger
}

// NewPublisher creates a [Publisher]. A zero timeout uses
// [DefaultPublishTimeout].
func NewPublisher(sinks []Sink, timeout time.Duration, logger *slog.Logger) *Publisher {
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		sinks:   sinks,
		timeout: timeout,
		logger:  logger,
	}
}

// Sinks returns the configured sinks.
func (p *Publisher) Sinks() []Sink {
	return p.sinks
}

// Render publishes snap to every sink, with at most [MaxConcurrentPublishes]
// sinks in flight. Snapshots that were never published (startup) are
// ignored. A failing or panicking sink is logged and does not affect the
// others.
func (p *Publisher) Render(ctx context.Context, snap state.Snapshot) {
	if !snap.Published() || len(p.sinks) == 0 {
		return
	}

	workers := min(MaxConcurrentPublishes, len(p.sinks))
	jobs := make(chan Sink, len(p.sinks))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sink := range jobs {
				if ctx.Err() != nil {
					return
				}
				p.publish(ctx, sink, snap)
			}
		}()
	}

	for _, sink := range p.sinks {
		jobs <- sink
	}
	close(jobs)

	wg.Wait()
}

// publish delivers snap to one sink under the publish timeout.
func (p *Publisher) publish(ctx context.Context, sink Sink, snap state.Snapshot) {
	sctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.safePublish(sctx, sink, snap); err != nil {
		p.logger.Warn("telemetry publish failed",
			"sink", sink.Name(),
			"seq", snap.Seq,
			"error", err.Error(),
		)
		return
	}
	p.logger.Debug("telemetry published", "sink", sink.Name(), "seq", snap.Seq)
}

// safePublish calls the sink with panic recovery.
// If the sink panics, it logs the full stack trace with a correlation ID
// and returns an error containing the ID.
func (p *Publisher) safePublish(ctx context.Context, sink Sink, snap state.Snapshot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			p.logger.Error("telemetry sink panic",
				"correlation_id", correlationID,
				"sink", sink.Name(),
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("sink panic (correlation_id: %s)", correlationID)
		}
	}()
	return sink.Publish(ctx, snap)
}

// Close closes every sink and joins their errors.
func (p *Publisher) Close() error {
	var errs []error
	for _, sink := range p.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
