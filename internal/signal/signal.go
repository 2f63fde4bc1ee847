package signal

import (
	"context"
	"time"
)

// Channel is a one-slot, non-queuing notification edge between one producer
// and one consumer.
//
// The zero value is not usable; create channels with [New].
type Channel struct {
	ch chan struct{}
}

// New creates an unsignaled [Channel].
func New() *Channel {
	return &Channel{ch: make(chan struct{}, 1)}
}

// Notify marks the channel as signaled. It never blocks: if a signal is
// already pending the call is a no-op.
func (c *Channel) Notify() {
	select {
	case c.ch <- struct{}{}:
	default:
	}
}

// Wait blocks until the channel is signaled, clears the signal and returns
// nil. If ctx is done first, Wait returns ctx.Err() and leaves any pending
// signal in place.
func (c *Channel) Wait(ctx context.Context) error {
	select {
	case <-c.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitTimeout is like [Channel.Wait] but gives up after d. It reports whether
// a signal was consumed.
func (c *Channel) WaitTimeout(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-c.ch:
		return true
	case <-timer.C:
		return false
	}
}

// Pending reports whether a signal is waiting to be consumed.
func (c *Channel) Pending() bool {
	return len(c.ch) > 0
}
