// Package signal provides the coalescing wake-up primitive that connects the
// sampler to each of its consumers.
//
// A [Channel] carries no payload. The producer calls [Channel.Notify] after
// publishing new state; the consumer calls [Channel.Wait] and then re-reads
// the shared snapshot. Notifications that arrive while one is already pending
// are folded into it, so a slow consumer wakes once and sees the latest state
// rather than replaying a backlog.
package signal
