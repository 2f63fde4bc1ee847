// Package consumer implements the tasks that render published snapshots.
//
// Each consumer owns one [signal.Channel]. Its [Task] loop waits on that
// channel, loads the latest [state.Snapshot] and hands it to a [Renderer].
// Consumers never talk to each other or to the sampler beyond that edge, so
// a slow renderer only delays itself; pending wake-ups coalesce while it
// works.
//
// Renderers provided here:
//
//   - [LEDModulator]: blinks a single LED in a temperature-selected pattern
//   - [LevelBar]: lights a humidity-proportional number of strip segments
//   - [StatusDisplay]: draws temperature, humidity and severity as text
//
// The presentation ladders ([BlinkLadder], [LitSegments], [TierFor]) are
// independent of the joint classifier in package climate and use their own
// breakpoints.
package consumer
