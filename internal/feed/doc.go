// Package feed broadcasts live panel events to connected browsers.
//
// The main components are:
//
//   - [Hub]: keeps the latest event of each kind and fans new ones out
//   - [Event]: one update, either a new reading or an actuator change
//
// A Hub doubles as a consumer renderer, so the sampler wakes it through its
// own coalescing signal like any other output. Subscribers receive updates
// via buffered channels with non-blocking sends: a slow browser misses
// intermediate events rather than stalling the monitor.
package feed
