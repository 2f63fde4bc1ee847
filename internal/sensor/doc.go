// Package sensor provides the reading sources the sampler can acquire from.
//
// The main components are:
//
//   - [Simulated]: a seeded random walk with optional injected faults
//   - [Line]: a reader of "DATA,<temp>,<hum>" lines from a serial device or
//     a recorded log
//   - [HTTP]: a poller for another node's state endpoint, with pluggable
//     [Decoder] functions ([StateDecoder], [JSONFieldDecoder], [LineDecoder],
//     composed with [FirstMatch])
//
// Every source implements Sample(ctx) (climate.Reading, error). Sources do
// not validate readings beyond parsing; the sampler decides what counts as a
// fault.
package sensor
