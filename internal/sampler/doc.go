// Package sampler implements the producer side of the monitor: a fixed-period
// loop that acquires readings, classifies them and fans out notifications.
//
// The main components are:
//
//   - [Sampler]: the periodic producer with Start/Stop lifecycle
//   - [Sensor]: the acquisition capability it samples
//   - [Config]: period, thresholds and the notification edges to drive
//   - [Transition]: a severity change reported to callbacks
//
// Every valid reading is published to the shared [state.Cell] and then
// signalled on each "reading" edge. "Severity" edges are signalled for the
// first published reading and afterwards only when the classification
// changes. Faulty readings are dropped without touching
// published state.
package sampler
