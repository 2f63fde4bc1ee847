// Package climate defines the measurement and classification types shared by
// every part of the monitor.
//
// The main components are:
//
//   - [Reading]: one sampled temperature/humidity pair plus a validity flag
//   - [Severity]: the ordered Normal/Warning/Critical environment state
//   - [Classify]: the pure joint classifier over two threshold ladders
//   - [ParseLine] and [FormatLine]: the "DATA,<temp>,<hum>" text form used by
//     serial logs and the dataset builder
package climate
