// Package telemetry forwards published snapshots to external sinks.
//
// A [Publisher] is a consumer renderer: the sampler wakes it on every new
// reading and it hands the snapshot to each configured [Sink] in turn. Sink
// failures are logged and never block the other sinks or the monitor.
//
// Available sinks:
//
//   - [LineSink]: raw "DATA,<temp>,<hum>" lines, the serial logger format
//   - [MQTTSink]: JSON messages on an MQTT topic (paho)
//   - [RedisSink]: latest snapshot under a key plus a pub/sub broadcast
//   - [KafkaSink]: JSON messages keyed by device id
package telemetry
