// Package state holds the published measurement snapshot shared between the
// sampler and its consumers.
//
// The main components are:
//
//   - [Snapshot]: an immutable reading plus its classification
//   - [Cell]: the single-writer cell the sampler publishes into
//   - [Reader]: the read-only view handed to consumers and the HTTP panel
//
// Writers and readers are separated by type: only code holding a *Cell can
// publish, and consumers are constructed with a [Reader]. Publication swaps a
// pointer to a fresh Snapshot, so a reader always sees a complete
// temperature/humidity pair and never a mix of two samples.
package state
