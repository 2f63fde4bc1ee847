package state

import (
	"sync/atomic"
	"time"

	"github.com/jpalmerr/envmon/internal/climate"
)

// Snapshot is the published view of the most recent valid sample.
//
// Snapshots are immutable once published. Seq increases by one for every
// publication, which lets consumers and tests detect skipped or repeated
// samples.
type Snapshot struct {
	// Reading is the latest valid reading.
	Reading climate.Reading `json:"reading"`

	// Severity is the classification of Reading.
	Severity climate.Severity `json:"severity"`

	// Seq is the publication counter; zero means nothing has been published.
	Seq uint64 `json:"seq"`

	// SampledAt is when the reading was acquired.
	SampledAt time.Time `json:"sampled_at"`
}

// Published reports whether the snapshot holds a real sample.
func (s Snapshot) Published() bool {
	return s.Seq > 0
}

// Reader is the read-only view of a [Cell].
type Reader interface {
	// Load returns the latest published snapshot. Before the first
	// publication it returns a zero Snapshot with Severity Normal.
	Load() Snapshot
}

// Cell is the single-writer, multi-reader home of the current [Snapshot].
type Cell struct {
	current atomic.Pointer[Snapshot]
	seq     uint64 // only touched by the writer
}

// NewCell creates an empty [Cell].
func NewCell() *Cell {
	c := &Cell{}
	c.current.Store(&Snapshot{Severity: climate.Normal})
	return c
}

// Publish stores a new snapshot built from r and sev and returns it.
//
// Publish must only be called from one goroutine (the sampler). The store is
// complete before Publish returns, so any notification sent afterwards
// happens-after the new snapshot is visible.
func (c *Cell) Publish(r climate.Reading, sev climate.Severity, at time.Time) Snapshot {
	c.seq++
	snap := &Snapshot{
		Reading:   r,
		Severity:  sev,
		Seq:       c.seq,
		SampledAt: at,
	}
	c.current.Store(snap)
	return *snap
}

// Load implements [Reader].
func (c *Cell) Load() Snapshot {
	return *c.current.Load()
}

// Reader returns a read-only view of the cell.
func (c *Cell) Reader() Reader {
	return readOnly{c}
}

// readOnly hides Publish from consumers holding a Reader.
type readOnly struct {
	c *Cell
}

func (r readOnly) Load() Snapshot {
	return r.c.Load()
}
