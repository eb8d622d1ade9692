package trk

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Snapshot is a frozen copy of one (birth record, death registry) statistic
// combination, or of a birth record with only a residual still-alive count.
// Snapshots are immutable after construction and safe to sort, filter, and
// aggregate freely.
type Snapshot struct {
	birth       *BirthRecord
	deathThread *Registry // nil for still-alive entries
	stats       DeathStats
}

// Location returns the call site the snapshot describes.
func (s *Snapshot) Location() Location {
	return s.birth.Location()
}

// BirthThreadName returns the name of the goroutine the births happened on.
func (s *Snapshot) BirthThreadName() string {
	return s.birth.BirthThread().Name()
}

// DeathThreadName returns the name of the goroutine the deaths happened on,
// or "still-alive" for a residual entry.
func (s *Snapshot) DeathThreadName() string {
	if s.deathThread == nil {
		return "still-alive"
	}
	return s.deathThread.Name()
}

// StillAlive returns true if the snapshot counts births with no matching
// death: instances that are running, queued, or otherwise unaccounted for.
func (s *Snapshot) StillAlive() bool {
	return s.deathThread == nil
}

// Count returns the death count, or the residual alive count for a
// still-alive entry.
func (s *Snapshot) Count() int { return s.stats.Count() }

// DeathStats returns the frozen statistics.
func (s *Snapshot) DeathStats() DeathStats { return s.stats }

// Data flattens the snapshot into its serializable form.
func (s *Snapshot) Data() SnapshotData {
	return SnapshotData{
		Location:     s.Location(),
		BirthThread:  s.BirthThreadName(),
		DeathThread:  s.DeathThreadName(),
		StillAlive:   s.StillAlive(),
		Count:        s.Count(),
		RunTotal:     jsonDuration(s.stats.RunDurationTotal()),
		RunMax:       jsonDuration(s.stats.RunDurationMax()),
		RunAverage:   jsonDuration(s.stats.AverageRunDuration()),
		QueueTotal:   jsonDuration(s.stats.QueueDurationTotal()),
		QueueMax:     jsonDuration(s.stats.QueueDurationMax()),
		QueueAverage: jsonDuration(s.stats.AverageQueueDuration()),
	}
}

// MarshalJSON implements json.Marshaler via the flattened form.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Data())
}

//
//
//

// Collector orchestrates one full capture: it appends every registry's data
// in turn, then synthesizes entries for the births that no death anywhere
// accounts for. A collector is single-use and not safe for concurrent use;
// all of the concurrency is on the producer side, and is resolved by the
// per-registry locked copies.
type Collector struct {
	snapshots   []*Snapshot
	outstanding map[*BirthRecord]int
	finalized   bool
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{
		outstanding: map[*BirthRecord]int{},
	}
}

// Append pulls a locked copy of the registry's two maps, emits one snapshot
// per death entry, and tracks the running tally of births not yet matched by
// a death. Call it once per registry, before [Collector.AddListOfLivingObjects].
func (c *Collector) Append(r *Registry) {
	if c.finalized {
		panic("trk: Collector.Append after AddListOfLivingObjects")
	}

	births := r.snapshotBirthCounts()
	deaths := r.SnapshotDeathMap()

	for rec, count := range births {
		c.outstanding[rec] += count
	}

	for rec, stats := range deaths {
		c.snapshots = append(c.snapshots, &Snapshot{
			birth:       rec,
			deathThread: r,
			stats:       stats,
		})
		c.outstanding[rec] -= stats.Count()
	}
}

// AddListOfLivingObjects emits one residual snapshot for every birth record
// whose tallied births exceed its tallied deaths across all appended
// registries. Call it exactly once, after every Append.
func (c *Collector) AddListOfLivingObjects() {
	if c.finalized {
		panic("trk: AddListOfLivingObjects called twice")
	}
	c.finalized = true

	for rec, count := range c.outstanding {
		if count <= 0 {
			continue
		}
		c.snapshots = append(c.snapshots, &Snapshot{
			birth: rec,
			stats: newAliveStats(count),
		})
	}
}

// Snapshots returns the collected snapshots, in no particular order.
func (c *Collector) Snapshots() []*Snapshot {
	return c.snapshots
}

//
//
//

// Sweep is the result of one full collection pass over every registry: an
// identified, timestamped set of snapshots. The per-registry copies are each
// internally consistent, but the sweep as a whole is a best-effort composite
// rather than a single global instant; that skew is the accepted price of
// never stopping the world.
type Sweep struct {
	ID        string
	Taken     time.Time
	Snapshots []*Snapshot
}

// Collect walks the global registry list and returns a complete sweep.
func Collect() *Sweep {
	c := NewCollector()
	for r := First(); r != nil; r = r.Next() {
		c.Append(r)
	}
	c.AddListOfLivingObjects()

	now := timeNow().UTC()

	return &Sweep{
		ID:        ulid.MustNew(ulid.Timestamp(now), sweepIDEntropy).String(),
		Taken:     now,
		Snapshots: c.Snapshots(),
	}
}

var sweepIDEntropy = ulid.DefaultEntropy()

// Data flattens the sweep into its serializable form.
func (s *Sweep) Data() SweepData {
	snapshots := make([]SnapshotData, len(s.Snapshots))
	for i, snap := range s.Snapshots {
		snapshots[i] = snap.Data()
	}
	return SweepData{
		ID:        s.ID,
		Taken:     s.Taken,
		Snapshots: snapshots,
	}
}

// MarshalJSON implements json.Marshaler via the flattened form.
func (s *Sweep) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Data())
}

//
//
//

// SweepData is the serialized structural form of a [Sweep], fully detached
// from the live engine.
type SweepData struct {
	ID        string         `json:"id"`
	Taken     time.Time      `json:"taken"`
	Snapshots []SnapshotData `json:"snapshots"`
}

// SnapshotData is the serialized structural form of a [Snapshot].
type SnapshotData struct {
	Location     Location     `json:"location"`
	BirthThread  string       `json:"birth_thread"`
	DeathThread  string       `json:"death_thread"`
	StillAlive   bool         `json:"still_alive,omitempty"`
	Count        int          `json:"count"`
	RunTotal     jsonDuration `json:"run_total"`
	RunMax       jsonDuration `json:"run_max"`
	RunAverage   jsonDuration `json:"run_average"`
	QueueTotal   jsonDuration `json:"queue_total"`
	QueueMax     jsonDuration `json:"queue_max"`
	QueueAverage jsonDuration `json:"queue_average"`
}

// jsonDuration is a time.Duration which JSON marshals as a string.
type jsonDuration time.Duration

// MarshalJSON implements json.Marshaler.
func (d jsonDuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *jsonDuration) UnmarshalJSON(data []byte) error {
	if dur, err := time.ParseDuration(strings.Trim(string(data), `"`)); err == nil {
		*d = jsonDuration(dur)
		return nil
	}
	return json.Unmarshal(data, (*time.Duration)(d))
}

// Duration returns the underlying time.Duration.
func (d jsonDuration) Duration() time.Duration {
	return time.Duration(d)
}
