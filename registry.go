package trk

import (
	"sync"
	"time"
)

// Registry owns all tracking data recorded on one goroutine: a map from
// location to [BirthRecord], and a map from birth record to [DeathStats] for
// deaths that completed here. Registries are created by [NewNamedRegistry]
// or [AcquireWorker], and every registry ever created remains reachable via
// [First] and [Registry.Next].
//
// A registry has exactly one owner, which is the only goroutine allowed to
// call the tally methods. The lock discipline is deliberately asymmetric:
// the owner reads its own maps without the lock, since no one else can be
// writing; the owner's writes, and any other goroutine's reads, take the
// lock. That keeps the hot tally path free of contention while still giving
// snapshot readers a consistent view, because a write that could race a
// snapshot always holds the lock.
type Registry struct {
	worker      bool
	incarnation int

	mtx      sync.Mutex
	name     string
	birthMap map[Location]*BirthRecord
	deathMap map[*BirthRecord]*DeathStats

	next *Registry // immutable once on the global list
}

func newRegistry(name string, worker bool, incarnation int) *Registry {
	return &Registry{
		worker:      worker,
		incarnation: incarnation,
		name:        name,
		birthMap:    map[Location]*BirthRecord{},
		deathMap:    map[*BirthRecord]*DeathStats{},
	}
}

// Name returns the name of the goroutine this registry records for. Worker
// registries are renamed when handed out of the reuse pool, so the name is
// read under the lock.
func (r *Registry) Name() string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	return r.name
}

// IsWorker returns true if the registry belongs to a pooled worker.
func (r *Registry) IsWorker() bool {
	return r.worker // immutable
}

// Next returns the next-older registry on the global list, or nil. The list
// is prepend-only, so an iteration that began at [First] is never
// invalidated by concurrent registrations.
func (r *Registry) Next() *Registry {
	return r.next
}

// TallyBirth finds or creates the birth record for the given location on
// this registry, tallies one birth against it, and returns it. The returned
// record is the caller's token for later reporting a death, on whatever
// registry that death happens to land on.
//
// TallyBirth returns nil when tracking is not active. Callers must treat a
// nil record as "don't track this instance", not as an error.
//
// Must be called only by the owning goroutine.
func (r *Registry) TallyBirth(location Location) *BirthRecord {
	if !TrackingActive() {
		return nil
	}

	// Owner read: no lock needed, nobody else writes these maps.
	rec, ok := r.birthMap[location]

	r.mtx.Lock()
	defer r.mtx.Unlock()

	if !ok {
		rec = newBirthRecord(location, r)
		r.birthMap[location] = rec
	}

	rec.recordBirth()

	return rec
}

// TallyDeath finds or creates the death stats for the given birth record on
// this registry, and tallies one death with the observed durations. The
// birth record usually comes from a different registry: a task born on one
// goroutine and finished on another is the common case.
//
// A nil birth record is dropped silently, as is any death tallied while
// tracking is not active.
//
// Must be called only by the owning goroutine.
func (r *Registry) TallyDeath(birth *BirthRecord, queueDuration, runDuration time.Duration) {
	if birth == nil {
		return
	}
	if !TrackingActive() {
		return
	}

	// Owner read: no lock needed.
	stats, ok := r.deathMap[birth]

	r.mtx.Lock()
	defer r.mtx.Unlock()

	if !ok {
		stats = &DeathStats{}
		r.deathMap[birth] = stats
	}

	stats.RecordDeath(queueDuration, runDuration)
}

// ForgetBirth backs one birth out of the given record, for when a birth was
// mis-attributed and is being re-filed under a different site. The record
// must belong to this registry.
//
// Must be called only by the owning goroutine.
func (r *Registry) ForgetBirth(birth *BirthRecord) {
	if birth == nil || birth.thread != r {
		return
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()

	birth.forgetBirth()
}

// SnapshotBirthMap returns a copy of the registry's birth map, for use by a
// reader on a different goroutine. The birth records themselves are shared.
func (r *Registry) SnapshotBirthMap() map[Location]*BirthRecord {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	out := make(map[Location]*BirthRecord, len(r.birthMap))
	for loc, rec := range r.birthMap {
		out[loc] = rec
	}

	return out
}

// SnapshotDeathMap returns a copy of the registry's death map, for use by a
// reader on a different goroutine. The stats are copied by value, so each
// entry is frozen at the moment of the snapshot.
func (r *Registry) SnapshotDeathMap() map[*BirthRecord]DeathStats {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	out := make(map[*BirthRecord]DeathStats, len(r.deathMap))
	for rec, stats := range r.deathMap {
		out[rec] = *stats
	}

	return out
}

// snapshotBirthCounts captures every birth record on this registry together
// with its count at the moment of the snapshot. Used by the collector, which
// needs counts that are consistent with a specific instant.
func (r *Registry) snapshotBirthCounts() map[*BirthRecord]int {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	out := make(map[*BirthRecord]int, len(r.birthMap))
	for _, rec := range r.birthMap {
		out[rec] = rec.count
	}

	return out
}

// reset clears every accumulator in this registry. The lock guards only the
// map iteration; the zeroing itself races any concurrent tally, which is the
// accepted cost of a debug-only reset. See [ResetAll].
func (r *Registry) reset() {
	r.mtx.Lock()
	births := make([]*BirthRecord, 0, len(r.birthMap))
	for _, rec := range r.birthMap {
		births = append(births, rec)
	}
	deaths := make([]*DeathStats, 0, len(r.deathMap))
	for _, stats := range r.deathMap {
		deaths = append(deaths, stats)
	}
	r.mtx.Unlock()

	for _, rec := range births {
		rec.clear()
	}
	for _, stats := range deaths {
		stats.Clear()
	}
}

// recycle empties the registry's maps and renames it, preparing a pooled
// worker registry for a new owner. Unlike reset, recycle runs only when the
// registry has no owner, between release and re-acquisition.
func (r *Registry) recycle(name string) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.name = name
	r.birthMap = map[Location]*BirthRecord{}
	r.deathMap = map[*BirthRecord]*DeathStats{}
}
