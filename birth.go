package trk

// BirthRecord identifies a creation site: one specific [Location], on one
// specific [Registry]. At most one birth record exists per (location,
// registry) pair, created lazily by the first tallied birth and retained for
// the lifetime of the registry.
//
// The location and owning registry are immutable and safe to read from any
// goroutine at any time. The birth count is owned by the registry: it's
// updated only via the registry's tally methods, under the registry's lock.
type BirthRecord struct {
	location Location
	thread   *Registry
	count    int
}

func newBirthRecord(location Location, thread *Registry) *BirthRecord {
	return &BirthRecord{
		location: location,
		thread:   thread,
	}
}

// Location returns the call site this record tallies births for.
func (b *BirthRecord) Location() Location {
	return b.location // immutable
}

// BirthThread returns the registry that owns this record, identifying the
// goroutine the births happened on. Callers must treat it as identity only,
// and never tally into it.
func (b *BirthRecord) BirthThread() *Registry {
	return b.thread // immutable
}

// BirthCount returns the number of births tallied so far. It's exact only on
// the owning goroutine, or when read from a collector copy.
func (b *BirthRecord) BirthCount() int {
	return b.count
}

// recordBirth and forgetBirth are called by the owning registry, under its
// lock. forgetBirth backs out a birth that is being re-filed under a
// different site, keeping the counter consistent with the corrected
// attribution.

func (b *BirthRecord) recordBirth() { b.count++ }
func (b *BirthRecord) forgetBirth() { b.count-- }

// clear zeroes the counter. Part of the deliberately approximate bulk reset:
// see [ResetAll].
func (b *BirthRecord) clear() { b.count = 0 }
