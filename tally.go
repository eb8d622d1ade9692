package trk

import (
	"time"
)

// The hooks in this file are the surface an executor calls into. They all
// degrade to no-ops: a nil registry, a nil birth record, or deactivated
// tracking means "don't track this one", never a failure of the surrounding
// program.

// TallyBirthIfActive tallies a birth for the location on the registry and
// returns the birth record as an opaque token for the eventual death. The
// token is nil when tracking is inactive or no registry is supplied, and
// every death hook accepts a nil token silently.
func TallyBirthIfActive(r *Registry, location Location) *BirthRecord {
	if r == nil {
		return nil
	}
	return r.TallyBirth(location)
}

// TallyRunOnNamedThread records the completed run of a task on a named
// goroutine's registry. The task was made runnable at posted, began
// executing at start, and finished at end: queue duration is start − posted
// and run duration is end − start, each clamped at zero.
func TallyRunOnNamedThread(r *Registry, birth *BirthRecord, posted, start, end time.Time) {
	if r == nil || birth == nil {
		return
	}
	r.TallyDeath(birth, start.Sub(posted), end.Sub(start))
}

// TallyRunOnWorkerThread records the completed run of a task on a worker
// goroutine's registry, with the same timestamp semantics as
// [TallyRunOnNamedThread].
func TallyRunOnWorkerThread(r *Registry, birth *BirthRecord, posted, start, end time.Time) {
	if r == nil || birth == nil {
		return
	}
	r.TallyDeath(birth, start.Sub(posted), end.Sub(start))
}

// TallyRunInScopedRegion records the execution of a scoped region, which has
// no queueing concept: the whole interval is run duration, and queue
// duration is zero.
func TallyRunInScopedRegion(r *Registry, birth *BirthRecord, start, end time.Time) {
	if r == nil || birth == nil {
		return
	}
	r.TallyDeath(birth, 0, end.Sub(start))
}

//
//
//

// timeNow is the injected time source. Only tests replace it.
var timeNow func() time.Time = time.Now

// SetTimeSource replaces the clock behind [Now] and friends, returning a
// function that restores the previous source. Passing nil restores the real
// clock. Not safe to call while tallies are in flight.
func SetTimeSource(now func() time.Time) (restore func()) {
	prev := timeNow
	if now == nil {
		now = time.Now
	}
	timeNow = now
	return func() { timeNow = prev }
}

// Now returns the current time from the injected source when tracking is
// active, and the zero time otherwise, making it nearly free in the
// inactive case. The duration math in the death hooks clamps at zero, so a
// zero timestamp that leaks into a tally records nothing harmful.
func Now() time.Time {
	if !TrackingActive() {
		return time.Time{}
	}
	return timeNow()
}

// NowForStartOfRun is the clock hook collaborators call just before running
// a tracked task.
func NowForStartOfRun() time.Time {
	return Now()
}

// NowForEndOfRun is the clock hook collaborators call just after a tracked
// task finishes.
func NowForEndOfRun() time.Time {
	return Now()
}
