package trk

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Status is the state of the global tracking machinery. The status begins as
// [Uninitialized], and once it has left that state it only ever toggles
// between [Active] and [Deactivated]: there is no way back.
type Status int32

const (
	Uninitialized Status = iota
	Active
	Deactivated
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Active:
		return "active"
	case Deactivated:
		return "deactivated"
	default:
		return fmt.Sprintf("unknown (%d)", int32(s))
	}
}

//
//
//

var status atomic.Int32

// global guards the registry list, the worker reuse pool, and the counters
// behind them. It's taken only on registration, worker churn, and collection
// sweeps, never on the tally path.
var global struct {
	mtx         sync.Mutex
	head        *Registry   // prepend-only list of every registry ever made
	pool        []*Registry // worker registries awaiting reuse
	workerSeq   int
	incarnation int
}

// Initialize transitions the tracking system out of [Uninitialized] into
// [Active]. It's safe to call more than once; calls after the first do
// nothing. Returns the resulting status.
func Initialize() Status {
	global.mtx.Lock()
	defer global.mtx.Unlock()

	if Status(status.Load()) == Uninitialized {
		global.incarnation++
		status.Store(int32(Active))
	}

	return Status(status.Load())
}

// SetTracking toggles tracking between [Active] and [Deactivated],
// initializing first if necessary. It never returns the system to
// [Uninitialized]. Returns the resulting status.
func SetTracking(active bool) Status {
	Initialize()

	if active {
		status.Store(int32(Active))
	} else {
		status.Store(int32(Deactivated))
	}

	return Status(status.Load())
}

// TrackingActive returns true when tally operations are being recorded. It's
// a single atomic load, cheap enough for every hot-path call to make first.
func TrackingActive() bool {
	return Status(status.Load()) == Active
}

// TrackingStatus returns the current status.
func TrackingStatus() Status {
	return Status(status.Load())
}

//
//
//

// NewNamedRegistry creates a registry for a long-lived, named goroutine, and
// registers it on the global list. Named registries are never pooled and
// never destroyed: readers may be iterating the list at any time, so the
// list only ever grows. Call it once, before any births on that goroutine.
func NewNamedRegistry(name string) *Registry {
	global.mtx.Lock()
	defer global.mtx.Unlock()

	r := newRegistry(name, false, global.incarnation)
	pushToHeadOfList(r)

	return r
}

// AcquireWorker returns a registry for a short-lived worker goroutine,
// reusing one from the pool when possible. Pooled registries come back with
// empty maps and a fresh worker name; they stay on the global list for their
// entire lifetime, pooled or not. Pair with [ReleaseWorker] when the worker
// exits.
func AcquireWorker() *Registry {
	global.mtx.Lock()
	defer global.mtx.Unlock()

	global.workerSeq++
	name := fmt.Sprintf("worker-%d", global.workerSeq)

	if n := len(global.pool); n > 0 {
		r := global.pool[n-1]
		global.pool = global.pool[:n-1]
		r.recycle(name)
		return r
	}

	r := newRegistry(name, true, global.incarnation)
	pushToHeadOfList(r)

	return r
}

// ReleaseWorker returns a worker registry to the reuse pool. A registry
// created in an earlier incarnation of the tracking system is not pooled:
// tests cycle the system through shutdown and re-initialization, and a stale
// registry must never resurface in the new cycle. Named registries are never
// pooled.
func ReleaseWorker(r *Registry) {
	if r == nil || !r.worker {
		return
	}

	global.mtx.Lock()
	defer global.mtx.Unlock()

	if r.incarnation != global.incarnation {
		return
	}

	global.pool = append(global.pool, r)
}

// First returns the most recently registered registry, the head of the
// global list. Iterate with [Registry.Next].
func First() *Registry {
	global.mtx.Lock()
	defer global.mtx.Unlock()

	return global.head
}

// pushToHeadOfList prepends r to the global list. Callers hold global.mtx.
// Prepending means a reader holding an older head can keep iterating without
// ever observing a change.
func pushToHeadOfList(r *Registry) {
	r.next = global.head
	global.head = r
}

//
//
//

// ResetAll zeroes every birth count and death tally in every registry. The
// zeroing is done without synchronizing against concurrent tallies, so a
// statistic that is being updated at the same instant may come out slightly
// wrong. That's the accepted contract: this is a coarse "start a new
// measurement window" affordance for debugging, and the tally path stays
// unlocked regardless.
func ResetAll() {
	for r := First(); r != nil; r = r.Next() {
		r.reset()
	}
}

// shutdownSingleThreadedCleanup returns the tracking system to a near
// pristine state. It's only for tests, which are single-threaded at the
// point of call; production code never tears tracking down. The incarnation
// counter advances so that worker registries from the old cycle can never
// re-enter the pool.
func shutdownSingleThreadedCleanup() {
	global.mtx.Lock()
	defer global.mtx.Unlock()

	global.head = nil
	global.pool = nil
	global.workerSeq = 0
	global.incarnation++
	status.Store(int32(Uninitialized))
}

//
//
//

type registryContextKey struct{}

// NewContext returns a context carrying the registry, for executors that
// can't thread a registry handle explicitly. The ownership rules are
// unchanged: only the goroutine the registry belongs to may tally into it.
func NewContext(ctx context.Context, r *Registry) context.Context {
	return context.WithValue(ctx, registryContextKey{}, r)
}

// FromContext returns the registry in the context, or nil. Tally operations
// tolerate a nil registry, so the zero result is safe to use directly.
func FromContext(ctx context.Context) *Registry {
	r, _ := ctx.Value(registryContextKey{}).(*Registry)
	return r
}
