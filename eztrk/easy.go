// Package eztrk provides an easy-to-use API over the process-global
// tracking state, for applications that don't need to wire the engine and
// export surfaces together themselves.
package eztrk

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/objtrack/trk"
	"github.com/objtrack/trk/trkprom"
	"github.com/objtrack/trk/trkweb"
)

var (
	Here   = trk.Here
	Caller = trk.Caller

	NowForStartOfRun = trk.NowForStartOfRun
	NowForEndOfRun   = trk.NowForEndOfRun

	TallyBirthIfActive     = trk.TallyBirthIfActive
	TallyRunOnNamedThread  = trk.TallyRunOnNamedThread
	TallyRunOnWorkerThread = trk.TallyRunOnWorkerThread
	TallyRunInScopedRegion = trk.TallyRunInScopedRegion
)

// Activate turns tracking on, initializing it if necessary.
func Activate() { trk.SetTracking(true) }

// Deactivate turns tracking off. Tally calls become cheap no-ops.
func Deactivate() { trk.SetTracking(false) }

// Named registers and returns a registry for a long-lived, named goroutine.
func Named(name string) *trk.Registry { return trk.NewNamedRegistry(name) }

// Worker returns a registry for a worker goroutine, reusing a pooled one
// when possible. Pair with [Release].
func Worker() *trk.Registry { return trk.AcquireWorker() }

// Release returns a worker registry to the reuse pool.
func Release(r *trk.Registry) { trk.ReleaseWorker(r) }

// Collect takes a full sweep over every registry in the process.
func Collect() *trk.Sweep { return trk.Collect() }

// Handler returns an http.Handler serving sweeps, history and a live sweep
// stream for this process.
func Handler() http.Handler {
	return trkweb.NewServer(trk.Collect)
}

// MetricsCollector returns a prometheus.Collector exposing this process's
// sweeps as metrics.
func MetricsCollector() prometheus.Collector {
	return trkprom.NewCollector(trk.Collect)
}
