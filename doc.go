// Package trk is an always-on, low-overhead profiler for short-lived units
// of work. It attributes each tracked task to the source location where it
// was created, and records the task's timing lifecycle: when it was born,
// how long it waited in a queue, how long it ran, and which goroutines were
// involved on each side.
//
// The basic model follows a birth/death ledger. When an executor creates a
// task, it tallies a birth against a [Location] on its own [Registry],
// receiving a [BirthRecord] that travels with the task. When the task
// finishes, possibly on a different goroutine, the finishing side tallies
// a death with the observed queue and run durations. Births and deaths are
// aggregated in place, keyed by call site and by the pair of goroutines
// involved, so memory use is bounded by the number of distinct call sites,
// not by task volume.
//
// Each Registry is owned by exactly one goroutine, and the common path is
// designed so that the owner never contends with readers: the owner reads
// its own maps without a lock, while map writes and cross-goroutine reads
// take the registry's mutex. A [Collector] assembles a consistent,
// process-wide [Sweep] of frozen [Snapshot] values without ever blocking a
// producer for more than a brief map copy.
//
// The package does not schedule anything and does not render anything. The
// executor that runs tasks calls in at birth, start-of-run, and end-of-run;
// export surfaces live in [github.com/objtrack/trk/trkweb] (JSON and SSE)
// and [github.com/objtrack/trk/trkprom] (Prometheus). Most applications can
// use [github.com/objtrack/trk/eztrk], which wraps the process-global
// tracking state in a small convenience API.
package trk
