// Package trkprom exposes profiler sweeps as Prometheus metrics, following
// the custom collector pattern: every scrape takes a fresh sweep and emits
// const metrics built from it, so no metric state is duplicated inside the
// Prometheus client.
package trkprom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/objtrack/trk"
)

var (
	deathLabels = []string{"location", "birth_thread", "death_thread"}
	aliveLabels = []string{"location", "birth_thread"}

	deathsDesc = prometheus.NewDesc(
		"trk_deaths_total",
		"Completed tracked tasks per birth site and death thread.",
		deathLabels, nil,
	)
	runSecondsDesc = prometheus.NewDesc(
		"trk_run_seconds_total",
		"Total run time of completed tracked tasks.",
		deathLabels, nil,
	)
	runMaxDesc = prometheus.NewDesc(
		"trk_run_seconds_max",
		"Largest single run duration observed.",
		deathLabels, nil,
	)
	queueSecondsDesc = prometheus.NewDesc(
		"trk_queue_seconds_total",
		"Total queue time of completed tracked tasks.",
		deathLabels, nil,
	)
	queueMaxDesc = prometheus.NewDesc(
		"trk_queue_seconds_max",
		"Largest single queue duration observed.",
		deathLabels, nil,
	)
	aliveDesc = prometheus.NewDesc(
		"trk_alive",
		"Tracked tasks born but not yet matched by a death.",
		aliveLabels, nil,
	)
)

// Collector implements prometheus.Collector over a sweep source.
type Collector struct {
	collect func() *trk.Sweep
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns a collector scraping via the given function, which
// is usually [trk.Collect].
func NewCollector(collect func() *trk.Sweep) *Collector {
	return &Collector{
		collect: collect,
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- deathsDesc
	ch <- runSecondsDesc
	ch <- runMaxDesc
	ch <- queueSecondsDesc
	ch <- queueMaxDesc
	ch <- aliveDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	sweep := c.collect()

	for _, snap := range sweep.Snapshots {
		var (
			location    = snap.Location().String()
			birthThread = snap.BirthThreadName()
			stats       = snap.DeathStats()
		)

		if snap.StillAlive() {
			ch <- prometheus.MustNewConstMetric(
				aliveDesc, prometheus.GaugeValue,
				float64(snap.Count()),
				location, birthThread,
			)
			continue
		}

		deathThread := snap.DeathThreadName()

		ch <- prometheus.MustNewConstMetric(
			deathsDesc, prometheus.CounterValue,
			float64(stats.Count()),
			location, birthThread, deathThread,
		)
		ch <- prometheus.MustNewConstMetric(
			runSecondsDesc, prometheus.CounterValue,
			stats.RunDurationTotal().Seconds(),
			location, birthThread, deathThread,
		)
		ch <- prometheus.MustNewConstMetric(
			runMaxDesc, prometheus.GaugeValue,
			stats.RunDurationMax().Seconds(),
			location, birthThread, deathThread,
		)
		ch <- prometheus.MustNewConstMetric(
			queueSecondsDesc, prometheus.CounterValue,
			stats.QueueDurationTotal().Seconds(),
			location, birthThread, deathThread,
		)
		ch <- prometheus.MustNewConstMetric(
			queueMaxDesc, prometheus.GaugeValue,
			stats.QueueDurationMax().Seconds(),
			location, birthThread, deathThread,
		)
	}
}
