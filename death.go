package trk

import (
	"time"
)

// DeathStats accumulates the outcomes of every death tallied for one
// [BirthRecord] on one particular registry: a count, plus summed and maximum
// run and queue durations. Instances live in a registry's death map and are
// updated in place, under the registry's lock; value copies of them are
// frozen and safe to share.
type DeathStats struct {
	count      int
	runTotal   time.Duration
	runMax     time.Duration
	queueTotal time.Duration
	queueMax   time.Duration
}

// newAliveStats returns stats carrying only a count, used when synthesizing
// entries for births that have no matching death yet.
func newAliveStats(count int) DeathStats {
	return DeathStats{count: count}
}

// RecordDeath tallies one death with the observed queue and run durations.
// Negative durations are clamped to zero.
func (d *DeathStats) RecordDeath(queueDuration, runDuration time.Duration) {
	if queueDuration < 0 {
		queueDuration = 0
	}
	if runDuration < 0 {
		runDuration = 0
	}

	d.count++

	d.runTotal += runDuration
	if runDuration > d.runMax {
		d.runMax = runDuration
	}

	d.queueTotal += queueDuration
	if queueDuration > d.queueMax {
		d.queueMax = queueDuration
	}
}

// Count returns the number of deaths tallied.
func (d *DeathStats) Count() int { return d.count }

// RunDurationTotal returns the sum of all run durations.
func (d *DeathStats) RunDurationTotal() time.Duration { return d.runTotal }

// RunDurationMax returns the largest single run duration.
func (d *DeathStats) RunDurationMax() time.Duration { return d.runMax }

// QueueDurationTotal returns the sum of all queue durations.
func (d *DeathStats) QueueDurationTotal() time.Duration { return d.queueTotal }

// QueueDurationMax returns the largest single queue duration.
func (d *DeathStats) QueueDurationMax() time.Duration { return d.queueMax }

// AverageRunDuration returns the truncating mean of run durations, and zero
// when no deaths have been tallied.
func (d *DeathStats) AverageRunDuration() time.Duration {
	if d.count == 0 {
		return 0
	}
	return d.runTotal / time.Duration(d.count)
}

// AverageQueueDuration returns the truncating mean of queue durations, and
// zero when no deaths have been tallied.
func (d *DeathStats) AverageQueueDuration() time.Duration {
	if d.count == 0 {
		return 0
	}
	return d.queueTotal / time.Duration(d.count)
}

// AddDeathData merges the other stats into this one, pointwise. It's used
// only when aggregating frozen copies, never on live per-registry data.
func (d *DeathStats) AddDeathData(other DeathStats) {
	d.count += other.count

	d.runTotal += other.runTotal
	if other.runMax > d.runMax {
		d.runMax = other.runMax
	}

	d.queueTotal += other.queueTotal
	if other.queueMax > d.queueMax {
		d.queueMax = other.queueMax
	}
}

// Clear zeroes all accumulators. It is not safe against a concurrent
// RecordDeath, and is acceptable only as a coarse reset of counters for a
// new measurement window: the worst case is a transiently wrong statistic,
// never a corrupted identity. See [ResetAll].
func (d *DeathStats) Clear() {
	*d = DeathStats{}
}
