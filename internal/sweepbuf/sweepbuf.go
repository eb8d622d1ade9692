// Package sweepbuf keeps a bounded history of recent sweeps.
package sweepbuf

import (
	"sync"

	"github.com/objtrack/trk"
)

// Buffer is a fixed-capacity collection of the most recent sweeps. Adding
// beyond the capacity drops the oldest entry.
type Buffer struct {
	mtx sync.Mutex
	max int
	buf []trk.SweepData // oldest first
}

// New returns an empty buffer holding at most max sweeps.
func New(max int) *Buffer {
	if max < 1 {
		max = 1
	}
	return &Buffer{
		max: max,
	}
}

// Add appends the sweep, evicting the oldest if the buffer is full.
func (b *Buffer) Add(sw trk.SweepData) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if len(b.buf) >= b.max {
		// Shift rather than reslice, so the backing array doesn't pin
		// evicted sweeps.
		copy(b.buf, b.buf[1:])
		b.buf = b.buf[:len(b.buf)-1]
	}

	b.buf = append(b.buf, sw)
}

// Last returns the most recent sweep, if any.
func (b *Buffer) Last() (trk.SweepData, bool) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if len(b.buf) == 0 {
		return trk.SweepData{}, false
	}

	return b.buf[len(b.buf)-1], true
}

// Recent returns up to n sweeps, newest first. n <= 0 means all of them.
func (b *Buffer) Recent(n int) []trk.SweepData {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if n <= 0 || n > len(b.buf) {
		n = len(b.buf)
	}

	out := make([]trk.SweepData, 0, n)
	for i := len(b.buf) - 1; i >= len(b.buf)-n; i-- {
		out = append(out, b.buf[i])
	}

	return out
}

// Len returns the number of sweeps currently held.
func (b *Buffer) Len() int {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	return len(b.buf)
}
