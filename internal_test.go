package trk

import (
	"testing"
	"time"
)

// testSetup puts the global tracking state into a fresh, active incarnation,
// and restores pristine state when the test finishes. Tests that touch
// global state share it, so none of them run in parallel.
func testSetup(t *testing.T) {
	t.Helper()
	shutdownSingleThreadedCleanup()
	SetTracking(true)
	t.Cleanup(shutdownSingleThreadedCleanup)
}

// testClock is a manually advanced time source.
type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) time.Time {
	c.now = c.now.Add(d)
	return c.now
}
