package trk

import (
	"testing"
	"time"
)

func TestTallyRunOnNamedThread(t *testing.T) {
	testSetup(t)

	clock := newTestClock()
	restore := SetTimeSource(clock.Now)
	defer restore()

	var (
		born = NewNamedRegistry("born")
		died = NewNamedRegistry("died")
	)

	rec := TallyBirthIfActive(born, Here())
	posted := Now()
	start := clock.Advance(5 * time.Millisecond)
	end := clock.Advance(10 * time.Millisecond)

	TallyRunOnNamedThread(died, rec, posted, start, end)

	stats := died.SnapshotDeathMap()[rec]
	if want, have := 5*time.Millisecond, stats.QueueDurationTotal(); want != have {
		t.Errorf("queue duration: want %v, have %v", want, have)
	}
	if want, have := 10*time.Millisecond, stats.RunDurationTotal(); want != have {
		t.Errorf("run duration: want %v, have %v", want, have)
	}
}

func TestTallyRunInScopedRegion(t *testing.T) {
	testSetup(t)

	clock := newTestClock()
	restore := SetTimeSource(clock.Now)
	defer restore()

	r := NewNamedRegistry("main")
	rec := TallyBirthIfActive(r, Here())

	start := NowForStartOfRun()
	end := clock.Advance(3 * time.Millisecond)

	TallyRunInScopedRegion(r, rec, start, end)

	stats := r.SnapshotDeathMap()[rec]
	if want, have := time.Duration(0), stats.QueueDurationTotal(); want != have {
		t.Errorf("queue duration: want %v, have %v", want, have)
	}
	if want, have := 3*time.Millisecond, stats.RunDurationTotal(); want != have {
		t.Errorf("run duration: want %v, have %v", want, have)
	}
}

func TestTallyHooksDropNilToken(t *testing.T) {
	testSetup(t)

	r := NewNamedRegistry("main")

	TallyRunOnNamedThread(r, nil, time.Time{}, time.Time{}, time.Time{})
	TallyRunOnWorkerThread(r, nil, time.Time{}, time.Time{}, time.Time{})
	TallyRunInScopedRegion(r, nil, time.Time{}, time.Time{})
	TallyRunOnNamedThread(nil, nil, time.Time{}, time.Time{}, time.Time{})

	if want, have := 0, len(r.SnapshotDeathMap()); want != have {
		t.Errorf("death map size: want %d, have %d", want, have)
	}
}

func TestTallyBirthIfActiveNilRegistry(t *testing.T) {
	testSetup(t)

	if rec := TallyBirthIfActive(nil, Here()); rec != nil {
		t.Errorf("want nil, have %v", rec)
	}
}

func TestNowInactiveIsZero(t *testing.T) {
	testSetup(t)

	SetTracking(false)

	if have := Now(); !have.IsZero() {
		t.Errorf("Now while deactivated: want zero, have %v", have)
	}
	if have := NowForStartOfRun(); !have.IsZero() {
		t.Errorf("NowForStartOfRun while deactivated: want zero, have %v", have)
	}
	if have := NowForEndOfRun(); !have.IsZero() {
		t.Errorf("NowForEndOfRun while deactivated: want zero, have %v", have)
	}

	SetTracking(true)

	if have := Now(); have.IsZero() {
		t.Error("Now while active: want non-zero, have zero")
	}
}
