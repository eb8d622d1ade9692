package trk

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestTallyBirthCounts(t *testing.T) {
	testSetup(t)

	r := NewNamedRegistry("main")
	loc := Here()

	const n = 7
	var rec *BirthRecord
	for i := 0; i < n; i++ {
		rec = r.TallyBirth(loc)
	}

	if rec == nil {
		t.Fatal("TallyBirth returned nil while active")
	}
	if want, have := n, rec.BirthCount(); want != have {
		t.Errorf("birth count: want %d, have %d", want, have)
	}
	if want, have := loc, rec.Location(); want != have {
		t.Errorf("location: want %v, have %v", want, have)
	}
	if want, have := r, rec.BirthThread(); want != have {
		t.Errorf("birth thread: want %v, have %v", want, have)
	}
}

func TestTallyBirthOneRecordPerLocation(t *testing.T) {
	testSetup(t)

	r := NewNamedRegistry("main")
	locA := Location{Function: "a", File: "a.go", Line: 1}
	locB := Location{Function: "b", File: "b.go", Line: 2}

	a1 := r.TallyBirth(locA)
	b1 := r.TallyBirth(locB)
	a2 := r.TallyBirth(locA)

	if a1 != a2 {
		t.Error("same location produced distinct birth records")
	}
	if a1 == b1 {
		t.Error("distinct locations produced the same birth record")
	}
	if want, have := 2, len(r.SnapshotBirthMap()); want != have {
		t.Errorf("birth map size: want %d, have %d", want, have)
	}
}

func TestTallyDeathCrossThread(t *testing.T) {
	testSetup(t)

	born := NewNamedRegistry("born-here")
	died := NewNamedRegistry("died-there")

	rec := born.TallyBirth(Here())
	died.TallyDeath(rec, 5*time.Millisecond, 10*time.Millisecond)

	deaths := died.SnapshotDeathMap()
	if want, have := 1, len(deaths); want != have {
		t.Fatalf("death map size: want %d, have %d", want, have)
	}

	stats, ok := deaths[rec]
	if !ok {
		t.Fatal("death map missing the birth record key")
	}
	if want, have := 1, stats.Count(); want != have {
		t.Errorf("death count: want %d, have %d", want, have)
	}
	if want, have := 10*time.Millisecond, stats.RunDurationTotal(); want != have {
		t.Errorf("run total: want %v, have %v", want, have)
	}

	// The birth side must not have recorded the death.
	if want, have := 0, len(born.SnapshotDeathMap()); want != have {
		t.Errorf("birth-side death map size: want %d, have %d", want, have)
	}
}

func TestTallyInactiveIsNoop(t *testing.T) {
	testSetup(t)

	r := NewNamedRegistry("main")
	loc := Here()
	live := r.TallyBirth(loc)

	SetTracking(false)

	if rec := r.TallyBirth(loc); rec != nil {
		t.Errorf("TallyBirth while deactivated: want nil, have %v", rec)
	}
	r.TallyDeath(live, time.Second, time.Second)
	if want, have := 0, len(r.SnapshotDeathMap()); want != have {
		t.Errorf("death map size while deactivated: want %d, have %d", want, have)
	}

	SetTracking(true)

	if rec := r.TallyBirth(loc); rec == nil {
		t.Error("TallyBirth after reactivation: want record, have nil")
	}
}

func TestTallyDeathNilRecordDropped(t *testing.T) {
	testSetup(t)

	r := NewNamedRegistry("main")
	r.TallyDeath(nil, time.Second, time.Second)

	if want, have := 0, len(r.SnapshotDeathMap()); want != have {
		t.Errorf("death map size: want %d, have %d", want, have)
	}
}

func TestForgetBirth(t *testing.T) {
	testSetup(t)

	r := NewNamedRegistry("main")
	rec := r.TallyBirth(Here())
	r.TallyBirth(rec.Location())

	r.ForgetBirth(rec)

	if want, have := 1, rec.BirthCount(); want != have {
		t.Errorf("birth count after forget: want %d, have %d", want, have)
	}

	// Records owned by another registry are refused.
	other := NewNamedRegistry("other")
	other.ForgetBirth(rec)
	if want, have := 1, rec.BirthCount(); want != have {
		t.Errorf("birth count after foreign forget: want %d, have %d", want, have)
	}
}

func TestSnapshotDeathMapIsFrozen(t *testing.T) {
	testSetup(t)

	r := NewNamedRegistry("main")
	rec := r.TallyBirth(Here())
	r.TallyDeath(rec, 0, 10*time.Millisecond)

	copied := r.SnapshotDeathMap()

	r.TallyDeath(rec, 0, 99*time.Millisecond)

	stats := copied[rec]
	if want, have := 1, stats.Count(); want != have {
		t.Errorf("frozen count: want %d, have %d", want, have)
	}
	if want, have := 10*time.Millisecond, stats.RunDurationTotal(); want != have {
		t.Errorf("frozen run total: want %v, have %v", want, have)
	}
}

// TestConcurrentTallyAndSnapshot exercises the asymmetric lock discipline:
// each owner tallies into its own registry while a reader repeatedly pulls
// snapshots. Run with -race.
func TestConcurrentTallyAndSnapshot(t *testing.T) {
	testSetup(t)

	const (
		workers = 4
		births  = 1000
	)

	regs := make([]*Registry, workers)
	for i := range regs {
		regs[i] = NewNamedRegistry(fmt.Sprintf("owner-%d", i))
	}

	var wg sync.WaitGroup
	for _, r := range regs {
		wg.Add(1)
		go func(r *Registry) {
			defer wg.Done()
			loc := Location{Function: "work", File: "work.go", Line: 1}
			for i := 0; i < births; i++ {
				rec := r.TallyBirth(loc)
				r.TallyDeath(rec, time.Microsecond, time.Microsecond)
			}
		}(r)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			for _, r := range regs {
				_ = r.SnapshotBirthMap()
				_ = r.SnapshotDeathMap()
			}
		}
	}()

	wg.Wait()
	<-done

	for _, r := range regs {
		for _, stats := range r.SnapshotDeathMap() {
			if want, have := births, stats.Count(); want != have {
				t.Errorf("%s: death count: want %d, have %d", r.Name(), want, have)
			}
		}
	}
}
