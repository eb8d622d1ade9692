package trkweb_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/objtrack/trk"
	"github.com/objtrack/trk/trkweb"
)

func TestServerSweep(t *testing.T) {
	trk.SetTracking(true)

	var (
		born = trk.NewNamedRegistry("e2e-born")
		died = trk.NewNamedRegistry("e2e-died")
		loc  = trk.Location{Function: "e2e.makeTask", File: "e2e.go", Line: 10}
	)

	rec := born.TallyBirth(loc)
	died.TallyDeath(rec, 5*time.Millisecond, 10*time.Millisecond)

	server := trkweb.NewServer(trk.Collect)
	ts := httptest.NewServer(server)
	defer ts.Close()

	client := trkweb.NewClient(http.DefaultClient, ts.URL)

	sweep, err := client.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if sweep.ID == "" {
		t.Error("sweep missing ID")
	}

	var found bool
	for _, snap := range sweep.Snapshots {
		if snap.Location != loc {
			continue
		}
		if snap.BirthThread != "e2e-born" || snap.DeathThread != "e2e-died" {
			continue
		}
		found = true
		if want, have := 1, snap.Count; want != have {
			t.Errorf("count: want %d, have %d", want, have)
		}
		if want, have := 10*time.Millisecond, snap.RunTotal.Duration(); want != have {
			t.Errorf("run total: want %v, have %v", want, have)
		}
		if want, have := 5*time.Millisecond, snap.QueueTotal.Duration(); want != have {
			t.Errorf("queue total: want %v, have %v", want, have)
		}
	}
	if !found {
		t.Errorf("no snapshot for %v in %d snapshots", loc, len(sweep.Snapshots))
	}
}

func TestServerHistoryAndStream(t *testing.T) {
	trk.SetTracking(true)

	server := trkweb.NewServer(trk.Collect).
		SetSweepInterval(10 * time.Millisecond).
		SetHistorySize(5)

	ts := httptest.NewServer(server)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go server.Run(ctx)

	client := trkweb.NewClient(http.DefaultClient, ts.URL)

	// The stream should deliver a sweep within a few intervals.
	ch := make(chan trk.SweepData, 1)
	streamErr := make(chan error, 1)
	go func() { streamErr <- client.Stream(ctx, ch) }()

	select {
	case sw := <-ch:
		if sw.ID == "" {
			t.Error("streamed sweep missing ID")
		}
	case err := <-streamErr:
		t.Fatalf("stream ended early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("no sweep streamed")
	}

	// By now at least one background sweep is retained.
	history, err := client.History(ctx, 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) == 0 {
		t.Error("history empty")
	}

	cancel()
	if err := <-streamErr; err != nil {
		t.Errorf("stream: %v", err)
	}
}

func TestServerRejectsNonGET(t *testing.T) {
	server := trkweb.NewServer(trk.Collect)
	ts := httptest.NewServer(server)
	defer ts.Close()

	resp, err := http.Post(ts.URL, "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()

	if want, have := http.StatusMethodNotAllowed, resp.StatusCode; want != have {
		t.Errorf("status: want %d, have %d", want, have)
	}
}

func TestStreamRequiresAccept(t *testing.T) {
	server := trkweb.NewServer(trk.Collect)
	ts := httptest.NewServer(server)
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()

	if want, have := http.StatusPreconditionRequired, resp.StatusCode; want != have {
		t.Errorf("status: want %d, have %d", want, have)
	}
}
