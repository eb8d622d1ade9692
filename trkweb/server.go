// Package trkweb exposes collected profiler data over HTTP: the current
// sweep and a bounded history as JSON, and a live feed of sweeps as
// server-sent events. It deliberately renders nothing; consumers get the
// structural form and do their own presentation.
package trkweb

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/phuslu/log"

	"github.com/objtrack/trk"
	"github.com/objtrack/trk/internal/sweepbuf"
)

// CollectFunc produces a full sweep. It's usually [trk.Collect].
type CollectFunc func() *trk.Sweep

const (
	// DefaultSweepInterval is how often the background sweeper runs.
	DefaultSweepInterval = 5 * time.Second

	// DefaultHistorySize is how many past sweeps are kept for /history.
	DefaultHistorySize = 60
)

// Server serves profiler data. GET / returns a fresh sweep, GET /history
// returns recent background sweeps (newest first, ?n= to limit), and GET
// /stream delivers one server-sent event per background sweep. The
// background sweeper only runs while [Server.Run] does; the other endpoints
// work without it.
type Server struct {
	collect  CollectFunc
	interval time.Duration
	history  *sweepbuf.Buffer
	broker   *Broker
	log      log.Logger
}

// NewServer returns a server collecting via the given function.
func NewServer(collect CollectFunc) *Server {
	return &Server{
		collect:  collect,
		interval: DefaultSweepInterval,
		history:  sweepbuf.New(DefaultHistorySize),
		broker:   NewBroker(),
		log:      log.Logger{Writer: log.IOWriter{Writer: io.Discard}},
	}
}

// SetSweepInterval changes the background sweep cadence.
func (s *Server) SetSweepInterval(d time.Duration) *Server {
	if d > 0 {
		s.interval = d
	}
	return s
}

// SetHistorySize changes how many past sweeps are retained.
func (s *Server) SetHistorySize(n int) *Server {
	s.history = sweepbuf.New(n)
	return s
}

// SetLogger installs a logger. The default discards everything.
func (s *Server) SetLogger(logger log.Logger) *Server {
	s.log = logger
	return s
}

// Run drives the background sweeper until the context is canceled. One
// sweep is taken immediately, then one per interval.
func (s *Server) Run(ctx context.Context) error {
	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	s.sweep()

	for {
		select {
		case <-tick.C:
			s.sweep()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Server) sweep() {
	began := time.Now()
	data := s.collect().Data()
	s.history.Add(data)
	s.broker.Publish(data)

	s.log.Debug().
		Str("sweep", data.ID).
		Int("snapshots", len(data.Snapshots)).
		Dur("took", time.Since(began)).
		Int("subscribers", s.broker.SubscriberCount()).
		Msg("sweep")
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "only GET is supported", http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/", "":
		s.handleSweep(w, r)
	case "/history":
		s.handleHistory(w, r)
	case "/stream":
		s.handleStream(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	began := time.Now()
	data := s.collect().Data()

	s.log.Info().
		Str("sweep", data.ID).
		Int("snapshots", len(data.Snapshots)).
		Dur("took", time.Since(began)).
		Str("remote", r.RemoteAddr).
		Msg("serve sweep")

	respondJSON(w, data)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	n := parseDefault(r.URL.Query().Get("n"), strconv.Atoi, 0)
	respondJSON(w, s.history.Recent(n))
}

//
//
//

func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

func parseDefault[T any](s string, parse func(string) (T, error), def T) T {
	if v, err := parse(s); err == nil {
		return v
	}
	return def
}
