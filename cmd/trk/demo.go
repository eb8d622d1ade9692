package main

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffval"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/objtrack/trk"
	"github.com/objtrack/trk/trkprom"
	"github.com/objtrack/trk/trkweb"
)

type demoConfig struct {
	*rootConfig

	listenAddr    string
	workers       int
	rate          int
	sweepInterval time.Duration
}

func (cfg *demoConfig) register(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{
		LongName: "listen-addr",
		Value:    ffval.NewValueDefault(&cfg.listenAddr, "localhost:8087"),
		Usage:    "HTTP listen address",
	})
	fs.AddFlag(ff.FlagConfig{
		LongName: "workers",
		Value:    ffval.NewValueDefault(&cfg.workers, 4),
		Usage:    "worker goroutine count",
	})
	fs.AddFlag(ff.FlagConfig{
		LongName: "rate",
		Value:    ffval.NewValueDefault(&cfg.rate, 200),
		Usage:    "tasks produced per second",
	})
	fs.AddFlag(ff.FlagConfig{
		LongName: "sweep-interval",
		Value:    ffval.NewValueDefault(&cfg.sweepInterval, trkweb.DefaultSweepInterval),
		Usage:    "background sweep interval",
	})
}

// task is one unit of demo work, carrying its birth token and post time the
// same way a real executor's queue entry would.
type task struct {
	birth  *trk.BirthRecord
	posted time.Time
	cost   time.Duration
}

func (cfg *demoConfig) Exec(ctx context.Context, args []string) error {
	trk.SetTracking(true)

	server := trkweb.NewServer(trk.Collect).
		SetSweepInterval(cfg.sweepInterval).
		SetLogger(cfg.logger)

	registry := prometheus.NewRegistry()
	if err := registry.Register(trkprom.NewCollector(trk.Collect)); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/profiler/", http.StripPrefix("/profiler", server))
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	ln, err := net.Listen("tcp", cfg.listenAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	cfg.logger.Info().
		Str("addr", cfg.listenAddr).
		Int("workers", cfg.workers).
		Int("rate", cfg.rate).
		Msg("demo starting")

	tasks := make(chan task, 128)

	var g run.Group

	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(func() error {
			return cfg.produce(ctx, tasks)
		}, func(error) {
			cancel()
		})
	}

	for i := 0; i < cfg.workers; i++ {
		ctx, cancel := context.WithCancel(ctx)
		g.Add(func() error {
			return cfg.work(ctx, tasks)
		}, func(error) {
			cancel()
		})
	}

	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(func() error {
			return server.Run(ctx)
		}, func(error) {
			cancel()
		})
	}

	{
		httpServer := &http.Server{Handler: mux}
		g.Add(func() error {
			return httpServer.Serve(ln)
		}, func(error) {
			httpServer.Close()
		})
	}

	{
		g.Add(run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM))
	}

	return g.Run()
}

// produce owns the "producer" registry: all births are tallied here, on
// this goroutine.
func (cfg *demoConfig) produce(ctx context.Context, tasks chan<- task) error {
	r := trk.NewNamedRegistry("producer")

	interval := time.Second / time.Duration(cfg.rate)
	if interval <= 0 {
		interval = time.Millisecond
	}

	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-tick.C:
			t := makeTask(r)
			select {
			case tasks <- t:
			case <-ctx.Done():
				return ctx.Err()
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// work owns one pooled worker registry: all deaths land here.
func (cfg *demoConfig) work(ctx context.Context, tasks <-chan task) error {
	r := trk.AcquireWorker()
	defer trk.ReleaseWorker(r)

	for {
		select {
		case t := <-tasks:
			start := trk.NowForStartOfRun()
			time.Sleep(t.cost)
			end := trk.NowForEndOfRun()
			trk.TallyRunOnWorkerThread(r, t.birth, t.posted, start, end)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// makeTask fabricates one of three kinds of work, each with its own birth
// site and cost profile, so sweeps have something interesting to show.
func makeTask(r *trk.Registry) task {
	switch rand.Intn(3) {
	case 0:
		return newTask(r, 500*time.Microsecond) // cheap and frequent
	case 1:
		return newTask(r, 2*time.Millisecond)
	default:
		return newTask(r, 8*time.Millisecond) // the slow one
	}
}

func newTask(r *trk.Registry, base time.Duration) task {
	return task{
		birth:  trk.TallyBirthIfActive(r, trk.Caller(1)),
		posted: trk.Now(),
		cost:   base + time.Duration(rand.Int63n(int64(base))),
	}
}
