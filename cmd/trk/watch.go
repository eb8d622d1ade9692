package main

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffval"
	"github.com/peterbourgon/unixtransport"

	"github.com/objtrack/trk"
	"github.com/objtrack/trk/trkweb"
)

type watchConfig struct {
	*rootConfig

	uri   string
	retry time.Duration
	top   int
}

func (cfg *watchConfig) register(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{
		LongName:    "uri",
		Value:       ffval.NewValueDefault(&cfg.uri, "localhost:8087/profiler"),
		Usage:       "base URI of a profiler server",
		Placeholder: "URI",
	})
	fs.AddFlag(ff.FlagConfig{
		LongName: "retry",
		Value:    ffval.NewValueDefault(&cfg.retry, 1*time.Second),
		Usage:    "stream reconnect interval",
	})
	fs.AddFlag(ff.FlagConfig{
		LongName: "top",
		Value:    ffval.NewValueDefault(&cfg.top, 5),
		Usage:    "call sites to print per sweep, by total run time",
	})
}

func (cfg *watchConfig) Exec(ctx context.Context, args []string) error {
	transport := &http.Transport{}
	unixtransport.Register(transport)

	client := trkweb.NewClient(&http.Client{Transport: transport}, cfg.uri)
	client.RetryInterval = cfg.retry

	cfg.logger.Info().Str("uri", cfg.uri).Msg("watching")

	sweeps := make(chan trk.SweepData)

	var g run.Group

	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(func() error {
			return client.Stream(ctx, sweeps)
		}, func(error) {
			cancel()
		})
	}

	{
		done := make(chan struct{})
		g.Add(func() error {
			for {
				select {
				case sweep := <-sweeps:
					cfg.printSweep(sweep)
				case <-done:
					return nil
				}
			}
		}, func(error) {
			close(done)
		})
	}

	{
		g.Add(run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM))
	}

	return g.Run()
}

func (cfg *watchConfig) printSweep(sweep trk.SweepData) {
	var (
		deaths int
		alive  int
	)
	for _, snap := range sweep.Snapshots {
		if snap.StillAlive {
			alive += snap.Count
		} else {
			deaths += snap.Count
		}
	}

	fmt.Fprintf(cfg.stdout, "sweep %s: %d snapshots, %d deaths, %d alive\n",
		sweep.ID, len(sweep.Snapshots), deaths, alive)

	dead := make([]trk.SnapshotData, 0, len(sweep.Snapshots))
	for _, snap := range sweep.Snapshots {
		if !snap.StillAlive {
			dead = append(dead, snap)
		}
	}
	sort.Slice(dead, func(i, j int) bool {
		return dead[i].RunTotal.Duration() > dead[j].RunTotal.Duration()
	})
	if len(dead) > cfg.top {
		dead = dead[:cfg.top]
	}

	for _, snap := range dead {
		fmt.Fprintf(cfg.stdout, "  %s  %s -> %s  n=%d run=%s (avg %s) queue=%s (avg %s)\n",
			snap.Location.String(),
			snap.BirthThread, snap.DeathThread,
			snap.Count,
			snap.RunTotal.Duration(), snap.RunAverage.Duration(),
			snap.QueueTotal.Duration(), snap.QueueAverage.Duration(),
		)
	}
}
