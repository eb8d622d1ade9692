// trk is a CLI tool for running and observing the tracked-task profiler.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/oklog/run"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/peterbourgon/ff/v4/ffval"
	"github.com/phuslu/log"
)

func main() {
	var (
		ctx    = context.Background()
		stdout = os.Stdout
		stderr = os.Stderr
		args   = os.Args[1:]
	)
	err := exec(ctx, stdout, stderr, args)
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.As(err, &(run.SignalError{})):
		os.Exit(0)
	case err != nil:
		fmt.Fprintf(stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func exec(ctx context.Context, stdout, stderr io.Writer, args []string) (err error) {
	rootConfig := &rootConfig{
		stdout: stdout,
		stderr: stderr,
	}

	rootFlags := ff.NewFlagSet("trk")
	rootConfig.register(rootFlags)

	rootCommand := &ff.Command{
		Name:      "trk",
		ShortHelp: "run and observe the tracked-task profiler",
		Flags:     rootFlags,
	}

	// Config for `trk demo`.
	demoConfig := &demoConfig{rootConfig: rootConfig}
	demoFlags := ff.NewFlagSet("demo").SetParent(rootFlags)
	demoConfig.register(demoFlags)
	demoCommand := &ff.Command{
		Name:      "demo",
		ShortHelp: "run a demo workload and serve its profile over HTTP",
		LongHelp:  "Run a small producer/worker workload through the profiler, and serve sweeps and Prometheus metrics.",
		Flags:     demoFlags,
		Exec:      demoConfig.Exec,
	}
	rootCommand.Subcommands = append(rootCommand.Subcommands, demoCommand)

	// Config for `trk watch`.
	watchConfig := &watchConfig{rootConfig: rootConfig}
	watchFlags := ff.NewFlagSet("watch").SetParent(rootFlags)
	watchConfig.register(watchFlags)
	watchCommand := &ff.Command{
		Name:      "watch",
		ShortHelp: "stream sweep summaries from a running instance",
		Flags:     watchFlags,
		Exec:      watchConfig.Exec,
	}
	rootCommand.Subcommands = append(rootCommand.Subcommands, watchCommand)

	// Print help when appropriate.
	showHelp := true
	defer func() {
		errHelp := errors.Is(err, ff.ErrHelp) || errors.Is(err, ff.ErrNoExec)
		if showHelp || errHelp {
			fmt.Fprintf(stderr, "\n%s\n", ffhelp.Command(rootCommand))
		}
		if errHelp {
			err = nil
		}
	}()

	if err := rootCommand.Parse(args, ff.WithEnvVarPrefix("TRK")); err != nil {
		return err
	}

	rootConfig.logger = log.Logger{
		Level: parseLogLevel(rootConfig.logLevel),
		Writer: &log.ConsoleWriter{
			Writer:         stderr,
			ColorOutput:    false,
			EndWithMessage: true,
		},
	}

	showHelp = false

	return rootCommand.Run(ctx)
}

//
//
//

type rootConfig struct {
	stdout io.Writer
	stderr io.Writer

	logLevel string
	logger   log.Logger
}

func (cfg *rootConfig) register(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{
		ShortName:   'l',
		LongName:    "log",
		Value:       ffval.NewEnum(&cfg.logLevel, "info", "debug", "trace", "warn", "error"),
		Usage:       "log level: trace, debug, info, warn, error",
		Placeholder: "LEVEL",
	})
}

func parseLogLevel(s string) log.Level {
	switch s {
	case "trace":
		return log.TraceLevel
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
