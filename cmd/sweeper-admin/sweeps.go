package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/target/mmk-sweeper/internal/adapters/sweeper"
	"github.com/target/mmk-sweeper/internal/bootstrap"
	"github.com/target/mmk-sweeper/internal/domain/model"
)

const defaultCommandTimeout = 30 * time.Minute

type sweepOptions struct {
	BatchSize  int
	Timeout    time.Duration
	JSON       bool
	Operations string
	Notify     bool
}

func parseSweepFlags(name string, args []string, withOperations bool) (sweepOptions, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts sweepOptions
	fs.IntVar(&opts.BatchSize, "batch-size", 0, "Override SWEEPER_BATCH_SIZE for this run")
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration for the whole command")
	fs.BoolVar(&opts.JSON, "json", false, "Print results as JSON")
	fs.BoolVar(&opts.Notify, "notify", false, "Send failure notifications through configured sinks")
	if withOperations {
		fs.StringVar(&opts.Operations, "operations", "", "Comma-separated operations (defaults to SWEEPER_OPERATIONS)")
	}

	if err := fs.Parse(args); err != nil {
		return sweepOptions{}, nil, err
	}
	if opts.Timeout <= 0 {
		return sweepOptions{}, nil, errors.New("--timeout must be greater than zero")
	}
	if opts.BatchSize < 0 {
		return sweepOptions{}, nil, errors.New("--batch-size must not be negative")
	}
	return opts, fs.Args(), nil
}

// withRunner connects the store, wires a runner and calls fn under the command timeout.
func withRunner(cmdCtx *commandContext, opts sweepOptions, fn func(context.Context, *sweeper.Runner) error) error {
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	cfg := cmdCtx.Config
	if opts.BatchSize > 0 {
		cfg.Sweeper.BatchSize = opts.BatchSize
	}
	// The command timeout already bounds the run.
	cfg.Sweeper.RunTimeout = 0
	if !opts.Notify {
		cfg.Observability.Notifications.Enabled = false
	}

	store, err := bootstrap.OpenJobStore(ctx, &cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			cmdCtx.Logger.Warn("job store close failed", "error", cerr)
		}
	}()

	obs := bootstrap.BuildObservability(cmdCtx.Logger, cfg.Observability)
	defer func() { _ = obs.Close() }()

	runner, err := bootstrap.NewSweeperRunner(bootstrap.SweeperDeps{
		Config:        &cfg,
		Store:         store,
		Observability: obs,
		Logger:        cmdCtx.Logger,
	})
	if err != nil {
		return err
	}
	return fn(ctx, runner)
}

func runOperation(cmdCtx *commandContext, args []string) error {
	opts, rest, err := parseSweepFlags("run", args, false)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return errors.New("usage: sweeper-admin run [flags] <operation>")
	}
	op := model.Operation(rest[0])
	if !op.Valid() {
		return fmt.Errorf("unknown operation %q", rest[0])
	}

	return withRunner(cmdCtx, opts, func(ctx context.Context, r *sweeper.Runner) error {
		res, runErr := r.RunOnce(ctx, op)
		if printErr := printSweepResults(cmdCtx.Out, []model.SweepResult{res}, opts.JSON); printErr != nil {
			return errors.Join(runErr, printErr)
		}
		return runErr
	})
}

func runAllOperations(cmdCtx *commandContext, args []string) error {
	opts, _, err := parseSweepFlags("run-all", args, true)
	if err != nil {
		return err
	}
	list := opts.Operations
	if list == "" {
		list = cmdCtx.Config.Sweeper.Operations
	}
	ops, err := model.ParseOperations(list)
	if err != nil {
		return err
	}

	return withRunner(cmdCtx, opts, func(ctx context.Context, r *sweeper.Runner) error {
		results, runErr := r.Service().RunAll(ctx, ops)
		if printErr := printSweepResults(cmdCtx.Out, results, opts.JSON); printErr != nil {
			return errors.Join(runErr, printErr)
		}
		return runErr
	})
}

func printSweepResults(w io.Writer, results []model.SweepResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writeln(tw, "OPERATION\tDELETED\tSKIPPED\tEXPIRED\tWARNED\tPAGES\tDURATION\tRUN ID"); err != nil {
		return fmt.Errorf("write results header: %w", err)
	}
	for _, r := range results {
		if err := writef(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
			r.Operation, r.Deleted, r.Skipped, r.Expired, r.Warned, r.Pages,
			r.Duration.Round(time.Millisecond), r.RunID); err != nil {
			return fmt.Errorf("write result row %s: %w", r.Operation, err)
		}
	}
	return tw.Flush()
}
