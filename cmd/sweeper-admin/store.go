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

	"github.com/target/mmk-sweeper/config"
	"github.com/target/mmk-sweeper/internal/adapters/sweeper"
	"github.com/target/mmk-sweeper/internal/bootstrap"
	"github.com/target/mmk-sweeper/internal/domain/model"
	"github.com/target/mmk-sweeper/internal/migrate"
)

const defaultMigrationTimeout = 5 * time.Minute

func runCounts(cmdCtx *commandContext, args []string) error {
	opts, _, err := parseSweepFlags("counts", args, false)
	if err != nil {
		return err
	}
	return withRunner(cmdCtx, opts, func(ctx context.Context, r *sweeper.Runner) error {
		counts, err := r.Service().Snapshot(ctx)
		if err != nil {
			return err
		}
		return printCounts(cmdCtx.Out, counts, opts.JSON)
	})
}

func printCounts(w io.Writer, counts model.CategoryCounts, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(counts)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writeln(tw, "CATEGORY\tENTRIES"); err != nil {
		return fmt.Errorf("write counts header: %w", err)
	}
	for _, c := range model.AllCategories() {
		n, ok := counts[c]
		if !ok {
			continue
		}
		if err := writef(tw, "%s\t%d\n", c, n); err != nil {
			return fmt.Errorf("write count row %s: %w", c, err)
		}
	}
	return tw.Flush()
}

func runListRecurring(cmdCtx *commandContext, args []string) error {
	opts, _, err := parseSweepFlags("list-recurring", args, false)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	store, err := bootstrap.OpenJobStore(ctx, &cmdCtx.Config, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	jobs, err := store.Store.RecurringJobs(ctx)
	if err != nil {
		return fmt.Errorf("list recurring jobs: %w", err)
	}
	return printRecurring(cmdCtx.Out, jobs, opts.JSON)
}

func printRecurring(w io.Writer, jobs []model.RecurringJob, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(jobs)
	}
	if len(jobs) == 0 {
		return writeln(w, "No recurring jobs.")
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writeln(tw, "ID\tCRON\tQUEUE\tJOB\tNEXT EXECUTION"); err != nil {
		return fmt.Errorf("write recurring header: %w", err)
	}
	for _, j := range jobs {
		job := "-"
		if j.Invocation != nil {
			job = j.Invocation.Type + "." + j.Invocation.Method
		}
		next := "-"
		if j.NextExecution != nil {
			next = j.NextExecution.UTC().Format(time.RFC3339)
		}
		queue := j.Queue
		if queue == "" {
			queue = "-"
		}
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\n", j.ID, j.Cron, queue, job, next); err != nil {
			return fmt.Errorf("write recurring row %s: %w", j.ID, err)
		}
	}
	return tw.Flush()
}

type migrateOptions struct {
	Timeout time.Duration
	Status  bool
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := migrateOptions{Timeout: defaultMigrationTimeout}
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout, "Maximum duration to wait for migrations to complete")
	fs.BoolVar(&opts.Status, "status", false, "Only report which migrations are applied")

	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, err
	}
	if opts.Timeout <= 0 {
		return migrateOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}
	if cmdCtx.Config.Store.Backend != config.StoreBackendPostgres {
		return fmt.Errorf("migrations apply to the postgres backend; STORE_BACKEND is %q", cmdCtx.Config.Store.Backend)
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	if !opts.Status {
		cmdCtx.Logger.InfoContext(ctx, "running job store migrations")
		if err := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); err != nil {
			return err
		}
	}

	status, err := migrate.Status(ctx, db)
	if err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	tw := tabwriter.NewWriter(cmdCtx.Out, 0, 4, 2, ' ', 0)
	if err := writeln(tw, "VERSION\tAPPLIED"); err != nil {
		return err
	}
	for _, m := range status {
		if err := writef(tw, "%s\t%t\n", m.Version, m.Applied); err != nil {
			return err
		}
	}
	return tw.Flush()
}
