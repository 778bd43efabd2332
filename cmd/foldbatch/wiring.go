package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/sourceplane/foldbatch/internal/ledger"
	"github.com/sourceplane/foldbatch/internal/model"
	"github.com/sourceplane/foldbatch/internal/msa"
	"github.com/sourceplane/foldbatch/internal/render"
	"github.com/sourceplane/foldbatch/internal/runner"
	"github.com/sourceplane/foldbatch/internal/schema"
	"github.com/sourceplane/foldbatch/internal/store"
)

// newSearcher returns nil when no alignment search command is configured
func newSearcher() (msa.Searcher, error) {
	if cfg.MSA.Command == "" {
		return nil, nil
	}
	searcher, err := msa.NewCommandSearcher(cfg.MSA.Command, cfg.MSA.PairingDB, log)
	if err != nil {
		return nil, fmt.Errorf("invalid alignment search command: %w", err)
	}
	return searcher, nil
}

// newGate creates the alignment gate used during prediction. Results go to
// the configured result dir, or <out_dir>/msa_res.
func newGate(out string) (*msa.Gate, error) {
	searcher, err := newSearcher()
	if err != nil {
		return nil, err
	}
	if cfg.Engine.AllowSearch && searcher == nil {
		log.Warn("use_msa_server is set but msa.command is not configured, jobs without alignments will fail")
	}

	resultDir := cfg.MSA.ResultDir
	if resultDir == "" {
		resultDir = filepath.Join(out, "msa_res")
	}
	return msa.NewGate(searcher, resultDir, cfg.MSA.PairingDB, true, log), nil
}

// newRunner wires the runner with its gate, hooks and progress bar. The
// returned cleanup releases the ledger connection.
func newRunner(ctx context.Context, out string) (*runner.Runner, func(), error) {
	gate, err := newGate(out)
	if err != nil {
		return nil, nil, err
	}
	validator, err := schema.NewValidator()
	if err != nil {
		return nil, nil, err
	}

	hooks, cleanup, err := newHooks(ctx)
	if err != nil {
		return nil, nil, err
	}

	engine := runner.NewCommandEngine(&http.Client{}, log)
	r := runner.New(cfg.Engine, engine, gate,
		runner.WithLogger(log),
		runner.WithValidator(validator),
		runner.WithStagingRoot(cfg.Staging.Root),
		runner.WithHooks(hooks...),
		runner.WithProgress(newProgress()),
	)
	return r, cleanup, nil
}

// newHooks connects the optional result publisher and outcome ledger
func newHooks(ctx context.Context) ([]runner.ResultHook, func(), error) {
	hooks := make([]runner.ResultHook, 0, 2)
	cleanup := func() {}

	if cfg.Store.Enabled() {
		fmt.Println("□ Connecting to object store...")
		client, err := store.NewMinIOClient(cfg.Store)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create object store client: %w", err)
		}
		if err := store.EnsureBucket(ctx, client, cfg.Store.Bucket, cfg.Store.Region); err != nil {
			return nil, nil, fmt.Errorf("failed to prepare bucket: %w", err)
		}
		hooks = append(hooks, store.NewPublisher(client, cfg.Store.Bucket, cfg.Store.Prefix, log))
	}

	if cfg.Ledger.Enabled() {
		fmt.Println("□ Connecting to ledger...")
		db, err := ledger.Open(ctx, cfg.Ledger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to ledger: %w", err)
		}
		l, err := ledger.New(db, cfg.Ledger.Table)
		if err != nil {
			closeDB(db)
			return nil, nil, err
		}
		if err := l.EnsureSchema(ctx); err != nil {
			closeDB(db)
			return nil, nil, fmt.Errorf("failed to prepare ledger: %w", err)
		}
		hooks = append(hooks, l)
		cleanup = func() { closeDB(db) }
	}

	return hooks, cleanup, nil
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		log.WithError(err).Warn("failed to close ledger connection")
	}
}

// newProgress drives a progress bar on stderr. The bar is created on the
// first callback, once the total is known.
func newProgress() func(done, total int) {
	var bar *progressbar.ProgressBar
	return func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription("inference"),
				progressbar.OptionShowCount(),
				progressbar.OptionSetPredictTime(true),
			)
		}
		_ = bar.Set(done)
		if done == total {
			_ = bar.Finish()
			fmt.Fprintln(os.Stderr)
		}
	}
}

// finishReport prints the summary and writes the report file when requested
func finishReport(report *model.BatchRunReport) error {
	if report == nil {
		return nil
	}

	fmt.Println("\n" + render.NewReportViewer(report).ViewSummary())

	if reportFile != "" {
		if err := render.NewRenderer().WriteReport(report, reportFile); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Printf("✓ Report saved to: %s\n", reportFile)
	}
	return nil
}
