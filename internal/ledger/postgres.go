package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sourceplane/foldbatch/internal/config"
	"github.com/sourceplane/foldbatch/internal/model"
)

// DB is the subset of *sql.DB used by the ledger
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Job statuses recorded in the ledger
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Ledger records one row per finished job
type Ledger struct {
	db    DB
	table string
	now   func() time.Time
}

// Open connects to Postgres through the pgx stdlib driver
func Open(ctx context.Context, cfg config.Ledger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}

// New creates a ledger writing to table
func New(db DB, table string) (*Ledger, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid ledger table name %q", table)
	}
	return &Ledger{db: db, table: table, now: time.Now}, nil
}

// EnsureSchema creates the ledger table if needed
func (l *Ledger) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	batch_id TEXT NOT NULL,
	job_id TEXT NOT NULL,
	name TEXT NOT NULL,
	status TEXT NOT NULL,
	error TEXT,
	output_path TEXT,
	finished_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (batch_id, job_id)
)`, l.table)
	if _, err := l.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create ledger table: %w", err)
	}
	return nil
}

// JobFinished implements runner.ResultHook
func (l *Ledger) JobFinished(ctx context.Context, batchID string, job *model.JobDescriptor, result model.JobResult) error {
	status := StatusSucceeded
	var errText sql.NullString
	if !result.OK() {
		status = StatusFailed
		errText = sql.NullString{String: result.Err.Error(), Valid: true}
	}

	query := fmt.Sprintf(`INSERT INTO %s (batch_id, job_id, name, status, error, output_path, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (batch_id, job_id) DO UPDATE SET status = EXCLUDED.status, error = EXCLUDED.error, finished_at = EXCLUDED.finished_at`, l.table)

	_, err := l.db.ExecContext(ctx, query,
		batchID,
		result.JobID,
		job.Name,
		status,
		errText,
		job.OutputPath,
		l.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("record job %s: %w", result.JobID, err)
	}
	return nil
}
