package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/celtab/benchmark-metrics/metrics"
	"github.com/lib/pq"
)

// ErrDuplicateRun is returned when a run id has already been stored
var ErrDuplicateRun = errors.New("run already stored")

// ErrNoRuns is returned when no run has been stored for a mesh
var ErrNoRuns = errors.New("no stored runs")

const schema = `
CREATE TABLE IF NOT EXISTS speedup_summary (
	run_id           TEXT             NOT NULL,
	mesh             TEXT             NOT NULL,
	amount_processor INTEGER          NOT NULL,
	time_max         DOUBLE PRECISION NOT NULL,
	speedup          DOUBLE PRECISION NOT NULL,
	efficiency       DOUBLE PRECISION NOT NULL,
	created_at       TIMESTAMPTZ      NOT NULL,
	PRIMARY KEY (run_id, amount_processor)
)`

const insertRow = `
INSERT INTO speedup_summary
	(run_id, mesh, amount_processor, time_max, speedup, efficiency, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

const selectLatest = `
SELECT run_id, mesh, created_at, amount_processor, time_max, speedup, efficiency
FROM speedup_summary
WHERE run_id = (
	SELECT run_id FROM speedup_summary
	WHERE mesh = $1
	ORDER BY created_at DESC
	LIMIT 1
)
ORDER BY amount_processor`

// uniqueViolation is the Postgres error code for a duplicate key
const uniqueViolation = "23505"

// Run identifies one stored pipeline execution
type Run struct {
	ID        string
	Mesh      string
	CreatedAt time.Time
}

// Store persists summary rows in Postgres
type Store struct {
	db *sql.DB
}

// Open connects to the database at dsn and checks it is reachable
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database unavailable: %w", err)
	}
	return New(db), nil
}

// New wraps an existing connection pool
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the connection pool
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the summary table if it does not exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveSummary stores every row of a run in one transaction
func (s *Store) SaveSummary(ctx context.Context, run Run, rows []metrics.Row) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, row := range rows {
		_, err := tx.ExecContext(ctx, insertRow,
			run.ID,
			run.Mesh,
			row.AmountProcessor,
			row.TimeMax,
			row.Speedup,
			row.Efficiency,
			run.CreatedAt,
		)
		if err != nil {
			tx.Rollback()
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
				return fmt.Errorf("run %s: %w", run.ID, ErrDuplicateRun)
			}
			return fmt.Errorf("failed to insert row for %d processors: %w", row.AmountProcessor, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", run.ID, err)
	}
	return nil
}

// LatestSummary returns the most recently stored run for mesh, ordered by processor count
func (s *Store) LatestSummary(ctx context.Context, mesh string) (Run, []metrics.Row, error) {
	rs, err := s.db.QueryContext(ctx, selectLatest, mesh)
	if err != nil {
		return Run{}, nil, err
	}
	defer rs.Close()

	var (
		run  Run
		rows []metrics.Row
	)
	for rs.Next() {
		var row metrics.Row
		if err := rs.Scan(
			&run.ID,
			&run.Mesh,
			&run.CreatedAt,
			&row.AmountProcessor,
			&row.TimeMax,
			&row.Speedup,
			&row.Efficiency,
		); err != nil {
			return Run{}, nil, err
		}
		rows = append(rows, row)
	}
	if err := rs.Err(); err != nil {
		return Run{}, nil, err
	}

	if len(rows) == 0 {
		return Run{}, nil, fmt.Errorf("mesh %s: %w", mesh, ErrNoRuns)
	}
	return run, rows, nil
}
