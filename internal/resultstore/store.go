// Package resultstore persists curation result sets in SQLite.
package resultstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/askiada/go-curate/pkg/curate"
	"github.com/askiada/go-curate/pkg/curate/model"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// Store manages result persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// timeLayout has a fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	workflow      TEXT NOT NULL,
	workflow_hash TEXT NOT NULL,
	source_hash   TEXT NOT NULL,
	trust         TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	elapsed_ns    INTEGER NOT NULL,
	num_records   INTEGER NOT NULL,
	num_passed    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS stages (
	run_id     TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	idx        INTEGER NOT NULL,
	name       TEXT NOT NULL,
	input      INTEGER NOT NULL,
	issues     INTEGER NOT NULL,
	notes      INTEGER NOT NULL,
	remaining  INTEGER NOT NULL,
	elapsed_ns INTEGER NOT NULL,
	PRIMARY KEY (run_id, idx)
);
CREATE TABLE IF NOT EXISTS records (
	run_id    TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	position  INTEGER NOT NULL,
	record_id TEXT NOT NULL,
	input     TEXT NOT NULL,
	smiles    TEXT NOT NULL,
	label     TEXT NOT NULL,
	passed    INTEGER NOT NULL,
	issues    TEXT NOT NULL,
	notes     TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);
CREATE INDEX IF NOT EXISTS idx_records_passed ON records(run_id, passed);
`

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open initializes or connects to the results database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create directory %q", dir)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite db")
	}
	// pragmas are per connection
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, errors.Wrapf(execErr, "apply pragma %q", pragma)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create schema")
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun stores res, its stage statistics and every record in one
// transaction.
func (s *Store) SaveRun(ctx context.Context, res *curate.ResultSet) error {
	return retryOnBusy(ctx, func() error {
		return s.saveRun(ctx, res)
	})
}

func (s *Store) saveRun(ctx context.Context, res *curate.ResultSet) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	w := res.Workflow()
	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(run_id, name, workflow, workflow_hash, source_hash, trust, created_at, elapsed_ns, num_records, num_passed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID(), w.Name(), w.String(), w.WorkflowHash(), w.SourceHash(), res.Trust().String(),
		time.Now().UTC().Format(timeLayout), int64(res.Elapsed()), res.Len(), res.NumPassed(),
	)
	if err != nil {
		return errors.Wrapf(err, "insert run %s", res.RunID())
	}

	for _, st := range res.Stats() {
		_, err = tx.ExecContext(ctx, `INSERT INTO stages
			(run_id, idx, name, input, issues, notes, remaining, elapsed_ns)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			res.RunID(), st.Index, st.Name, st.Input, st.Issues, st.Notes, st.Remaining, int64(st.Elapsed),
		)
		if err != nil {
			return errors.Wrapf(err, "insert stage %d", st.Index)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO records
		(run_id, position, record_id, input, smiles, label, passed, issues, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "prepare record insert")
	}
	defer stmt.Close()

	for _, rec := range res.Records() {
		issues, err := json.Marshal(rec.Issues())
		if err != nil {
			return errors.Wrap(err, "encode issues")
		}
		notes, err := json.Marshal(rec.Notes())
		if err != nil {
			return errors.Wrap(err, "encode notes")
		}
		_, err = stmt.ExecContext(ctx, res.RunID(), rec.Position(), rec.ID(), rec.Input(), rec.Smiles(),
			rec.Label().String(), rec.Alive(), string(issues), string(notes))
		if err != nil {
			return errors.Wrapf(err, "insert record %s", rec.ID())
		}
	}

	return errors.Wrap(tx.Commit(), "commit run")
}

// Run is a stored run summary.
type Run struct {
	RunID        string
	Name         string
	Workflow     string
	WorkflowHash string
	SourceHash   string
	Trust        string
	CreatedAt    time.Time
	Elapsed      time.Duration
	NumRecords   int
	NumPassed    int
}

// Record is a stored record.
type Record struct {
	Position int
	ID       string
	Input    string
	Smiles   string
	Label    string
	Passed   bool
	Issues   []model.Annotation
	Notes    []model.Annotation
}

const runColumns = `run_id, name, workflow, workflow_hash, source_hash, trust, created_at, elapsed_ns, num_records, num_passed`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		r       Run
		created string
		elapsed int64
	)
	if err := row.Scan(&r.RunID, &r.Name, &r.Workflow, &r.WorkflowHash, &r.SourceHash, &r.Trust,
		&created, &elapsed, &r.NumRecords, &r.NumPassed); err != nil {
		return Run{}, err
	}
	ts, err := time.Parse(timeLayout, created)
	if err != nil {
		return Run{}, errors.Wrapf(err, "parse created_at of %s", r.RunID)
	}
	r.CreatedAt = ts
	r.Elapsed = time.Duration(elapsed)
	return r, nil
}

// Run returns the summary of one run.
func (s *Store) Run(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, errors.Wrap(ErrRunNotFound, runID)
	}
	if err != nil {
		return Run{}, errors.Wrapf(err, "read run %s", runID)
	}
	return r, nil
}

// Runs lists every stored run, oldest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at, run_id`)
	if err != nil {
		return nil, errors.Wrap(err, "list runs")
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan run")
		}
		out = append(out, r)
	}
	return out, errors.Wrap(rows.Err(), "list runs")
}

// Stages returns the stage statistics of a run in stage order.
func (s *Store) Stages(ctx context.Context, runID string) ([]model.StepStats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT idx, name, input, issues, notes, remaining, elapsed_ns
		FROM stages WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "list stages of %s", runID)
	}
	defer rows.Close()

	var out []model.StepStats
	for rows.Next() {
		var (
			st      model.StepStats
			elapsed int64
		)
		if err := rows.Scan(&st.Index, &st.Name, &st.Input, &st.Issues, &st.Notes, &st.Remaining, &elapsed); err != nil {
			return nil, errors.Wrap(err, "scan stage")
		}
		st.Elapsed = time.Duration(elapsed)
		out = append(out, st)
	}
	return out, errors.Wrap(rows.Err(), "list stages")
}

// Records returns the records of a run in input order. With passedOnly only
// the records that passed every stage are returned.
func (s *Store) Records(ctx context.Context, runID string, passedOnly bool) ([]Record, error) {
	query := `SELECT position, record_id, input, smiles, label, passed, issues, notes
		FROM records WHERE run_id = ?`
	if passedOnly {
		query += ` AND passed = 1`
	}
	query += ` ORDER BY position`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "list records of %s", runID)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec           Record
			issues, notes string
		)
		if err := rows.Scan(&rec.Position, &rec.ID, &rec.Input, &rec.Smiles, &rec.Label, &rec.Passed, &issues, &notes); err != nil {
			return nil, errors.Wrap(err, "scan record")
		}
		if err := json.Unmarshal([]byte(issues), &rec.Issues); err != nil {
			return nil, errors.Wrapf(err, "decode issues of %s", rec.ID)
		}
		if err := json.Unmarshal([]byte(notes), &rec.Notes); err != nil {
			return nil, errors.Wrapf(err, "decode notes of %s", rec.ID)
		}
		out = append(out, rec)
	}
	return out, errors.Wrap(rows.Err(), "list records")
}

// DeleteRun removes a run and, through the foreign keys, its stages and records.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	return retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, runID)
		if err != nil {
			return errors.Wrapf(err, "delete run %s", runID)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "rows affected")
		}
		if n == 0 {
			return errors.Wrap(ErrRunNotFound, runID)
		}
		return nil
	})
}
