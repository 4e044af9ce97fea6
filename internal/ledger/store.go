// Package ledger keeps a SQLite record of finished runs: one row per run with
// its summary, one row per form result and one provenance row per populated
// field.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"formflow/internal/form"
	"formflow/internal/pipeline"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	status        TEXT NOT NULL,
	error         TEXT,
	started_at    TEXT NOT NULL,
	finished_at   TEXT NOT NULL,
	summary_json  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS form_results (
	run_id        TEXT NOT NULL,
	form          TEXT NOT NULL,
	status        TEXT NOT NULL,
	output_path   TEXT,
	error         TEXT,
	review_error  TEXT,
	populated     INTEGER NOT NULL,
	PRIMARY KEY (run_id, form),
	FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS provenance (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL,
	form          TEXT NOT NULL,
	page          TEXT NOT NULL,
	field_name    TEXT NOT NULL,
	value_json    TEXT NOT NULL,
	sources_json  TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS provenance_run_form ON provenance (run_id, form);
`

// ErrNotFound is returned when a run is not in the ledger.
var ErrNotFound = errors.New("run not found")

// Store is a run ledger backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger at path. ":memory:" gives a
// private in-memory ledger.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	// One connection: SQLite has a single writer, and an in-memory database
	// exists per connection.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000", schema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init ledger: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record implements pipeline.Recorder. Recording the same run twice replaces
// the earlier entry.
func (s *Store) Record(ctx context.Context, sum *pipeline.Summary) error {
	summaryJSON, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	id := sum.RunID.String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("replace run %s: %w", id, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, status, error, started_at, finished_at, summary_json)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, string(sum.Status), nullIfEmpty(sum.Error),
		sum.StartedAt.Format(time.RFC3339Nano), sum.FinishedAt.Format(time.RFC3339Nano),
		string(summaryJSON),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", id, err)
	}

	for t, res := range sum.ResultsPerForm {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO form_results (run_id, form, status, output_path, error, review_error, populated)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, string(t), string(res.Status), nullIfEmpty(res.OutputPath),
			nullIfEmpty(res.Error), nullIfEmpty(res.ReviewError), res.Populated,
		)
		if err != nil {
			return fmt.Errorf("insert form result %s: %w", t, err)
		}

		st, ok := sum.Structure(t)
		if !ok {
			continue
		}

		if err := insertProvenance(ctx, tx, id, st); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

func insertProvenance(ctx context.Context, tx *sql.Tx, runID string, st *form.Structure) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO provenance (run_id, form, page, field_name, value_json, sources_json)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare provenance: %w", err)
	}
	defer stmt.Close()

	var firstErr error

	st.Visit(func(p *form.Page, f *form.Field) {
		if firstErr != nil || !f.IsSet() {
			return
		}

		value, err := json.Marshal(f.Value)
		if err != nil {
			firstErr = fmt.Errorf("marshal %s.%s: %w", st.Form, f.FieldName, err)
			return
		}

		sources, err := json.Marshal(nonNil(f.Sources))
		if err != nil {
			firstErr = fmt.Errorf("marshal sources of %s.%s: %w", st.Form, f.FieldName, err)
			return
		}

		if _, err := stmt.ExecContext(ctx, runID, string(st.Form), p.Name, f.FieldName, string(value), string(sources)); err != nil {
			firstErr = fmt.Errorf("insert provenance %s.%s: %w", st.Form, f.FieldName, err)
		}
	})

	return firstErr
}

// Run returns the stored summary of run id. The returned summary carries no
// Outcome; populated values are available through Provenance.
func (s *Store) Run(ctx context.Context, id uuid.UUID) (*pipeline.Summary, error) {
	var raw string

	err := s.db.QueryRowContext(ctx, `SELECT summary_json FROM runs WHERE run_id = ?`, id.String()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}

	sum := &pipeline.Summary{}
	if err := json.Unmarshal([]byte(raw), sum); err != nil {
		return nil, fmt.Errorf("unmarshal run %s: %w", id, err)
	}

	return sum, nil
}

// RunInfo is one line of the run listing.
type RunInfo struct {
	RunID      uuid.UUID          `json:"run_id"`
	Status     pipeline.RunStatus `json:"status"`
	Error      string             `json:"error,omitempty"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
}

// Runs lists the most recent runs first, at most limit of them (all when
// limit is not positive).
func (s *Store) Runs(ctx context.Context, limit int) ([]RunInfo, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, status, error, started_at, finished_at
		 FROM runs ORDER BY started_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunInfo

	for rows.Next() {
		var (
			info              RunInfo
			id, status        string
			errText           sql.NullString
			started, finished string
		)

		if err := rows.Scan(&id, &status, &errText, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		info.RunID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse run id %q: %w", id, err)
		}

		info.Status = pipeline.RunStatus(status)
		info.Error = errText.String
		info.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		info.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)

		out = append(out, info)
	}

	return out, rows.Err()
}

// Provenance is one populated field of a stored run.
type Provenance struct {
	Form      form.Type `json:"form"`
	Page      string    `json:"page"`
	FieldName string    `json:"field_name"`
	Value     any       `json:"value"`
	Sources   []string  `json:"sources"`
}

// Provenance returns the populated fields of form t in run id, in the order
// they appear on the form. An empty t returns every form of the run.
func (s *Store) Provenance(ctx context.Context, id uuid.UUID, t form.Type) ([]Provenance, error) {
	query := `SELECT form, page, field_name, value_json, sources_json FROM provenance WHERE run_id = ?`
	args := []any{id.String()}

	if t != "" {
		query += ` AND form = ?`
		args = append(args, string(t))
	}

	rows, err := s.db.QueryContext(ctx, query+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query provenance: %w", err)
	}
	defer rows.Close()

	var out []Provenance

	for rows.Next() {
		var (
			p              Provenance
			ft             string
			value, sources string
		)

		if err := rows.Scan(&ft, &p.Page, &p.FieldName, &value, &sources); err != nil {
			return nil, fmt.Errorf("scan provenance: %w", err)
		}

		p.Form = form.Type(ft)

		if err := json.Unmarshal([]byte(value), &p.Value); err != nil {
			return nil, fmt.Errorf("unmarshal value of %s: %w", p.FieldName, err)
		}

		if err := json.Unmarshal([]byte(sources), &p.Sources); err != nil {
			return nil, fmt.Errorf("unmarshal sources of %s: %w", p.FieldName, err)
		}

		out = append(out, p)
	}

	return out, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}

	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}
