package results

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/OliariVictor/FEMcomparison/model_problems/Laplace2D"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	mode TEXT NOT NULL,
	problem TEXT NOT NULL,
	k INTEGER NOT NULL,
	n INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	status TEXT NOT NULL DEFAULT 'running',
	failure TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS records (
	run_id TEXT NOT NULL REFERENCES runs(id),
	step INTEGER NOT NULL,
	ndiv INTEGER NOT NULL,
	h REAL NOT NULL,
	dof INTEGER NOT NULL,
	e0 REAL, e1 REAL, e2 REAL, e3 REAL,
	rate0 REAL, rate1 REAL, rate2 REAL,
	PRIMARY KEY (run_id, step)
);

CREATE INDEX IF NOT EXISTS idx_runs_problem ON runs(problem, mode);
`

// Run status, a run stays running until Finish is called
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Store keeps the error records of refinement sweeps in a sqlite database
type Store struct {
	db   *sql.DB
	Path string
}

func Open(path string) (s *Store, err error) {
	if path != ":memory:" {
		if err = os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create results directory: %w", err)
		}
	}
	var db *sql.DB
	if db, err = sql.Open("sqlite", path); err != nil {
		return nil, fmt.Errorf("failed to open results database: %w", err)
	}
	// A single connection keeps in memory databases alive between statements
	db.SetMaxOpenConns(1)
	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return &Store{db: db, Path: path}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// RunInfo identifies one sweep
type RunInfo struct {
	ID        string
	Mode      string
	Problem   string
	K, N      int
	CreatedAt time.Time
	Status    string
	Failure   string // error of a failed run
}

// Run appends the records of one sweep, it is a Laplace2D.RecordSink
type Run struct {
	RunInfo
	store *Store
}

func (s *Store) BeginRun(rc *Laplace2D.RunConfig) (r *Run, err error) {
	r = &Run{
		RunInfo: RunInfo{
			ID:        uuid.New().String(),
			Mode:      rc.Mode.String(),
			Problem:   rc.Benchmark.String(),
			K:         rc.K,
			N:         rc.N,
			CreatedAt: time.Now().UTC(),
			Status:    StatusRunning,
		},
		store: s,
	}
	_, err = s.db.Exec(`INSERT INTO runs (id, mode, problem, k, n, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Mode, r.Problem, r.K, r.N, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}
	return
}

func (r *Run) AppendRecord(rec Laplace2D.ErrorRecord) (err error) {
	if len(rec.Errors) != Laplace2D.NumErrorNorms {
		return fmt.Errorf("record of step %d has %d error norms", rec.Step, len(rec.Errors))
	}
	rates := make([]sql.NullFloat64, Laplace2D.NumRatedNorms)
	for j := range rates {
		if rec.Orders != nil {
			rates[j] = sql.NullFloat64{Float64: rec.Orders[j], Valid: true}
		}
	}
	_, err = r.store.db.Exec(`
		INSERT INTO records (run_id, step, ndiv, h, dof, e0, e1, e2, e3, rate0, rate1, rate2)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, rec.Step, rec.NDivisions, rec.H, rec.NEquations,
		rec.Errors[0], rec.Errors[1], rec.Errors[2], rec.Errors[3],
		rates[0], rates[1], rates[2])
	if err != nil {
		return fmt.Errorf("failed to insert record %d of run %s: %w", rec.Step, r.ID, err)
	}
	return
}

// Finish closes the run as completed, or as failed when cause is not nil
func (r *Run) Finish(cause error) (err error) {
	r.Status, r.Failure = StatusCompleted, ""
	if cause != nil {
		r.Status, r.Failure = StatusFailed, cause.Error()
	}
	if _, err = r.store.db.Exec(`UPDATE runs SET status = ?, failure = ? WHERE id = ?`, r.Status, r.Failure, r.ID); err != nil {
		return fmt.Errorf("failed to close run %s: %w", r.ID, err)
	}
	return
}

// Runs lists the stored sweeps, oldest first, optionally restricted to a problem
func (s *Store) Runs(problem string) (runs []RunInfo, err error) {
	query := `SELECT id, mode, problem, k, n, created_at, status, failure FROM runs`
	var args []any
	if problem != "" {
		query += ` WHERE problem = ?`
		args = append(args, problem)
	}
	query += ` ORDER BY created_at, rowid`
	var rows *sql.Rows
	if rows, err = s.db.Query(query, args...); err != nil {
		return
	}
	defer rows.Close()
	for rows.Next() {
		var ri RunInfo
		if err = rows.Scan(&ri.ID, &ri.Mode, &ri.Problem, &ri.K, &ri.N, &ri.CreatedAt, &ri.Status, &ri.Failure); err != nil {
			return
		}
		runs = append(runs, ri)
	}
	err = rows.Err()
	return
}

// Records returns the records of a run ordered by step
func (s *Store) Records(runID string) (recs []Laplace2D.ErrorRecord, err error) {
	var rows *sql.Rows
	rows, err = s.db.Query(`
		SELECT step, ndiv, h, dof, e0, e1, e2, e3, rate0, rate1, rate2
		FROM records WHERE run_id = ? ORDER BY step`, runID)
	if err != nil {
		return
	}
	defer rows.Close()
	for rows.Next() {
		var (
			rec   = Laplace2D.ErrorRecord{Errors: make([]float64, Laplace2D.NumErrorNorms)}
			rates = make([]sql.NullFloat64, Laplace2D.NumRatedNorms)
		)
		err = rows.Scan(&rec.Step, &rec.NDivisions, &rec.H, &rec.NEquations,
			&rec.Errors[0], &rec.Errors[1], &rec.Errors[2], &rec.Errors[3],
			&rates[0], &rates[1], &rates[2])
		if err != nil {
			return
		}
		if rates[0].Valid {
			rec.Orders = make([]float64, Laplace2D.NumRatedNorms)
			for j := range rates {
				rec.Orders[j] = rates[j].Float64
			}
		}
		recs = append(recs, rec)
	}
	err = rows.Err()
	return
}

// Summary is the finest step of a run
type Summary struct {
	RunInfo
	Final Laplace2D.ErrorRecord
}

/*
Compare gathers the finest record of every completed run of a problem, for side by side rates of the approximations.
Runs that failed or never finished are left out.
*/
func (s *Store) Compare(problem string) (sums []Summary, err error) {
	var runs []RunInfo
	if runs, err = s.Runs(problem); err != nil {
		return
	}
	for _, ri := range runs {
		if ri.Status != StatusCompleted {
			continue
		}
		var recs []Laplace2D.ErrorRecord
		if recs, err = s.Records(ri.ID); err != nil {
			return
		}
		if len(recs) == 0 {
			continue
		}
		sums = append(sums, Summary{RunInfo: ri, Final: recs[len(recs)-1]})
	}
	return
}
