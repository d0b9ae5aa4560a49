// Package runstore persists orchestration run summaries in a SQLite database
// so the status endpoint and heartbeat scheduler can inspect past runs.
package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/grxkun/clawstr-skill-orchestrator/pkg/orchestrator"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	skills_discovered INTEGER NOT NULL,
	clusters_created INTEGER NOT NULL,
	skills_consolidated INTEGER NOT NULL,
	skills_published INTEGER NOT NULL,
	skills_archived INTEGER NOT NULL,
	published_files TEXT NOT NULL,
	archived_files TEXT NOT NULL,
	started_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_finished_at ON runs(finished_at DESC);
`

// Store keeps run summaries in SQLite.
type Store struct {
	dbPath string
	db     *sqlx.DB
}

type runRow struct {
	RunID              string    `db:"run_id"`
	Status             string    `db:"status"`
	SkillsDiscovered   int       `db:"skills_discovered"`
	ClustersCreated    int       `db:"clusters_created"`
	SkillsConsolidated int       `db:"skills_consolidated"`
	SkillsPublished    int       `db:"skills_published"`
	SkillsArchived     int       `db:"skills_archived"`
	PublishedFiles     string    `db:"published_files"`
	ArchivedFiles      string    `db:"archived_files"`
	StartedAt          time.Time `db:"started_at"`
	FinishedAt         time.Time `db:"finished_at"`
}

// New opens (or creates) the run store at dbPath.
func New(ctx context.Context, dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create database directory")
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	if err := configureDatabase(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to configure database")
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize schema")
	}

	return &Store{dbPath: dbPath, db: db}, nil
}

func configureDatabase(ctx context.Context, db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return errors.Wrapf(err, "failed to execute pragma: %s", pragma)
		}
	}
	db.SetMaxIdleConns(1)
	db.SetMaxOpenConns(1)
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists one run summary.
func (s *Store) Save(ctx context.Context, summary *orchestrator.Summary) error {
	published, err := json.Marshal(summary.PublishedFiles)
	if err != nil {
		return errors.Wrap(err, "failed to encode published files")
	}
	archived, err := json.Marshal(summary.ArchivedFiles)
	if err != nil {
		return errors.Wrap(err, "failed to encode archived files")
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT OR REPLACE INTO runs (
			run_id, status, skills_discovered, clusters_created,
			skills_consolidated, skills_published, skills_archived,
			published_files, archived_files, started_at, finished_at
		) VALUES (
			:run_id, :status, :skills_discovered, :clusters_created,
			:skills_consolidated, :skills_published, :skills_archived,
			:published_files, :archived_files, :started_at, :finished_at
		)`, runRow{
		RunID:              summary.RunID,
		Status:             string(summary.Status),
		SkillsDiscovered:   summary.SkillsDiscovered,
		ClustersCreated:    summary.ClustersCreated,
		SkillsConsolidated: summary.SkillsConsolidated,
		SkillsPublished:    summary.SkillsPublished,
		SkillsArchived:     summary.SkillsArchived,
		PublishedFiles:     string(published),
		ArchivedFiles:      string(archived),
		StartedAt:          summary.StartedAt,
		FinishedAt:         summary.FinishedAt,
	})
	return errors.Wrap(err, "failed to save run summary")
}

// Latest returns the most recently finished run, or nil when none exist.
func (s *Store) Latest(ctx context.Context) (*orchestrator.Summary, error) {
	var row runRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM runs ORDER BY finished_at DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query latest run")
	}
	return row.toSummary()
}

// Recent returns up to limit runs ordered by finish time, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*orchestrator.Summary, error) {
	var rows []runRow
	err := s.db.SelectContext(ctx, &rows, `SELECT * FROM runs ORDER BY finished_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query recent runs")
	}

	summaries := make([]*orchestrator.Summary, 0, len(rows))
	for _, row := range rows {
		summary, err := row.toSummary()
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (r runRow) toSummary() (*orchestrator.Summary, error) {
	summary := &orchestrator.Summary{
		RunID:              r.RunID,
		Status:             orchestrator.Status(r.Status),
		SkillsDiscovered:   r.SkillsDiscovered,
		ClustersCreated:    r.ClustersCreated,
		SkillsConsolidated: r.SkillsConsolidated,
		SkillsPublished:    r.SkillsPublished,
		SkillsArchived:     r.SkillsArchived,
		StartedAt:          r.StartedAt,
		FinishedAt:         r.FinishedAt,
	}
	if err := json.Unmarshal([]byte(r.PublishedFiles), &summary.PublishedFiles); err != nil {
		return nil, errors.Wrap(err, "failed to decode published files")
	}
	if err := json.Unmarshal([]byte(r.ArchivedFiles), &summary.ArchivedFiles); err != nil {
		return nil, errors.Wrap(err, "failed to decode archived files")
	}
	return summary, nil
}
