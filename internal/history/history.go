// Package history records every run's report in a SQLite database so past
// fits can be listed and compared.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	apperrors "github.com/agbru/ertscan/internal/errors"
	"github.com/agbru/ertscan/pkg/models"
)

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("run not found")

// Store wraps the SQLite connection holding the run history.
type Store struct {
	conn   *sqlx.DB
	logger zerolog.Logger
}

// Open opens or creates the history database at path and migrates its
// schema.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, apperrors.WrapError(err, "open history %s", path)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	s := &Store{conn: conn, logger: logger}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, apperrors.WrapError(err, "migrate history %s", path)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		alpha_star REAL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := s.conn.Exec(schema)
	return err
}

type runRow struct {
	ID        string          `db:"id"`
	Mode      string          `db:"mode"`
	CreatedAt int64           `db:"created_at"`
	AlphaStar sql.NullFloat64 `db:"alpha_star"`
}

func (r runRow) summary() models.RunSummary {
	s := models.RunSummary{ID: r.ID, Mode: r.Mode, CreatedAt: time.Unix(0, r.CreatedAt).UTC()}
	if r.AlphaStar.Valid {
		s.AlphaStar = &r.AlphaStar.Float64
	}
	return s
}

// Record stores report under a new run id and returns that id. The stored
// report carries the id; GeneratedAt, when zero, is set to now.
func (s *Store) Record(ctx context.Context, report models.Report) (string, error) {
	report.ID = uuid.NewString()
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = time.Now().UTC()
	}
	data, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	var alpha sql.NullFloat64
	if report.Ladder != nil {
		alpha = sql.NullFloat64{Float64: report.Ladder.Alpha, Valid: true}
	}
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO runs (id, mode, created_at, alpha_star, report_json) VALUES (?, ?, ?, ?, ?)`,
		report.ID, report.Mode, report.GeneratedAt.UnixNano(), alpha, string(data))
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	s.logger.Info().Str("run", report.ID).Str("mode", report.Mode).Msg("run recorded")
	return report.ID, nil
}

// List returns at most limit runs, most recent first.
func (s *Store) List(ctx context.Context, limit int) ([]models.RunSummary, error) {
	var rows []runRow
	err := s.conn.SelectContext(ctx, &rows,
		`SELECT id, mode, created_at, alpha_star FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	out := make([]models.RunSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.summary())
	}
	return out, nil
}

// Get returns the full report of a run.
func (s *Store) Get(ctx context.Context, id string) (models.Report, error) {
	var data string
	err := s.conn.GetContext(ctx, &data, `SELECT report_json FROM runs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Report{}, ErrNotFound
	}
	if err != nil {
		return models.Report{}, fmt.Errorf("get run: %w", err)
	}
	var report models.Report
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return models.Report{}, fmt.Errorf("decode run %s: %w", id, err)
	}
	return report, nil
}
