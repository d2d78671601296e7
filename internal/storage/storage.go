// Package storage keeps the history of forecast runs in SQLite.
// Each run stores its ranking, merged series, annotations and model summary so a
// finished report can be listed, inspected and re-exported later.
//
// Only the newest runs are retained; RotateRuns removes the oldest ones beyond the
// configured maximum. Fitted model state is never persisted.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/models"

	_ "modernc.org/sqlite" // SQLite driver
)

// ErrNotFound is returned when a run ID is unknown.
var ErrNotFound = errors.New("run not found")

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// schemaVersion is the user_version the migrations bring the database to.
const schemaVersion = 1

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		window_start TEXT NOT NULL,
		window_end TEXT NOT NULL,
		seed INTEGER NOT NULL,
		leader TEXT NOT NULL,
		forecast_error TEXT NOT NULL DEFAULT '',
		model TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	`CREATE TABLE IF NOT EXISTS rankings (
		run_id TEXT NOT NULL,
		rank INTEGER NOT NULL,
		category TEXT NOT NULL,
		total INTEGER NOT NULL,
		PRIMARY KEY (run_id, rank)
	)`,
	`CREATE TABLE IF NOT EXISTS series_points (
		run_id TEXT NOT NULL,
		series_idx INTEGER NOT NULL,
		category TEXT NOT NULL,
		day TEXT NOT NULL,
		value REAL NOT NULL,
		forecast INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, category, day)
	)`,
	`CREATE TABLE IF NOT EXISTS annotations (
		run_id TEXT NOT NULL,
		category TEXT NOT NULL,
		day TEXT NOT NULL,
		value REAL NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_annotations_run ON annotations(run_id)`,
}

// childTables hold per-run rows keyed by run_id.
var childTables = []string{"rankings", "series_points", "annotations"}

// RunSummary is one row of the run listing.
type RunSummary struct {
	ID            string
	CreatedAt     time.Time
	Window        models.DayWindow
	Leader        string
	Categories    int
	ForecastError string
}

// Storage is a SQLite-backed run history
type Storage struct {
	db      *sql.DB
	maxRuns int
}

// New opens (creating if needed) the database at dbPath and migrates it.
// dbPath ":memory:" gives a private in-memory database.
func New(maxRuns int, dbPath string) (*Storage, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: storage path is required", models.ErrConfiguration)
	}
	if maxRuns < 1 {
		return nil, fmt.Errorf("%w: max runs must be at least 1, got %d", models.ErrConfiguration, maxRuns)
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite serialises writers anyway, and ":memory:" is per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Storage{db: db, maxRuns: maxRuns}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if version >= schemaVersion {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range schema {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema: %w", err)
	}
	return nil
}

// SaveReport stores a finished report and then applies retention.
func (s *Storage) SaveReport(ctx context.Context, report *models.Report) error {
	if err := report.Validate(); err != nil {
		return fmt.Errorf("invalid report: %w", err)
	}

	var modelJSON sql.NullString
	if report.Model != nil {
		data, err := json.Marshal(report.Model)
		if err != nil {
			return fmt.Errorf("failed to marshal model summary: %w", err)
		}
		modelJSON = sql.NullString{String: string(data), Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, window_start, window_end, seed, leader, forecast_error, model)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID,
		report.CreatedAt.UTC().Format(timeLayout),
		report.Window.Start.Format(models.DateLayout),
		report.Window.End.Format(models.DateLayout),
		int64(report.Seed),
		report.Leader,
		report.ForecastError,
		modelJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for i, rc := range report.Ranking {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO rankings (run_id, rank, category, total) VALUES (?, ?, ?, ?)`,
			report.ID, i+1, rc.Category, rc.Total); err != nil {
			return fmt.Errorf("failed to insert ranking: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO series_points (run_id, series_idx, category, day, value, forecast) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare series insert: %w", err)
	}
	defer stmt.Close()
	for i, series := range report.Series {
		for _, p := range series.Points {
			if _, err := stmt.ExecContext(ctx, report.ID, i, series.Category,
				p.Day.Format(models.DateLayout), p.Value, p.Forecast); err != nil {
				return fmt.Errorf("failed to insert series point: %w", err)
			}
		}
	}

	for _, a := range report.Annotations {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO annotations (run_id, category, day, value) VALUES (?, ?, ?, ?)`,
			report.ID, a.Category, a.Day.Format(models.DateLayout), a.Value); err != nil {
			return fmt.Errorf("failed to insert annotation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	return s.RotateRuns(ctx)
}

// GetReport loads a stored report by ID.
func (s *Storage) GetReport(ctx context.Context, id string) (*models.Report, error) {
	var (
		report                models.Report
		createdAt, start, end string
		seed                  int64
		modelJSON             sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, window_start, window_end, seed, leader, forecast_error, model
		 FROM runs WHERE id = ?`, id).
		Scan(&report.ID, &createdAt, &start, &end, &seed, &report.Leader, &report.ForecastError, &modelJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	report.Seed = uint64(seed)
	if report.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at for run %s: %w", id, err)
	}
	if report.Window, err = parseWindow(start, end); err != nil {
		return nil, fmt.Errorf("invalid window for run %s: %w", id, err)
	}
	if modelJSON.Valid {
		report.Model = &models.ModelSummary{}
		if err := json.Unmarshal([]byte(modelJSON.String), report.Model); err != nil {
			return nil, fmt.Errorf("failed to unmarshal model summary: %w", err)
		}
	}

	if report.Ranking, err = s.getRanking(ctx, id); err != nil {
		return nil, err
	}
	if report.Series, err = s.getSeries(ctx, id); err != nil {
		return nil, err
	}
	if report.Annotations, err = s.getAnnotations(ctx, id); err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *Storage) getRanking(ctx context.Context, id string) ([]models.RankedCategory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, total FROM rankings WHERE run_id = ? ORDER BY rank`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query ranking: %w", err)
	}
	defer rows.Close()

	var ranking []models.RankedCategory
	for rows.Next() {
		var rc models.RankedCategory
		if err := rows.Scan(&rc.Category, &rc.Total); err != nil {
			return nil, fmt.Errorf("failed to scan ranking: %w", err)
		}
		ranking = append(ranking, rc)
	}
	return ranking, rows.Err()
}

func (s *Storage) getSeries(ctx context.Context, id string) ([]models.Series, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT series_idx, category, day, value, forecast FROM series_points
		 WHERE run_id = ? ORDER BY series_idx, day`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query series: %w", err)
	}
	defer rows.Close()

	series := make([]models.Series, 0)
	lastIdx := -1
	for rows.Next() {
		var (
			idx      int
			category string
			day      string
			p        models.Point
		)
		if err := rows.Scan(&idx, &category, &day, &p.Value, &p.Forecast); err != nil {
			return nil, fmt.Errorf("failed to scan series point: %w", err)
		}
		if p.Day, err = models.ParseDay(day); err != nil {
			return nil, err
		}
		if idx != lastIdx {
			series = append(series, models.Series{Category: category})
			lastIdx = idx
		}
		last := &series[len(series)-1]
		last.Points = append(last.Points, p)
	}
	return series, rows.Err()
}

func (s *Storage) getAnnotations(ctx context.Context, id string) ([]models.Annotation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, day, value FROM annotations WHERE run_id = ? ORDER BY rowid`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query annotations: %w", err)
	}
	defer rows.Close()

	annotations := make([]models.Annotation, 0)
	for rows.Next() {
		var (
			a   models.Annotation
			day string
		)
		if err := rows.Scan(&a.Category, &day, &a.Value); err != nil {
			return nil, fmt.Errorf("failed to scan annotation: %w", err)
		}
		if a.Day, err = models.ParseDay(day); err != nil {
			return nil, err
		}
		annotations = append(annotations, a)
	}
	return annotations, rows.Err()
}

// ListRuns returns up to limit runs, newest first. limit <= 0 lists all retained runs.
func (s *Storage) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.created_at, r.window_start, r.window_end, r.leader, r.forecast_error,
		        (SELECT COUNT(*) FROM rankings k WHERE k.run_id = r.id)
		 FROM runs r ORDER BY r.created_at DESC, r.id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunSummary, 0)
	for rows.Next() {
		var (
			run                   RunSummary
			createdAt, start, end string
		)
		if err := rows.Scan(&run.ID, &createdAt, &start, &end, &run.Leader, &run.ForecastError, &run.Categories); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if run.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("invalid created_at for run %s: %w", run.ID, err)
		}
		if run.Window, err = parseWindow(start, end); err != nil {
			return nil, fmt.Errorf("invalid window for run %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RotateRuns removes the oldest runs exceeding the max limit
func (s *Storage) RotateRuns(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM runs ORDER BY created_at DESC, id LIMIT -1 OFFSET ?`, s.maxRuns)
	if err != nil {
		return fmt.Errorf("failed to query old runs: %w", err)
	}
	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan run id: %w", err)
		}
		stale = append(stale, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range stale {
		for _, table := range childTables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id = ?", id); err != nil {
				return fmt.Errorf("failed to delete from %s: %w", table, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete run: %w", err)
		}
	}
	return tx.Commit()
}

func parseWindow(start, end string) (models.DayWindow, error) {
	s, err := models.ParseDay(start)
	if err != nil {
		return models.DayWindow{}, err
	}
	e, err := models.ParseDay(end)
	if err != nil {
		return models.DayWindow{}, err
	}
	return models.NewDayWindow(s, e)
}
