// Package store provides optional SQLite persistence for run results.
//
// When enabled, each batch run records its market summaries and merged
// panels so later runs can be compared without reparsing the CSVs.
package store

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"polyseg/internal/dataprocessing"
	"polyseg/internal/segmentation"
)

// Store wraps a SQLite database for all persistence operations.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/polyseg/runs.db.
func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "polyseg", "runs.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id           TEXT PRIMARY KEY,
			started_at       INTEGER NOT NULL,
			finished_at      INTEGER,
			markets_ok       INTEGER NOT NULL DEFAULT 0,
			markets_failed   INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS market_summaries (
			run_id          TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
			market_id       TEXT NOT NULL,
			event_name      TEXT NOT NULL,
			event_slug      TEXT,
			market_slug     TEXT,
			market_title    TEXT,
			total_trades    INTEGER NOT NULL,
			whale_threshold REAL,
			degenerate      INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (run_id, market_id)
		)`,
		`CREATE TABLE IF NOT EXISTS segment_stats (
			run_id       TEXT NOT NULL,
			market_id    TEXT NOT NULL,
			segment      TEXT NOT NULL,
			trade_count  INTEGER NOT NULL,
			volume       REAL NOT NULL,
			volume_share REAL,
			max_size     REAL,
			PRIMARY KEY (run_id, market_id, segment),
			FOREIGN KEY (run_id, market_id)
				REFERENCES market_summaries(run_id, market_id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS merged_panels (
			run_id    TEXT NOT NULL,
			market_id TEXT NOT NULL,
			day       INTEGER NOT NULL,
			p_whale   REAL,
			p_large   REAL,
			p_medium  REAL,
			p_small   REAL,
			p_market  REAL,
			PRIMARY KEY (run_id, market_id, day),
			FOREIGN KEY (run_id, market_id)
				REFERENCES market_summaries(run_id, market_id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_event ON market_summaries(event_name)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// BeginRun records the start of a batch run.
func (s *Store) BeginRun(runID string, startedAt time.Time) error {
	_, err := s.db.Exec(`INSERT INTO runs (run_id, started_at) VALUES (?,?)`,
		runID, startedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record run start: %w", err)
	}
	return nil
}

// FinishRun records the end of a batch run and its outcome counts.
func (s *Store) FinishRun(runID string, finishedAt time.Time, ok, failed int) error {
	res, err := s.db.Exec(`
		UPDATE runs SET finished_at=?, markets_ok=?, markets_failed=? WHERE run_id=?`,
		finishedAt.UnixNano(), ok, failed, runID)
	if err != nil {
		return fmt.Errorf("failed to record run finish: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}

// SaveMarketResult persists one market's summary, per-cohort stats and
// merged panel inside a single transaction.
func (s *Store) SaveMarketResult(runID string, summary dataprocessing.MarketSummary, merged []segmentation.MergedRow) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO market_summaries
			(run_id, market_id, event_name, event_slug, market_slug, market_title,
			 total_trades, whale_threshold, degenerate)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		runID, summary.MarketID, summary.EventName, summary.EventSlug,
		summary.MarketSlug, summary.MarketTitle, summary.TotalTrades,
		finiteOrNull(summary.WhaleThreshold), boolToInt(summary.Degenerate),
	)
	if err != nil {
		return fmt.Errorf("failed to insert summary: %w", err)
	}

	for _, segment := range segmentation.Segments() {
		_, err = tx.Exec(`
			INSERT OR REPLACE INTO segment_stats
				(run_id, market_id, segment, trade_count, volume, volume_share, max_size)
			VALUES (?,?,?,?,?,?,?)`,
			runID, summary.MarketID, segment.Key(),
			summary.Counts[segment], summary.Volumes[segment],
			summary.VolumeShares[segment], summary.MaxSizes[segment],
		)
		if err != nil {
			return fmt.Errorf("failed to insert segment stats: %w", err)
		}
	}

	for _, row := range merged {
		_, err = tx.Exec(`
			INSERT OR REPLACE INTO merged_panels
				(run_id, market_id, day, p_whale, p_large, p_medium, p_small, p_market)
			VALUES (?,?,?,?,?,?,?,?)`,
			runID, summary.MarketID, row.Day,
			row.PWhale, row.PLarge, row.PMedium, row.PSmall, row.PMarket,
		)
		if err != nil {
			return fmt.Errorf("failed to insert merged panel row: %w", err)
		}
	}

	return tx.Commit()
}

// LoadMergedPanel reads one market's merged panel back, ordered by day.
func (s *Store) LoadMergedPanel(runID, marketID string) ([]segmentation.MergedRow, error) {
	rows, err := s.db.Query(`
		SELECT day, p_whale, p_large, p_medium, p_small, p_market
		FROM merged_panels WHERE run_id=? AND market_id=? ORDER BY day`,
		runID, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to query merged panel: %w", err)
	}
	defer rows.Close()

	var panel []segmentation.MergedRow
	for rows.Next() {
		var row segmentation.MergedRow
		if err := rows.Scan(&row.Day, &row.PWhale, &row.PLarge, &row.PMedium, &row.PSmall, &row.PMarket); err != nil {
			return nil, fmt.Errorf("failed to scan merged panel row: %w", err)
		}
		panel = append(panel, row)
	}
	return panel, rows.Err()
}

// RunSummary is one row of the runs table.
type RunSummary struct {
	RunID         string
	StartedAt     time.Time
	FinishedAt    time.Time
	MarketsOK     int
	MarketsFailed int
}

// ListRuns returns recorded runs, newest first.
func (s *Store) ListRuns() ([]RunSummary, error) {
	rows, err := s.db.Query(`
		SELECT run_id, started_at, finished_at, markets_ok, markets_failed
		FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var run RunSummary
		var startedNano int64
		var finishedNano sql.NullInt64
		if err := rows.Scan(&run.RunID, &startedNano, &finishedNano, &run.MarketsOK, &run.MarketsFailed); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt = time.Unix(0, startedNano)
		if finishedNano.Valid {
			run.FinishedAt = time.Unix(0, finishedNano.Int64)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// finiteOrNull maps the degenerate +Inf threshold to NULL, SQLite has
// no portable representation for infinities.
func finiteOrNull(value float64) sql.NullFloat64 {
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: value, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
