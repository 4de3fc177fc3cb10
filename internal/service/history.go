// Package service holds the persistence services behind the analysis
// runner: the run archive and the per-role model settings store.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/stgquant/stgtrade/models"
	"github.com/stgquant/stgtrade/pkg/sqlite"
)

// Filter narrows a history listing. Zero values match everything.
type Filter struct {
	// Query matches case-insensitively against symbol and stock name.
	Query string
	// From and To bound the run date at day granularity, inclusive.
	From time.Time
	To   time.Time
}

// HistoryStore is the durable archive of completed runs. Records are
// written once and listed newest-first.
type HistoryStore struct {
	db        *sql.DB
	log       *zap.Logger
	retention int
}

// OpenHistory opens (or creates) the archive database under dataDir.
// retention caps the number of kept records; zero keeps everything.
// An unreadable or corrupt database never blocks the caller: the bad
// file is set aside and a fresh store takes its place, degrading to an
// empty inert store only if even that fails.
func OpenHistory(dataDir string, retention int, log *zap.Logger) (*HistoryStore, error) {
	dbPath := filepath.Join(dataDir, "history.db")

	db, err := openAndInit(dbPath)
	if err != nil {
		log.Warn("history store unreadable, setting it aside", zap.String("path", dbPath), zap.Error(err))
		if renameErr := os.Rename(dbPath, dbPath+".corrupt"); renameErr != nil {
			log.Warn("could not set aside corrupt history store", zap.Error(renameErr))
			return &HistoryStore{log: log, retention: retention}, nil
		}
		db, err = openAndInit(dbPath)
		if err != nil {
			log.Warn("history store recreate failed", zap.Error(err))
			return &HistoryStore{log: log, retention: retention}, nil
		}
	}
	return &HistoryStore{db: db, log: log, retention: retention}, nil
}

func openAndInit(dbPath string) (*sql.DB, error) {
	db, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, err
	}
	s := &HistoryStore{db: db}
	if err := s.initTable(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (s *HistoryStore) initTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS history (
		id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		stock_name TEXT NOT NULL,
		run_date TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		task_name TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_history_run_date ON history(run_date);`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create history table: %w", err)
	}
	return nil
}

func (s *HistoryStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append archives one completed run and enforces the retention cap.
func (s *HistoryStore) Append(ctx context.Context, record *models.HistoryRecord) error {
	if s.db == nil {
		return fmt.Errorf("history store unavailable")
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	runDate := record.Timestamp
	if len(runDate) >= 10 {
		runDate = runDate[:10]
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO history (id, symbol, stock_name, run_date, timestamp, task_name, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Symbol, record.StockName, runDate, record.Timestamp, record.TaskName, string(payload))
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}

	if s.retention > 0 {
		if err := s.enforceRetention(ctx); err != nil {
			s.log.Warn("history retention sweep failed", zap.Error(err))
		}
	}
	return nil
}

func (s *HistoryStore) enforceRetention(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM history WHERE id NOT IN (
			SELECT id FROM history ORDER BY timestamp DESC, created_at DESC LIMIT ?
		)`, s.retention)
	return err
}

// List returns archived runs newest-first. A broken or empty store
// yields an empty list, never an error: history is advisory, not load
// bearing.
func (s *HistoryStore) List(ctx context.Context, filter Filter) []models.HistoryRecord {
	if s.db == nil {
		return nil
	}
	query := `SELECT payload FROM history`
	var conds []string
	var args []any

	if q := strings.TrimSpace(filter.Query); q != "" {
		conds = append(conds, `(LOWER(symbol) LIKE ? OR LOWER(stock_name) LIKE ?)`)
		needle := "%" + strings.ToLower(q) + "%"
		args = append(args, needle, needle)
	}
	if !filter.From.IsZero() {
		conds = append(conds, `run_date >= ?`)
		args = append(args, filter.From.Format("2006-01-02"))
	}
	if !filter.To.IsZero() {
		conds = append(conds, `run_date <= ?`)
		args = append(args, filter.To.Format("2006-01-02"))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY timestamp DESC, created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.log.Warn("history query failed", zap.Error(err))
		return nil
	}
	defer rows.Close()

	var records []models.HistoryRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			s.log.Warn("history row scan failed", zap.Error(err))
			continue
		}
		var record models.HistoryRecord
		if err := json.Unmarshal([]byte(payload), &record); err != nil {
			s.log.Warn("skipping corrupt history record", zap.Error(err))
			continue
		}
		records = append(records, record)
	}
	return records
}

// Get returns one archived run by id, or nil when absent.
func (s *HistoryStore) Get(ctx context.Context, id string) *models.HistoryRecord {
	if s.db == nil {
		return nil
	}
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM history WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		return nil
	}
	var record models.HistoryRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		s.log.Warn("corrupt history record", zap.String("id", id), zap.Error(err))
		return nil
	}
	return &record
}

// Delete removes one archived run entirely.
func (s *HistoryStore) Delete(ctx context.Context, id string) error {
	if s.db == nil {
		return fmt.Errorf("history store unavailable")
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}
