package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps the persisted record in a single-row sqlite table under
// a namespace private to the scheduler.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS scheduler_state (
		id INTEGER PRIMARY KEY CHECK(id = 1),
		last_activation_epoch INTEGER NOT NULL DEFAULT 0,
		has_ever_activated BOOLEAN NOT NULL DEFAULT FALSE,
		enabled BOOLEAN NOT NULL DEFAULT TRUE
	)`)
	if err != nil {
		return fmt.Errorf("failed to create scheduler_state table: %w", err)
	}

	_, err = s.db.Exec(`INSERT OR IGNORE INTO scheduler_state (id) VALUES (1)`)
	if err != nil {
		return fmt.Errorf("failed to seed scheduler_state row: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LastActivationEpoch() (int64, error) {
	var epoch int64
	err := s.db.QueryRow(`SELECT last_activation_epoch FROM scheduler_state WHERE id = 1`).Scan(&epoch)
	if err != nil {
		return 0, fmt.Errorf("failed to read last_activation_epoch: %w", err)
	}
	return epoch, nil
}

func (s *SQLiteStore) HasEverActivated() (bool, error) {
	var hasEver bool
	err := s.db.QueryRow(`SELECT has_ever_activated FROM scheduler_state WHERE id = 1`).Scan(&hasEver)
	if err != nil {
		return false, fmt.Errorf("failed to read has_ever_activated: %w", err)
	}
	return hasEver, nil
}

func (s *SQLiteStore) Enabled() (bool, error) {
	var enabled bool
	err := s.db.QueryRow(`SELECT enabled FROM scheduler_state WHERE id = 1`).Scan(&enabled)
	if err != nil {
		return false, fmt.Errorf("failed to read enabled: %w", err)
	}
	return enabled, nil
}

func (s *SQLiteStore) WriteAll(lastActivationEpoch int64, hasEverActivated, enabled bool) error {
	_, err := s.db.Exec(
		`UPDATE scheduler_state SET last_activation_epoch = ?, has_ever_activated = ?, enabled = ? WHERE id = 1`,
		lastActivationEpoch, hasEverActivated, enabled,
	)
	if err != nil {
		return fmt.Errorf("failed to write scheduler state: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
