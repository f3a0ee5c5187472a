package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harrisonrobin/schedule/pkg/log"
)

// DB wraps the SQLite connection with initialization logic.
type DB struct {
	*sql.DB
}

// Open creates or opens the SQLite database at the given path and applies
// pending migrations.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite handles one writer at a time

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &DB{db}, nil
}

// Migration is one schema step. Up runs inside the transaction that records
// the new version.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

var migrations = []Migration{
	{Version: 1, Description: "catalog, ledgers, archive and cursor", Up: migration001Initial},
}

func runMigrations(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TEXT,
			description TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	var currentVersion int
	if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion); err != nil {
		return fmt.Errorf("get current version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= currentVersion {
			continue
		}
		log.Debug().Int("version", m.Version).Str("description", m.Description).Msg("applying migration")

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if err := m.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", m.Version, err)
		}
		_, err = tx.Exec(
			"INSERT INTO schema_version (version, applied_at, description) VALUES (?, ?, ?)",
			m.Version, time.Now().UTC().Format(time.RFC3339), m.Description,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}
	return nil
}

func migration001Initial(tx *sql.Tx) error {
	_, err := tx.Exec(`
CREATE TABLE groups (
  name TEXT PRIMARY KEY,
  day_code INTEGER NOT NULL,
  week_code INTEGER NOT NULL,
  month_code INTEGER NOT NULL,
  anchor TEXT NOT NULL
);

CREATE TABLE tasks (
  name TEXT PRIMARY KEY,
  type INTEGER NOT NULL,
  max_count INTEGER NOT NULL DEFAULT 0,
  description TEXT NOT NULL DEFAULT '',
  created_on TEXT NOT NULL
);

CREATE TABLE group_tasks (
  group_name TEXT NOT NULL,
  task_name TEXT NOT NULL,
  position INTEGER NOT NULL,
  PRIMARY KEY (group_name, task_name),
  FOREIGN KEY (group_name) REFERENCES groups(name) ON DELETE CASCADE,
  FOREIGN KEY (task_name) REFERENCES tasks(name) ON DELETE CASCADE
);

-- Ledgers outlive their task so deleted tasks keep their history.
CREATE TABLE ledgers (
  task_name TEXT PRIMARY KEY,
  since TEXT NOT NULL
);

CREATE TABLE ledger_records (
  task_name TEXT NOT NULL,
  seq INTEGER NOT NULL,
  kind INTEGER NOT NULL,
  value REAL NOT NULL DEFAULT 0,
  count INTEGER NOT NULL,
  PRIMARY KEY (task_name, seq),
  FOREIGN KEY (task_name) REFERENCES ledgers(task_name) ON DELETE CASCADE
);

CREATE TABLE tasks_today (
  task_name TEXT PRIMARY KEY,
  value REAL NOT NULL DEFAULT 0
);

CREATE TABLE one_times (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  type INTEGER NOT NULL,
  value REAL NOT NULL DEFAULT 0,
  max_count INTEGER NOT NULL DEFAULT 0,
  position INTEGER NOT NULL
);

CREATE TABLE one_time_archive (
  id TEXT PRIMARY KEY,
  day TEXT NOT NULL,
  name TEXT NOT NULL,
  type INTEGER NOT NULL,
  value REAL NOT NULL DEFAULT 0,
  max_count INTEGER NOT NULL DEFAULT 0,
  position INTEGER NOT NULL
);

CREATE INDEX idx_one_time_archive_day ON one_time_archive(day);

CREATE TABLE cursor (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  last_date TEXT NOT NULL
);
`)
	if err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}
