// Package database provides SQLite persistence for decision rules, decided
// signals, and run summaries.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const (
	// DefaultPingTimeout is the timeout for connection verification.
	DefaultPingTimeout = 5 * time.Second
)

const schema = `
CREATE TABLE IF NOT EXISTS decision_rules (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	name          TEXT NOT NULL UNIQUE,
	conditions    TEXT NOT NULL DEFAULT '[]',
	action        TEXT NOT NULL,
	priority_rank INTEGER NOT NULL DEFAULT 0,
	enabled       INTEGER NOT NULL DEFAULT 1,
	created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS signals (
	id                 TEXT PRIMARY KEY,
	company            TEXT NOT NULL,
	company_key        TEXT NOT NULL,
	source_type        TEXT NOT NULL,
	title              TEXT NOT NULL,
	description        TEXT NOT NULL DEFAULT '',
	content_snippet    TEXT NOT NULL DEFAULT '',
	url                TEXT NOT NULL DEFAULT '',
	published_at       TIMESTAMP,
	signal_strength    INTEGER NOT NULL,
	confidence_level   REAL NOT NULL,
	sentiment_score    REAL NOT NULL,
	relevance_score    INTEGER NOT NULL,
	engagement_score   INTEGER NOT NULL,
	intent_label       TEXT NOT NULL,
	entities           TEXT NOT NULL DEFAULT '[]',
	enriched           INTEGER NOT NULL DEFAULT 0,
	matched_rule       TEXT NOT NULL DEFAULT '',
	action             TEXT NOT NULL,
	priority_level     TEXT NOT NULL,
	follow_up_required INTEGER NOT NULL DEFAULT 0,
	decided_at         TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_signals_company_key ON signals(company_key);
CREATE INDEX IF NOT EXISTS idx_signals_priority ON signals(priority_level);

CREATE TABLE IF NOT EXISTS run_summaries (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at        TIMESTAMP NOT NULL,
	duration_ms       INTEGER NOT NULL,
	records_in        INTEGER NOT NULL,
	records_dropped   INTEGER NOT NULL,
	duplicates_merged INTEGER NOT NULL,
	enrichment_misses INTEGER NOT NULL,
	companies         INTEGER NOT NULL,
	tier_counts       TEXT NOT NULL DEFAULT '{}'
);
`

// Open creates a SQLite connection at path and ensures the schema exists.
func Open(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), DefaultPingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return db, nil
}
