package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	// Import the pure-Go SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/usestratum/stratum/internal/profile"
	"github.com/usestratum/stratum/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a SQLite database at profile.DSN and returns a store driver.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	// Ensure foreign key constraints are evaluated and writes do not
	// starve concurrent readers.
	dsn := profile.DSN + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", profile.DSN)
	}

	return &DB{db: db, profile: profile}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) IsInitialized(ctx context.Context) (bool, error) {
	var exists bool
	err := d.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = 'document')").Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check if database is initialized")
	}
	return exists, nil
}

const latestSchema = `
CREATE TABLE IF NOT EXISTS session (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	messages TEXT NOT NULL DEFAULT '[]',
	context_data TEXT NOT NULL DEFAULT '{}',
	agent_name TEXT NOT NULL DEFAULT '',
	project_id TEXT,
	department_id TEXT,
	classification TEXT NOT NULL DEFAULT 'internal',
	created_ts BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_session_owner_id ON session (owner_id);
CREATE INDEX IF NOT EXISTS idx_session_created_ts ON session (created_ts);

CREATE TABLE IF NOT EXISTS summary (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	text TEXT NOT NULL,
	conversation_ids TEXT NOT NULL DEFAULT '[]',
	tags TEXT NOT NULL DEFAULT '[]',
	entities TEXT NOT NULL DEFAULT '{}',
	project_id TEXT,
	department_id TEXT,
	classification TEXT NOT NULL DEFAULT 'internal',
	created_ts BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_summary_owner_id ON summary (owner_id);
CREATE INDEX IF NOT EXISTS idx_summary_created_ts ON summary (created_ts);

CREATE TABLE IF NOT EXISTS document (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	embedding TEXT NOT NULL DEFAULT '[]',
	metadata TEXT NOT NULL DEFAULT '{}',
	memory_type TEXT NOT NULL DEFAULT 'document',
	source_type TEXT NOT NULL DEFAULT 'user_input',
	source_url TEXT NOT NULL DEFAULT '',
	keywords TEXT NOT NULL DEFAULT '[]',
	word_count INTEGER NOT NULL DEFAULT 0,
	version INTEGER NOT NULL DEFAULT 1,
	owner_id TEXT NOT NULL,
	last_modified_by TEXT,
	project_id TEXT,
	department_id TEXT,
	classification TEXT NOT NULL DEFAULT 'internal',
	row_status TEXT NOT NULL DEFAULT 'NORMAL',
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_document_owner_id ON document (owner_id);
CREATE INDEX IF NOT EXISTS idx_document_content_hash ON document (content_hash);
CREATE INDEX IF NOT EXISTS idx_document_memory_type ON document (memory_type);
`

func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, latestSchema); err != nil {
		return errors.Wrap(err, "failed to apply schema")
	}
	return nil
}
