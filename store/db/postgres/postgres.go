package postgres

import (
	"context"
	"database/sql"
	"time"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/usestratum/stratum/internal/profile"
	"github.com/usestratum/stratum/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a PostgreSQL connection from profile.DSN and returns a store
// driver. PostgreSQL is the production driver: native arrays and pgvector
// semantic search.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", profile.DSN)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(2 * time.Hour)
	db.SetConnMaxIdleTime(15 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
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
	err := d.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_catalog = current_database() AND table_name = 'document' AND table_type = 'BASE TABLE')").Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check if database is initialized")
	}
	return exists, nil
}

const latestSchema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS session (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	messages JSONB NOT NULL DEFAULT '[]',
	context_data JSONB NOT NULL DEFAULT '{}',
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
	conversation_ids TEXT[] NOT NULL DEFAULT '{}',
	tags TEXT[] NOT NULL DEFAULT '{}',
	entities JSONB NOT NULL DEFAULT '{}',
	project_id TEXT,
	department_id TEXT,
	classification TEXT NOT NULL DEFAULT 'internal',
	created_ts BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_summary_owner_id ON summary (owner_id);
CREATE INDEX IF NOT EXISTS idx_summary_tags ON summary USING GIN (tags);

CREATE TABLE IF NOT EXISTS document (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	embedding vector(1536),
	metadata JSONB NOT NULL DEFAULT '{}',
	memory_type TEXT NOT NULL DEFAULT 'document',
	source_type TEXT NOT NULL DEFAULT 'user_input',
	source_url TEXT NOT NULL DEFAULT '',
	keywords TEXT[] NOT NULL DEFAULT '{}',
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
CREATE INDEX IF NOT EXISTS idx_document_keywords ON document USING GIN (keywords);
CREATE INDEX IF NOT EXISTS idx_document_embedding ON document USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);
`

func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, latestSchema); err != nil {
		return errors.Wrap(err, "failed to apply schema")
	}
	return nil
}
