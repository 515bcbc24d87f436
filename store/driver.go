package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)
	Migrate(ctx context.Context) error

	// Session model related methods.
	CreateSession(ctx context.Context, create *Session) (*Session, error)
	ListSessions(ctx context.Context, find *FindSession) ([]*Session, error)
	CountSessions(ctx context.Context, find *FindSession) (int64, error)

	// Summary model related methods.
	CreateSummary(ctx context.Context, create *Summary) (*Summary, error)
	ListSummaries(ctx context.Context, find *FindSummary) ([]*Summary, error)
	CountSummaries(ctx context.Context, find *FindSummary) (int64, error)

	// Document model related methods.
	CreateDocument(ctx context.Context, create *Document) (*Document, error)
	ListDocuments(ctx context.Context, find *FindDocument) ([]*Document, error)
	CountDocuments(ctx context.Context, find *FindDocument) (int64, error)
	UpdateDocument(ctx context.Context, update *UpdateDocument) (*Document, error)
	GetDocumentStats(ctx context.Context, find *FindDocument) (*DocumentStats, error)
}
