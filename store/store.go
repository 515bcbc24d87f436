package store

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/usestratum/stratum/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

// Migrate applies the schema to a fresh database. An already initialized
// database is left untouched.
func (s *Store) Migrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check database state")
	}
	if initialized {
		return nil
	}

	slog.InfoContext(ctx, "initializing database schema", "driver", s.profile.Driver)
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) CreateSession(ctx context.Context, create *Session) (*Session, error) {
	return s.driver.CreateSession(ctx, create)
}

func (s *Store) ListSessions(ctx context.Context, find *FindSession) ([]*Session, error) {
	return s.driver.ListSessions(ctx, find)
}

func (s *Store) CountSessions(ctx context.Context, find *FindSession) (int64, error) {
	return s.driver.CountSessions(ctx, find)
}

func (s *Store) CreateSummary(ctx context.Context, create *Summary) (*Summary, error) {
	return s.driver.CreateSummary(ctx, create)
}

func (s *Store) ListSummaries(ctx context.Context, find *FindSummary) ([]*Summary, error) {
	return s.driver.ListSummaries(ctx, find)
}

func (s *Store) CountSummaries(ctx context.Context, find *FindSummary) (int64, error) {
	return s.driver.CountSummaries(ctx, find)
}

func (s *Store) CreateDocument(ctx context.Context, create *Document) (*Document, error) {
	return s.driver.CreateDocument(ctx, create)
}

func (s *Store) ListDocuments(ctx context.Context, find *FindDocument) ([]*Document, error) {
	return s.driver.ListDocuments(ctx, find)
}

func (s *Store) CountDocuments(ctx context.Context, find *FindDocument) (int64, error) {
	return s.driver.CountDocuments(ctx, find)
}

func (s *Store) UpdateDocument(ctx context.Context, update *UpdateDocument) (*Document, error) {
	return s.driver.UpdateDocument(ctx, update)
}

func (s *Store) GetDocumentStats(ctx context.Context, find *FindDocument) (*DocumentStats, error) {
	return s.driver.GetDocumentStats(ctx, find)
}
