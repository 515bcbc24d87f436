// Package embedding backfills vectors for documents that were stored while
// the embedding provider was unavailable.
package embedding

import (
	"context"
	"log/slog"
	"time"

	"github.com/usestratum/stratum/plugin/embedding"
	"github.com/usestratum/stratum/store"
)

// DocumentStore is the slice of the record store the runner needs.
type DocumentStore interface {
	ListDocuments(ctx context.Context, find *store.FindDocument) ([]*store.Document, error)
	UpdateDocument(ctx context.Context, update *store.UpdateDocument) (*store.Document, error)
}

type Runner struct {
	store     DocumentStore
	embedder  embedding.Embedder
	interval  time.Duration
	batchSize int
}

func NewRunner(documentStore DocumentStore, embedder embedding.Embedder) *Runner {
	return &Runner{
		store:     documentStore,
		embedder:  embedder,
		interval:  2 * time.Minute,
		batchSize: 16,
	}
}

// Run processes pending documents once at startup and then on every tick
// until the context is cancelled.
func (r *Runner) Run(ctx context.Context) {
	r.RunOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RunOnce(ctx)
		case <-ctx.Done():
			slog.Info("embedding runner stopped")
			return
		}
	}
}

// RunOnce embeds one batch of documents missing a vector. Per-document
// failures are logged and retried on the next pass.
func (r *Runner) RunOnce(ctx context.Context) {
	pending, err := r.store.ListDocuments(ctx, &store.FindDocument{
		MissingEmbedding: true,
		Limit:            r.batchSize,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to find documents missing embeddings", "error", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	slog.InfoContext(ctx, "backfilling document embeddings", "count", len(pending))
	for _, document := range pending {
		select {
		case <-ctx.Done():
			return
		default:
		}

		vector, err := r.embedder.Embed(ctx, document.Content)
		if err != nil {
			slog.ErrorContext(ctx, "failed to embed document", "document_id", document.ID, "error", err)
			continue
		}
		if _, err := r.store.UpdateDocument(ctx, &store.UpdateDocument{
			ID:        document.ID,
			Embedding: vector,
		}); err != nil {
			slog.ErrorContext(ctx, "failed to store document embedding", "document_id", document.ID, "error", err)
		}
	}
}
