package embedding

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pluginembedding "github.com/usestratum/stratum/plugin/embedding"
	"github.com/usestratum/stratum/store"
)

type fakeDocumentStore struct {
	documents []*store.Document
	listErr   error
	updateErr error
	updates   int
}

func (f *fakeDocumentStore) ListDocuments(_ context.Context, find *store.FindDocument) ([]*store.Document, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	list := []*store.Document{}
	for _, d := range f.documents {
		if find.MissingEmbedding && len(d.Embedding) > 0 {
			continue
		}
		list = append(list, d)
		if find.Limit > 0 && len(list) >= find.Limit {
			break
		}
	}
	return list, nil
}

func (f *fakeDocumentStore) UpdateDocument(_ context.Context, update *store.UpdateDocument) (*store.Document, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updates++
	for _, d := range f.documents {
		if d.ID == update.ID {
			d.Embedding = update.Embedding
			return d, nil
		}
	}
	return nil, errors.Errorf("document not found: %s", update.ID)
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("provider unavailable")
}
func (failingEmbedder) Dimensions() int { return 0 }
func (failingEmbedder) Model() string   { return "failing" }

func TestRunOnceBackfillsMissingEmbeddings(t *testing.T) {
	documentStore := &fakeDocumentStore{
		documents: []*store.Document{
			{ID: "d1", Content: "first pending document"},
			{ID: "d2", Content: "second pending document"},
			{ID: "d3", Content: "already embedded", Embedding: []float32{0.1, 0.2}},
		},
	}
	runner := NewRunner(documentStore, pluginembedding.NewHashEmbedder(32))

	runner.RunOnce(context.Background())

	assert.Equal(t, 2, documentStore.updates)
	for _, d := range documentStore.documents {
		require.NotEmpty(t, d.Embedding, "document %s", d.ID)
	}
}

func TestRunOnceNothingPending(t *testing.T) {
	documentStore := &fakeDocumentStore{
		documents: []*store.Document{
			{ID: "d1", Content: "done", Embedding: []float32{0.5}},
		},
	}
	runner := NewRunner(documentStore, pluginembedding.NewHashEmbedder(32))

	runner.RunOnce(context.Background())
	assert.Zero(t, documentStore.updates)
}

func TestRunOnceToleratesEmbedderFailure(t *testing.T) {
	documentStore := &fakeDocumentStore{
		documents: []*store.Document{{ID: "d1", Content: "pending"}},
	}
	runner := NewRunner(documentStore, failingEmbedder{})

	runner.RunOnce(context.Background())

	// The document stays pending for the next pass.
	assert.Zero(t, documentStore.updates)
	assert.Empty(t, documentStore.documents[0].Embedding)
}
