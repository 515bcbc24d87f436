package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/usestratum/stratum/store"
)

// In-memory stores honoring the find descriptors, so controller tests run
// against real filter semantics without a database.

type fakeSessionStore struct {
	sessions []*store.Session
	err      error
}

func matchProjects(projectIn []string, projectID *string) bool {
	if projectIn == nil {
		return true
	}
	if projectID == nil {
		return false
	}
	for _, p := range projectIn {
		if p == *projectID {
			return true
		}
	}
	return false
}

func (f *fakeSessionStore) CreateSession(_ context.Context, create *store.Session) (*store.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sessions = append(f.sessions, create)
	return create, nil
}

func (f *fakeSessionStore) ListSessions(_ context.Context, find *store.FindSession) ([]*store.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	list := []*store.Session{}
	for _, s := range f.sessions {
		if find.ID != nil && s.ID != *find.ID {
			continue
		}
		if find.OwnerID != nil && s.OwnerID != *find.OwnerID {
			continue
		}
		if !matchProjects(find.ProjectIn, s.ProjectID) {
			continue
		}
		if find.DepartmentID != nil && (s.DepartmentID == nil || *s.DepartmentID != *find.DepartmentID) {
			continue
		}
		if find.CreatedAfter != nil && s.CreatedTs < *find.CreatedAfter {
			continue
		}
		list = append(list, s)
		if find.Limit > 0 && len(list) >= find.Limit {
			break
		}
	}
	return list, nil
}

func (f *fakeSessionStore) CountSessions(ctx context.Context, find *store.FindSession) (int64, error) {
	list, err := f.ListSessions(ctx, find)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

type fakeSummaryStore struct {
	summaries []*store.Summary
	err       error
	// tagErr fails only queries filtering on tags.
	tagErr error
}

func (f *fakeSummaryStore) CreateSummary(_ context.Context, create *store.Summary) (*store.Summary, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.summaries = append(f.summaries, create)
	return create, nil
}

func (f *fakeSummaryStore) ListSummaries(_ context.Context, find *store.FindSummary) ([]*store.Summary, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.tagErr != nil && len(find.TagsAny) > 0 {
		return nil, f.tagErr
	}
	list := []*store.Summary{}
	for _, s := range f.summaries {
		if find.ID != nil && s.ID != *find.ID {
			continue
		}
		if find.OwnerID != nil && s.OwnerID != *find.OwnerID {
			continue
		}
		if !matchProjects(find.ProjectIn, s.ProjectID) {
			continue
		}
		if find.DepartmentID != nil && (s.DepartmentID == nil || *s.DepartmentID != *find.DepartmentID) {
			continue
		}
		if len(find.TagsAny) > 0 && !anyTagMatch(s.Tags, find.TagsAny) {
			continue
		}
		if find.ContentSearch != nil && !containsFold(s.Text, *find.ContentSearch) {
			continue
		}
		if find.CreatedAfter != nil && s.CreatedTs < *find.CreatedAfter {
			continue
		}
		if find.CreatedBefore != nil && s.CreatedTs > *find.CreatedBefore {
			continue
		}
		list = append(list, s)
		if find.Limit > 0 && len(list) >= find.Limit {
			break
		}
	}
	return list, nil
}

func (f *fakeSummaryStore) CountSummaries(ctx context.Context, find *store.FindSummary) (int64, error) {
	list, err := f.ListSummaries(ctx, find)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

type fakeDocumentStore struct {
	documents []*store.Document
	err       error
}

func (f *fakeDocumentStore) CreateDocument(_ context.Context, create *store.Document) (*store.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.documents = append(f.documents, create)
	return create, nil
}

func (f *fakeDocumentStore) ListDocuments(_ context.Context, find *store.FindDocument) ([]*store.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	list := []*store.Document{}
	for _, d := range f.documents {
		if find.ID != nil && d.ID != *find.ID {
			continue
		}
		if find.OwnerID != nil && d.OwnerID != *find.OwnerID {
			continue
		}
		if !matchProjects(find.ProjectIn, d.ProjectID) {
			continue
		}
		if find.DepartmentID != nil && (d.DepartmentID == nil || *d.DepartmentID != *find.DepartmentID) {
			continue
		}
		if find.ContentHash != nil && d.ContentHash != *find.ContentHash {
			continue
		}
		if find.MemoryType != nil && d.MemoryType != *find.MemoryType {
			continue
		}
		if len(find.KeywordsAny) > 0 && !anyTagMatch(d.Keywords, find.KeywordsAny) {
			continue
		}
		if find.ContentSearch != nil && !containsFold(d.Title+" "+d.Content, *find.ContentSearch) {
			continue
		}
		if find.RowStatus != nil && d.RowStatus != *find.RowStatus {
			continue
		}
		if find.CreatedAfter != nil && d.CreatedTs < *find.CreatedAfter {
			continue
		}
		list = append(list, d)
	}
	// Newest first, like the drivers.
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedTs > list[j].CreatedTs
	})
	if find.Limit > 0 && len(list) > find.Limit {
		list = list[:find.Limit]
	}
	return list, nil
}

func (f *fakeDocumentStore) CountDocuments(ctx context.Context, find *store.FindDocument) (int64, error) {
	list, err := f.ListDocuments(ctx, find)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (f *fakeDocumentStore) UpdateDocument(_ context.Context, update *store.UpdateDocument) (*store.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, d := range f.documents {
		if d.ID != update.ID {
			continue
		}
		if update.Title != nil {
			d.Title = *update.Title
		}
		if update.Content != nil {
			d.Content = *update.Content
		}
		if update.ContentHash != nil {
			d.ContentHash = *update.ContentHash
		}
		if update.Embedding != nil {
			d.Embedding = update.Embedding
		}
		if update.Metadata != nil {
			d.Metadata = update.Metadata
		}
		if update.Keywords != nil {
			d.Keywords = update.Keywords
		}
		if update.WordCount != nil {
			d.WordCount = *update.WordCount
		}
		if update.LastModifiedBy != nil {
			d.LastModifiedBy = update.LastModifiedBy
		}
		if update.RowStatus != nil {
			d.RowStatus = *update.RowStatus
		}
		if update.BumpVersion {
			d.Version++
		}
		return d, nil
	}
	return nil, errors.Errorf("document not found: %s", update.ID)
}

func (f *fakeDocumentStore) GetDocumentStats(ctx context.Context, find *store.FindDocument) (*store.DocumentStats, error) {
	list, err := f.ListDocuments(ctx, find)
	if err != nil {
		return nil, err
	}
	stats := &store.DocumentStats{TotalDocuments: int64(len(list))}
	types := map[string]int64{}
	owners := map[string]bool{}
	for _, d := range list {
		types[d.MemoryType]++
		owners[d.OwnerID] = true
		stats.TotalWords += int64(d.WordCount)
		if d.CreatedTs > stats.LatestTs {
			stats.LatestTs = d.CreatedTs
		}
		if stats.EarliestTs == 0 || d.CreatedTs < stats.EarliestTs {
			stats.EarliestTs = d.CreatedTs
		}
	}
	stats.DocumentTypes = int64(len(types))
	stats.Contributors = int64(len(owners))
	if len(list) > 0 {
		stats.AvgWordCount = float64(stats.TotalWords) / float64(len(list))
	}
	for memoryType, count := range types {
		stats.TypeBreakdown = append(stats.TypeBreakdown, store.TypeCount{MemoryType: memoryType, Count: count})
	}
	return stats, nil
}

func anyTagMatch(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
