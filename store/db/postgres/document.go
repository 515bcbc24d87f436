package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/usestratum/stratum/store"
)

// nullVector is a backport of sql.Null[pgvector.Vector] for toolchains
// predating Go 1.22: NULL scans as the zero Vector with Valid=false.
type nullVector struct {
	V     pgvector.Vector
	Valid bool
}

func (n *nullVector) Scan(value any) error {
	if value == nil {
		n.V, n.Valid = pgvector.Vector{}, false
		return nil
	}
	if err := n.V.Scan(value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

func (d *DB) CreateDocument(ctx context.Context, create *store.Document) (*store.Document, error) {
	metadata, err := marshalJSON(create.Metadata)
	if err != nil {
		return nil, err
	}

	fields := []string{
		"id", "title", "content", "content_hash", "embedding", "metadata",
		"memory_type", "source_type", "source_url", "keywords", "word_count",
		"version", "owner_id", "last_modified_by", "project_id", "department_id",
		"classification", "row_status", "created_ts", "updated_ts",
	}
	// A NULL embedding marks the document for the re-embedding runner.
	var embedding any
	if len(create.Embedding) > 0 {
		embedding = pgvector.NewVector(create.Embedding)
	}

	args := []any{
		create.ID,
		create.Title,
		create.Content,
		create.ContentHash,
		embedding,
		metadata,
		create.MemoryType,
		create.SourceType,
		create.SourceURL,
		pq.Array(create.Keywords),
		create.WordCount,
		create.Version,
		create.OwnerID,
		create.LastModifiedBy,
		create.ProjectID,
		create.DepartmentID,
		create.Classification,
		create.RowStatus,
		create.CreatedTs,
		create.UpdatedTs,
	}

	stmt := `INSERT INTO document (` + strings.Join(fields, ", ") + `) VALUES (` + placeholders(len(args)) + `)`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "failed to create document")
	}

	return create, nil
}

func documentConditions(find *store.FindDocument) ([]string, []any) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.OwnerID != nil {
		where, args = append(where, "owner_id = "+placeholder(len(args)+1)), append(args, *find.OwnerID)
	}
	if find.ProjectIn != nil {
		if len(find.ProjectIn) == 0 {
			where = append(where, "1 = 0")
		} else {
			where, args = append(where, "project_id = ANY("+placeholder(len(args)+1)+")"), append(args, pq.Array(find.ProjectIn))
		}
	}
	if find.DepartmentID != nil {
		where, args = append(where, "department_id = "+placeholder(len(args)+1)), append(args, *find.DepartmentID)
	}
	if find.ContentHash != nil {
		where, args = append(where, "content_hash = "+placeholder(len(args)+1)), append(args, *find.ContentHash)
	}
	if find.MemoryType != nil {
		where, args = append(where, "memory_type = "+placeholder(len(args)+1)), append(args, *find.MemoryType)
	}
	if len(find.KeywordsAny) > 0 {
		where, args = append(where, "keywords && "+placeholder(len(args)+1)), append(args, pq.Array(find.KeywordsAny))
	}
	if find.ContentSearch != nil && *find.ContentSearch != "" {
		pattern := "%" + *find.ContentSearch + "%"
		where = append(where, "(title ILIKE "+placeholder(len(args)+1)+" OR content ILIKE "+placeholder(len(args)+2)+")")
		args = append(args, pattern, pattern)
	}
	if find.Classification != nil {
		where, args = append(where, "classification = "+placeholder(len(args)+1)), append(args, *find.Classification)
	}
	if find.CreatedAfter != nil {
		where, args = append(where, "created_ts >= "+placeholder(len(args)+1)), append(args, *find.CreatedAfter)
	}
	if find.CreatedBefore != nil {
		where, args = append(where, "created_ts <= "+placeholder(len(args)+1)), append(args, *find.CreatedBefore)
	}
	if find.MinWordCount != nil {
		where, args = append(where, "word_count >= "+placeholder(len(args)+1)), append(args, *find.MinWordCount)
	}
	if find.MaxWordCount != nil {
		where, args = append(where, "word_count <= "+placeholder(len(args)+1)), append(args, *find.MaxWordCount)
	}
	if find.RowStatus != nil {
		where, args = append(where, "row_status = "+placeholder(len(args)+1)), append(args, *find.RowStatus)
	}
	if find.MissingEmbedding {
		where = append(where, "embedding IS NULL")
	}

	return where, args
}

const documentColumns = `id, title, content, content_hash, metadata,
	memory_type, source_type, source_url, keywords, word_count, version,
	owner_id, last_modified_by, project_id, department_id, classification,
	row_status, created_ts, updated_ts`

func (d *DB) ListDocuments(ctx context.Context, find *store.FindDocument) ([]*store.Document, error) {
	if find == nil {
		return nil, errors.New("find parameter cannot be nil")
	}

	where, args := documentConditions(find)

	columns := documentColumns
	if find.WithEmbedding {
		columns += ", embedding"
	}

	query := `SELECT ` + columns + ` FROM document WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts DESC`
	if find.Limit > 0 {
		query += " LIMIT " + placeholder(len(args)+1)
		args = append(args, find.Limit)
		if find.Offset > 0 {
			query += " OFFSET " + placeholder(len(args)+1)
			args = append(args, find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list documents")
	}
	defer rows.Close()

	list := make([]*store.Document, 0)
	for rows.Next() {
		document := &store.Document{}
		var metadata string
		var embedding nullVector
		dest := []any{
			&document.ID,
			&document.Title,
			&document.Content,
			&document.ContentHash,
			&metadata,
			&document.MemoryType,
			&document.SourceType,
			&document.SourceURL,
			pq.Array(&document.Keywords),
			&document.WordCount,
			&document.Version,
			&document.OwnerID,
			&document.LastModifiedBy,
			&document.ProjectID,
			&document.DepartmentID,
			&document.Classification,
			&document.RowStatus,
			&document.CreatedTs,
			&document.UpdatedTs,
		}
		if find.WithEmbedding {
			dest = append(dest, &embedding)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrap(err, "failed to scan document")
		}
		if err := unmarshalJSON(metadata, &document.Metadata); err != nil {
			return nil, err
		}
		if find.WithEmbedding && embedding.Valid {
			document.Embedding = embedding.V.Slice()
		}
		list = append(list, document)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate documents")
	}

	return list, nil
}

func (d *DB) CountDocuments(ctx context.Context, find *store.FindDocument) (int64, error) {
	if find == nil {
		return 0, errors.New("find parameter cannot be nil")
	}

	where, args := documentConditions(find)

	var count int64
	query := `SELECT COUNT(*) FROM document WHERE ` + strings.Join(where, " AND ")
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count documents")
	}
	return count, nil
}

func (d *DB) UpdateDocument(ctx context.Context, update *store.UpdateDocument) (*store.Document, error) {
	if update == nil || update.ID == "" {
		return nil, errors.New("update parameter requires an id")
	}

	set, args := []string{}, []any{}

	if update.Title != nil {
		set, args = append(set, "title = "+placeholder(len(args)+1)), append(args, *update.Title)
	}
	if update.Content != nil {
		set, args = append(set, "content = "+placeholder(len(args)+1)), append(args, *update.Content)
	}
	if update.ContentHash != nil {
		set, args = append(set, "content_hash = "+placeholder(len(args)+1)), append(args, *update.ContentHash)
	}
	if update.Embedding != nil {
		set, args = append(set, "embedding = "+placeholder(len(args)+1)), append(args, pgvector.NewVector(update.Embedding))
	}
	if update.Metadata != nil {
		metadata, err := marshalJSON(update.Metadata)
		if err != nil {
			return nil, err
		}
		set, args = append(set, "metadata = "+placeholder(len(args)+1)), append(args, metadata)
	}
	if update.Keywords != nil {
		set, args = append(set, "keywords = "+placeholder(len(args)+1)), append(args, pq.Array(update.Keywords))
	}
	if update.WordCount != nil {
		set, args = append(set, "word_count = "+placeholder(len(args)+1)), append(args, *update.WordCount)
	}
	if update.LastModifiedBy != nil {
		set, args = append(set, "last_modified_by = "+placeholder(len(args)+1)), append(args, *update.LastModifiedBy)
	}
	if update.RowStatus != nil {
		set, args = append(set, "row_status = "+placeholder(len(args)+1)), append(args, *update.RowStatus)
	}
	if update.BumpVersion {
		set = append(set, "version = version + 1")
	}
	set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, time.Now().Unix())

	stmt := `UPDATE document SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args)+1)
	args = append(args, update.ID)
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "failed to update document")
	}

	list, err := d.ListDocuments(ctx, &store.FindDocument{ID: &update.ID, WithEmbedding: true})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errors.Errorf("document not found: %s", update.ID)
	}
	return list[0], nil
}

func (d *DB) GetDocumentStats(ctx context.Context, find *store.FindDocument) (*store.DocumentStats, error) {
	if find == nil {
		return nil, errors.New("find parameter cannot be nil")
	}

	where, args := documentConditions(find)

	stats := &store.DocumentStats{}
	query := `SELECT
			COUNT(*),
			COUNT(DISTINCT memory_type),
			COALESCE(AVG(word_count), 0),
			COALESCE(SUM(word_count), 0),
			COUNT(DISTINCT owner_id),
			COALESCE(MAX(created_ts), 0),
			COALESCE(MIN(created_ts), 0)
		FROM document WHERE ` + strings.Join(where, " AND ")
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.TotalDocuments,
		&stats.DocumentTypes,
		&stats.AvgWordCount,
		&stats.TotalWords,
		&stats.Contributors,
		&stats.LatestTs,
		&stats.EarliestTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to aggregate document stats")
	}

	breakdownQuery := `SELECT memory_type, COUNT(*) FROM document
		WHERE ` + strings.Join(where, " AND ") + `
		GROUP BY memory_type ORDER BY COUNT(*) DESC`
	rows, err := d.db.QueryContext(ctx, breakdownQuery, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query document type breakdown")
	}
	defer rows.Close()

	for rows.Next() {
		entry := store.TypeCount{}
		if err := rows.Scan(&entry.MemoryType, &entry.Count); err != nil {
			return nil, errors.Wrap(err, "failed to scan document type breakdown")
		}
		stats.TypeBreakdown = append(stats.TypeBreakdown, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate document type breakdown")
	}

	return stats, nil
}
