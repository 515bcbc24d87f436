package sqlite

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/usestratum/stratum/store"
)

func (d *DB) CreateSummary(ctx context.Context, create *store.Summary) (*store.Summary, error) {
	conversationIDs, err := marshalJSON(create.ConversationIDs)
	if err != nil {
		return nil, err
	}
	tags, err := marshalJSON(create.Tags)
	if err != nil {
		return nil, err
	}
	entities, err := marshalJSON(create.Entities)
	if err != nil {
		return nil, err
	}

	fields := []string{"id", "owner_id", "text", "conversation_ids", "tags", "entities", "project_id", "department_id", "classification", "created_ts"}
	args := []any{
		create.ID,
		create.OwnerID,
		create.Text,
		conversationIDs,
		tags,
		entities,
		create.ProjectID,
		create.DepartmentID,
		create.Classification,
		create.CreatedTs,
	}

	stmt := `INSERT INTO summary (` + strings.Join(fields, ", ") + `) VALUES (` + placeholders(len(args)) + `)`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "failed to create summary")
	}

	return create, nil
}

func summaryConditions(find *store.FindSummary) ([]string, []any) {
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
			holders := []string{}
			for _, project := range find.ProjectIn {
				holders = append(holders, placeholder(len(args)+1))
				args = append(args, project)
			}
			where = append(where, "project_id IN ("+strings.Join(holders, ", ")+")")
		}
	}
	if find.DepartmentID != nil {
		where, args = append(where, "department_id = "+placeholder(len(args)+1)), append(args, *find.DepartmentID)
	}
	if len(find.TagsAny) > 0 {
		tagConds := []string{}
		for _, tag := range find.TagsAny {
			cond, arg := jsonArrayContains("tags", tag)
			tagConds = append(tagConds, cond)
			args = append(args, arg)
		}
		where = append(where, "("+strings.Join(tagConds, " OR ")+")")
	}
	if find.ContentSearch != nil && *find.ContentSearch != "" {
		where, args = append(where, "text LIKE "+placeholder(len(args)+1)), append(args, "%"+*find.ContentSearch+"%")
	}
	if find.CreatedAfter != nil {
		where, args = append(where, "created_ts >= "+placeholder(len(args)+1)), append(args, *find.CreatedAfter)
	}
	if find.CreatedBefore != nil {
		where, args = append(where, "created_ts <= "+placeholder(len(args)+1)), append(args, *find.CreatedBefore)
	}

	return where, args
}

func (d *DB) ListSummaries(ctx context.Context, find *store.FindSummary) ([]*store.Summary, error) {
	if find == nil {
		return nil, errors.New("find parameter cannot be nil")
	}

	where, args := summaryConditions(find)

	query := `SELECT id, owner_id, text, conversation_ids, tags, entities, project_id, department_id, classification, created_ts
		FROM summary WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts DESC`
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
		return nil, errors.Wrap(err, "failed to list summaries")
	}
	defer rows.Close()

	list := make([]*store.Summary, 0)
	for rows.Next() {
		summary := &store.Summary{}
		var conversationIDs, tags, entities string
		if err := rows.Scan(
			&summary.ID,
			&summary.OwnerID,
			&summary.Text,
			&conversationIDs,
			&tags,
			&entities,
			&summary.ProjectID,
			&summary.DepartmentID,
			&summary.Classification,
			&summary.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan summary")
		}
		if err := unmarshalJSON(conversationIDs, &summary.ConversationIDs); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(tags, &summary.Tags); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(entities, &summary.Entities); err != nil {
			return nil, err
		}
		list = append(list, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate summaries")
	}

	return list, nil
}

func (d *DB) CountSummaries(ctx context.Context, find *store.FindSummary) (int64, error) {
	if find == nil {
		return 0, errors.New("find parameter cannot be nil")
	}

	where, args := summaryConditions(find)

	var count int64
	query := `SELECT COUNT(*) FROM summary WHERE ` + strings.Join(where, " AND ")
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count summaries")
	}
	return count, nil
}
