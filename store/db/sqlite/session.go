package sqlite

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/usestratum/stratum/store"
)

func (d *DB) CreateSession(ctx context.Context, create *store.Session) (*store.Session, error) {
	messages, err := marshalJSON(create.Messages)
	if err != nil {
		return nil, err
	}
	contextData, err := marshalJSON(create.ContextData)
	if err != nil {
		return nil, err
	}

	fields := []string{"id", "owner_id", "messages", "context_data", "agent_name", "project_id", "department_id", "classification", "created_ts"}
	args := []any{
		create.ID,
		create.OwnerID,
		messages,
		contextData,
		create.AgentName,
		create.ProjectID,
		create.DepartmentID,
		create.Classification,
		create.CreatedTs,
	}

	stmt := `INSERT INTO session (` + strings.Join(fields, ", ") + `) VALUES (` + placeholders(len(args)) + `)`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "failed to create session")
	}

	return create, nil
}

func sessionConditions(find *store.FindSession) ([]string, []any) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.OwnerID != nil {
		where, args = append(where, "owner_id = "+placeholder(len(args)+1)), append(args, *find.OwnerID)
	}
	if find.ProjectIn != nil {
		if len(find.ProjectIn) == 0 {
			// Restricted to projects but member of none.
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
	if find.CreatedAfter != nil {
		where, args = append(where, "created_ts >= "+placeholder(len(args)+1)), append(args, *find.CreatedAfter)
	}

	return where, args
}

func (d *DB) ListSessions(ctx context.Context, find *store.FindSession) ([]*store.Session, error) {
	if find == nil {
		return nil, errors.New("find parameter cannot be nil")
	}

	where, args := sessionConditions(find)

	query := `SELECT id, owner_id, messages, context_data, agent_name, project_id, department_id, classification, created_ts
		FROM session WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts DESC`
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
		return nil, errors.Wrap(err, "failed to list sessions")
	}
	defer rows.Close()

	list := make([]*store.Session, 0)
	for rows.Next() {
		session := &store.Session{}
		var messages, contextData string
		if err := rows.Scan(
			&session.ID,
			&session.OwnerID,
			&messages,
			&contextData,
			&session.AgentName,
			&session.ProjectID,
			&session.DepartmentID,
			&session.Classification,
			&session.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan session")
		}
		if err := unmarshalJSON(messages, &session.Messages); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(contextData, &session.ContextData); err != nil {
			return nil, err
		}
		list = append(list, session)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate sessions")
	}

	return list, nil
}

func (d *DB) CountSessions(ctx context.Context, find *store.FindSession) (int64, error) {
	if find == nil {
		return 0, errors.New("find parameter cannot be nil")
	}

	where, args := sessionConditions(find)

	var count int64
	query := `SELECT COUNT(*) FROM session WHERE ` + strings.Join(where, " AND ")
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count sessions")
	}
	return count, nil
}
