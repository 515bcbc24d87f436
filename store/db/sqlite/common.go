package sqlite

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// placeholder returns a placeholder for SQLite (uses ?).
func placeholder(n int) string {
	return "?"
}

// placeholders returns n placeholders for SQLite.
func placeholders(n int) string {
	list := []string{}
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}

// marshalJSON encodes a compound field for storage in a TEXT column.
// Nil values are stored as their empty JSON form so scans never see NULL.
func marshalJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal field")
	}
	if string(data) == "null" {
		switch v.(type) {
		case map[string]any:
			return "{}", nil
		default:
			return "[]", nil
		}
	}
	return string(data), nil
}

func unmarshalJSON(data string, v any) error {
	if data == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return errors.Wrap(err, "failed to unmarshal field")
	}
	return nil
}

// jsonArrayContains builds a LIKE predicate matching a string element of a
// JSON-encoded array column. The element is quoted so "go" does not match
// "golang".
func jsonArrayContains(column string, value string) (string, string) {
	quoted, _ := json.Marshal(value)
	return column + " LIKE ?", "%" + string(quoted) + "%"
}
