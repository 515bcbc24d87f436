// Package memory implements the cross-tier orchestration layer: tier
// controllers gated by the authz policy engine, content classification,
// fan-out search with unified ranking, statistics aggregation and tier
// migration.
package memory

import "github.com/pkg/errors"

// Sentinel errors recovered at component boundaries. Callers should match
// with errors.Is; wrapped messages carry the detail.
var (
	// ErrAccessDenied means authorization failed. Expected and user-facing,
	// never logged as an internal error.
	ErrAccessDenied = errors.New("access denied")

	// ErrNotFound means the record is absent or filtered out by the
	// principal's scope. Callers cannot distinguish the two cases.
	ErrNotFound = errors.New("memory not found")

	// ErrInvalidArgument means malformed input: empty content, an invalid
	// tier name, an unsupported migration pair.
	ErrInvalidArgument = errors.New("invalid argument")
)

func deniedf(format string, args ...any) error {
	return errors.Wrapf(ErrAccessDenied, format, args...)
}

func notFoundf(format string, args ...any) error {
	return errors.Wrapf(ErrNotFound, format, args...)
}

func invalidf(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}
