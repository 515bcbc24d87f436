package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/usestratum/stratum/server/authz"
	"github.com/usestratum/stratum/store"
)

// MigrationResult reports one completed migration. Migration is additive:
// the source record is never deleted or marked, and the target record is a
// new independent copy.
type MigrationResult struct {
	MigrationID string
	SourceTier  store.MemoryTier
	TargetTier  store.MemoryTier
	SourceID    string
	TargetID    string
	Message     string
}

// MigrationEngine reshapes a record from a source tier into the target
// tier's input schema and stores the copy, re-authorizing the write.
type MigrationEngine struct {
	authz *authz.Engine
	short *ShortTermController
	mid   *MidTermController
	long  *LongTermController
}

func NewMigrationEngine(engine *authz.Engine, short *ShortTermController, mid *MidTermController, long *LongTermController) *MigrationEngine {
	return &MigrationEngine{
		authz: engine,
		short: short,
		mid:   mid,
		long:  long,
	}
}

// Only forward migrations are defined; long_term is terminal.
var validMigrations = map[store.MemoryTier][]store.MemoryTier{
	store.TierShortTerm: {store.TierMidTerm, store.TierLongTerm},
	store.TierMidTerm:   {store.TierLongTerm},
}

func migrationAllowed(source, target store.MemoryTier) bool {
	for _, t := range validMigrations[source] {
		if t == target {
			return true
		}
	}
	return false
}

// Migrate runs Locate -> Authorize(write, target) -> Transform -> Store.
// An invalid tier pair is rejected before any I/O.
func (m *MigrationEngine) Migrate(ctx context.Context, principal *authz.Principal, source, target store.MemoryTier, recordID string) (*MigrationResult, error) {
	if !migrationAllowed(source, target) {
		return nil, invalidf("migration from %s to %s is not supported", source, target)
	}

	content, err := m.locateAndTransform(ctx, principal, source, target, recordID)
	if err != nil {
		return nil, err
	}

	if decision := m.authz.Authorize(principal, target, authz.ActionWrite); !decision.Granted {
		return nil, deniedf("%s", decision.Reason)
	}

	var targetID string
	switch target {
	case store.TierMidTerm:
		summary, err := m.mid.StoreSummary(ctx, principal, content)
		if err != nil {
			return nil, err
		}
		targetID = summary.ID
	case store.TierLongTerm:
		result, err := m.long.StoreDocument(ctx, principal, content)
		if err != nil {
			return nil, err
		}
		targetID = result.Document.ID
	}

	slog.InfoContext(ctx, "memory migrated",
		"user", principal.Username,
		"source_tier", source,
		"target_tier", target,
		"source_id", recordID,
		"target_id", targetID,
	)

	return &MigrationResult{
		MigrationID: uuid.NewString(),
		SourceTier:  source,
		TargetTier:  target,
		SourceID:    recordID,
		TargetID:    targetID,
		Message:     fmt.Sprintf("successfully migrated from %s to %s", source, target),
	}, nil
}

// locateAndTransform fetches the source record under the principal's
// filters and reshapes it for the target tier. The transforms are lossy by
// design: a message list collapses into a synthesized summary, and a
// summary becomes a document body with its tags preserved in metadata.
func (m *MigrationEngine) locateAndTransform(ctx context.Context, principal *authz.Principal, source, target store.MemoryTier, recordID string) (*Content, error) {
	switch source {
	case store.TierShortTerm:
		session, err := m.short.GetSession(ctx, principal, recordID)
		if err != nil {
			return nil, err
		}

		parts := make([]string, 0, len(session.Messages))
		for _, message := range session.Messages {
			parts = append(parts, message.Content)
		}
		summaryText := fmt.Sprintf("Session summary: %s", snippet(strings.Join(parts, " "), 500))

		if target == store.TierLongTerm {
			return &Content{
				Title:      fmt.Sprintf("Session Document: %s", snippet(summaryText, 50)),
				Text:       summaryText,
				MemoryType: "migrated_session",
				SourceType: "migration",
				Metadata: map[string]any{
					"tags":   []string{"migrated", "session"},
					"source": "short_term_migration",
				},
			}, nil
		}
		return &Content{
			Text:            summaryText,
			ConversationIDs: []string{session.ID},
			Tags:            []string{"migrated", "session"},
			Entities:        map[string]any{"source": "short_term_migration"},
		}, nil

	case store.TierMidTerm:
		summary, err := m.mid.GetSummary(ctx, principal, recordID)
		if err != nil {
			return nil, err
		}
		return &Content{
			Title:      fmt.Sprintf("Summary Document: %s", snippet(summary.Text, 50)),
			Text:       summary.Text,
			MemoryType: "migrated_summary",
			SourceType: "migration",
			Metadata: map[string]any{
				"original_tags": summary.Tags,
				"source":        "mid_term_migration",
			},
		}, nil
	}

	return nil, invalidf("migration from %s is not supported", source)
}
