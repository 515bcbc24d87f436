package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/usestratum/stratum/server/authz"
	"github.com/usestratum/stratum/store"
)

// SessionStore is the filtered record store for the short-term tier. The
// store performs no authorization of its own; every call happens after the
// policy engine has granted access and carries the resulting filters.
type SessionStore interface {
	CreateSession(ctx context.Context, create *store.Session) (*store.Session, error)
	ListSessions(ctx context.Context, find *store.FindSession) ([]*store.Session, error)
	CountSessions(ctx context.Context, find *store.FindSession) (int64, error)
}

// Relevance assigned to a plain lexical match in short-term search.
const shortTermMatchRelevance = 0.7

const defaultAgentName = "AI Assistant"

// ShortTermController handles short-term memory operations: raw conversation
// sessions.
type ShortTermController struct {
	store SessionStore
	authz *authz.Engine
	tier  store.MemoryTier
}

func NewShortTermController(sessionStore SessionStore, engine *authz.Engine) *ShortTermController {
	return &ShortTermController{
		store: sessionStore,
		authz: engine,
		tier:  store.TierShortTerm,
	}
}

// StoreSession stores a conversation session for the principal.
func (c *ShortTermController) StoreSession(ctx context.Context, principal *authz.Principal, content *Content) (*store.Session, error) {
	decision := c.authz.Authorize(principal, c.tier, authz.ActionWrite)
	if !decision.Granted {
		return nil, deniedf("%s", decision.Reason)
	}

	if content == nil || len(content.Messages) == 0 {
		return nil, invalidf("no messages provided")
	}

	agentName := content.AgentName
	if agentName == "" {
		agentName = defaultAgentName
	}

	// Sessions are ephemeral and referenced in chat transcripts, so they get
	// compact ids.
	session := &store.Session{
		ID:             shortuuid.New(),
		OwnerID:        principal.ID,
		Messages:       content.Messages,
		ContextData:    content.ContextData,
		AgentName:      agentName,
		ProjectID:      firstProject(principal),
		DepartmentID:   principal.DepartmentID,
		Classification: principal.Classification,
		CreatedTs:      time.Now().Unix(),
	}

	created, err := c.store.CreateSession(ctx, session)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create session")
	}
	return created, nil
}

// ListSessions returns the sessions visible to the principal, newest first.
func (c *ShortTermController) ListSessions(ctx context.Context, principal *authz.Principal, limit int) ([]*store.Session, error) {
	decision := c.authz.Authorize(principal, c.tier, authz.ActionRead)
	if !decision.Granted {
		return nil, deniedf("%s", decision.Reason)
	}

	find := &store.FindSession{Limit: limit}
	applySessionFilters(find, decision.Filters)

	sessions, err := c.store.ListSessions(ctx, find)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list sessions")
	}
	return sessions, nil
}

// GetSession returns one session by id, subject to the principal's filters.
// A session outside the principal's scope is indistinguishable from one that
// does not exist.
func (c *ShortTermController) GetSession(ctx context.Context, principal *authz.Principal, id string) (*store.Session, error) {
	decision := c.authz.Authorize(principal, c.tier, authz.ActionRead)
	if !decision.Granted {
		return nil, deniedf("%s", decision.Reason)
	}

	find := &store.FindSession{ID: &id, Limit: 1}
	applySessionFilters(find, decision.Filters)

	sessions, err := c.store.ListSessions(ctx, find)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get session")
	}
	if len(sessions) == 0 {
		return nil, notFoundf("session %s", id)
	}
	return sessions[0], nil
}

// Search scans visible sessions for a lexical match in their message bodies.
func (c *ShortTermController) Search(ctx context.Context, principal *authz.Principal, query string, limit int) ([]*SearchResult, error) {
	decision := c.authz.Authorize(principal, c.tier, authz.ActionRead)
	if !decision.Granted {
		return nil, deniedf("%s", decision.Reason)
	}

	// Over-fetch so lexical filtering still fills the quota.
	find := &store.FindSession{Limit: limit * 2}
	applySessionFilters(find, decision.Filters)

	sessions, err := c.store.ListSessions(ctx, find)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search sessions")
	}

	needle := strings.ToLower(query)
	results := make([]*SearchResult, 0, limit)
	for _, session := range sessions {
		parts := make([]string, 0, len(session.Messages))
		for _, message := range session.Messages {
			parts = append(parts, message.Content)
		}
		body := strings.Join(parts, " ")
		if !strings.Contains(strings.ToLower(body), needle) {
			continue
		}

		results = append(results, &SearchResult{
			ID:        session.ID,
			Tier:      store.TierShortTerm,
			Title:     fmt.Sprintf("Session from %s", time.Unix(session.CreatedTs, 0).UTC().Format(time.RFC3339)),
			Snippet:   snippet(body, snippetLength),
			Relevance: shortTermMatchRelevance,
			WordCount: len(strings.Fields(body)),
			CreatedTs: session.CreatedTs,
		})
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

// Stats summarizes the sessions visible to the principal.
func (c *ShortTermController) Stats(ctx context.Context, principal *authz.Principal) (*TierStats, error) {
	decision := c.authz.Authorize(principal, c.tier, authz.ActionRead)
	if !decision.Granted {
		return nil, deniedf("%s", decision.Reason)
	}

	find := &store.FindSession{}
	applySessionFilters(find, decision.Filters)

	total, err := c.store.CountSessions(ctx, find)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count sessions")
	}

	stats := &TierStats{Accessible: true, Total: total}
	latest := &store.FindSession{Limit: 1}
	applySessionFilters(latest, decision.Filters)
	if recent, err := c.store.ListSessions(ctx, latest); err == nil && len(recent) > 0 {
		stats.MostRecentTs = recent[0].CreatedTs
	}
	return stats, nil
}

// CountSince counts visible sessions created after the given time.
func (c *ShortTermController) CountSince(ctx context.Context, principal *authz.Principal, since time.Time) (int64, error) {
	decision := c.authz.Authorize(principal, c.tier, authz.ActionRead)
	if !decision.Granted {
		return 0, deniedf("%s", decision.Reason)
	}

	ts := since.Unix()
	find := &store.FindSession{CreatedAfter: &ts}
	applySessionFilters(find, decision.Filters)
	return c.store.CountSessions(ctx, find)
}
