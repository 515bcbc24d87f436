package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/usestratum/stratum/server/memory"
	"github.com/usestratum/stratum/store"
)

type messagePayload struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type storeMemoryRequest struct {
	Tier            string           `json:"tier,omitempty"`
	Title           string           `json:"title,omitempty"`
	Text            string           `json:"text,omitempty"`
	Messages        []messagePayload `json:"messages,omitempty"`
	Tags            []string         `json:"tags,omitempty"`
	ConversationIDs []string         `json:"conversation_ids,omitempty"`
	Entities        map[string]any   `json:"entities,omitempty"`
	Metadata        map[string]any   `json:"metadata,omitempty"`
	MemoryType      string           `json:"memory_type,omitempty"`
	SourceType      string           `json:"source_type,omitempty"`
	SourceURL       string           `json:"source_url,omitempty"`
	AgentName       string           `json:"agent_name,omitempty"`
	ContextData     map[string]any   `json:"context_data,omitempty"`
}

type storeMemoryResponse struct {
	Status     string `json:"status"`
	Tier       string `json:"tier"`
	TierReason string `json:"tier_reason"`
	RecordID   string `json:"record_id"`
	Duplicate  bool   `json:"duplicate,omitempty"`
}

func (r *storeMemoryRequest) toContent() (*memory.Content, error) {
	content := &memory.Content{
		Title:           r.Title,
		Text:            r.Text,
		Tags:            r.Tags,
		ConversationIDs: r.ConversationIDs,
		Entities:        r.Entities,
		Metadata:        r.Metadata,
		MemoryType:      r.MemoryType,
		SourceType:      r.SourceType,
		SourceURL:       r.SourceURL,
		AgentName:       r.AgentName,
		ContextData:     r.ContextData,
	}
	if r.Tier != "" {
		tier, ok := store.ParseMemoryTier(r.Tier)
		if !ok {
			return nil, errors.Errorf("unknown memory tier: %s", r.Tier)
		}
		content.Tier = tier
	}
	for _, m := range r.Messages {
		content.Messages = append(content.Messages, store.Message{Role: m.Role, Content: m.Content})
	}
	return content, nil
}

func (s *APIV1Service) storeMemory(c echo.Context) error {
	request := &storeMemoryRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	content, err := request.toContent()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := s.Memory.StoreMemory(c.Request().Context(), principalFrom(c), content)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, &storeMemoryResponse{
		Status:     "stored",
		Tier:       string(result.Tier),
		TierReason: result.TierReason,
		RecordID:   result.RecordID,
		Duplicate:  result.Duplicate,
	})
}

type searchResultPayload struct {
	ID             string   `json:"id"`
	Tier           string   `json:"tier"`
	Title          string   `json:"title"`
	Snippet        string   `json:"snippet"`
	Tags           []string `json:"tags,omitempty"`
	Keywords       []string `json:"keywords,omitempty"`
	Relevance      float64  `json:"relevance"`
	RelevanceLabel string   `json:"relevance_label,omitempty"`
	WordCount      int      `json:"word_count,omitempty"`
	CreatedTs      int64    `json:"created_ts"`
	Score          float64  `json:"score"`
}

type searchResponsePayload struct {
	Query         string                 `json:"query"`
	Results       []*searchResultPayload `json:"results"`
	TotalResults  int                    `json:"total_results"`
	TiersSearched []string               `json:"tiers_searched"`
	SearchErrors  map[string]string      `json:"search_errors,omitempty"`
	Breakdown     map[string]int         `json:"breakdown"`
}

func toSearchResultPayload(result *memory.SearchResult) *searchResultPayload {
	return &searchResultPayload{
		ID:             result.ID,
		Tier:           string(result.Tier),
		Title:          result.Title,
		Snippet:        result.Snippet,
		Tags:           result.Tags,
		Keywords:       result.Keywords,
		Relevance:      result.Relevance,
		RelevanceLabel: result.RelevanceLabel,
		WordCount:      result.WordCount,
		CreatedTs:      result.CreatedTs,
		Score:          result.Score,
	}
}

func (s *APIV1Service) searchMemory(c echo.Context) error {
	query := c.QueryParam("query")
	limit := queryInt(c, "limit", 0)

	response, err := s.Memory.Search(c.Request().Context(), principalFrom(c), query, limit)
	if err != nil {
		return toHTTPError(err)
	}

	payload := &searchResponsePayload{
		Query:        response.Query,
		Results:      make([]*searchResultPayload, 0, len(response.Results)),
		TotalResults: response.TotalResults,
		Breakdown:    map[string]int{},
	}
	for _, result := range response.Results {
		payload.Results = append(payload.Results, toSearchResultPayload(result))
	}
	for _, tier := range response.TiersSearched {
		payload.TiersSearched = append(payload.TiersSearched, string(tier))
	}
	if len(response.SearchErrors) > 0 {
		payload.SearchErrors = map[string]string{}
		for tier, message := range response.SearchErrors {
			payload.SearchErrors[string(tier)] = message
		}
	}
	for tier, count := range response.Breakdown {
		payload.Breakdown[string(tier)] = count
	}

	return c.JSON(http.StatusOK, payload)
}

type tierStatsPayload struct {
	Accessible   bool                 `json:"accessible"`
	Error        string               `json:"error,omitempty"`
	Total        int64                `json:"total"`
	MostRecentTs int64                `json:"most_recent_ts,omitempty"`
	Documents    *store.DocumentStats `json:"documents,omitempty"`
}

type overviewPayload struct {
	User struct {
		Username        string   `json:"username"`
		HierarchyLevel  int      `json:"hierarchy_level"`
		Roles           []string `json:"roles,omitempty"`
		AccessScope     string   `json:"access_scope"`
		AccessibleTiers []string `json:"accessible_tiers"`
	} `json:"user"`
	TotalItems     int64                        `json:"total_items"`
	Tiers          map[string]*tierStatsPayload `json:"tiers"`
	RecentActivity struct {
		WindowDays     int              `json:"window_days"`
		Counts         map[string]int64 `json:"counts"`
		MostActiveTier string           `json:"most_active_tier,omitempty"`
	} `json:"recent_activity"`
	Recommendations []string `json:"recommendations,omitempty"`
	GeneratedAt     string   `json:"generated_at"`
}

func (s *APIV1Service) memoryOverview(c echo.Context) error {
	overview, err := s.Memory.Overview(c.Request().Context(), principalFrom(c))
	if err != nil {
		return toHTTPError(err)
	}

	payload := &overviewPayload{
		TotalItems:      overview.TotalItems,
		Tiers:           map[string]*tierStatsPayload{},
		Recommendations: overview.Recommendations,
		GeneratedAt:     overview.GeneratedAt.UTC().Format(time.RFC3339),
	}
	payload.User.Username = overview.UserInfo.Username
	payload.User.HierarchyLevel = overview.UserInfo.HierarchyLevel
	payload.User.Roles = overview.UserInfo.Roles
	payload.User.AccessScope = string(overview.UserInfo.AccessScope)
	for _, tier := range overview.UserInfo.AccessibleTiers {
		payload.User.AccessibleTiers = append(payload.User.AccessibleTiers, string(tier))
	}
	for tier, stats := range overview.Tiers {
		payload.Tiers[string(tier)] = &tierStatsPayload{
			Accessible:   stats.Accessible,
			Error:        stats.Error,
			Total:        stats.Total,
			MostRecentTs: stats.MostRecentTs,
			Documents:    stats.Documents,
		}
	}
	payload.RecentActivity.WindowDays = overview.RecentActivity.WindowDays
	payload.RecentActivity.Counts = map[string]int64{}
	for tier, count := range overview.RecentActivity.Counts {
		payload.RecentActivity.Counts[string(tier)] = count
	}
	payload.RecentActivity.MostActiveTier = string(overview.RecentActivity.MostActiveTier)

	return c.JSON(http.StatusOK, payload)
}

type migrateRequest struct {
	SourceTier string `json:"source_tier"`
	TargetTier string `json:"target_tier"`
	RecordID   string `json:"record_id"`
}

type migrateResponse struct {
	MigrationID string `json:"migration_id"`
	SourceTier  string `json:"source_tier"`
	TargetTier  string `json:"target_tier"`
	SourceID    string `json:"source_id"`
	TargetID    string `json:"target_id"`
	Message     string `json:"message"`
}

func (s *APIV1Service) migrateMemory(c echo.Context) error {
	request := &migrateRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	source, ok := store.ParseMemoryTier(request.SourceTier)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown source tier: "+request.SourceTier)
	}
	target, ok := store.ParseMemoryTier(request.TargetTier)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown target tier: "+request.TargetTier)
	}

	result, err := s.Memory.Migrate(c.Request().Context(), principalFrom(c), source, target, request.RecordID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, &migrateResponse{
		MigrationID: result.MigrationID,
		SourceTier:  string(result.SourceTier),
		TargetTier:  string(result.TargetTier),
		SourceID:    result.SourceID,
		TargetID:    result.TargetID,
		Message:     result.Message,
	})
}

// queryInt reads an integer query parameter, falling back on absent or
// malformed values.
func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
