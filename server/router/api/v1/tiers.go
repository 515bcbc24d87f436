package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/usestratum/stratum/server/memory"
	"github.com/usestratum/stratum/store"
)

type sessionPayload struct {
	ID             string           `json:"id"`
	OwnerID        string           `json:"owner_id"`
	Messages       []messagePayload `json:"messages"`
	ContextData    map[string]any   `json:"context_data,omitempty"`
	AgentName      string           `json:"agent_name"`
	ProjectID      *string          `json:"project_id,omitempty"`
	DepartmentID   *string          `json:"department_id,omitempty"`
	Classification string           `json:"classification"`
	CreatedTs      int64            `json:"created_ts"`
}

func toSessionPayload(session *store.Session) *sessionPayload {
	payload := &sessionPayload{
		ID:             session.ID,
		OwnerID:        session.OwnerID,
		Messages:       make([]messagePayload, 0, len(session.Messages)),
		ContextData:    session.ContextData,
		AgentName:      session.AgentName,
		ProjectID:      session.ProjectID,
		DepartmentID:   session.DepartmentID,
		Classification: string(session.Classification),
		CreatedTs:      session.CreatedTs,
	}
	for _, m := range session.Messages {
		payload.Messages = append(payload.Messages, messagePayload{Role: m.Role, Content: m.Content})
	}
	return payload
}

func (s *APIV1Service) listSessions(c echo.Context) error {
	sessions, err := s.Memory.ShortTerm.ListSessions(c.Request().Context(), principalFrom(c), queryInt(c, "limit", 0))
	if err != nil {
		return toHTTPError(err)
	}

	payload := make([]*sessionPayload, 0, len(sessions))
	for _, session := range sessions {
		payload = append(payload, toSessionPayload(session))
	}
	return c.JSON(http.StatusOK, payload)
}

func (s *APIV1Service) getSession(c echo.Context) error {
	session, err := s.Memory.ShortTerm.GetSession(c.Request().Context(), principalFrom(c), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toSessionPayload(session))
}

type summaryPayload struct {
	ID              string         `json:"id"`
	OwnerID         string         `json:"owner_id"`
	Text            string         `json:"text"`
	ConversationIDs []string       `json:"conversation_ids,omitempty"`
	Tags            []string       `json:"tags,omitempty"`
	Entities        map[string]any `json:"entities,omitempty"`
	ProjectID       *string        `json:"project_id,omitempty"`
	DepartmentID    *string        `json:"department_id,omitempty"`
	Classification  string         `json:"classification"`
	CreatedTs       int64          `json:"created_ts"`
}

func toSummaryPayload(summary *store.Summary) *summaryPayload {
	return &summaryPayload{
		ID:              summary.ID,
		OwnerID:         summary.OwnerID,
		Text:            summary.Text,
		ConversationIDs: summary.ConversationIDs,
		Tags:            summary.Tags,
		Entities:        summary.Entities,
		ProjectID:       summary.ProjectID,
		DepartmentID:    summary.DepartmentID,
		Classification:  string(summary.Classification),
		CreatedTs:       summary.CreatedTs,
	}
}

func (s *APIV1Service) listSummaries(c echo.Context) error {
	opts := &memory.SummaryFindOptions{
		ContentSearch: c.QueryParam("content"),
	}
	if tags := c.QueryParams()["tag"]; len(tags) > 0 {
		opts.TagsAny = tags
	}
	if from, ok := queryTime(c, "date_from"); ok {
		opts.DateFrom = &from
	}
	if to, ok := queryTime(c, "date_to"); ok {
		opts.DateTo = &to
	}

	summaries, err := s.Memory.MidTerm.ListSummaries(c.Request().Context(), principalFrom(c), opts, queryInt(c, "limit", 0))
	if err != nil {
		return toHTTPError(err)
	}

	payload := make([]*summaryPayload, 0, len(summaries))
	for _, summary := range summaries {
		payload = append(payload, toSummaryPayload(summary))
	}
	return c.JSON(http.StatusOK, payload)
}

func (s *APIV1Service) getSummary(c echo.Context) error {
	summary, err := s.Memory.MidTerm.GetSummary(c.Request().Context(), principalFrom(c), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toSummaryPayload(summary))
}

type documentPayload struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Content        string         `json:"content"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	MemoryType     string         `json:"memory_type"`
	SourceType     string         `json:"source_type"`
	SourceURL      string         `json:"source_url,omitempty"`
	Keywords       []string       `json:"keywords,omitempty"`
	WordCount      int            `json:"word_count"`
	Version        int            `json:"version"`
	OwnerID        string         `json:"owner_id"`
	LastModifiedBy *string        `json:"last_modified_by,omitempty"`
	ProjectID      *string        `json:"project_id,omitempty"`
	DepartmentID   *string        `json:"department_id,omitempty"`
	Classification string         `json:"classification"`
	RowStatus      string         `json:"row_status"`
	CreatedTs      int64          `json:"created_ts"`
	UpdatedTs      int64          `json:"updated_ts"`
}

func toDocumentPayload(document *store.Document) *documentPayload {
	return &documentPayload{
		ID:             document.ID,
		Title:          document.Title,
		Content:        document.Content,
		Metadata:       document.Metadata,
		MemoryType:     document.MemoryType,
		SourceType:     document.SourceType,
		SourceURL:      document.SourceURL,
		Keywords:       document.Keywords,
		WordCount:      document.WordCount,
		Version:        document.Version,
		OwnerID:        document.OwnerID,
		LastModifiedBy: document.LastModifiedBy,
		ProjectID:      document.ProjectID,
		DepartmentID:   document.DepartmentID,
		Classification: string(document.Classification),
		RowStatus:      string(document.RowStatus),
		CreatedTs:      document.CreatedTs,
		UpdatedTs:      document.UpdatedTs,
	}
}

func (s *APIV1Service) listDocuments(c echo.Context) error {
	opts := &memory.DocumentFindOptions{
		MemoryType:    c.QueryParam("memory_type"),
		ContentSearch: c.QueryParam("content"),
	}
	if keywords := c.QueryParams()["keyword"]; len(keywords) > 0 {
		opts.KeywordsAny = keywords
	}
	if raw := c.QueryParam("classification"); raw != "" {
		classification := store.Classification(raw)
		opts.Classification = &classification
	}
	if from, ok := queryTime(c, "date_from"); ok {
		opts.DateFrom = &from
	}
	if to, ok := queryTime(c, "date_to"); ok {
		opts.DateTo = &to
	}

	documents, err := s.Memory.LongTerm.ListDocuments(c.Request().Context(), principalFrom(c), opts, queryInt(c, "limit", 0))
	if err != nil {
		return toHTTPError(err)
	}

	payload := make([]*documentPayload, 0, len(documents))
	for _, document := range documents {
		payload = append(payload, toDocumentPayload(document))
	}
	return c.JSON(http.StatusOK, payload)
}

func (s *APIV1Service) getDocument(c echo.Context) error {
	document, err := s.Memory.LongTerm.GetDocument(c.Request().Context(), principalFrom(c), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toDocumentPayload(document))
}

type updateDocumentRequest struct {
	Title    *string        `json:"title,omitempty"`
	Content  *string        `json:"content,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (s *APIV1Service) updateDocument(c echo.Context) error {
	request := &updateDocumentRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	document, err := s.Memory.LongTerm.UpdateDocument(c.Request().Context(), principalFrom(c), c.Param("id"), &memory.DocumentUpdate{
		Title:    request.Title,
		Content:  request.Content,
		Metadata: request.Metadata,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toDocumentPayload(document))
}

func (s *APIV1Service) archiveDocument(c echo.Context) error {
	if err := s.Memory.LongTerm.ArchiveDocument(c.Request().Context(), principalFrom(c), c.Param("id")); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// queryTime reads an RFC 3339 or date-only query parameter.
func queryTime(c echo.Context, name string) (time.Time, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}
