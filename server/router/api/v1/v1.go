// Package v1 exposes the tiered memory system over a JSON HTTP API.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/usestratum/stratum/internal/profile"
	"github.com/usestratum/stratum/server/memory"
	"github.com/usestratum/stratum/server/middleware"
	"github.com/usestratum/stratum/store"
)

// Per-principal request budget. Bursty agent traffic is normal; sustained
// flooding is not.
const (
	rateLimitPerSecond = 10
	rateLimitBurst     = 20
)

type APIV1Service struct {
	Secret  string
	Profile *profile.Profile
	Store   *store.Store
	Memory  *memory.Service

	rateLimiter *middleware.RateLimiter
}

func NewAPIV1Service(secret string, profile *profile.Profile, store *store.Store, memoryService *memory.Service) *APIV1Service {
	return &APIV1Service{
		Secret:      secret,
		Profile:     profile,
		Store:       store,
		Memory:      memoryService,
		rateLimiter: middleware.NewRateLimiter(rateLimitPerSecond, rateLimitBurst),
	}
}

// Register mounts all /api/v1 routes on the given Echo instance.
func (s *APIV1Service) Register(echoServer *echo.Echo) {
	group := echoServer.Group("/api/v1")
	group.Use(echomw.CORS())
	group.Use(s.authMiddleware)
	group.Use(s.rateLimiter.Middleware(func(c echo.Context) string {
		if principal := principalFrom(c); principal != nil {
			return principal.ID
		}
		return ""
	}))

	group.POST("/memory", s.storeMemory)
	group.GET("/memory/search", s.searchMemory)
	group.GET("/memory/overview", s.memoryOverview)
	group.POST("/memory/migrate", s.migrateMemory)

	group.GET("/memory/sessions", s.listSessions)
	group.GET("/memory/sessions/:id", s.getSession)

	group.GET("/memory/summaries", s.listSummaries)
	group.GET("/memory/summaries/:id", s.getSummary)

	group.GET("/memory/documents", s.listDocuments)
	group.GET("/memory/documents/:id", s.getDocument)
	group.PATCH("/memory/documents/:id", s.updateDocument)
	group.DELETE("/memory/documents/:id", s.archiveDocument)
}

// toHTTPError maps service errors onto HTTP statuses. Authorization denials
// and missing records are expected outcomes, not server faults.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, memory.ErrAccessDenied):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, memory.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, memory.ErrInvalidArgument):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
