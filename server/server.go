// Package server assembles the HTTP server: policy engine, embedder, memory
// service and API routes.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/usestratum/stratum/internal/profile"
	"github.com/usestratum/stratum/plugin/embedding"
	"github.com/usestratum/stratum/server/authz"
	"github.com/usestratum/stratum/server/memory"
	apiv1 "github.com/usestratum/stratum/server/router/api/v1"
	embeddingrunner "github.com/usestratum/stratum/server/runner/embedding"
	"github.com/usestratum/stratum/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer      *echo.Echo
	embeddingRunner *embeddingrunner.Runner
}

func NewServer(ctx context.Context, profile *profile.Profile, recordStore *store.Store) (*Server, error) {
	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())
	echoServer.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogMethod: true,
		LogStatus: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			slog.LogAttrs(c.Request().Context(), level, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
			)
			return nil
		},
	}))

	engine, err := authz.NewEngine(nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create policy engine")
	}

	embedder, err := newEmbedder(profile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create embedder")
	}
	slog.InfoContext(ctx, "embedder ready", "model", embedder.Model(), "dimensions", embedder.Dimensions())

	memoryService := memory.NewService(recordStore, engine, embedder, 0)

	apiV1Service := apiv1.NewAPIV1Service(profile.JWTSecret, profile, recordStore, memoryService)
	apiV1Service.Register(echoServer)

	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})

	return &Server{
		Profile:         profile,
		Store:           recordStore,
		echoServer:      echoServer,
		embeddingRunner: embeddingrunner.NewRunner(recordStore, embedder),
	}, nil
}

// newEmbedder selects the embedding backend from the profile. The hash
// embedder is the dependency-free default for dev and testing.
func newEmbedder(profile *profile.Profile) (embedding.Embedder, error) {
	switch profile.EmbeddingProvider {
	case "", "hash":
		return embedding.NewHashEmbedder(profile.EmbeddingDimensions), nil
	case "openai":
		return embedding.NewOpenAIEmbedder(profile.OpenAIAPIKey, profile.OpenAIBaseURL, profile.EmbeddingModel, profile.EmbeddingDimensions)
	default:
		return nil, errors.Errorf("unknown embedding provider: %s", profile.EmbeddingProvider)
	}
}

func (s *Server) Start(ctx context.Context) error {
	go s.embeddingRunner.Run(ctx)

	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.InfoContext(ctx, "server listening", "address", address, "mode", s.Profile.Mode)
	if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to shutdown server", "error", err)
	}

	if err := s.Store.Close(); err != nil {
		slog.ErrorContext(ctx, "failed to close store", "error", err)
	}

	slog.InfoContext(ctx, "stratum stopped properly")
}
