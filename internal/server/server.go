// Package server provides the HTTP server setup and routing configuration.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cablecast/cablecast/internal/api"
	"github.com/cablecast/cablecast/internal/channel"
	"github.com/cablecast/cablecast/internal/config"
	"github.com/cablecast/cablecast/internal/db"
	"github.com/cablecast/cablecast/internal/library"
	"github.com/cablecast/cablecast/internal/logger"
	"github.com/cablecast/cablecast/internal/middleware"
	"github.com/cablecast/cablecast/internal/schedule"
	"github.com/cablecast/cablecast/internal/timeline"
)

// Server represents the HTTP server and the scheduling engine it hosts
type Server struct {
	config         *config.Config
	db             *db.DB
	repos          *db.Repositories
	store          *timeline.Store
	channelService *channel.Service
	maintainer     *schedule.Maintainer
	router         *gin.Engine
	server         *http.Server
}

// New creates a new server instance with the full engine wired up
func New(cfg *config.Config, database *db.DB) (*Server, error) {
	repos := db.NewRepositories(database)
	store := timeline.NewStore()

	provider := library.NewDBProvider(repos.Items)
	rng := schedule.SystemRand()
	selector := schedule.NewSelector(rng)
	commercials := library.NewSource(provider, cfg.Scheduling.CommercialLibraryID, rng)
	preRolls := library.NewSource(provider, cfg.Scheduling.PreRollLibraryID, rng)
	builder := schedule.NewBuilder(provider, selector, commercials, preRolls, cfg.Scheduling)

	channelService := channel.NewService(repos, store, builder)

	maintainer, err := schedule.NewMaintainer(channelService, store, builder, channelService, cfg.Scheduling)
	if err != nil {
		return nil, fmt.Errorf("failed to create maintainer: %w", err)
	}

	return &Server{
		config:         cfg,
		db:             database,
		repos:          repos,
		store:          store,
		channelService: channelService,
		maintainer:     maintainer,
	}, nil
}

// setupRouter initializes the Gin router with middleware and routes
func (s *Server) setupRouter() {
	if s.config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()

	s.router.Use(middleware.RequestLogger())
	s.router.Use(gin.Recovery())
	s.router.Use(cors.Default())

	apiGroup := s.router.Group("/api")
	api.SetupHealthRoutes(apiGroup, s.db)
	api.SetupChannelRoutes(apiGroup, s.channelService)
	api.SetupLibraryRoutes(apiGroup, s.repos)

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Start loads persisted channels, starts the maintenance loop, and
// begins serving HTTP
func (s *Server) Start(ctx context.Context) error {
	if err := s.channelService.LoadAll(ctx); err != nil {
		// Degraded start: scheduling works on whatever channels are
		// created through the API while the database recovers.
		logger.Log.Error().
			Err(err).
			Msg("Failed to load persisted channels, starting with empty registry")
	}

	if err := s.maintainer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start maintenance loop: %w", err)
	}

	s.setupRouter()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.server = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	logger.Log.Info().
		Str("host", s.config.Server.Host).
		Int("port", s.config.Server.Port).
		Msg("Starting HTTP server")

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server and the maintenance loop
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Log.Info().Msg("Shutting down server gracefully")

	if s.maintainer != nil {
		s.maintainer.Stop()
	}

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	logger.Log.Info().Msg("Server stopped")
	return nil
}
