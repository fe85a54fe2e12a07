package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"example.com/hotswap/services/recovery/cache"
	"example.com/hotswap/services/recovery/config"
	"example.com/hotswap/services/recovery/domain"
	"example.com/hotswap/services/recovery/handlers"
)

// Server is the HTTP server for the API
type Server struct {
	cfg           config.Config
	router        *gin.Engine
	httpServer    *http.Server
	db            *gorm.DB
	swapHandler   *handlers.SwapHandler
	faultHandler  *handlers.FaultHandler
	reconstructor *domain.Reconstructor
	cache         cache.CacheClient
}

// NewServer creates a new API server
func NewServer(
	cfg config.Config,
	db *gorm.DB,
	swapHandler *handlers.SwapHandler,
	faultHandler *handlers.FaultHandler,
	store domain.EventReader,
	cacheClient cache.CacheClient,
) *Server {
	server := &Server{
		cfg:           cfg,
		router:        gin.Default(),
		db:            db,
		swapHandler:   swapHandler,
		faultHandler:  faultHandler,
		reconstructor: domain.NewReconstructor(store),
		cache:         cacheClient,
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup routes
	server.setupRoutes()

	return server
}

// setupMiddleware adds middleware to the router
func (s *Server) setupMiddleware() {
	// Add request ID middleware
	s.router.Use(RequestIDMiddleware())

	// Add CORS middleware
	s.router.Use(CORSMiddleware())

	// Add recovery middleware
	s.router.Use(gin.Recovery())

	// Add logging middleware
	s.router.Use(LoggingMiddleware())
}

// setupRoutes defines the API routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	// API v1 group
	v1 := s.router.Group("/api/v1")

	// Swap lifecycle routes
	swapRoutes := v1.Group("/swap")
	{
		swapRoutes.POST("/events", s.receiveSwapEvents)
	}

	// Class aggregate routes
	classRoutes := v1.Group("/class")
	{
		classRoutes.GET("/:id", s.getClassAggregate)
	}

	// Fault routes
	faultRoutes := v1.Group("/faults")
	{
		faultRoutes.POST("", s.reportFault)
	}

	// Report routes
	reportRoutes := v1.Group("/reports")
	{
		reportRoutes.GET("/:snapshot_id", s.getFaultReport)
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.cfg.HTTPServerAddress,
		Handler: s.router,
	}

	log.Info().Msgf("HTTP server starting on %s", s.cfg.HTTPServerAddress)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
