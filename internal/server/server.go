// Package server implements the development QuickWish API: the same
// routes and status-transition rules as the production backend, with
// all state held in memory.
package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quickwish/quickwish/internal/config"
)

// Server represents the HTTP server
type Server struct {
	config *config.Config
	logger *slog.Logger
	router *gin.Engine
	store  *Store
	auth   *Authenticator
}

// New creates a new Server instance
func New(cfg *config.Config, logger *slog.Logger) *Server {
	// Set Gin mode based on environment
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	server := &Server{
		config: cfg,
		logger: logger,
		router: router,
		store:  NewStore(),
		auth:   NewAuthenticator(cfg.JWTSecret),
	}

	// Setup middleware and routes
	setupSecurityMiddleware(router, cfg, logger)
	server.setupRoutes()

	return server
}

// Run starts the HTTP server
func Run(s *Server) error {
	s.logger.Info("Server listening", "port", s.config.Port)

	return s.router.Run(":" + s.config.Port)
}

// Router exposes the gin engine, used by tests to serve requests
// directly.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.handleHealth)

	// Session bootstrap is the only unauthenticated API route.
	s.router.POST("/api/auth/session", s.handleCreateSession)

	api := s.router.Group("/api")
	api.Use(s.requireAuth())
	{
		api.POST("/wishes", s.handleCreateWish)
		api.GET("/wishes", s.handleListWishes)
		api.GET("/wishes/:id", s.handleGetWish)
		api.PUT("/wishes/:id", s.handleUpdateWish)
		api.DELETE("/wishes/:id", s.handleDeleteWish)
		api.PUT("/wishes/:id/cancel", s.handleCancelWish)
		api.PUT("/wishes/:id/complete", s.handleCompleteWish)

		api.PUT("/users/phone", s.handleUpdatePhone)
		api.POST("/users/addresses", s.handleAddAddress)
		api.DELETE("/users/addresses/:id", s.handleDeleteAddress)
	}
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "quickwish",
	})
}
