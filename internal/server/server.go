package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Abhijeetjrock/db-analyzer1/internal/analyze"
	"github.com/Abhijeetjrock/db-analyzer1/internal/assist"
	"github.com/Abhijeetjrock/db-analyzer1/internal/config"
	"github.com/Abhijeetjrock/db-analyzer1/internal/database"
	"github.com/Abhijeetjrock/db-analyzer1/internal/ratelimit"
)

const serviceName = "crossdb-optimizer"

// Version is reported by /api/health and /api/info
var Version = "dev"

// Catalog is the optional database connection as the server sees it
type Catalog interface {
	HealthCheck(ctx context.Context) error
	DescribeTable(ctx context.Context, table string, withRowCount bool) (*database.TableInfo, error)
}

// Dependencies are the collaborators behind the API. Limiter and Catalog may be nil.
type Dependencies struct {
	Engine  *analyze.OptimizationEngine
	NL      *assist.NLGenerator
	Limiter *ratelimit.Limiter
	Catalog Catalog
	Export  config.ExportConfig
	Logger  *zap.Logger
}

type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	deps       Dependencies
	logger     *zap.Logger
}

// NewServer creates a new server instance
func NewServer(cfg config.ServerConfig, deps Dependencies) *Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	registerValidators()

	logger := deps.Logger.Named("http")
	router := gin.New()
	router.Use(requestID(), accessLog(logger), recovery(logger))

	server := &Server{
		router: router,
		deps:   deps,
		logger: logger,
	}
	server.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/health", s.healthCheck)
		api.GET("/info", s.info)
		api.GET("/rate-limit-status", s.rateLimitStatus)
		api.POST("/optimize-query", s.optimizeQuery)
		api.POST("/export-optimized-query", s.exportOptimizedQuery)
		api.POST("/nl-to-sql", s.nlToSQL)
		api.POST("/export-nl-to-sql", s.exportNLToSQL)
		api.POST("/analyze", s.analyzeTable)
	}
}

// Handler exposes the router for tests and embedding
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
