// Package web serves backtests and rankings over a JSON HTTP API.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"setuplab/internal/backtest"
	"setuplab/internal/config"
	"setuplab/internal/store"
)

// Store is the part of the bar cache the API reads and writes
type Store interface {
	backtest.BarSource
	Summary(ctx context.Context) ([]store.ListSummary, error)
	Tickers(ctx context.Context, list string) ([]string, error)
	SaveRanking(ctx context.Context, list, setup string, entries []store.RankingEntry) (string, error)
	LatestRanking(ctx context.Context, list, setup string) (*store.RankingRun, error)
}

// Server represents the web server
type Server struct {
	config   *config.Config
	store    Store
	logger   *zap.Logger
	rankings *backtest.ResultCache[[]backtest.Ranking]
	sweeps   *backtest.ResultCache[[]*backtest.RunResult]
	router   *gin.Engine
	srv      *http.Server
}

// NewServer creates a new web server
func NewServer(cfg *config.Config, st Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		config:   cfg,
		store:    st,
		logger:   logger.Named("web"),
		rankings: backtest.NewResultCache[[]backtest.Ranking](cfg.Web.CacheTTL),
		sweeps:   backtest.NewResultCache[[]*backtest.RunResult](cfg.Web.CacheTTL),
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), corsMiddleware())
	s.setupRoutes(r)
	s.router = r
	return s
}

func (s *Server) setupRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/setups", s.handleSetups)
		api.GET("/lists", s.handleLists)
		api.GET("/lists/:list/tickers", s.handleTickers)
		api.POST("/backtest", s.handleBacktest)
		api.POST("/ranking", s.handleRanking)
		api.GET("/ranking/:list/:setup", s.handleLatestRanking)
	}
}

// Handler returns the HTTP handler serving the API
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // rankings over a whole list are slow
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("starting API", zap.String("addr", addr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

// corsMiddleware adds CORS headers for local development
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
