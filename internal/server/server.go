package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ppiankov/verity/internal/engine"
	"github.com/ppiankov/verity/internal/store"
)

const (
	// maxBatchItems bounds POST /detect/batch
	maxBatchItems = 50

	// maxBodyBytes bounds request bodies; base64 images dominate
	maxBodyBytes = 16 << 20

	shutdownTimeout = 10 * time.Second
)

// Server exposes the engine and result store over a JSON API
type Server struct {
	engine *engine.Engine
	store  *store.Store
	logger *slog.Logger
	router *gin.Engine
}

// New builds the router. A nil logger uses slog.Default().
func New(eng *engine.Engine, st *store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		engine: eng,
		store:  st,
		logger: logger,
		router: gin.New(),
	}

	s.router.Use(gin.Recovery(), s.requestLogger())
	if origins := eng.Config().Server.CORSOrigins; len(origins) > 0 {
		s.router.Use(cors.New(corsConfig(origins)))
	}
	s.router.Use(limitBody(maxBodyBytes))
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/stats", s.handleStats)

	detect := s.router.Group("/detect")
	{
		detect.POST("", s.handleDetect)
		detect.POST("/batch", s.handleDetectBatch)
		detect.POST("/tweets", s.handleDetectTweets)
		detect.GET("/lookup/:hash", s.handleLookup)
	}

	factcheck := s.router.Group("/factcheck")
	{
		factcheck.POST("", s.handleFactCheck)
		factcheck.POST("/claim", s.handleFactCheckClaim)
	}
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", "addr", addr, "verifier", s.engine.VerifierName())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// corsConfig allows the configured origins; "*" allows any
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}

// abort writes a FastAPI-style {"detail": ...} error body
func abort(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}
