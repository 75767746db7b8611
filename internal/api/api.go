package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dealerhub/dealerhub/internal/api/auth"
	"github.com/dealerhub/dealerhub/internal/api/handler"
	"github.com/dealerhub/dealerhub/internal/api/response"
	"github.com/dealerhub/dealerhub/internal/cache"
	"github.com/dealerhub/dealerhub/internal/catalog"
	"github.com/dealerhub/dealerhub/internal/config"
	"github.com/dealerhub/dealerhub/internal/database"
	"github.com/dealerhub/dealerhub/internal/gravatar"
	"github.com/dealerhub/dealerhub/internal/logging"
	"github.com/dealerhub/dealerhub/pkg/dealers"
	"github.com/dealerhub/dealerhub/pkg/sentiment"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const (
	sessionName     = "dealerhub_session"
	shutdownTimeout = 30 * time.Second
)

type Server struct {
	cfg       *config.Config
	ginEngine *gin.Engine
	db        database.DB
	auth      *auth.Handler
	handler   *handler.Handler

	// nil when sentiment caching is disabled
	sentimentCache *cache.SentimentCache
}

// New wires the HTTP server and its collaborators.
func New(cfg *config.Config, db database.DB) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	for _, warning := range gravatar.Sanitize(cfg.Gravatar) {
		log.Warn(warning)
	}

	classifier := cache.NewClassifier(cfg.Cache, sentiment.New(cfg.Sentiment))
	authSvc := auth.NewService(db, time.Duration(cfg.SessionMaxAge)*time.Second)

	s := &Server{
		cfg:       cfg,
		ginEngine: gin.New(),
		db:        db,
		auth:      auth.NewHandler(authSvc, cfg.Gravatar),
		handler:   handler.New(catalog.New(db), dealers.New(cfg.Dealers), classifier, cfg.Sentiment),
	}
	s.sentimentCache, _ = classifier.(*cache.SentimentCache)
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupMiddleware() {
	s.ginEngine.Use(logging.Middleware())
	s.ginEngine.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logging.FromContext(c).Error("Recovered from panic", "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": response.MsgInternal})
	}))
	s.ginEngine.Use(gzip.Gzip(gzip.DefaultCompression))
	s.setupSession()
}

func (s *Server) setupSession() {
	store := cookie.NewStore([]byte(s.cfg.SessionKey))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   s.cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies(),
		SameSite: http.SameSiteLaxMode,
	})
	s.ginEngine.Use(sessions.Sessions(sessionName, store))
}

func (s *Server) setupRoutes() {
	s.ginEngine.GET("/healthz", s.healthz)
	s.ginEngine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
	})

	app := s.ginEngine.Group("/djangoapp")

	// identity
	app.POST("/login", s.auth.Login)
	app.GET("/logout", s.auth.Logout)
	app.POST("/logout", s.auth.Logout)
	app.POST("/register", s.auth.Register)
	app.GET("/me", s.auth.RequireAuth(), s.auth.Me)

	// catalog
	app.GET("/get_cars", s.handler.GetCars)

	// dealers
	app.GET("/get_dealers", s.handler.GetDealers)
	app.GET("/get_dealers/:state", s.handler.GetDealers)
	app.GET("/dealer/", s.handler.GetDealerDetails)
	app.GET("/dealer/:dealerId", s.handler.GetDealerDetails)
	app.GET("/dealer/:dealerId/reviews", s.handler.GetDealerReviews)
	app.GET("/reviews/dealer/", s.handler.GetDealerReviews)
	app.GET("/reviews/dealer/:dealerId", s.handler.GetDealerReviews)

	// reviews
	switch s.cfg.Review.Mode {
	case config.ReviewModeAnalyze:
		app.POST("/add_review", s.handler.SubmitReview)
	default:
		app.POST("/add_review", s.auth.RequireAuth(), s.handler.AddReview)
	}
}

func (s *Server) healthz(c *gin.Context) {
	if err := s.db.Ping(c.Request.Context()); err != nil {
		logging.FromContext(c).Error("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Handler returns the root http handler.
func (s *Server) Handler() http.Handler {
	return s.ginEngine
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", "addr", s.cfg.Listen, "review_mode", s.cfg.Review.Mode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("Server stopped gracefully")
	s.logCacheStats()
	return nil
}

func (s *Server) logCacheStats() {
	if s.sentimentCache == nil {
		return
	}
	stats := s.sentimentCache.Stats()
	log.Info("Cache stats", "cache", stats.CacheName, "hits", stats.Hits, "misses", stats.Miss)
}
