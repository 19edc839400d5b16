package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"sociallogin/internal/auth"
	"sociallogin/internal/config"
	"sociallogin/internal/database"
	"sociallogin/internal/handler"
	"sociallogin/internal/metrics"
	"sociallogin/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Server struct {
	*gin.Engine
	db      *database.DB
	limiter *middleware.RateLimiter
	metrics *metrics.Collector
	logger  *slog.Logger
}

// Providers builds the OAuth providers registered in cfg.
func Providers(cfg *config.Config) []auth.Authenticator {
	return []auth.Authenticator{
		auth.NewKakao(auth.ProviderConfig{
			ClientID:     cfg.KakaoClientID,
			ClientSecret: cfg.KakaoClientSecret,
			RedirectURL:  cfg.KakaoRedirectURI,
			Timeout:      cfg.ProviderTimeout,
		}),
		auth.NewGoogle(auth.ProviderConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURI,
			Timeout:      cfg.ProviderTimeout,
		}),
	}
}

// New wires stores, token issuer and handlers into a gin engine. When no
// providers are given they are built from cfg.
func New(cfg *config.Config, db *database.DB, logger *slog.Logger, providers ...auth.Authenticator) *Server {
	if len(providers) == 0 {
		providers = Providers(cfg)
	}

	r := gin.New()
	collector := metrics.NewCollector()
	limiter := middleware.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateBurst, logger)

	r.Use(
		middleware.Recovery(logger),
		middleware.RequestLogger(logger),
		collector.Middleware(),
		middleware.CORS(cfg.CORSAllowedOrigins),
	)

	issuer := auth.NewTokenIssuer(cfg.JWTSecretKey)
	h := handler.New(
		database.NewUserStore(db),
		database.NewPostStore(db),
		issuer,
		cfg,
		collector,
		logger,
		providers...,
	)

	s := &Server{Engine: r, db: db, limiter: limiter, metrics: collector, logger: logger}

	r.GET("/", h.Home)
	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(collector.Handler()))

	login := r.Group("/login")
	login.Use(limiter.Middleware())
	{
		login.GET("/:provider", h.SignInWithProvider)
		login.GET("/:provider/callback", h.CallbackHandler)
	}

	authorized := r.Group("/")
	authorized.Use(middleware.Auth(issuer))
	{
		authorized.GET("/profile", h.Profile)
		authorized.GET("/auth/me", h.Me)
		authorized.GET("/logout", h.Logout)

		authorized.GET("/posts", h.ListPosts)
		authorized.POST("/posts", h.CreatePost)
		authorized.GET("/posts/:id", h.GetPost)
		authorized.PUT("/posts/:id", h.UpdatePost)
		authorized.DELETE("/posts/:id", h.DeletePost)
	}

	return s
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.Healthy(ctx); err != nil {
		s.logger.Error("health check failed", slog.Any("error", err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.sweepLimiter(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) sweepLimiter(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.limiter.Sweep()
		}
	}
}
