// Package rest exposes the session flows over HTTP using gin.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/marketauth/internal/logging"
	"github.com/dmitrijs2005/marketauth/internal/server/models"
	"github.com/dmitrijs2005/marketauth/internal/server/services"
	"github.com/gin-gonic/gin"
)

// AuthService is the subset of services.UserService the HTTP layer needs.
type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, userName, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.AccessGrant, error)
	Logout(ctx context.Context, refreshToken string) error
	WhoAmI(ctx context.Context, accessToken string) (*models.User, error)
}

// RequestObserver records per-request metrics.
type RequestObserver interface {
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
}

const shutdownTimeout = 5 * time.Second

type Server struct {
	address    string
	logger     logging.Logger
	users      AuthService
	observer   RequestObserver
	metrics    http.Handler
	ready      func(ctx context.Context) error
	router     *gin.Engine
	httpServer *http.Server
}

type Option func(*Server)

// WithRequestObserver records each request on o.
func WithRequestObserver(o RequestObserver) Option {
	return func(s *Server) { s.observer = o }
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithReadiness makes /readyz answer 503 while check fails.
func WithReadiness(check func(ctx context.Context) error) Option {
	return func(s *Server) { s.ready = check }
}

func NewServer(address string, l logging.Logger, users AuthService, opts ...Option) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		address: address,
		logger:  l.With("module", "rest"),
		users:   users,
		ready:   func(context.Context) error { return nil },
	}
	for _, o := range opts {
		o(s)
	}

	s.router = gin.New()
	s.router.Use(gin.Recovery(), s.requestLogger())
	if s.observer != nil {
		s.router.Use(s.requestMetrics())
	}
	s.setUpRoutes()

	return s
}

func (s *Server) setUpRoutes() {
	s.router.GET("/healthz", s.healthz)
	s.router.GET("/readyz", s.readyz)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics))
	}

	g := s.router.Group("/auth")
	g.POST("/register", s.register)
	g.POST("/login", s.login)
	g.POST("/logout", s.logout)
	g.POST("/refresh", s.refresh)
	g.GET("/me", bearerAuth(), s.me)
}

// Handler returns the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.address,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
