// Package httpapi exposes the session manager over HTTP. It is a thin
// boundary: request decoding, bearer-claims extraction, and mapping the
// closed set of domain errors onto status codes.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/avetrovs/folioauth/internal/logging"
	"github.com/avetrovs/folioauth/internal/server/auth"
	"github.com/avetrovs/folioauth/internal/server/services"
)

// SessionManager is the slice of the session service the handlers use.
type SessionManager interface {
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	Register(ctx context.Context, req services.RegisterRequest) (*services.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*services.AuthResult, error)
	Revoke(ctx context.Context, refreshToken string) (bool, error)
	RevokeAll(ctx context.Context, userID int64) (bool, error)
	ActiveSessions(ctx context.Context, userID int64) ([]services.SessionInfo, error)
}

// TokenVerifier validates access tokens presented by callers.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Server hosts the auth HTTP API.
type Server struct {
	echo     *echo.Echo
	addr     string
	sessions SessionManager
	verifier TokenVerifier
	logger   logging.Logger
}

func NewServer(addr string, sessions SessionManager, verifier TokenVerifier, logger logging.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:     e,
		addr:     addr,
		sessions: sessions,
		verifier: verifier,
		logger:   logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.echo.Group("/api/auth")

	api.POST("/register", s.handleRegister)
	api.POST("/login", s.handleLogin)
	api.POST("/refresh", s.handleRefresh)

	authed := api.Group("", s.requireAuth)
	authed.POST("/revoke", s.handleRevoke)
	authed.POST("/revoke-all", s.handleRevokeAll)
	authed.GET("/me", s.handleMe)
	authed.GET("/sessions", s.handleSessions)
}

// Run starts the server and shuts it down gracefully when ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(s.addr)
	}()

	s.logger.Info(ctx, "http server listening", "addr", s.addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
