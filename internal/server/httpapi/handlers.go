package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avetrovs/folioauth/internal/common"
	"github.com/avetrovs/folioauth/internal/server/services"
)

func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "malformed request body"})
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "username, email and password are required"})
	}

	result, err := s.sessions.Register(c.Request().Context(), services.RegisterRequest{
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		BaseCurrency: req.BaseCurrency,
	})
	if err != nil {
		return s.domainError(c, err)
	}
	return c.JSON(http.StatusCreated, newAuthResponse(result))
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "malformed request body"})
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "email and password are required"})
	}

	result, err := s.sessions.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return s.domainError(c, err)
	}
	return c.JSON(http.StatusOK, newAuthResponse(result))
}

func (s *Server) handleRefresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "malformed request body"})
	}
	if req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "refreshToken is required"})
	}

	result, err := s.sessions.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return s.domainError(c, err)
	}
	return c.JSON(http.StatusOK, newAuthResponse(result))
}

func (s *Server) handleRevoke(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "malformed request body"})
	}
	if req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "refreshToken is required"})
	}

	existed, err := s.sessions.Revoke(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return s.domainError(c, err)
	}
	if !existed {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "token not found"})
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "token revoked"})
}

func (s *Server) handleRevokeAll(c echo.Context) error {
	claims, ok := callerClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorResponse{Message: "unauthorized"})
	}

	ok, err := s.sessions.RevokeAll(c.Request().Context(), claims.UserID)
	if err != nil {
		return s.domainError(c, err)
	}
	if !ok {
		return c.JSON(http.StatusInternalServerError, errorResponse{Message: "internal error"})
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "all tokens revoked"})
}

// handleMe answers from the verified claims alone, no storage round-trip.
func (s *Server) handleMe(c echo.Context) error {
	claims, ok := callerClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorResponse{Message: "unauthorized"})
	}

	return c.JSON(http.StatusOK, userResponse{
		ID:           claims.UserID,
		Username:     claims.Username,
		Email:        claims.Email,
		FirstName:    claims.FirstName,
		LastName:     claims.LastName,
		BaseCurrency: claims.BaseCurrency,
	})
}

func (s *Server) handleSessions(c echo.Context) error {
	claims, ok := callerClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorResponse{Message: "unauthorized"})
	}

	sessions, err := s.sessions.ActiveSessions(c.Request().Context(), claims.UserID)
	if err != nil {
		return s.domainError(c, err)
	}
	return c.JSON(http.StatusOK, newSessionResponses(sessions))
}

// domainError maps the closed error set onto HTTP statuses. Anything
// outside the set is a bug or an outage and becomes a logged 500.
func (s *Server) domainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, errorResponse{Message: "invalid email or password"})
	case errors.Is(err, common.ErrInvalidOrExpiredToken):
		return c.JSON(http.StatusUnauthorized, errorResponse{Message: "invalid or expired refresh token"})
	case errors.Is(err, common.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, errorResponse{Message: "unauthorized"})
	case errors.Is(err, common.ErrAlreadyExists):
		return c.JSON(http.StatusConflict, errorResponse{Message: "user with this email or username already exists"})
	case errors.Is(err, common.ErrStorageUnavailable):
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Message: "service temporarily unavailable"})
	default:
		s.logger.Error(c.Request().Context(), "unexpected handler error", "err", err.Error())
		return c.JSON(http.StatusInternalServerError, errorResponse{Message: "internal error"})
	}
}
