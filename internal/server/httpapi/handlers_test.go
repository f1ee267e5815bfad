package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avetrovs/folioauth/internal/common"
	"github.com/avetrovs/folioauth/internal/logging"
	"github.com/avetrovs/folioauth/internal/server/auth"
	"github.com/avetrovs/folioauth/internal/server/services"
)

type fakeSessions struct {
	loginFn     func(ctx context.Context, email, password string) (*services.AuthResult, error)
	registerFn  func(ctx context.Context, req services.RegisterRequest) (*services.AuthResult, error)
	refreshFn   func(ctx context.Context, refreshToken string) (*services.AuthResult, error)
	revokeFn    func(ctx context.Context, refreshToken string) (bool, error)
	revokeAllFn func(ctx context.Context, userID int64) (bool, error)
	sessionsFn  func(ctx context.Context, userID int64) ([]services.SessionInfo, error)
}

func (f *fakeSessions) Login(ctx context.Context, email, password string) (*services.AuthResult, error) {
	return f.loginFn(ctx, email, password)
}

func (f *fakeSessions) Register(ctx context.Context, req services.RegisterRequest) (*services.AuthResult, error) {
	return f.registerFn(ctx, req)
}

func (f *fakeSessions) Refresh(ctx context.Context, refreshToken string) (*services.AuthResult, error) {
	return f.refreshFn(ctx, refreshToken)
}

func (f *fakeSessions) Revoke(ctx context.Context, refreshToken string) (bool, error) {
	return f.revokeFn(ctx, refreshToken)
}

func (f *fakeSessions) RevokeAll(ctx context.Context, userID int64) (bool, error) {
	return f.revokeAllFn(ctx, userID)
}

func (f *fakeSessions) ActiveSessions(ctx context.Context, userID int64) ([]services.SessionInfo, error) {
	return f.sessionsFn(ctx, userID)
}

type stubVerifier struct {
	claims *auth.Claims
	err    error
}

func (v *stubVerifier) Verify(string) (*auth.Claims, error) {
	return v.claims, v.err
}

func newTestServer(sessions SessionManager, verifier TokenVerifier) *Server {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewServer(":0", sessions, verifier, logger)
}

func doJSON(s *Server, method, path, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func sampleAuthResult() *services.AuthResult {
	lastLogin := time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)
	return &services.AuthResult{
		TokenPair: services.TokenPair{
			AccessToken:     "access-token",
			RefreshToken:    "refresh-token",
			AccessExpiresAt: time.Now().Add(time.Hour),
		},
		User: services.UserSummary{
			ID:           7,
			Username:     "jdoe",
			Email:        "jdoe@example.com",
			FirstName:    "John",
			LastName:     "Doe",
			BaseCurrency: "USD",
			CreatedAt:    time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
			LastLoginAt:  &lastLogin,
		},
	}
}

func TestHandleLogin_OK(t *testing.T) {
	sessions := &fakeSessions{
		loginFn: func(ctx context.Context, email, password string) (*services.AuthResult, error) {
			assert.Equal(t, "jdoe@example.com", email)
			assert.Equal(t, "secret", password)
			return sampleAuthResult(), nil
		},
	}
	s := newTestServer(sessions, &stubVerifier{})

	rec := doJSON(s, http.MethodPost, "/api/auth/login",
		`{"email":"jdoe@example.com","password":"secret"}`, "")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp authResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "access-token", resp.AccessToken)
	assert.Equal(t, "refresh-token", resp.RefreshToken)
	assert.Equal(t, int64(7), resp.User.ID)
	assert.Equal(t, "jdoe", resp.User.Username)
	assert.True(t, resp.User.CreatedAt.Equal(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)))
	require.NotNil(t, resp.User.LastLoginAt)
	assert.True(t, resp.User.LastLoginAt.Equal(time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)))
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	sessions := &fakeSessions{
		loginFn: func(context.Context, string, string) (*services.AuthResult, error) {
			return nil, common.ErrInvalidCredentials
		},
	}
	s := newTestServer(sessions, &stubVerifier{})

	rec := doJSON(s, http.MethodPost, "/api/auth/login",
		`{"email":"jdoe@example.com","password":"wrong"}`, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid email or password")
}

func TestHandleLogin_MissingFields(t *testing.T) {
	s := newTestServer(&fakeSessions{}, &stubVerifier{})

	rec := doJSON(s, http.MethodPost, "/api/auth/login", `{"email":"jdoe@example.com"}`, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRegister_Created(t *testing.T) {
	sessions := &fakeSessions{
		registerFn: func(ctx context.Context, req services.RegisterRequest) (*services.AuthResult, error) {
			assert.Equal(t, "jdoe", req.Username)
			assert.Equal(t, "EUR", req.BaseCurrency)
			return sampleAuthResult(), nil
		},
	}
	s := newTestServer(sessions, &stubVerifier{})

	rec := doJSON(s, http.MethodPost, "/api/auth/register",
		`{"username":"jdoe","email":"jdoe@example.com","password":"secret","baseCurrency":"EUR"}`, "")

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestHandleRegister_Conflict(t *testing.T) {
	sessions := &fakeSessions{
		registerFn: func(context.Context, services.RegisterRequest) (*services.AuthResult, error) {
			return nil, common.ErrAlreadyExists
		},
	}
	s := newTestServer(sessions, &stubVerifier{})

	rec := doJSON(s, http.MethodPost, "/api/auth/register",
		`{"username":"jdoe","email":"jdoe@example.com","password":"secret"}`, "")

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleRefresh_InvalidToken(t *testing.T) {
	sessions := &fakeSessions{
		refreshFn: func(context.Context, string) (*services.AuthResult, error) {
			return nil, common.ErrInvalidOrExpiredToken
		},
	}
	s := newTestServer(sessions, &stubVerifier{})

	rec := doJSON(s, http.MethodPost, "/api/auth/refresh", `{"refreshToken":"stale"}`, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired refresh token")
}

func TestHandleRefresh_StorageUnavailable(t *testing.T) {
	sessions := &fakeSessions{
		refreshFn: func(context.Context, string) (*services.AuthResult, error) {
			return nil, common.ErrStorageUnavailable
		},
	}
	s := newTestServer(sessions, &stubVerifier{})

	rec := doJSON(s, http.MethodPost, "/api/auth/refresh", `{"refreshToken":"x"}`, "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleRefresh_Rotates(t *testing.T) {
	sessions := &fakeSessions{
		refreshFn: func(ctx context.Context, token string) (*services.AuthResult, error) {
			assert.Equal(t, "old-refresh", token)
			return sampleAuthResult(), nil
		},
	}
	s := newTestServer(sessions, &stubVerifier{})

	rec := doJSON(s, http.MethodPost, "/api/auth/refresh", `{"refreshToken":"old-refresh"}`, "")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp authResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "refresh-token", resp.RefreshToken)
}

func TestRequireAuth_NoHeader(t *testing.T) {
	s := newTestServer(&fakeSessions{}, &stubVerifier{})

	rec := doJSON(s, http.MethodGet, "/api/auth/me", "", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_BadToken(t *testing.T) {
	s := newTestServer(&fakeSessions{}, &stubVerifier{err: errors.New("bad signature")})

	rec := doJSON(s, http.MethodGet, "/api/auth/me", "", "not-a-real-token")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleMe(t *testing.T) {
	verifier := &stubVerifier{claims: &auth.Claims{
		UserID:       7,
		Username:     "jdoe",
		Email:        "jdoe@example.com",
		FirstName:    "John",
		LastName:     "Doe",
		BaseCurrency: "USD",
	}}
	s := newTestServer(&fakeSessions{}, verifier)

	rec := doJSON(s, http.MethodGet, "/api/auth/me", "", "token")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(7), resp.ID)
	assert.Equal(t, "jdoe@example.com", resp.Email)
}

func TestHandleRevoke(t *testing.T) {
	tests := []struct {
		name     string
		existed  bool
		wantCode int
	}{
		{name: "existing token", existed: true, wantCode: http.StatusOK},
		{name: "unknown token", existed: false, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := &fakeSessions{
				revokeFn: func(context.Context, string) (bool, error) {
					return tt.existed, nil
				},
			}
			s := newTestServer(sessions, &stubVerifier{claims: &auth.Claims{UserID: 7}})

			rec := doJSON(s, http.MethodPost, "/api/auth/revoke", `{"refreshToken":"x"}`, "token")

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestHandleRevokeAll(t *testing.T) {
	var gotUserID int64
	sessions := &fakeSessions{
		revokeAllFn: func(ctx context.Context, userID int64) (bool, error) {
			gotUserID = userID
			return true, nil
		},
	}
	s := newTestServer(sessions, &stubVerifier{claims: &auth.Claims{UserID: 42}})

	rec := doJSON(s, http.MethodPost, "/api/auth/revoke-all", "", "token")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), gotUserID)
}

func TestHandleRevokeAll_FailureFlag(t *testing.T) {
	sessions := &fakeSessions{
		revokeAllFn: func(context.Context, int64) (bool, error) {
			return false, nil
		},
	}
	s := newTestServer(sessions, &stubVerifier{claims: &auth.Claims{UserID: 42}})

	rec := doJSON(s, http.MethodPost, "/api/auth/revoke-all", "", "token")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleSessions(t *testing.T) {
	now := time.Now()
	sessions := &fakeSessions{
		sessionsFn: func(context.Context, int64) ([]services.SessionInfo, error) {
			return []services.SessionInfo{
				{ID: "a", CreatedAt: now.Add(-time.Hour), ExpiresAt: now.Add(time.Hour)},
				{ID: "b", CreatedAt: now.Add(-48 * time.Hour), ExpiresAt: now.Add(-time.Hour), Expired: true},
			}, nil
		},
	}
	s := newTestServer(sessions, &stubVerifier{claims: &auth.Claims{UserID: 7}})

	rec := doJSON(s, http.MethodGet, "/api/auth/sessions", "", "token")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp []sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.False(t, resp[0].Expired)
	assert.True(t, resp[1].Expired)
}
