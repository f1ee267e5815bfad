package httpapi

import (
	"time"

	"github.com/avetrovs/folioauth/internal/server/services"
)

type registerRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	BaseCurrency string `json:"baseCurrency"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// userResponse is the principal projection returned with token pairs and by
// the me endpoint. The timestamps are unset on the me endpoint, which
// answers from token claims alone.
type userResponse struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	BaseCurrency string     `json:"baseCurrency"`
	CreatedAt    time.Time  `json:"createdAt,omitzero"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}

type authResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresAt    time.Time    `json:"expiresAt"`
	User         userResponse `json:"user"`
}

type sessionResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Expired   bool      `json:"expired"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func newAuthResponse(r *services.AuthResult) authResponse {
	return authResponse{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    r.AccessExpiresAt,
		User: userResponse{
			ID:           r.User.ID,
			Username:     r.User.Username,
			Email:        r.User.Email,
			FirstName:    r.User.FirstName,
			LastName:     r.User.LastName,
			BaseCurrency: r.User.BaseCurrency,
			CreatedAt:    r.User.CreatedAt,
			LastLoginAt:  r.User.LastLoginAt,
		},
	}
}

func newSessionResponses(sessions []services.SessionInfo) []sessionResponse {
	out := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionResponse{
			ID:        s.ID,
			CreatedAt: s.CreatedAt,
			ExpiresAt: s.ExpiresAt,
			Expired:   s.Expired,
		})
	}
	return out
}
