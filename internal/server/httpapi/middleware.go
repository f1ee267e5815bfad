package httpapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/avetrovs/folioauth/internal/server/auth"
)

const claimsContextKey = "authClaims"

// requireAuth extracts and verifies the bearer token, storing the verified
// claims in the request context. Every verification failure produces the
// same 401 body.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return c.JSON(http.StatusUnauthorized, errorResponse{Message: "unauthorized"})
		}

		claims, err := s.verifier.Verify(token)
		if err != nil {
			s.logger.Debug(c.Request().Context(), "token verification failed", "reason", err.Error())
			return c.JSON(http.StatusUnauthorized, errorResponse{Message: "unauthorized"})
		}

		c.Set(claimsContextKey, claims)
		return next(c)
	}
}

// callerClaims returns the verified claims set by requireAuth.
func callerClaims(c echo.Context) (*auth.Claims, bool) {
	claims, ok := c.Get(claimsContextKey).(*auth.Claims)
	return claims, ok
}
