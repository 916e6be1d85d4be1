package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/moonmist/storefront/internal/token"
)

const claimsKey = "authClaims"

// RequireAuth verifies the Authorization bearer token and stores the caller's
// claims on the echo context. Missing, malformed or expired tokens answer 401.
func RequireAuth(issuer *token.Issuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "No token provided")
			}

			claims, err := issuer.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// RequireRole rejects authenticated callers whose role does not match.
// It must run after RequireAuth.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFrom(c)
			if claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "No token provided")
			}
			if claims.Role != role {
				return echo.NewHTTPError(http.StatusForbidden, "Admin only")
			}
			return next(c)
		}
	}
}

// ClaimsFrom returns the verified claims RequireAuth stored, or nil.
func ClaimsFrom(c echo.Context) *token.Claims {
	if v, ok := c.Get(claimsKey).(*token.Claims); ok {
		return v
	}
	return nil
}

// SetClaims is used by tests to inject an authenticated caller.
func SetClaims(c echo.Context, claims *token.Claims) {
	c.Set(claimsKey, claims)
}
