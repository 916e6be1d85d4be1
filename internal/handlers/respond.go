package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/moonmist/storefront/internal/middleware/auth"
	"github.com/moonmist/storefront/internal/token"
)

func fail(c echo.Context, code int, message string) error {
	return c.JSON(code, echo.Map{"message": message})
}

// requireClaims returns the verified caller identity or a 401. Routes behind
// RequireAuth always have claims; this guards direct handler invocation.
func requireClaims(c echo.Context) (*token.Claims, error) {
	claims := auth.ClaimsFrom(c)
	if claims == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "No token provided")
	}
	return claims, nil
}
