package handlers

import (
	"github.com/devlink/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// getClaimsFromContext extracts the JWT claims stored by the auth middleware.
func getClaimsFromContext(c echo.Context) *models.JwtCustomClaims {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok {
		return nil
	}
	return claims
}

// getUserIDFromContext returns the authenticated user's hex ID, or "" when
// the request carries no valid claims.
func getUserIDFromContext(c echo.Context) string {
	claims := getClaimsFromContext(c)
	if claims == nil {
		return ""
	}
	return claims.UserID
}
