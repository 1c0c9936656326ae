package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mattkerbyy/bubbly/backend/internal/auth"
	"github.com/mattkerbyy/bubbly/backend/internal/models"
)

const userContextKey = "user"

// JWTAuthMiddleware checks for a valid JWT and extracts user claims.
func JWTAuthMiddleware(tokens *auth.TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
			}

			tokenString, ok := auth.BearerToken(authHeader)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
			}

			claims, err := tokens.Parse(tokenString)
			if err != nil {
				if errors.Is(err, auth.ErrExpiredToken) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Token expired")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			// Store user claims in context
			c.Set(userContextKey, claims)

			return next(c)
		}
	}
}

// UserIDFromContext returns the authenticated user's id set by JWTAuthMiddleware.
func UserIDFromContext(c echo.Context) (uint, error) {
	claims, ok := c.Get(userContextKey).(*models.JwtCustomClaims)
	if !ok || claims == nil || claims.UserID == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	return claims.UserID, nil
}

// SetUserID is used by tests and by the websocket handler to attach an identity.
func SetUserID(c echo.Context, userID uint) {
	c.Set(userContextKey, &models.JwtCustomClaims{UserID: userID})
}
