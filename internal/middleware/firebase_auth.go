package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/arman306/storyloop/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// ContextKeyIdentity is where the authenticated actor lands in the echo
// context.
const ContextKeyIdentity = "identity"

// FirebaseAuthMiddleware creates an Echo middleware to verify Firebase ID
// tokens and expose the actor's identity to handlers
func FirebaseAuthMiddleware(authClient *auth.Client) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is missing")
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header must be in Bearer format")
			}

			idToken := tokenParts[1]

			// Verify the ID token
			token, err := authClient.VerifyIDToken(context.Background(), idToken)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, fmt.Sprintf("Invalid or expired ID token: %v", err))
			}

			identity := models.Identity{UserID: token.UID}
			if name, ok := token.Claims["name"].(string); ok {
				identity.Name = name
			}
			if picture, ok := token.Claims["picture"].(string); ok {
				identity.AvatarURL = picture
			}

			c.Set(ContextKeyIdentity, identity)
			return next(c)
		}
	}
}

// IdentityFromContext returns the authenticated actor stored by
// FirebaseAuthMiddleware
func IdentityFromContext(c echo.Context) (models.Identity, bool) {
	identity, ok := c.Get(ContextKeyIdentity).(models.Identity)
	return identity, ok
}
