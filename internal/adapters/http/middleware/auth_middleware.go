package middleware

import (
	"errors"
	"strings"

	"meterhub/internal/core/domain"
	"meterhub/internal/pkg/jwt"
	"meterhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware requires a valid access token from the Authorization header
// or the access_token cookie
func AuthMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 1. Authorization header first, the browser client sends a bearer token
		var accessToken string
		authHeader := c.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			accessToken = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		}

		// 2. Fall back to cookie
		if accessToken == "" {
			accessToken = c.Cookies("access_token")
		}

		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		claims, err := jwt.ValidateAccessToken(accessToken, secret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		c.Locals("userID", claims.UserID)
		c.Locals("username", claims.Username)
		c.Locals("role", claims.Role)

		return c.Next()
	}
}

// ActorFrom returns the authenticated caller set by AuthMiddleware
func ActorFrom(c *fiber.Ctx) (domain.Actor, bool) {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return domain.Actor{}, false
	}
	username, _ := c.Locals("username").(string)
	role, _ := c.Locals("role").(string)

	return domain.Actor{
		UserID:   userID,
		Username: username,
		Role:     domain.Role(role),
	}, true
}
