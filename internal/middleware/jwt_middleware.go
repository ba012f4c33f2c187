package middleware

import (
	"errors"
	"log"
	"strings"

	"boutique/internal/models"
	"boutique/internal/services"

	"github.com/gofiber/fiber/v2"
)

const principalKey = "principal"

var errNoToken = errors.New("no bearer token")

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		p, err := authenticate(authService, authHeader)
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		c.Locals(principalKey, p)
		c.Locals("user_id", p.UserID)
		c.Locals("username", p.Username)
		return c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present and lets
// anonymous requests through. A malformed or expired token is still rejected.
func OptionalAuth(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Next()
		}
		p, err := authenticate(authService, authHeader)
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}
		c.Locals(principalKey, p)
		return c.Next()
	}
}

// CurrentPrincipal returns the caller attached by AuthRequired or OptionalAuth,
// or the zero (anonymous) principal.
func CurrentPrincipal(c *fiber.Ctx) models.Principal {
	p, _ := c.Locals(principalKey).(models.Principal)
	return p
}

func authenticate(authService *services.AuthService, authHeader string) (models.Principal, error) {
	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") || parts[1] == "" {
		return models.Principal{}, errNoToken
	}
	claims, err := authService.ValidateToken(parts[1])
	if err != nil {
		return models.Principal{}, err
	}
	p := services.PrincipalFromClaims(claims)
	if !p.Authenticated() {
		return models.Principal{}, errors.New("token carries no user id")
	}
	return p, nil
}
