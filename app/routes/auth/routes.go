package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Guilleloma/BuildTrack-sub000/app/config"
	"github.com/Guilleloma/BuildTrack-sub000/app/models"
)

// SetupAuthRoutes sets up the authentication routes.
func SetupAuthRoutes(app *fiber.App) {
	api := app.Group("/api/auth")
	api.Post("/register", RegisterAPI)
	api.Post("/login", LoginAPI)
}

// AuthMiddleware validates the JWT and stores the caller's identity for
// audit fields. In sandbox mode no token is required and the shared sandbox
// identity is injected instead; everything downstream sees a normal user id.
func AuthMiddleware(c *fiber.Ctx) error {
	if config.AppConfig.SandboxMode {
		c.Locals("user_id", models.SandboxUserID)
		return c.Next()
	}

	var tokenString string
	auth := c.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		tokenString = strings.TrimPrefix(auth, "Bearer ")
	}
	if tokenString == "" {
		tokenString = c.Cookies("jwt_token")
	}
	if tokenString == "" {
		return c.Status(401).JSON(fiber.Map{"error": "No token found"})
	}

	claims, err := ValidateJWT(tokenString)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	c.Locals("user_id", claims.UserID)
	c.Locals("user_email", claims.Email)
	return c.Next()
}

// CallerID returns the authenticated (or sandbox) user id set by
// AuthMiddleware.
func CallerID(c *fiber.Ctx) string {
	if id, ok := c.Locals("user_id").(string); ok {
		return id
	}
	return models.SandboxUserID
}
