package middleware

import (
	"strings"

	"github.com/acadocs/backend/internal/identity"
	"github.com/acadocs/backend/internal/models"
	"github.com/acadocs/backend/pkg/logger"
	"github.com/acadocs/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/gorm"
)

const (
	currentUserKey     = "currentUser"
	currentIdentityKey = "currentIdentity"
)

type AuthMiddleware struct {
	Provider identity.Provider
	DB       *gorm.DB
}

func NewAuthMiddleware(provider identity.Provider, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{Provider: provider, DB: db}
}

func CORS() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: "http://localhost:3001,http://127.0.0.1:3001",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	})
}

// RequireAuth verifies the bearer credential and loads the caller's directory
// record. The record is loaded fresh on every request so role changes and
// deletions take effect immediately.
func (a *AuthMiddleware) RequireAuth(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		logger.Warn("auth_missing_header", map[string]interface{}{
			"ip":   c.IP(),
			"path": c.Path(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "missing authorization header")
	}

	tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
	if tokenString == authHeader || tokenString == "" {
		logger.Warn("auth_invalid_format", map[string]interface{}{
			"ip":   c.IP(),
			"path": c.Path(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid authorization format")
	}

	ident, err := a.Provider.Verify(c.Context(), tokenString)
	if err != nil {
		logger.Warn("auth_verify_failed", map[string]interface{}{
			"ip":    c.IP(),
			"path":  c.Path(),
			"error": err.Error(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid or expired token")
	}

	var user models.User
	if err := a.DB.First(&user, "id = ?", ident.UID).Error; err != nil {
		logger.Warn("auth_user_not_found", map[string]interface{}{
			"ip":   c.IP(),
			"path": c.Path(),
			"uid":  ident.UID.String(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "user not found")
	}

	c.Locals(currentUserKey, &user)
	c.Locals(currentIdentityKey, ident)
	c.Locals("userID", user.ID.String())
	return c.Next()
}

func AdminOnly(c *fiber.Ctx) error {
	user := GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if user.Role != models.UserRoleAdmin {
		return utils.Error(c, fiber.StatusForbidden, "admin access required")
	}
	return c.Next()
}

func StaffOnly(c *fiber.Ctx) error {
	user := GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if !user.IsStaff() {
		return utils.Error(c, fiber.StatusForbidden, "staff access required")
	}
	return c.Next()
}

func GetCurrentUser(c *fiber.Ctx) *models.User {
	value := c.Locals(currentUserKey)
	if value == nil {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}

func GetCurrentIdentity(c *fiber.Ctx) *identity.Identity {
	value := c.Locals(currentIdentityKey)
	if value == nil {
		return nil
	}
	ident, ok := value.(*identity.Identity)
	if !ok {
		return nil
	}
	return ident
}
