package handlers

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/acadocs/backend/internal/identity"
	"github.com/acadocs/backend/internal/mailer"
	"github.com/acadocs/backend/internal/middleware"
	"github.com/acadocs/backend/internal/models"
	"github.com/acadocs/backend/pkg/logger"
	"github.com/acadocs/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuthHandler struct {
	DB          *gorm.DB
	Provider    identity.Provider
	Mailer      mailer.Mailer
	FrontendURL string
}

func NewAuthHandler(db *gorm.DB, provider identity.Provider, m mailer.Mailer, frontendURL string) *AuthHandler {
	return &AuthHandler{DB: db, Provider: provider, Mailer: m, FrontendURL: frontendURL}
}

type loginRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	NotificationToken string `json:"notificationToken"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	return h.login(c, false)
}

// LoginAdmin is the dashboard entry point: it additionally requires the
// admin role and a verified email.
func (h *AuthHandler) LoginAdmin(c *fiber.Ctx) error {
	return h.login(c, true)
}

func (h *AuthHandler) login(c *fiber.Ctx, adminOnly bool) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return utils.Error(c, fiber.StatusBadRequest, "email and password are required")
	}

	token, ident, err := h.Provider.Authenticate(c.Context(), req.Email, req.Password)
	if err != nil {
		if err == identity.ErrInvalidCredentials {
			return utils.Error(c, fiber.StatusUnauthorized, "invalid email or password")
		}
		logger.Error("login_failed", err, map[string]interface{}{"email": req.Email})
		return utils.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", ident.UID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "user not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	if adminOnly {
		// Role comes from the directory record, never from token claims.
		if user.Role != models.UserRoleAdmin {
			return utils.Error(c, fiber.StatusForbidden, "admin access required")
		}
		if !ident.EmailVerified {
			return utils.Error(c, fiber.StatusForbidden, "email not verified")
		}
	}

	h.saveNotificationToken(user.ID, req.NotificationToken)

	logger.InfoWithUser(user.ID.String(), "login_success", map[string]interface{}{
		"role":  string(user.Role),
		"admin": adminOnly,
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"uid":   user.ID,
		"role":  user.Role,
		"email": user.Email,
		"token": token,
	})
}

// saveNotificationToken is best effort: a push token we fail to store costs a
// notification, not a login.
func (h *AuthHandler) saveNotificationToken(userID uuid.UUID, token string) {
	if token == "" {
		return
	}
	err := h.DB.Model(&models.User{}).
		Where("id = ?", userID).
		Update("notification_token", token).Error
	if err != nil {
		logger.ErrorWithUser(userID.String(), "notification_token_save_failed", err, nil)
	}
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"firstName": user.FirstName,
		"lastName":  user.LastName,
		"email":     user.Email,
	})
}

type notificationTokenRequest struct {
	NotificationToken string `json:"notificationToken"`
}

func (h *AuthHandler) UpdateNotificationToken(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req notificationTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.NotificationToken) == "" {
		return utils.Error(c, fiber.StatusBadRequest, "notificationToken is required")
	}

	err := h.DB.Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("notification_token", strings.TrimSpace(req.NotificationToken)).Error
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed saving notification token")
	}

	return utils.Message(c, fiber.StatusOK, "notification token saved")
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req passwordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid email")
	}

	token, err := h.Provider.CreateResetToken(c.Context(), req.Email)
	if err != nil {
		// Whether the address exists is not disclosed.
		logger.Warn("password_reset_unknown_email", map[string]interface{}{"email": req.Email})
		return utils.Message(c, fiber.StatusOK, "password reset email sent")
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", h.FrontendURL, token)
	if err := h.Mailer.SendPasswordReset(req.Email, resetLink); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed sending reset email")
	}

	return utils.Message(c, fiber.StatusOK, "password reset email sent")
}

type passwordResetConfirmRequest struct {
	ResetToken  string `json:"resetToken"`
	NewPassword string `json:"newPassword"`
}

func (h *AuthHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req passwordResetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.ResetToken == "" {
		return utils.Error(c, fiber.StatusBadRequest, "resetToken is required")
	}
	if len(req.NewPassword) < 8 {
		return utils.Error(c, fiber.StatusBadRequest, "password must be at least 8 characters")
	}

	if err := h.Provider.ResetPassword(c.Context(), req.ResetToken, req.NewPassword); err != nil {
		if err == identity.ErrInvalidToken || err == identity.ErrAccountNotFound {
			return utils.Error(c, fiber.StatusUnauthorized, "invalid or expired reset token")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed resetting password")
	}

	return utils.Message(c, fiber.StatusOK, "password reset successfully")
}
