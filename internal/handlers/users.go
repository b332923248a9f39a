package handlers

import (
	"net/mail"
	"strings"

	"github.com/acadocs/backend/internal/identity"
	"github.com/acadocs/backend/internal/mailer"
	"github.com/acadocs/backend/internal/middleware"
	"github.com/acadocs/backend/internal/models"
	"github.com/acadocs/backend/pkg/logger"
	"github.com/acadocs/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// UsersHandler is the admin-only directory management surface. Provisioning
// creates the identity-provider account first, then the directory record;
// deletion tears both down.
type UsersHandler struct {
	DB       *gorm.DB
	Provider identity.Provider
	Mailer   mailer.Mailer
}

func NewUsersHandler(db *gorm.DB, provider identity.Provider, m mailer.Mailer) *UsersHandler {
	return &UsersHandler{DB: db, Provider: provider, Mailer: m}
}

func (h *UsersHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	p := utils.ParsePagination(c)

	query := h.DB.Model(&models.User{}).Where("id <> ?", currentUser.ID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting users")
	}

	var users []models.User
	if err := utils.ApplyPagination(query.Order("created_at DESC"), p).Find(&users).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing users")
	}

	return utils.Paginated(c, users, p.Page, p.Limit, total)
}

type createUserRequest struct {
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Email     string          `json:"email"`
	Password  string          `json:"password"`
	Role      models.UserRole `json:"role"`
	Promotion string          `json:"promotion"`
	Specialty string          `json:"specialty"`
}

func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req createUserRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)

	if _, err := mail.ParseAddress(req.Email); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid email")
	}
	if req.FirstName == "" || req.LastName == "" {
		return utils.Error(c, fiber.StatusBadRequest, "firstName and lastName are required")
	}

	role := req.Role
	if role == "" {
		role = models.UserRoleStudent
	}
	if !isValidRole(role) {
		return utils.Error(c, fiber.StatusBadRequest, "invalid role")
	}

	password := req.Password
	if password == "" {
		generated, err := utils.GeneratePassword(12)
		if err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "failed generating password")
		}
		password = generated
	} else if len(password) < 8 {
		return utils.Error(c, fiber.StatusBadRequest, "password must be at least 8 characters")
	}

	uid, err := h.Provider.CreateAccount(c.Context(), req.Email, password)
	if err != nil {
		if err == identity.ErrEmailTaken {
			return utils.Error(c, fiber.StatusConflict, "email already registered")
		}
		logger.Error("account_provisioning_failed", err, map[string]interface{}{"email": req.Email})
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating account")
	}

	user := models.User{
		BaseModel: models.BaseModel{ID: uid},
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      role,
		Promotion: strings.TrimSpace(req.Promotion),
		Specialty: strings.TrimSpace(req.Specialty),
		Status:    models.UserStatusInactive,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		logger.Error("user_create_failed", err, map[string]interface{}{"email": req.Email})
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating user")
	}

	logger.Info("user_created", map[string]interface{}{
		"uid":   uid.String(),
		"email": req.Email,
		"role":  string(role),
	})

	if err := h.Mailer.SendCredentials(req.Email, password); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed sending credentials email")
	}

	return utils.Success(c, fiber.StatusCreated, user)
}

func (h *UsersHandler) Get(c *fiber.Ctx) error {
	userID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "user not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching user")
	}

	return utils.Success(c, fiber.StatusOK, user)
}

type updateUserRequest struct {
	FirstName *string          `json:"firstName"`
	LastName  *string          `json:"lastName"`
	Role      *models.UserRole `json:"role"`
	Promotion *string          `json:"promotion"`
	Specialty *string          `json:"specialty"`
	Status    *string          `json:"status"`
}

func (h *UsersHandler) Update(c *fiber.Ctx) error {
	userID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var req updateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.FirstName != nil {
		value := strings.TrimSpace(*req.FirstName)
		if value == "" {
			return utils.Error(c, fiber.StatusBadRequest, "firstName cannot be empty")
		}
		updates["first_name"] = value
	}
	if req.LastName != nil {
		value := strings.TrimSpace(*req.LastName)
		if value == "" {
			return utils.Error(c, fiber.StatusBadRequest, "lastName cannot be empty")
		}
		updates["last_name"] = value
	}
	if req.Role != nil {
		if !isValidRole(*req.Role) {
			return utils.Error(c, fiber.StatusBadRequest, "invalid role")
		}
		updates["role"] = *req.Role
	}
	if req.Promotion != nil {
		updates["promotion"] = strings.TrimSpace(*req.Promotion)
	}
	if req.Specialty != nil {
		updates["specialty"] = strings.TrimSpace(*req.Specialty)
	}
	if req.Status != nil {
		status := models.UserStatus(strings.TrimSpace(*req.Status))
		if status != models.UserStatusActive && status != models.UserStatusInactive {
			return utils.Error(c, fiber.StatusBadRequest, "invalid status")
		}
		updates["status"] = status
	}

	if len(updates) == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "no valid fields to update")
	}

	result := h.DB.Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating user")
	}
	if result.RowsAffected == 0 {
		return utils.Error(c, fiber.StatusNotFound, "user not found")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching updated user")
	}

	return utils.Success(c, fiber.StatusOK, user)
}

// Delete removes the identity account and the directory record. Requests
// owned by the user are left in place.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	userID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "user not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching user")
	}

	if err := h.Provider.DeleteAccount(c.Context(), userID); err != nil && err != identity.ErrAccountNotFound {
		logger.Error("account_delete_failed", err, map[string]interface{}{"uid": userID.String()})
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting account")
	}

	if err := h.DB.Delete(&models.User{}, "id = ?", userID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting user")
	}

	logger.Info("user_deleted", map[string]interface{}{"uid": userID.String()})
	return utils.Message(c, fiber.StatusOK, "user deleted")
}

func isValidRole(role models.UserRole) bool {
	switch role {
	case models.UserRoleAdmin, models.UserRolePersonnel, models.UserRoleStudent:
		return true
	default:
		return false
	}
}
