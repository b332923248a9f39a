package identity

import (
	"context"
	"strings"

	"github.com/acadocs/backend/internal/config"
	"github.com/acadocs/backend/internal/models"
	"github.com/acadocs/backend/pkg/logger"
	"github.com/acadocs/backend/pkg/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProvider keeps accounts in the application database and signs HS256
// bearer tokens over them.
type GormProvider struct {
	db     *gorm.DB
	tokens *tokenIssuer
}

var _ Provider = (*GormProvider)(nil)

func NewGormProvider(db *gorm.DB, cfg config.JWTConfig) *GormProvider {
	return &GormProvider{
		db:     db,
		tokens: newTokenIssuer(cfg.Secret, cfg.ExpirationHours),
	}
}

func (p *GormProvider) Verify(ctx context.Context, token string) (*Identity, error) {
	c, err := p.tokens.parse(token, purposeBearer)
	if err != nil {
		return nil, err
	}

	// Re-read the account so deleted or disabled accounts stop verifying
	// even while their tokens are still within their lifetime.
	var account models.Account
	if err := p.db.WithContext(ctx).First(&account, "id = ?", c.UID).Error; err != nil {
		return nil, ErrInvalidToken
	}
	if account.Disabled {
		return nil, ErrInvalidToken
	}

	return &Identity{
		UID:           account.ID,
		Email:         account.Email,
		EmailVerified: account.EmailVerified,
	}, nil
}

func (p *GormProvider) Authenticate(ctx context.Context, email, password string) (string, *Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var account models.Account
	if err := p.db.WithContext(ctx).First(&account, "email = ?", email).Error; err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if account.Disabled || !utils.CheckPassword(account.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := p.tokens.issue(&account, purposeBearer, p.tokens.expiry)
	if err != nil {
		return "", nil, err
	}

	return token, &Identity{
		UID:           account.ID,
		Email:         account.Email,
		EmailVerified: account.EmailVerified,
	}, nil
}

func (p *GormProvider) CreateAccount(ctx context.Context, email, password string) (uuid.UUID, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var existing models.Account
	err := p.db.WithContext(ctx).First(&existing, "email = ?", email).Error
	if err == nil {
		return uuid.Nil, ErrEmailTaken
	}
	if err != gorm.ErrRecordNotFound {
		return uuid.Nil, err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return uuid.Nil, err
	}

	account := models.Account{
		Email:        email,
		PasswordHash: hash,
	}
	if err := p.db.WithContext(ctx).Create(&account).Error; err != nil {
		return uuid.Nil, err
	}

	logger.Info("account_created", map[string]interface{}{
		"uid":   account.ID.String(),
		"email": account.Email,
	})
	return account.ID, nil
}

func (p *GormProvider) DeleteAccount(ctx context.Context, uid uuid.UUID) error {
	result := p.db.WithContext(ctx).Delete(&models.Account{}, "id = ?", uid)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}

	logger.Info("account_deleted", map[string]interface{}{"uid": uid.String()})
	return nil
}

func (p *GormProvider) CreateResetToken(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var account models.Account
	if err := p.db.WithContext(ctx).First(&account, "email = ?", email).Error; err != nil {
		return "", ErrAccountNotFound
	}

	return p.tokens.issue(&account, purposePasswordReset, resetTokenTTL)
}

func (p *GormProvider) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	c, err := p.tokens.parse(resetToken, purposePasswordReset)
	if err != nil {
		return err
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}

	result := p.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", c.UID).
		Update("password_hash", hash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}

	logger.Info("password_reset", map[string]interface{}{"uid": c.UID.String()})
	return nil
}
