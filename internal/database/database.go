package database

import (
	"fmt"

	"github.com/acadocs/backend/internal/config"
	"github.com/acadocs/backend/internal/models"
	"github.com/acadocs/backend/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg config.DBConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if err := seedAdminUser(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Account{},
		&models.User{},
		&models.DocumentRequest{},
	)
}

// seedAdminUser provisions a first admin on an empty database so someone can
// log in and create the real accounts.
func seedAdminUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword("admin123")
	if err != nil {
		return err
	}

	account := models.Account{
		Email:         "admin@acadocs.local",
		PasswordHash:  hash,
		EmailVerified: true,
	}
	if err := db.Create(&account).Error; err != nil {
		return err
	}

	admin := models.User{
		BaseModel: models.BaseModel{ID: account.ID},
		Email:     account.Email,
		FirstName: "System",
		LastName:  "Admin",
		Role:      models.UserRoleAdmin,
		Status:    models.UserStatusActive,
	}
	return db.Create(&admin).Error
}
