package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/diewo77/freelance/internal/models"
)

// SettingsService reads and writes the per-user Settings singleton.
type SettingsService struct{ DB *gorm.DB }

func NewSettingsService(db *gorm.DB) *SettingsService { return &SettingsService{DB: db} }

// ForUser returns the user's settings, creating the defaults on first access.
func (s *SettingsService) ForUser(userID uint) (*models.Settings, error) {
	return settingsFor(s.DB, userID)
}

func settingsFor(db *gorm.DB, userID uint) (*models.Settings, error) {
	var st models.Settings
	err := db.Where("user_id = ?", userID).First(&st).Error
	if err == nil {
		return &st, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	def := models.DefaultSettings(userID)
	if err := db.Create(def).Error; err != nil {
		return nil, fmt.Errorf("create default settings: %w", err)
	}
	return def, nil
}

// Update validates and persists st. Validation failures are returned as validation.Errors.
func (s *SettingsService) Update(st *models.Settings) error {
	if err := st.Validate().Err(); err != nil {
		return err
	}
	if err := s.DB.Save(st).Error; err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
