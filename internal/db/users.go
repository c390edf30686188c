package db

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/diewo77/freelance/auth"
	"github.com/diewo77/freelance/internal/models"
)

var ErrUserExists = errors.New("user already exists")

// CreateUser stores a new account with a hashed password and its default settings.
func CreateUser(db *gorm.DB, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("username is required")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &models.User{Username: username, Email: strings.TrimSpace(email), Password: hash}
	err = db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrUserExists
		}
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		return tx.Create(models.DefaultSettings(u.ID)).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create user %q: %w", username, err)
	}
	return u, nil
}

// UserExists is used by the session verifier.
func UserExists(db *gorm.DB, id uint) bool {
	var count int64
	if err := db.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false
	}
	return count > 0
}
