package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/diewo77/freelance/internal/models"
)

type ClientService struct{ DB *gorm.DB }

func NewClientService(db *gorm.DB) *ClientService { return &ClientService{DB: db} }

func (s *ClientService) List(userID uint) ([]models.Client, error) {
	var out []models.Client
	err := s.DB.Where("user_id = ?", userID).Order("name").Find(&out).Error
	return out, err
}

// Get loads a client by id. Ownership is checked by the caller.
func (s *ClientService) Get(id uint) (*models.Client, error) {
	var c models.Client
	if err := s.DB.First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// Save validates and creates or updates c.
func (s *ClientService) Save(c *models.Client) error {
	if err := c.Validate().Err(); err != nil {
		return err
	}
	if err := s.DB.Save(c).Error; err != nil {
		return fmt.Errorf("save client: %w", err)
	}
	return nil
}

// Delete removes c. Its invoices are kept without client.
func (s *ClientService) Delete(c *models.Client) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Invoice{}).Where("client_id = ?", c.ID).
			Update("client_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Client{}, c.ID).Error
	})
}
