package models

import (
	"strings"
	"time"

	"github.com/diewo77/freelance/validation"
)

// Client is the billing counterparty of an invoice.
type Client struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint `gorm:"index;not null" json:"-"`

	Name    string `gorm:"size:255;not null" json:"name"`
	Contact string `gorm:"size:255" json:"contact,omitempty"`
	Email   string `gorm:"size:255" json:"email,omitempty"`
	Phone   string `gorm:"size:50" json:"phone,omitempty"`

	Address    string `gorm:"size:500" json:"address,omitempty"`
	PostalCode string `gorm:"size:20" json:"postal_code,omitempty"`
	City       string `gorm:"size:100" json:"city,omitempty"`
	Country    string `gorm:"size:100" json:"country,omitempty"`

	VATNumber string `gorm:"size:30" json:"vat_number,omitempty"`
}

// GetUserID implements the Ownable interface for authorization.
func (c *Client) GetUserID() uint {
	return c.UserID
}

// FullAddress returns the postal address on up to three lines.
func (c *Client) FullAddress() string {
	var lines []string
	if c.Address != "" {
		lines = append(lines, c.Address)
	}
	if cityLine := strings.TrimSpace(c.PostalCode + " " + c.City); cityLine != "" {
		lines = append(lines, cityLine)
	}
	if c.Country != "" {
		lines = append(lines, c.Country)
	}
	return strings.Join(lines, "\n")
}

func (c *Client) Validate() validation.Errors {
	v := make(validation.Errors)
	validation.Required("name", c.Name, v)
	return v
}
