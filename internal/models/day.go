package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of calendar days.
const DateLayout = "2006-01-02"

var half = decimal.NewFromFloat(0.5)

// Day is a worked calendar day, or half day. A Day without invoice is unbilled work.
type Day struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	UserID uint      `gorm:"uniqueIndex:idx_days_user_date;not null"`
	Date   time.Time `gorm:"uniqueIndex:idx_days_user_date;not null"`
	Half   bool      `gorm:"not null;default:false"`

	InvoiceID *uint `gorm:"index"`
}

func (d *Day) GetUserID() uint { return d.UserID }

// IsBilled reports whether the day is bound to an invoice.
func (d *Day) IsBilled() bool { return d.InvoiceID != nil }

// Units is the billable fraction of a day.
func (d *Day) Units() decimal.Decimal {
	if d.Half {
		return half
	}
	return decimal.NewFromInt(1)
}

// NormalizeDate truncates t to midnight UTC so equal calendar days compare equal.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses an ISO calendar date.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return NormalizeDate(t), nil
}
