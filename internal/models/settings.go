package models

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ncruces/go-strftime"
	"github.com/shopspring/decimal"

	"github.com/diewo77/freelance/validation"
)

var (
	DecimalSeparators   = []string{",", "."}
	ThousandsSeparators = []string{",", ".", " ", "'"}
)

// Settings holds per-user defaults and formatting preferences. There is one row per user.
type Settings struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint `gorm:"uniqueIndex;not null" json:"-"`

	DefaultDailyRate decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"default_daily_rate"`
	DefaultTax       decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"default_tax"`

	// DateFormat is a strftime pattern, e.g. %d/%m/%Y.
	DateFormat string `gorm:"size:50;not null" json:"date_format"`

	CurrencySymbol     string `gorm:"size:10;not null" json:"currency_symbol"`
	SymbolBefore       bool   `gorm:"not null" json:"symbol_before"`
	DecimalSeparator   string `gorm:"size:1;not null" json:"decimal_separator"`
	ThousandsSeparator string `gorm:"size:1" json:"thousands_separator"`

	// Sender identity, printed on invoices.
	Name    string `gorm:"size:255" json:"name"`
	Address string `gorm:"size:500" json:"address"`
	Email   string `gorm:"size:255" json:"email"`

	SMTPHost     string `gorm:"size:255" json:"smtp_host"`
	SMTPPort     int    `gorm:"not null" json:"smtp_port"`
	SMTPUsername string `gorm:"size:255" json:"smtp_username"`
}

// DefaultSettings returns the values a user starts with.
func DefaultSettings(userID uint) *Settings {
	return &Settings{
		UserID:             userID,
		DefaultDailyRate:   decimal.NewFromInt(300),
		DefaultTax:         decimal.NewFromInt(20),
		DateFormat:         "%d/%m/%Y",
		CurrencySymbol:     "€",
		DecimalSeparator:   ",",
		ThousandsSeparator: " ",
		SMTPPort:           587,
	}
}

func (Settings) TableName() string { return "settings" }

func (s *Settings) GetUserID() uint { return s.UserID }

// FormatMoney renders d with two decimals, the configured separators and currency symbol.
func (s *Settings) FormatMoney(d decimal.Decimal) string {
	dec := s.DecimalSeparator
	if dec == "" {
		dec = "."
	}
	n := humanize.FormatFloat("#"+s.ThousandsSeparator+"###"+dec+"##", d.Round(2).InexactFloat64())
	switch {
	case s.CurrencySymbol == "":
		return n
	case s.SymbolBefore:
		return s.CurrencySymbol + n
	default:
		return n + " " + s.CurrencySymbol
	}
}

// FormatDate renders t with the user's strftime pattern. The zero time renders empty.
func (s *Settings) FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strftime.Format(s.DateFormat, t)
}

// FormatDatePtr is FormatDate for optional dates.
func (s *Settings) FormatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return s.FormatDate(*t)
}

// ParseDate reads a date in the user's format, falling back to ISO 8601.
func (s *Settings) ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if layout, err := strftime.Layout(s.DateFormat); err == nil {
		if t, err := time.Parse(layout, value); err == nil {
			return NormalizeDate(t), nil
		}
	}
	return ParseDay(value)
}

func (s *Settings) Validate() validation.Errors {
	v := make(validation.Errors)
	validation.NonNegative("default_daily_rate", s.DefaultDailyRate, v)
	validation.Range("default_tax", s.DefaultTax, decimal.Zero, hundred, v)
	if strings.TrimSpace(s.DateFormat) == "" {
		v.Add("date_format", "required")
	} else if _, err := strftime.Layout(s.DateFormat); err != nil {
		v.Add("date_format", "invalid_choice")
	}
	validation.OneOf("decimal_separator", s.DecimalSeparator, DecimalSeparators, v)
	if s.ThousandsSeparator != "" {
		validation.OneOf("thousands_separator", s.ThousandsSeparator, ThousandsSeparators, v)
	}
	if s.ThousandsSeparator == s.DecimalSeparator {
		v.Add("thousands_separator", "invalid_choice")
	}
	if s.SMTPPort < 0 || s.SMTPPort > 65535 {
		v.Add("smtp_port", "out_of_range")
	}
	return v
}
