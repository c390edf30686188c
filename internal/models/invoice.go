package models

import (
	"net/url"
	"time"

	"github.com/diewo77/freelance/i18n"
	"github.com/diewo77/freelance/validation"
	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle position of an invoice, stored as an integer.
type InvoiceStatus int

const (
	InvoiceStatusDraft InvoiceStatus = iota
	InvoiceStatusSaved
	InvoiceStatusSent
	InvoiceStatusPaid
)

var statusNames = [...]string{"draft", "saved", "sent", "paid"}

func (s InvoiceStatus) Valid() bool {
	return s >= InvoiceStatusDraft && s <= InvoiceStatusPaid
}

func (s InvoiceStatus) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return statusNames[s]
}

// Label returns the translated status name.
func (s InvoiceStatus) Label(lang string) string {
	return i18n.T(lang, "status."+s.String())
}

// CreatedFrom records how an invoice came to exist.
type CreatedFrom int

const (
	CreatedFromDays CreatedFrom = iota
	CreatedFromFile
)

var hundred = decimal.NewFromInt(100)

// Invoice bills a set of worked days to a client.
// Implements the Ownable interface for ownership-based authorization.
type Invoice struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint `gorm:"uniqueIndex:idx_invoices_user_number;not null" json:"-"`

	// Number is generated from the creation date and unique per user.
	Number string `gorm:"size:50;uniqueIndex:idx_invoices_user_number;not null" json:"number"`

	ClientID *uint   `gorm:"index" json:"client_id"`
	Client   *Client `gorm:"foreignKey:ClientID;constraint:OnDelete:SET NULL" json:"client,omitempty"`

	Description string `gorm:"type:text" json:"description"`

	Date     *time.Time `json:"date"`
	DateDue  *time.Time `json:"date_due"`
	DatePaid *time.Time `json:"date_paid"`

	DailyRate decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"daily_rate"`
	Tax       decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"tax"` // percent
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`

	Status      InvoiceStatus `gorm:"not null;index" json:"status"`
	CreatedFrom CreatedFrom   `gorm:"not null" json:"created_from"`

	// PDF is the media-relative path of an uploaded document, empty when generated.
	PDF string `gorm:"size:255" json:"pdf,omitempty"`

	Days []Day `gorm:"foreignKey:InvoiceID;constraint:OnDelete:SET NULL" json:"-"`
}

// GetUserID implements the Ownable interface for authorization.
func (i *Invoice) GetUserID() uint {
	return i.UserID
}

// Path is the address of the invoice page.
func (i *Invoice) Path() string {
	return "/invoices/" + url.PathEscape(i.Number)
}

// Units is the number of billed days, half days counting for 0.5.
func (i *Invoice) Units() decimal.Decimal {
	units := decimal.Zero
	for k := range i.Days {
		units = units.Add(i.Days[k].Units())
	}
	return units
}

// ComputeTotals sets Subtotal and Total from the bound days, the daily rate and the tax.
func (i *Invoice) ComputeTotals() {
	i.Subtotal = i.DailyRate.Mul(i.Units()).Round(2)
	i.Total = i.Subtotal.Add(i.Subtotal.Mul(i.Tax).Div(hundred)).Round(2)
}

// TaxAmount is the difference between total and subtotal.
func (i *Invoice) TaxAmount() decimal.Decimal {
	return i.Total.Sub(i.Subtotal)
}

// Validate runs the checks required before an invoice leaves the draft state.
func (i *Invoice) Validate() validation.Errors {
	v := make(validation.Errors)
	validation.Required("number", i.Number, v)
	if i.ClientID == nil {
		v.Add("client", "required")
	}
	if i.Date == nil {
		v.Add("date", "required")
	}
	validation.NonNegative("daily_rate", i.DailyRate, v)
	validation.Range("tax", i.Tax, decimal.Zero, hundred, v)
	if !i.Status.Valid() {
		v.Add("status", "invalid_choice")
	}
	if i.DateDue != nil && i.Date != nil && i.DateDue.Before(*i.Date) {
		v.Add("date_due", "out_of_range")
	}
	return v
}
