package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/diewo77/freelance/i18n"
	"github.com/diewo77/freelance/internal/mailer"
	"github.com/diewo77/freelance/internal/models"
	"github.com/diewo77/freelance/internal/pdf"
	"github.com/diewo77/freelance/internal/storage"
)

const pdfDir = "invoices"

// InvoiceService owns invoice creation, updates and delivery.
type InvoiceService struct {
	DB     *gorm.DB
	Media  *storage.Store
	Mailer mailer.Factory
	// Now is replaceable in tests.
	Now func() time.Time
}

func NewInvoiceService(db *gorm.DB, media *storage.Store, m mailer.Factory) *InvoiceService {
	if m == nil {
		m = mailer.NewSMTPSender
	}
	return &InvoiceService{DB: db, Media: media, Mailer: m, Now: time.Now}
}

func (s *InvoiceService) today() time.Time {
	return models.NormalizeDate(s.Now())
}

// FromUnbilledDays creates a draft invoice adopting every unbilled day of the user.
func (s *InvoiceService) FromUnbilledDays(userID uint) (*models.Invoice, error) {
	var inv *models.Invoice
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&models.Day{}).
			Where("user_id = ? AND invoice_id IS NULL", userID).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return ErrNoUnbilledDays
		}
		var err error
		inv, err = s.create(tx, userID, models.CreatedFromDays)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Day{}).
			Where("id IN ? AND invoice_id IS NULL", ids).
			Update("invoice_id", inv.ID).Error; err != nil {
			return err
		}
		return s.save(tx, inv)
	})
	if err != nil {
		return nil, fmt.Errorf("invoice from unbilled days: %w", err)
	}
	return inv, nil
}

// NewFromFile creates an empty draft meant to carry an uploaded PDF.
func (s *InvoiceService) NewFromFile(userID uint) (*models.Invoice, error) {
	var inv *models.Invoice
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		inv, err = s.create(tx, userID, models.CreatedFromFile)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("invoice from file: %w", err)
	}
	return inv, nil
}

func (s *InvoiceService) create(tx *gorm.DB, userID uint, from models.CreatedFrom) (*models.Invoice, error) {
	st, err := settingsFor(tx, userID)
	if err != nil {
		return nil, err
	}
	today := s.today()
	number, err := generateNumber(tx, userID, today)
	if err != nil {
		return nil, err
	}
	inv := &models.Invoice{
		UserID:      userID,
		Number:      number,
		Date:        &today,
		DailyRate:   st.DefaultDailyRate,
		Tax:         st.DefaultTax,
		Status:      models.InvoiceStatusDraft,
		CreatedFrom: from,
	}
	if err := tx.Omit(clause.Associations).Create(inv).Error; err != nil {
		return nil, err
	}
	return inv, nil
}

// GenerateNumber returns the first free number for date: YYYYMMDD, then YYYYMMDD-2, -3...
func (s *InvoiceService) GenerateNumber(userID uint, date time.Time) (string, error) {
	return generateNumber(s.DB, userID, date)
}

func generateNumber(db *gorm.DB, userID uint, date time.Time) (string, error) {
	base := date.Format("20060102")
	var taken []string
	if err := db.Model(&models.Invoice{}).
		Where("user_id = ? AND (number = ? OR number LIKE ?)", userID, base, base+"-%").
		Pluck("number", &taken).Error; err != nil {
		return "", fmt.Errorf("generate number: %w", err)
	}
	used := make(map[string]bool, len(taken))
	for _, n := range taken {
		used[n] = true
	}
	if !used[base] {
		return base, nil
	}
	for i := 2; ; i++ {
		if n := fmt.Sprintf("%s-%d", base, i); !used[n] {
			return n, nil
		}
	}
}

func (s *InvoiceService) preloaded() *gorm.DB {
	return s.DB.Preload("Client").Preload("Days", func(db *gorm.DB) *gorm.DB {
		return db.Order("date")
	})
}

// Get loads an invoice by id with client and days. Ownership is checked by the caller.
func (s *InvoiceService) Get(id uint) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.preloaded().First(&inv, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

// GetByNumber loads one of the user's invoices by number.
func (s *InvoiceService) GetByNumber(userID uint, number string) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.preloaded().Where("user_id = ? AND number = ?", userID, number).First(&inv).Error; err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

// List returns the user's invoices, newest first.
func (s *InvoiceService) List(userID uint) ([]models.Invoice, error) {
	var out []models.Invoice
	err := s.preloaded().Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}

// RecentlyUpdated returns the invoices edited since the given time, most recent first.
func (s *InvoiceService) RecentlyUpdated(userID uint, since time.Time) ([]models.Invoice, error) {
	var out []models.Invoice
	err := s.preloaded().Where("user_id = ? AND updated_at >= ?", userID, since).
		Order("updated_at DESC, id DESC").Find(&out).Error
	return out, err
}

func (s *InvoiceService) ByStatus(userID uint, status models.InvoiceStatus) ([]models.Invoice, error) {
	var out []models.Invoice
	err := s.preloaded().Where("user_id = ? AND status = ?", userID, status).
		Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}

// MarkSaved validates inv and moves a draft to the saved state. Sent and paid invoices
// keep their status.
func (s *InvoiceService) MarkSaved(inv *models.Invoice) error {
	if err := inv.Validate().Err(); err != nil {
		return err
	}
	if inv.Status < models.InvoiceStatusSaved {
		inv.Status = models.InvoiceStatusSaved
	}
	return nil
}

// Save recomputes totals from the days bound in the database and persists inv.
func (s *InvoiceService) Save(inv *models.Invoice) error {
	if err := s.DB.Transaction(func(tx *gorm.DB) error { return s.save(tx, inv) }); err != nil {
		return fmt.Errorf("save invoice %s: %w", inv.Number, err)
	}
	return nil
}

func (s *InvoiceService) save(tx *gorm.DB, inv *models.Invoice) error {
	if err := tx.Where("invoice_id = ?", inv.ID).Order("date").Find(&inv.Days).Error; err != nil {
		return err
	}
	inv.ComputeTotals()
	if err := tx.Omit(clause.Associations).Save(inv).Error; err != nil {
		return err
	}
	inv.Client = nil
	if inv.ClientID != nil {
		var c models.Client
		if err := tx.First(&c, *inv.ClientID).Error; err != nil {
			return notFound(err)
		}
		inv.Client = &c
	}
	return nil
}

// AttachPDF stores an uploaded document for inv, replacing any previous upload.
func (s *InvoiceService) AttachPDF(inv *models.Invoice, filename string, r io.Reader) error {
	rel, err := s.Media.Save(pdfDir, filename, r)
	if err != nil {
		return err
	}
	old := inv.PDF
	inv.PDF = rel
	if err := s.Save(inv); err != nil {
		_ = s.Media.Remove(rel)
		inv.PDF = old
		return err
	}
	if old != "" {
		if err := s.Media.Remove(old); err != nil {
			log.Warn().Err(err).Str("path", old).Msg("remove replaced pdf")
		}
	}
	return nil
}

// Document returns the uploaded PDF of inv or renders one.
func (s *InvoiceService) Document(inv *models.Invoice, st *models.Settings, lang string) ([]byte, error) {
	if inv.PDF != "" {
		f, err := s.Media.Open(inv.PDF)
		if err != nil {
			return nil, fmt.Errorf("open pdf: %w", err)
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	return pdf.InvoicePDF(PDFData(inv, st, lang))
}

// Email sends inv with its PDF to the client's address and marks it sent.
func (s *InvoiceService) Email(ctx context.Context, inv *models.Invoice, st *models.Settings, password, lang string) error {
	if inv.Client == nil || strings.TrimSpace(inv.Client.Email) == "" {
		return mailer.ErrNoRecipient
	}
	doc, err := s.Document(inv, st, lang)
	if err != nil {
		return err
	}
	from := st.Email
	if from == "" {
		from = st.SMTPUsername
	}
	msg := mailer.Message{
		From:    from,
		To:      []string{inv.Client.Email},
		Subject: fmt.Sprintf("%s %s", i18n.T(lang, "email.subject"), inv.Number),
		Body:    fmt.Sprintf("%s %s.\n\n%s\n", i18n.T(lang, "email.body"), inv.Number, st.Name),
		Attachments: []mailer.Attachment{
			{Name: inv.Number + ".pdf", Data: doc},
		},
	}
	sender := s.Mailer(mailer.SMTPConfig{
		Host:     st.SMTPHost,
		Port:     st.SMTPPort,
		Username: st.SMTPUsername,
		Password: password,
	})
	if err := sender.Send(ctx, msg); err != nil {
		return err
	}
	if inv.Status < models.InvoiceStatusSent {
		inv.Status = models.InvoiceStatusSent
	}
	if err := s.Save(inv); err != nil {
		return fmt.Errorf("%w: %w", ErrSentNotRecorded, err)
	}
	return nil
}

// Delete removes inv after unbinding its days.
func (s *InvoiceService) Delete(inv *models.Invoice) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Day{}).Where("invoice_id = ?", inv.ID).
			Update("invoice_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Invoice{}, inv.ID).Error
	})
	if err != nil {
		return fmt.Errorf("delete invoice %s: %w", inv.Number, err)
	}
	if inv.PDF != "" {
		if err := s.Media.Remove(inv.PDF); err != nil {
			log.Warn().Err(err).Str("path", inv.PDF).Msg("remove invoice pdf")
		}
	}
	return nil
}

// MoneyStatus sums the totals of the user's invoices by payment state.
type MoneyStatus struct {
	Paid   decimal.Decimal
	Unpaid decimal.Decimal
	Unsent decimal.Decimal
}

func (s *InvoiceService) MoneyStatus(userID uint) (MoneyStatus, error) {
	var rows []struct {
		Status models.InvoiceStatus
		Total  decimal.Decimal
	}
	ms := MoneyStatus{Paid: decimal.Zero, Unpaid: decimal.Zero, Unsent: decimal.Zero}
	if err := s.DB.Model(&models.Invoice{}).Select("status, total").
		Where("user_id = ?", userID).Scan(&rows).Error; err != nil {
		return ms, fmt.Errorf("money status: %w", err)
	}
	for _, r := range rows {
		switch {
		case r.Status == models.InvoiceStatusPaid:
			ms.Paid = ms.Paid.Add(r.Total)
		case r.Status == models.InvoiceStatusSent:
			ms.Unpaid = ms.Unpaid.Add(r.Total)
		default:
			ms.Unsent = ms.Unsent.Add(r.Total)
		}
	}
	return ms, nil
}
