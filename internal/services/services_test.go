package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/freelance/internal/db"
	"github.com/diewo77/freelance/internal/mailer"
	"github.com/diewo77/freelance/internal/models"
	"github.com/diewo77/freelance/internal/storage"
	"github.com/diewo77/freelance/validation"
)

var testNow = time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	d, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := d.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(d))
	return d
}

type fakeSender struct {
	sent   []mailer.Message
	cfg    mailer.SMTPConfig
	err    error
	onSend func()
}

func (f *fakeSender) factory(cfg mailer.SMTPConfig) mailer.Sender {
	f.cfg = cfg
	return f
}

func (f *fakeSender) Send(_ context.Context, m mailer.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m)
	if f.onSend != nil {
		f.onSend()
	}
	return nil
}

type fixture struct {
	db       *gorm.DB
	days     *DayService
	invoices *InvoiceService
	clients  *ClientService
	settings *SettingsService
	mail     *fakeSender
}

func newFixture(t *testing.T) *fixture {
	d := newTestDB(t)
	f := &fixture{
		db:       d,
		days:     NewDayService(d),
		clients:  NewClientService(d),
		settings: NewSettingsService(d),
		mail:     &fakeSender{},
	}
	f.invoices = NewInvoiceService(d, storage.New(t.TempDir()), f.mail.factory)
	f.invoices.Now = func() time.Time { return testNow }
	return f
}

func (f *fixture) addDays(t *testing.T, userID uint, in ...DayInput) {
	t.Helper()
	_, err := f.days.Upsert(userID, in)
	require.NoError(t, err)
}

func (f *fixture) addClient(t *testing.T, userID uint, name, email string) *models.Client {
	t.Helper()
	c := &models.Client{UserID: userID, Name: name, Email: email}
	require.NoError(t, f.clients.Save(c))
	return c
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSettings_ForUserCreatesDefaultsOnce(t *testing.T) {
	f := newFixture(t)
	st, err := f.settings.ForUser(1)
	require.NoError(t, err)
	assert.True(t, st.DefaultDailyRate.Equal(dec("300")))

	again, err := f.settings.ForUser(1)
	require.NoError(t, err)
	assert.Equal(t, st.ID, again.ID)

	var count int64
	f.db.Model(&models.Settings{}).Where("user_id = ?", 1).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestSettings_UpdateValidates(t *testing.T) {
	f := newFixture(t)
	st, err := f.settings.ForUser(1)
	require.NoError(t, err)

	st.DefaultTax = dec("150")
	err = f.settings.Update(st)
	var ve validation.Errors
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve, "default_tax")

	st.DefaultTax = dec("5.5")
	st.CurrencySymbol = "$"
	require.NoError(t, f.settings.Update(st))
	reloaded, err := f.settings.ForUser(1)
	require.NoError(t, err)
	assert.Equal(t, "$", reloaded.CurrencySymbol)
	assert.True(t, reloaded.DefaultTax.Equal(dec("5.5")))
}

func TestDays_UpsertIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.addDays(t, 1, DayInput{Date: "2024-01-29"})
	written, err := f.days.Upsert(1, []DayInput{{Date: "2024-01-29", Half: true}})
	require.NoError(t, err)
	require.Len(t, written, 1)
	assert.True(t, written[0].Half)

	days, err := f.days.List(1)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.True(t, days[0].Half)

	other, err := f.days.List(2)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestDays_BilledDaysAreFrozen(t *testing.T) {
	f := newFixture(t)
	f.addDays(t, 1, DayInput{Date: "2024-01-29"})
	_, err := f.invoices.FromUnbilledDays(1)
	require.NoError(t, err)

	written, err := f.days.Upsert(1, []DayInput{{Date: "2024-01-29", Half: true}})
	require.NoError(t, err)
	assert.Empty(t, written)

	require.NoError(t, f.days.Delete(1, []DayInput{{Date: "2024-01-29"}, {Date: "2024-05-01"}}))
	days, err := f.days.List(1)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.False(t, days[0].Half)
	assert.True(t, days[0].IsBilled())
}

func TestDays_DeleteUnbilled(t *testing.T) {
	f := newFixture(t)
	f.addDays(t, 1, DayInput{Date: "2024-01-29"}, DayInput{Date: "2024-01-30"})
	require.NoError(t, f.days.Delete(1, []DayInput{{Date: "2024-01-29"}}))
	days, err := f.days.List(1)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "2024-01-30", PresentDay(days[0]).Date)
}

func TestDays_InvalidDate(t *testing.T) {
	f := newFixture(t)
	_, err := f.days.Upsert(1, []DayInput{{Date: "29/01/2024"}})
	var ve validation.Errors
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"invalid_date"}, ve["date"])

	err = f.days.Delete(1, []DayInput{{Date: ""}})
	assert.True(t, errors.As(err, &ve))
}

func TestInvoice_FromUnbilledDays(t *testing.T) {
	f := newFixture(t)
	f.addDays(t, 1,
		DayInput{Date: "2024-01-29"},
		DayInput{Date: "2024-01-30", Half: true},
		DayInput{Date: "2024-01-31"},
	)
	f.addDays(t, 2, DayInput{Date: "2024-01-29"})

	inv, err := f.invoices.FromUnbilledDays(1)
	require.NoError(t, err)
	assert.Equal(t, "20240131", inv.Number)
	assert.Equal(t, models.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, models.CreatedFromDays, inv.CreatedFrom)
	assert.Len(t, inv.Days, 3)
	assert.True(t, inv.Subtotal.Equal(dec("750")), inv.Subtotal.String())
	assert.True(t, inv.Total.Equal(dec("900")), inv.Total.String())

	unbilled, err := f.days.Unbilled(1)
	require.NoError(t, err)
	assert.Empty(t, unbilled)
	unbilled, err = f.days.Unbilled(2)
	require.NoError(t, err)
	assert.Len(t, unbilled, 1, "other users' days are not adopted")

	_, err = f.invoices.FromUnbilledDays(1)
	assert.ErrorIs(t, err, ErrNoUnbilledDays)

	loaded, err := f.invoices.GetByNumber(1, "20240131")
	require.NoError(t, err)
	assert.True(t, loaded.Total.Equal(dec("900")))
	_, err = f.invoices.GetByNumber(2, "20240131")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInvoice_NumbersAreUniquePerDay(t *testing.T) {
	f := newFixture(t)
	f.addDays(t, 1, DayInput{Date: "2024-01-29"})
	first, err := f.invoices.FromUnbilledDays(1)
	require.NoError(t, err)
	second, err := f.invoices.NewFromFile(1)
	require.NoError(t, err)
	third, err := f.invoices.NewFromFile(1)
	require.NoError(t, err)

	assert.Equal(t, "20240131", first.Number)
	assert.Equal(t, "20240131-2", second.Number)
	assert.Equal(t, "20240131-3", third.Number)
	assert.Equal(t, models.CreatedFromFile, second.CreatedFrom)
	assert.Empty(t, second.Days)
	assert.True(t, second.Total.IsZero())

	n, err := f.invoices.GenerateNumber(2, testNow)
	require.NoError(t, err)
	assert.Equal(t, "20240131", n, "numbering is per user")
}

func TestInvoice_ApplyAndSave(t *testing.T) {
	f := newFixture(t)
	st, err := f.settings.ForUser(1)
	require.NoError(t, err)
	f.addDays(t, 1, DayInput{Date: "2024-01-29"}, DayInput{Date: "2024-01-30"})
	inv, err := f.invoices.FromUnbilledDays(1)
	require.NoError(t, err)
	c := f.addClient(t, 1, "ACME", "billing@acme.test")

	err = f.invoices.Apply(1, inv, map[string]any{
		"client":      float64(c.ID),
		"date":        "15/02/2024",
		"date_due":    "2024-03-15",
		"daily_rate":  "450,5",
		"tax":         float64(10),
		"description": "Mission",
	}, st)
	require.NoError(t, err)
	require.NoError(t, f.invoices.Save(inv))

	got, err := f.invoices.Get(inv.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ClientID)
	assert.Equal(t, c.ID, *got.ClientID)
	assert.Equal(t, "ACME", got.Client.Name)
	assert.Equal(t, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), got.Date.UTC())
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), got.DateDue.UTC())
	assert.Equal(t, "Mission", got.Description)
	assert.True(t, got.Subtotal.Equal(dec("901")), got.Subtotal.String())
	assert.True(t, got.Total.Equal(dec("991.1")), got.Total.String())
}

func TestInvoice_ApplyErrors(t *testing.T) {
	f := newFixture(t)
	st, err := f.settings.ForUser(1)
	require.NoError(t, err)
	inv, err := f.invoices.NewFromFile(1)
	require.NoError(t, err)
	foreign := f.addClient(t, 2, "Other", "")

	err = f.invoices.Apply(1, inv, map[string]any{
		"client":     float64(foreign.ID),
		"date":       "not a date",
		"daily_rate": "abc",
		"status":     float64(7),
		"foo":        "bar",
	}, st)
	var ve validation.Errors
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"does_not_exist"}, ve["client"])
	assert.Equal(t, []string{"invalid_date"}, ve["date"])
	assert.Equal(t, []string{"invalid_number"}, ve["daily_rate"])
	assert.Equal(t, []string{"invalid_choice"}, ve["status"])
	assert.Equal(t, []string{"unknown_field"}, ve["foo"])
}

func TestInvoice_ApplyNumberAndStatus(t *testing.T) {
	f := newFixture(t)
	st, err := f.settings.ForUser(1)
	require.NoError(t, err)
	a, err := f.invoices.NewFromFile(1)
	require.NoError(t, err)
	b, err := f.invoices.NewFromFile(1)
	require.NoError(t, err)

	err = f.invoices.Apply(1, b, map[string]any{"number": a.Number}, st)
	var ve validation.Errors
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"already_exists"}, ve["number"])

	err = f.invoices.Apply(1, b, map[string]any{"number": " new "}, st)
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"invalid_choice"}, ve["number"])

	require.NoError(t, f.invoices.Apply(1, b, map[string]any{"number": "F-2024-01", "status": float64(3)}, st))
	assert.Equal(t, "F-2024-01", b.Number)
	assert.Equal(t, models.InvoiceStatusPaid, b.Status)
	require.NotNil(t, b.DatePaid)
	assert.Equal(t, models.NormalizeDate(testNow), *b.DatePaid)

	require.NoError(t, f.invoices.Apply(1, b, map[string]any{"client": nil, "date_paid": ""}, st))
	assert.Nil(t, b.ClientID)
	assert.Nil(t, b.DatePaid)
}

func TestInvoice_MarkSaved(t *testing.T) {
	f := newFixture(t)
	inv, err := f.invoices.NewFromFile(1)
	require.NoError(t, err)

	err = f.invoices.MarkSaved(inv)
	var ve validation.Errors
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve, "client")
	assert.Equal(t, models.InvoiceStatusDraft, inv.Status)

	c := f.addClient(t, 1, "ACME", "")
	inv.ClientID = &c.ID
	require.NoError(t, f.invoices.MarkSaved(inv))
	assert.Equal(t, models.InvoiceStatusSaved, inv.Status)

	inv.Status = models.InvoiceStatusPaid
	require.NoError(t, f.invoices.MarkSaved(inv))
	assert.Equal(t, models.InvoiceStatusPaid, inv.Status)
}

func TestInvoice_DeleteUnbindsDays(t *testing.T) {
	f := newFixture(t)
	f.addDays(t, 1, DayInput{Date: "2024-01-29"}, DayInput{Date: "2024-01-30"})
	inv, err := f.invoices.FromUnbilledDays(1)
	require.NoError(t, err)

	require.NoError(t, f.invoices.Delete(inv))
	_, err = f.invoices.Get(inv.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	unbilled, err := f.days.Unbilled(1)
	require.NoError(t, err)
	assert.Len(t, unbilled, 2)
}

func TestInvoice_DeleteWithoutClient(t *testing.T) {
	f := newFixture(t)
	inv, err := f.invoices.NewFromFile(1)
	require.NoError(t, err)
	assert.Nil(t, inv.ClientID)
	require.NoError(t, f.invoices.Delete(inv))
}

func TestInvoice_MoneyStatus(t *testing.T) {
	f := newFixture(t)
	mk := func(day string, status models.InvoiceStatus) {
		f.addDays(t, 1, DayInput{Date: day})
		inv, err := f.invoices.FromUnbilledDays(1)
		require.NoError(t, err)
		inv.Status = status
		require.NoError(t, f.invoices.Save(inv))
	}
	mk("2024-01-02", models.InvoiceStatusDraft)
	mk("2024-01-03", models.InvoiceStatusSaved)
	mk("2024-01-04", models.InvoiceStatusSent)
	mk("2024-01-05", models.InvoiceStatusPaid)

	ms, err := f.invoices.MoneyStatus(1)
	require.NoError(t, err)
	assert.True(t, ms.Paid.Equal(dec("360")), ms.Paid.String())
	assert.True(t, ms.Unpaid.Equal(dec("360")), ms.Unpaid.String())
	assert.True(t, ms.Unsent.Equal(dec("720")), ms.Unsent.String())

	drafts, err := f.invoices.ByStatus(1, models.InvoiceStatusDraft)
	require.NoError(t, err)
	assert.Len(t, drafts, 1)

	recent, err := f.invoices.RecentlyUpdated(1, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, recent, 4)
	all, err := f.invoices.List(1)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestInvoice_Email(t *testing.T) {
	f := newFixture(t)
	st, err := f.settings.ForUser(1)
	require.NoError(t, err)
	st.Email = "me@example.com"
	st.SMTPHost = "smtp.example.com"
	st.SMTPUsername = "me"
	require.NoError(t, f.settings.Update(st))

	f.addDays(t, 1, DayInput{Date: "2024-01-29"})
	inv, err := f.invoices.FromUnbilledDays(1)
	require.NoError(t, err)

	err = f.invoices.Email(context.Background(), inv, st, "pw", "fr")
	assert.ErrorIs(t, err, mailer.ErrNoRecipient)

	c := f.addClient(t, 1, "ACME", "billing@acme.test")
	inv.ClientID, inv.Client = &c.ID, c

	f.mail.err = errors.New("connection refused")
	require.Error(t, f.invoices.Email(context.Background(), inv, st, "pw", "fr"))
	assert.Equal(t, models.InvoiceStatusDraft, inv.Status)

	f.mail.err = nil
	require.NoError(t, f.invoices.Email(context.Background(), inv, st, "pw", "fr"))
	assert.Equal(t, models.InvoiceStatusSent, inv.Status)
	assert.Equal(t, "pw", f.mail.cfg.Password)
	assert.Equal(t, "smtp.example.com", f.mail.cfg.Host)
	require.Len(t, f.mail.sent, 1)
	m := f.mail.sent[0]
	assert.Equal(t, []string{"billing@acme.test"}, m.To)
	assert.Equal(t, "me@example.com", m.From)
	require.Len(t, m.Attachments, 1)
	assert.True(t, bytes.HasPrefix(m.Attachments[0].Data, []byte("%PDF-")))

	got, err := f.invoices.Get(inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusSent, got.Status)
}

func TestInvoice_EmailSentButNotSaved(t *testing.T) {
	f := newFixture(t)
	st, err := f.settings.ForUser(1)
	require.NoError(t, err)
	c := f.addClient(t, 1, "ACME", "billing@acme.test")
	inv, err := f.invoices.NewFromFile(1)
	require.NoError(t, err)
	inv.ClientID, inv.Client = &c.ID, c

	f.mail.onSend = func() { require.NoError(t, f.db.Migrator().DropTable("invoices")) }
	err = f.invoices.Email(context.Background(), inv, st, "pw", "fr")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSentNotRecorded)
	assert.Len(t, f.mail.sent, 1)
}

func TestInvoice_AttachPDF(t *testing.T) {
	f := newFixture(t)
	st, err := f.settings.ForUser(1)
	require.NoError(t, err)
	inv, err := f.invoices.NewFromFile(1)
	require.NoError(t, err)

	require.NoError(t, f.invoices.AttachPDF(inv, "scan.pdf", strings.NewReader("%PDF-uploaded")))
	assert.NotEmpty(t, inv.PDF)
	first := inv.PDF

	doc, err := f.invoices.Document(inv, st, "fr")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-uploaded", string(doc))

	require.NoError(t, f.invoices.AttachPDF(inv, "scan2.pdf", strings.NewReader("%PDF-second")))
	assert.NotEqual(t, first, inv.PDF)
	_, err = f.invoices.Media.Open(first)
	assert.Error(t, err, "replaced upload is removed")
}

func TestClient_DeleteKeepsInvoices(t *testing.T) {
	f := newFixture(t)
	c := f.addClient(t, 1, "ACME", "")
	inv, err := f.invoices.NewFromFile(1)
	require.NoError(t, err)
	inv.ClientID = &c.ID
	require.NoError(t, f.invoices.Save(inv))

	require.NoError(t, f.clients.Delete(c))
	_, err = f.clients.Get(c.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := f.invoices.Get(inv.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ClientID)
	assert.Nil(t, got.Client)
}

func TestPresent(t *testing.T) {
	st := models.DefaultSettings(1)
	day := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	cid := uint(9)
	inv := &models.Invoice{
		ID:        3,
		Number:    "20240131",
		Date:      &day,
		ClientID:  &cid,
		Client:    &models.Client{ID: 9, Name: "ACME"},
		DailyRate: dec("300"),
		Tax:       dec("20"),
		Days:      []models.Day{{Date: day}, {Date: day.AddDate(0, 0, 1), Half: true}},
	}
	inv.ComputeTotals()

	dto := Present(inv, st, "fr")
	assert.Equal(t, "31/01/2024", dto.Date)
	assert.Equal(t, "", dto.DateDue)
	assert.Equal(t, "Brouillon", dto.StatusLabel)
	assert.Equal(t, "draft", dto.StatusName)
	assert.Equal(t, "ACME", dto.ClientName)
	assert.Equal(t, "450.00", dto.Subtotal)
	assert.Equal(t, "540,00 €", dto.TotalDisplay)
	assert.Equal(t, "90,00 €", dto.TaxDisplay)
	assert.Equal(t, "1.5", dto.Units)
	assert.Equal(t, 2, dto.DayCount)
	assert.Equal(t, "/invoices/20240131", dto.URL)
	assert.Equal(t, "/invoices/20240131/pdf", dto.PDFURL)
	require.Len(t, dto.Days, 2)
	assert.Equal(t, "2024-02-01", dto.Days[1].Date)

	data := PDFData(inv, st, "fr")
	require.Len(t, data.Lines, 2)
	assert.Equal(t, "150,00 €", data.Lines[1].Amount)
	assert.Equal(t, "ACME", data.Client.Name)

	inv.Number = "2024/01 #2"
	dto = Present(inv, st, "fr")
	assert.Equal(t, "/invoices/2024%2F01%20%232", dto.URL)
	assert.Equal(t, "/invoices/2024%2F01%20%232/pdf", dto.PDFURL)
}
