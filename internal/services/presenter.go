package services

import (
	"github.com/diewo77/freelance/internal/models"
	"github.com/diewo77/freelance/internal/pdf"
)

// InvoiceDTO is the serialized invoice shared by the JSON API and the templates.
type InvoiceDTO struct {
	ID          uint   `json:"id"`
	Number      string `json:"number"`
	Status      int    `json:"status"`
	StatusName  string `json:"status_name"`
	StatusLabel string `json:"status_label"`
	CreatedFrom int    `json:"created_from"`

	Client      *uint  `json:"client"`
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
	Description string `json:"description"`

	Date     string `json:"date"`
	DateDue  string `json:"date_due"`
	DatePaid string `json:"date_paid"`

	DailyRate string `json:"daily_rate"`
	Tax       string `json:"tax"`
	Subtotal  string `json:"subtotal"`
	Total     string `json:"total"`

	DailyRateDisplay string `json:"daily_rate_display"`
	SubtotalDisplay  string `json:"subtotal_display"`
	TaxDisplay       string `json:"tax_display"`
	TotalDisplay     string `json:"total_display"`

	Units    string   `json:"units"`
	DayCount int      `json:"day_count"`
	Days     []DayDTO `json:"days"`

	URL       string `json:"url"`
	PDFURL    string `json:"pdf_url"`
	HasUpload bool   `json:"has_upload"`
	UpdatedAt string `json:"updated_at"`
}

// Present formats inv with the user's settings.
func Present(inv *models.Invoice, st *models.Settings, lang string) InvoiceDTO {
	dto := InvoiceDTO{
		ID:          inv.ID,
		Number:      inv.Number,
		Status:      int(inv.Status),
		StatusName:  inv.Status.String(),
		StatusLabel: inv.Status.Label(lang),
		CreatedFrom: int(inv.CreatedFrom),
		Client:      inv.ClientID,
		Description: inv.Description,

		Date:     st.FormatDatePtr(inv.Date),
		DateDue:  st.FormatDatePtr(inv.DateDue),
		DatePaid: st.FormatDatePtr(inv.DatePaid),

		DailyRate: inv.DailyRate.StringFixed(2),
		Tax:       inv.Tax.String(),
		Subtotal:  inv.Subtotal.StringFixed(2),
		Total:     inv.Total.StringFixed(2),

		DailyRateDisplay: st.FormatMoney(inv.DailyRate),
		SubtotalDisplay:  st.FormatMoney(inv.Subtotal),
		TaxDisplay:       st.FormatMoney(inv.TaxAmount()),
		TotalDisplay:     st.FormatMoney(inv.Total),

		Units:    inv.Units().String(),
		DayCount: len(inv.Days),
		Days:     PresentDays(inv.Days),

		URL:       inv.Path(),
		PDFURL:    inv.Path() + "/pdf",
		HasUpload: inv.PDF != "",
		UpdatedAt: st.FormatDate(inv.UpdatedAt),
	}
	if inv.Client != nil {
		dto.ClientName = inv.Client.Name
		dto.ClientEmail = inv.Client.Email
	}
	return dto
}

// PresentAll formats a list of invoices.
func PresentAll(invs []models.Invoice, st *models.Settings, lang string) []InvoiceDTO {
	out := make([]InvoiceDTO, 0, len(invs))
	for i := range invs {
		out = append(out, Present(&invs[i], st, lang))
	}
	return out
}

// PDFData maps inv to the document renderer's input.
func PDFData(inv *models.Invoice, st *models.Settings, lang string) pdf.InvoiceData {
	data := pdf.InvoiceData{
		Lang:        lang,
		Number:      inv.Number,
		Date:        st.FormatDatePtr(inv.Date),
		DateDue:     st.FormatDatePtr(inv.DateDue),
		Sender:      pdf.Party{Name: st.Name, Address: st.Address, Email: st.Email},
		Description: inv.Description,
		Subtotal:    st.FormatMoney(inv.Subtotal),
		Tax:         st.FormatMoney(inv.TaxAmount()),
		TaxRate:     inv.Tax.String(),
		Total:       st.FormatMoney(inv.Total),
	}
	if inv.Client != nil {
		data.Client = pdf.Party{Name: inv.Client.Name, Address: inv.Client.FullAddress(), Email: inv.Client.Email}
	}
	for _, d := range inv.Days {
		data.Lines = append(data.Lines, pdf.Line{
			Date:   st.FormatDate(d.Date),
			Half:   d.Half,
			Amount: st.FormatMoney(inv.DailyRate.Mul(d.Units())),
		})
	}
	return data
}
