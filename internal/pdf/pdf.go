// Package pdf renders invoices as PDF documents.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/diewo77/freelance/i18n"
)

// Party is a name and a postal address printed in a header block.
type Party struct {
	Name    string
	Address string
	Email   string
}

// Line is one billed day. Values are already formatted for display.
type Line struct {
	Date   string
	Half   bool
	Amount string
}

// InvoiceData is everything printed on an invoice, formatted with the user's settings.
type InvoiceData struct {
	Lang        string
	Number      string
	Date        string
	DateDue     string
	Sender      Party
	Client      Party
	Description string
	Lines       []Line
	Subtotal    string
	Tax         string // formatted tax amount
	TaxRate     string // e.g. "20"
	Total       string
}

// InvoicePDF renders data as an A4 document.
func InvoicePDF(data InvoiceData) ([]byte, error) {
	t := func(code string) string { return i18n.T(data.Lang, code) }

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(t("pdf.invoice")+" "+data.Number), false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(95, 6, tr(data.Sender.Name))
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	if data.Sender.Address != "" {
		pdf.MultiCell(95, 5, tr(data.Sender.Address), "", "L", false)
	}
	if data.Sender.Email != "" {
		pdf.Cell(95, 5, tr(data.Sender.Email))
		pdf.Ln(5)
	}
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(190, 10, tr(fmt.Sprintf("%s %s", t("pdf.invoice"), data.Number)))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	if data.Date != "" {
		pdf.Cell(190, 5, tr(t("pdf.date")+": "+data.Date))
		pdf.Ln(5)
	}
	if data.DateDue != "" {
		pdf.Cell(190, 5, tr(t("pdf.due")+": "+data.DateDue))
		pdf.Ln(5)
	}
	pdf.Ln(6)

	if data.Client.Name != "" {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(95, 7, tr(t("pdf.bill_to")+":"))
		pdf.Ln(7)
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(95, 5, tr(data.Client.Name))
		pdf.Ln(5)
		if data.Client.Address != "" {
			pdf.MultiCell(95, 5, tr(data.Client.Address), "", "L", false)
		}
		pdf.Ln(6)
	}

	if data.Description != "" {
		pdf.MultiCell(190, 5, tr(data.Description), "", "L", false)
		pdf.Ln(4)
	}

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(40, 8, tr(t("pdf.date")), "1", 0, "C", false, 0, "")
	pdf.CellFormat(110, 8, tr(t("pdf.day")), "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 8, tr(t("pdf.amount")), "1", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, l := range data.Lines {
		kind := t("pdf.full_day")
		if l.Half {
			kind = t("pdf.half_day")
		}
		pdf.CellFormat(40, 7, tr(l.Date), "1", 0, "L", false, 0, "")
		pdf.CellFormat(110, 7, tr(kind), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, tr(l.Amount), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 11)
	total := func(label, value string) {
		pdf.CellFormat(150, 8, tr(label), "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 8, tr(value), "", 1, "R", false, 0, "")
	}
	total(t("pdf.subtotal")+":", data.Subtotal)
	total(fmt.Sprintf("%s (%s%%):", t("pdf.tax"), data.TaxRate), data.Tax)
	pdf.SetFont("Arial", "B", 12)
	total(t("pdf.total")+":", data.Total)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}
