package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/diewo77/freelance/gate"
	"github.com/diewo77/freelance/httpx"
	"github.com/diewo77/freelance/internal/metrics"
	"github.com/diewo77/freelance/internal/models"
	"github.com/diewo77/freelance/internal/services"
	"github.com/diewo77/freelance/validation"
	"github.com/diewo77/freelance/view"
)

const maxUploadSize = 10 << 20

// InvoiceHandler serves the invoice pages and the invoice JSON API.
type InvoiceHandler struct {
	invoices *services.InvoiceService
	clients  *services.ClientService
	settings *services.SettingsService
	gate     Authorizer
}

func NewInvoiceHandler(invoices *services.InvoiceService, clients *services.ClientService, settings *services.SettingsService, g Authorizer) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, clients: clients, settings: settings, gate: g}
}

type statusOption struct {
	Value int
	Label string
}

// List: GET /invoices
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	uid := currentUser(r)
	st, err := h.settings.ForUser(uid)
	if err != nil {
		failHTML(w, r, err)
		return
	}
	invs, err := h.invoices.List(uid)
	if err != nil {
		failHTML(w, r, err)
		return
	}
	view.Render(w, r, "invoice_list.html", map[string]any{
		"Invoices": services.PresentAll(invs, st, currentLang(r)),
	})
}

// New: GET /invoices/new creates an invoice from unbilled days, or an empty one with
// ?from=file, then redirects to it. Without unbilled days the user is sent to the calendar.
func (h *InvoiceHandler) New(w http.ResponseWriter, r *http.Request) {
	uid := currentUser(r)
	var (
		inv *models.Invoice
		err error
	)
	if r.URL.Query().Get("from") == "file" {
		inv, err = h.invoices.NewFromFile(uid)
	} else {
		inv, err = h.invoices.FromUnbilledDays(uid)
	}
	if errors.Is(err, services.ErrNoUnbilledDays) {
		http.Redirect(w, r, "/calendar?empty", http.StatusSeeOther)
		return
	}
	if err != nil {
		failHTML(w, r, err)
		return
	}
	metrics.RecordInvoiceEvent("created")
	zerolog.Ctx(r.Context()).Info().Str("number", inv.Number).Int("days", len(inv.Days)).Msg("invoice created")
	http.Redirect(w, r, inv.Path(), http.StatusSeeOther)
}

// Show: GET /invoices/{number}; ?delete removes the invoice.
func (h *InvoiceHandler) Show(w http.ResponseWriter, r *http.Request) {
	uid := currentUser(r)
	inv, err := h.invoices.GetByNumber(uid, r.PathValue("number"))
	if err != nil {
		failHTML(w, r, err)
		return
	}
	if hasKey(r.URL.Query(), "delete") {
		if err := h.invoices.Delete(inv); err != nil {
			failHTML(w, r, err)
			return
		}
		metrics.RecordInvoiceEvent("deleted")
		http.Redirect(w, r, "/invoices", http.StatusSeeOther)
		return
	}
	st, err := h.settings.ForUser(uid)
	if err != nil {
		failHTML(w, r, err)
		return
	}
	clients, err := h.clients.List(uid)
	if err != nil {
		failHTML(w, r, err)
		return
	}
	lang := currentLang(r)
	statuses := make([]statusOption, 0, 4)
	for s := models.InvoiceStatusDraft; s <= models.InvoiceStatusPaid; s++ {
		statuses = append(statuses, statusOption{Value: int(s), Label: s.Label(lang)})
	}
	var clientID uint
	if inv.ClientID != nil {
		clientID = *inv.ClientID
	}
	view.Render(w, r, "invoice.html", map[string]any{
		"Invoice":    services.Present(inv, st, lang),
		"Clients":    clients,
		"ClientID":   clientID,
		"Statuses":   statuses,
		"DateFormat": st.FormatDate(time.Now()),
	})
}

// PDF: GET /invoices/{number}/pdf
func (h *InvoiceHandler) PDF(w http.ResponseWriter, r *http.Request) {
	uid := currentUser(r)
	inv, err := h.invoices.GetByNumber(uid, r.PathValue("number"))
	if err != nil {
		failHTML(w, r, err)
		return
	}
	st, err := h.settings.ForUser(uid)
	if err != nil {
		failHTML(w, r, err)
		return
	}
	doc, err := h.invoices.Document(inv, st, currentLang(r))
	if err != nil {
		failHTML(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+inv.Number+`.pdf"`)
	w.Write(doc)
}

// load fetches the invoice named by {id} and checks the request user may perform action.
func (h *InvoiceHandler) load(w http.ResponseWriter, r *http.Request, action gate.Action) (*models.Invoice, bool) {
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return nil, false
	}
	inv, err := h.invoices.Get(id)
	if err != nil {
		fail(w, r, err)
		return nil, false
	}
	if err := h.gate.Authorize(r.Context(), action, ResourceInvoice, inv); err != nil {
		fail(w, r, err)
		return nil, false
	}
	return inv, true
}

// Get: GET /api/invoices/{id}
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r, gate.ActionView)
	if !ok {
		return
	}
	st, err := h.settings.ForUser(inv.UserID)
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, services.Present(inv, st, currentLang(r)))
}

type emailRequest struct {
	Password string `json:"password"`
}

// Update: PUT /api/invoices/{id}. The body is a field mapping; ?save validates and marks
// the invoice saved; ?email sends it with the SMTP password given in the body.
func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	emailing := hasKey(q, "email")
	action := gate.ActionUpdate
	if emailing {
		action = gate.ActionSend
	}
	inv, ok := h.load(w, r, action)
	if !ok {
		return
	}
	st, err := h.settings.ForUser(inv.UserID)
	if err != nil {
		fail(w, r, err)
		return
	}
	lang := currentLang(r)
	log := zerolog.Ctx(r.Context())

	switch {
	case emailing:
		var req emailRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		err := h.invoices.Email(r.Context(), inv, st, req.Password, lang)
		if errors.Is(err, services.ErrSentNotRecorded) {
			log.Error().Err(err).Str("number", inv.Number).Msg("invoice sent but status not saved")
			metrics.RecordInvoiceEvent("sent")
			httpx.JSONError(w, http.StatusInternalServerError, "sent_not_saved", nil)
			return
		}
		if err != nil {
			log.Error().Err(err).Str("number", inv.Number).Msg("invoice email failed")
			metrics.RecordInvoiceEvent("email_failed")
			httpx.JSONError(w, http.StatusInternalServerError, "Error sending email", nil)
			return
		}
		metrics.RecordInvoiceEvent("sent")
	case hasKey(q, "save"):
		if err := h.invoices.MarkSaved(inv); err != nil {
			fail(w, r, err)
			return
		}
		if err := h.invoices.Save(inv); err != nil {
			fail(w, r, err)
			return
		}
		metrics.RecordInvoiceEvent("saved")
	default:
		var fields map[string]any
		if !decodeJSON(w, r, &fields) {
			return
		}
		if err := h.invoices.Apply(inv.UserID, inv, fields, st); err != nil {
			fail(w, r, err)
			return
		}
		if err := h.invoices.Save(inv); err != nil {
			fail(w, r, err)
			return
		}
	}
	httpx.JSON(w, http.StatusOK, services.Present(inv, st, lang))
}

// Upload: POST /api/invoices/{id} with a multipart "pdf" file.
func (h *InvoiceHandler) Upload(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("pdf")
	if err != nil {
		httpx.ValidationError(w, validation.Errors{"pdf": {"required"}})
		return
	}
	defer file.Close()
	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != ".pdf" {
		httpx.ValidationError(w, validation.Errors{"pdf": {"invalid_choice"}})
		return
	}
	if err := h.invoices.AttachPDF(inv, header.Filename, file); err != nil {
		fail(w, r, err)
		return
	}
	st, err := h.settings.ForUser(inv.UserID)
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, services.Present(inv, st, currentLang(r)))
}

// Delete: DELETE /api/invoices/{id}
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r, gate.ActionDelete)
	if !ok {
		return
	}
	if err := h.invoices.Delete(inv); err != nil {
		fail(w, r, err)
		return
	}
	metrics.RecordInvoiceEvent("deleted")
	httpx.NoContent(w)
}

func hasKey(q url.Values, key string) bool {
	_, ok := q[key]
	return ok
}
