package handlers

import (
	"net/http"
	"time"

	"github.com/diewo77/freelance/internal/models"
	"github.com/diewo77/freelance/internal/services"
	"github.com/diewo77/freelance/view"
)

// recentWindow bounds the "last edited" list on the home page.
const recentWindow = 90 * 24 * time.Hour

type HomeHandler struct {
	invoices *services.InvoiceService
	settings *services.SettingsService
}

func NewHomeHandler(invoices *services.InvoiceService, settings *services.SettingsService) *HomeHandler {
	return &HomeHandler{invoices: invoices, settings: settings}
}

// Home shows recently edited invoices, drafts, saved invoices and the money status.
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	uid, lang := currentUser(r), currentLang(r)
	st, err := h.settings.ForUser(uid)
	if err != nil {
		failHTML(w, r, err)
		return
	}
	recent, err := h.invoices.RecentlyUpdated(uid, time.Now().Add(-recentWindow))
	if err != nil {
		failHTML(w, r, err)
		return
	}
	drafts, err := h.invoices.ByStatus(uid, models.InvoiceStatusDraft)
	if err != nil {
		failHTML(w, r, err)
		return
	}
	saved, err := h.invoices.ByStatus(uid, models.InvoiceStatusSaved)
	if err != nil {
		failHTML(w, r, err)
		return
	}
	ms, err := h.invoices.MoneyStatus(uid)
	if err != nil {
		failHTML(w, r, err)
		return
	}
	view.Render(w, r, "home.html", map[string]any{
		"Recent": services.PresentAll(recent, st, lang),
		"Drafts": services.PresentAll(drafts, st, lang),
		"Saved":  services.PresentAll(saved, st, lang),
		"Money": map[string]string{
			"Paid":   st.FormatMoney(ms.Paid),
			"Unpaid": st.FormatMoney(ms.Unpaid),
			"Unsent": st.FormatMoney(ms.Unsent),
		},
	})
}
