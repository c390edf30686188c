package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/diewo77/freelance/internal/models"
	"github.com/diewo77/freelance/internal/services"
	"github.com/diewo77/freelance/validation"
	"github.com/diewo77/freelance/view"
)

var (
	exampleAmount = decimal.RequireFromString("1234.56")
	exampleDate   = time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)
)

type SettingsHandler struct {
	settings *services.SettingsService
}

func NewSettingsHandler(settings *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Edit shows the settings form.
func (h *SettingsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	st, err := h.settings.ForUser(currentUser(r))
	if err != nil {
		failHTML(w, r, err)
		return
	}
	h.render(w, r, st, nil, hasKey(r.URL.Query(), "saved"))
}

// Update saves the settings form.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	st, err := h.settings.ForUser(currentUser(r))
	if err != nil {
		failHTML(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	v := make(validation.Errors)
	field := func(name string) string { return strings.TrimSpace(r.PostFormValue(name)) }
	money := func(name string) decimal.Decimal {
		d, err := decimal.NewFromString(strings.ReplaceAll(field(name), ",", "."))
		if err != nil {
			v.Add(name, "invalid_number")
		}
		return d
	}

	st.DefaultDailyRate = money("default_daily_rate")
	st.DefaultTax = money("default_tax")
	st.DateFormat = field("date_format")
	st.CurrencySymbol = field("currency_symbol")
	st.SymbolBefore = r.PostFormValue("symbol_before") != ""
	st.DecimalSeparator = r.PostFormValue("decimal_separator")
	st.ThousandsSeparator = r.PostFormValue("thousands_separator")
	st.Name = field("name")
	st.Address = field("address")
	st.Email = field("email")
	st.SMTPHost = field("smtp_host")
	st.SMTPUsername = field("smtp_username")
	if port := field("smtp_port"); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			v.Add("smtp_port", "invalid_number")
		}
		st.SMTPPort = n
	}

	if v.Empty() {
		err = h.settings.Update(st)
		if err == nil {
			http.Redirect(w, r, "/settings?saved", http.StatusSeeOther)
			return
		}
		if !errors.As(err, &v) {
			failHTML(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusBadRequest)
	h.render(w, r, st, v, false)
}

func (h *SettingsHandler) render(w http.ResponseWriter, r *http.Request, st *models.Settings, errs validation.Errors, saved bool) {
	view.Render(w, r, "settings.html", map[string]any{
		"Settings":            st,
		"Errors":              errs,
		"Saved":               saved,
		"Example":             st.FormatMoney(exampleAmount) + " / " + st.FormatDate(exampleDate),
		"DecimalSeparators":   models.DecimalSeparators,
		"ThousandsSeparators": models.ThousandsSeparators,
	})
}
