package handlers

import (
	"net/http"
	"time"

	"github.com/diewo77/freelance/httpx"
	"github.com/diewo77/freelance/internal/services"
	"github.com/diewo77/freelance/view"
)

type DayHandler struct {
	days *services.DayService
}

func NewDayHandler(days *services.DayService) *DayHandler {
	return &DayHandler{days: days}
}

// Calendar: GET /calendar. Days are loaded by the page through the JSON API.
func (h *DayHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if _, err := time.Parse("2006-01", month); err != nil {
		month = time.Now().Format("2006-01")
	}
	view.Render(w, r, "calendar.html", map[string]any{
		"Month":  month,
		"NoDays": hasKey(r.URL.Query(), "empty"),
	})
}

// List: GET /api/days
func (h *DayHandler) List(w http.ResponseWriter, r *http.Request) {
	days, err := h.days.List(currentUser(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, services.PresentDays(days))
}

// Create: POST /api/days with [{"date","half"}]; answers with the days actually written.
func (h *DayHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in []services.DayInput
	if !decodeJSON(w, r, &in) {
		return
	}
	days, err := h.days.Upsert(currentUser(r), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, services.PresentDays(days))
}

// Delete: DELETE /api/days with [{"date"}]
func (h *DayHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var in []services.DayInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := h.days.Delete(currentUser(r), in); err != nil {
		fail(w, r, err)
		return
	}
	httpx.NoContent(w)
}
