package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/freelance/gate"
	"github.com/diewo77/freelance/internal/models"
	"github.com/diewo77/freelance/internal/services"
	"github.com/diewo77/freelance/validation"
	"github.com/diewo77/freelance/view"
)

type ClientHandler struct {
	clients *services.ClientService
	gate    Authorizer
}

func NewClientHandler(clients *services.ClientService, g Authorizer) *ClientHandler {
	return &ClientHandler{clients: clients, gate: g}
}

// List: GET /clients
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clients.List(currentUser(r))
	if err != nil {
		failHTML(w, r, err)
		return
	}
	view.Render(w, r, "client_list.html", map[string]any{"Clients": clients})
}

// New: GET shows the empty form, POST creates the client.
func (h *ClientHandler) New(w http.ResponseWriter, r *http.Request) {
	c := &models.Client{UserID: currentUser(r)}
	if r.Method == http.MethodGet {
		view.Render(w, r, "client.html", map[string]any{"Client": c})
		return
	}
	h.save(w, r, c)
}

// Edit: GET /clients/{id} shows the form (or deletes with ?delete), POST updates.
func (h *ClientHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	c, err := h.clients.Get(id)
	if err != nil {
		failHTML(w, r, err)
		return
	}
	action := gate.ActionView
	if r.Method == http.MethodPost {
		action = gate.ActionUpdate
	}
	deleting := hasKey(r.URL.Query(), "delete")
	if deleting {
		action = gate.ActionDelete
	}
	if err := h.gate.Authorize(r.Context(), action, ResourceClient, c); err != nil {
		failHTML(w, r, err)
		return
	}

	switch {
	case deleting:
		if err := h.clients.Delete(c); err != nil {
			failHTML(w, r, err)
			return
		}
		http.Redirect(w, r, "/clients", http.StatusSeeOther)
	case r.Method == http.MethodPost:
		h.save(w, r, c)
	default:
		view.Render(w, r, "client.html", map[string]any{"Client": c})
	}
}

func (h *ClientHandler) save(w http.ResponseWriter, r *http.Request, c *models.Client) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	field := func(name string) string { return strings.TrimSpace(r.PostFormValue(name)) }
	c.Name = field("name")
	c.Contact = field("contact")
	c.Email = field("email")
	c.Phone = field("phone")
	c.Address = field("address")
	c.PostalCode = field("postal_code")
	c.City = field("city")
	c.Country = field("country")
	c.VATNumber = field("vat_number")

	if err := h.clients.Save(c); err != nil {
		var ve validation.Errors
		if errors.As(err, &ve) {
			w.WriteHeader(http.StatusBadRequest)
			view.Render(w, r, "client.html", map[string]any{"Client": c, "Errors": ve})
			return
		}
		failHTML(w, r, err)
		return
	}
	http.Redirect(w, r, "/clients/"+strconv.FormatUint(uint64(c.ID), 10), http.StatusSeeOther)
}
