package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/diewo77/freelance/auth"
	"github.com/diewo77/freelance/gate"
	"github.com/diewo77/freelance/httpx"
	"github.com/diewo77/freelance/i18n"
	"github.com/diewo77/freelance/internal/services"
	"github.com/diewo77/freelance/validation"
)

// Resource type names checked by the Authorizer.
const (
	ResourceInvoice = "invoice"
	ResourceClient  = "client"
)

const maxJSONBody = 1 << 20

// Authorizer decides whether the request user may act on a resource.
type Authorizer interface {
	Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error
}

func currentUser(r *http.Request) uint {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

func currentLang(r *http.Request) string {
	return i18n.LangFromContext(r.Context())
}

func pathID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return false
	}
	return true
}

// fail maps an error to a JSON response.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var ve validation.Errors
	switch {
	case errors.As(err, &ve):
		httpx.ValidationError(w, ve)
	case errors.Is(err, services.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, gate.ErrUnauthorized):
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

// failHTML maps an error to a plain HTTP error page.
func failHTML(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		http.NotFound(w, r)
	case errors.Is(err, gate.ErrUnauthorized):
		http.Error(w, "Forbidden", http.StatusForbidden)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
