package httpx

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/diewo77/freelance/validation"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// FieldErrors is one entry of the 400 error list.
type FieldErrors struct {
	Field  string   `json:"field"`
	Errors []string `json:"errors"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			// best-effort error response; avoid writing partial JSON
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// nothing we can do at this point
		_ = err
	}
}

func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// NoContent writes a bare 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// ValidationError writes {"errors":[{"field":..,"errors":[..]}]} with status 400.
func ValidationError(w http.ResponseWriter, v validation.Errors) {
	list := make([]FieldErrors, 0, len(v))
	for _, f := range v.Fields() {
		list = append(list, FieldErrors{Field: f, Errors: v[f]})
	}
	JSON(w, http.StatusBadRequest, map[string]any{"errors": list})
}

// WantsJSON reports whether the client prefers a JSON answer over HTML.
func WantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}
