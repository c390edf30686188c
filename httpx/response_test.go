package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/diewo77/freelance/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationErrorBody(t *testing.T) {
	w := httptest.NewRecorder()
	v := validation.Errors{}
	v.Add("tax", "out_of_range")
	v.Add("client", "required")
	ValidationError(w, v)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body struct {
		Errors []FieldErrors `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Errors, 2)
	assert.Equal(t, "client", body.Errors[0].Field)
	assert.Equal(t, []string{"required"}, body.Errors[0].Errors)
	assert.Equal(t, "tax", body.Errors[1].Field)
}

func TestJSONNilPayload(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusOK, nil)
	assert.Equal(t, "null", w.Body.String())
}

func TestWantsJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Accept", "application/json")
	assert.True(t, WantsJSON(r))
	r.Header.Set("Accept", "text/html,application/json")
	assert.False(t, WantsJSON(r))
}
