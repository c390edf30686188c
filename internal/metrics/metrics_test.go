package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                       "/",
		"/":                      "/",
		"/invoices":              "/invoices",
		"/invoices/20240105":     "/invoices/:id",
		"/invoices/20240105/pdf": "/invoices/:id/pdf",
		"/api/invoices/12":       "/api/invoices/:id",
		"/api/days":              "/api/days",
		"/static/app.js":         "/static",
	}
	for in, want := range cases {
		assert.Equal(t, want, canonicalPath(in), in)
	}
}

func TestInstrumentHandler(t *testing.T) {
	h := InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/clients/:id", "418"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/clients/3", nil))
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/clients/:id", "418"))
	assert.Equal(t, before+1, after)
}

func TestHandlerExposesInvoiceEvents(t *testing.T) {
	RecordInvoiceEvent("created")
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `freelance_invoices_events_total{event="created"}`))
}
