package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsByRouteTemplate(t *testing.T) {
	reg := New()
	r := mux.NewRouter()
	r.Use(reg.Middleware)
	r.HandleFunc("/trades/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, p := range []string{"/trades/1", "/trades/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(reg.Requests.WithLabelValues("GET", "/trades/{id}", "404")))
}

func TestHandlerExposesCounters(t *testing.T) {
	reg := New()
	reg.TradeEvent("created")
	reg.AuthFailure("bad_credentials")
	reg.RateLimited.Inc()

	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `tradejournal_trade_events_total{event="created"} 1`))
	assert.True(t, strings.Contains(body, `tradejournal_auth_failures_total{reason="bad_credentials"} 1`))
	assert.True(t, strings.Contains(body, "tradejournal_rate_limited_total 1"))
}
