package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjannette/tradejournal/internal/auth"
	"github.com/kjannette/tradejournal/internal/datamode"
	"github.com/kjannette/tradejournal/internal/metrics"
	"github.com/kjannette/tradejournal/internal/models"
	"github.com/kjannette/tradejournal/internal/repository"
	"github.com/kjannette/tradejournal/internal/testutil"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func newTestServer(t *testing.T) *Server {
	t.Helper()
	d := testutil.SetupDB(t)
	mode, err := datamode.NewSwitch(models.ModeReal)
	require.NoError(t, err)
	return NewServer(d, auth.NewIssuer("test-secret", time.Hour), mode, Options{Metrics: metrics.New()})
}

func decodeDetail(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body["detail"]
}

func TestAuthenticated_MissingHeader(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.authenticated(okHandler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/trades/", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Bearer", rr.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "Not authenticated", decodeDetail(t, rr))
}

func TestAuthenticated_MalformedBearer(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/trades/", nil)
	req.Header.Set("Authorization", "Basic secret123")
	rr := httptest.NewRecorder()
	s.authenticated(okHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthenticated_BadSignature(t *testing.T) {
	s := newTestServer(t)
	tok, err := auth.NewIssuer("other-secret", time.Hour).Issue("a@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/trades/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	s.authenticated(okHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Could not validate credentials", decodeDetail(t, rr))
}

func TestAuthenticated_UnknownUser(t *testing.T) {
	s := newTestServer(t)
	tok, err := s.issuer.Issue("ghost@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/trades/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	s.authenticated(okHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthenticated_PutsUserInContext(t *testing.T) {
	s := newTestServer(t)
	u := testutil.CreateUser(t, s.db, "ctx@example.com")
	tok, err := s.issuer.Issue(u.Email)
	require.NoError(t, err)

	var got *models.User
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = currentUser(r)
	})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/trades/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	s.authenticated(inner).ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
}

func TestRateLimited(t *testing.T) {
	s := newTestServer(t)
	s.limiter = newIPLimiter(0.001, 2)

	codes := make([]int, 0, 3)
	for _i := 0; _i < 3; _i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		rr := httptest.NewRecorder()
		s.rateLimited(okHandler).ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	other := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	other.RemoteAddr = "198.51.100.1:5000"
	rr := httptest.NewRecorder()
	s.rateLimited(okHandler).ServeHTTP(rr, other)
	assert.Equal(t, http.StatusOK, rr.Code, "buckets are per IP")
}

func TestClientIP_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	s := newTestServer(t)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.7:1234"
	assert.Equal(t, "203.0.113.7", s.clientIP(r))

	r.Header.Set("X-Forwarded-For", "10.9.9.9")
	assert.Equal(t, "203.0.113.7", s.clientIP(r))
}

func TestClientIP_TrustedProxy(t *testing.T) {
	s := newTestServer(t)
	proxies, err := ParseTrustedProxies("10.0.0.0/8, 192.168.1.5")
	require.NoError(t, err)
	s.trustedProxies = proxies

	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"no header", "10.0.0.1:1234", "", "10.0.0.1"},
		{"single hop", "10.0.0.1:1234", "203.0.113.9", "203.0.113.9"},
		{"rightmost untrusted hop wins", "10.0.0.1:1234", "1.2.3.4, 203.0.113.9", "203.0.113.9"},
		{"skips trusted hops", "192.168.1.5:80", "198.51.100.2, 10.1.1.1", "198.51.100.2"},
		{"all hops trusted", "10.0.0.1:1234", "10.2.2.2", "10.0.0.1"},
		{"untrusted peer", "198.51.100.7:1234", "203.0.113.9", "198.51.100.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, s.clientIP(r))
		})
	}
}

func TestParseTrustedProxies(t *testing.T) {
	got, err := ParseTrustedProxies("")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = ParseTrustedProxies("10.1.2.3/8,::1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "10.0.0.0/8", got[0].String())
	assert.Equal(t, "::1/128", got[1].String())

	_, err = ParseTrustedProxies("10.0.0.0/8,not-an-ip")
	assert.ErrorContains(t, err, "not-an-ip")
}

func TestRateLimited_RotatingForwardedFor(t *testing.T) {
	s := newTestServer(t)
	s.limiter = newIPLimiter(0.001, 2)

	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.9.9.%d", i))
		rr := httptest.NewRecorder()
		s.rateLimited(okHandler).ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{200, 200, 429, 429, 429}, codes)
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rr.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", seen)
}

func TestCorsMiddleware_Headers(t *testing.T) {
	rr := httptest.NewRecorder()
	corsMiddleware(okHandler, "https://journal.example.com").ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/trades/", nil))

	assert.Equal(t, "https://journal.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestCorsMiddleware_Preflight(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("inner handler should not be called for OPTIONS")
	})
	rr := httptest.NewRecorder()
	corsMiddleware(inner, "").ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/api/v1/trades/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestParseTradeQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/trades/?pair=EURUSD&status=closed&start_date=2025-01-01&end_date=2025-01-31&limit=5000&offset=10", nil)
	q, err := parseTradeQuery(r)
	require.NoError(t, err)
	assert.Equal(t, "EURUSD", q.Pair)
	assert.Equal(t, models.StatusClosed, q.Status)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), *q.Start)
	assert.Equal(t, time.Date(2025, 1, 31, 23, 59, 59, 999999999, time.UTC), *q.End)
	assert.Equal(t, repository.MaxListLimit, q.Limit)
	assert.Equal(t, 10, q.Offset)

	r = httptest.NewRequest(http.MethodGet, "/trades/?start_date=2025-02-01T10:00:00Z", nil)
	q, err = parseTradeQuery(r)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC), q.Start.UTC())

	for _, bad := range []string{
		"status=PENDING", "start_date=01-02-2025", "end_date=yesterday",
		"limit=-1", "limit=ten", "offset=-3",
		"start_date=2025-02-01&end_date=2025-01-01",
	} {
		_, err := parseTradeQuery(httptest.NewRequest(http.MethodGet, "/trades/?"+bad, nil))
		assert.Error(t, err, bad)
	}
}

func TestValidateUpdate(t *testing.T) {
	s := newTestServer(t)

	notes := "only notes"
	assert.Empty(t, s.validateUpdate(&models.TradeInput{Notes: &notes}))

	empty, neg := "", -1.0
	msg := s.validateUpdate(&models.TradeInput{Pair: &empty, EntryPrice: &neg})
	assert.Contains(t, msg, "pair must be at least 1 characters")
	assert.Contains(t, msg, "entry_price must be greater than 0")

	dir := models.Direction("LONG")
	assert.Contains(t, s.validateUpdate(&models.TradeInput{Direction: &dir}), "direction must be one of [BUY SELL]")
}
