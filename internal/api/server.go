package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/kjannette/tradejournal/internal/auth"
	"github.com/kjannette/tradejournal/internal/datamode"
	"github.com/kjannette/tradejournal/internal/metrics"
	"github.com/kjannette/tradejournal/internal/models"
	"github.com/kjannette/tradejournal/internal/repository"
	"github.com/kjannette/tradejournal/internal/risk"
)

// Notifier receives trade lifecycle events. Implementations must not block.
type Notifier interface {
	TradeOpened(t *models.Trade)
	TradeClosed(t *models.Trade)
}

type nopNotifier struct{}

func (nopNotifier) TradeOpened(*models.Trade) {}
func (nopNotifier) TradeClosed(*models.Trade) {}

type Options struct {
	Port               int
	CORSOrigin         string
	AuthRateLimitRPS   float64
	AuthRateLimitBurst int
	Notifier           Notifier
	Metrics            *metrics.Registry
	// Limits refuses new trades past a size or daily count. Zero disables.
	Limits risk.Limits
	// TrustedProxies may set X-Forwarded-For. Empty means the TCP peer is
	// always the client.
	TrustedProxies []netip.Prefix
}

type Server struct {
	db             *sqlx.DB
	users          *repository.UserRepo
	trades         *repository.TradeRepo
	issuer         *auth.Issuer
	mode           *datamode.Switch
	notifier       Notifier
	metrics        *metrics.Registry
	limiter        *ipLimiter
	trustedProxies []netip.Prefix
	guardian       *risk.Guardian
	validate       *validator.Validate
	corsOrigin     string
	handler        http.Handler
	httpServer     *http.Server
}

func NewServer(d *sqlx.DB, issuer *auth.Issuer, mode *datamode.Switch, opts Options) *Server {
	s := &Server{
		db:             d,
		users:          repository.NewUserRepo(d),
		trades:         repository.NewTradeRepo(d),
		issuer:         issuer,
		mode:           mode,
		notifier:       opts.Notifier,
		metrics:        opts.Metrics,
		trustedProxies: opts.TrustedProxies,
		validate:       newValidator(),
		corsOrigin:     opts.CORSOrigin,
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if opts.Limits.Enabled() {
		s.guardian = risk.NewGuardian(opts.Limits, s.trades)
	}
	if opts.AuthRateLimitRPS > 0 {
		s.limiter = newIPLimiter(opts.AuthRateLimitRPS, opts.AuthRateLimitBurst)
	}

	router := mux.NewRouter()
	router.Use(s.metrics.Middleware)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(jsonContentTypeMiddleware)

	// Auth
	api.Handle("/auth/signup", s.rateLimited(s.handleSignup)).Methods(http.MethodPost)
	api.Handle("/auth/login", s.rateLimited(s.handleLogin)).Methods(http.MethodPost)
	api.Handle("/auth/me", s.authenticated(s.handleMe)).Methods(http.MethodGet)

	// Trades. The collection answers with and without the trailing slash.
	for _, p := range []string{"/trades", "/trades/"} {
		api.Handle(p, s.authenticated(s.handleListTrades)).Methods(http.MethodGet)
		api.Handle(p, s.authenticated(s.handleCreateTrade)).Methods(http.MethodPost)
	}
	api.Handle("/trades/{id:[0-9]+}", s.authenticated(s.handleGetTrade)).Methods(http.MethodGet)
	api.Handle("/trades/{id:[0-9]+}", s.authenticated(s.handleUpdateTrade)).Methods(http.MethodPut)
	api.Handle("/trades/{id:[0-9]+}", s.authenticated(s.handleDeleteTrade)).Methods(http.MethodDelete)
	api.Handle("/trades/{id:[0-9]+}/close", s.authenticated(s.handleCloseTrade)).Methods(http.MethodPatch)

	// Stats
	api.Handle("/stats/summary", s.authenticated(s.handleStatsSummary)).Methods(http.MethodGet)
	api.Handle("/stats/equity_curve", s.authenticated(s.handleEquityCurve)).Methods(http.MethodGet)

	// Data mode (operational, no auth)
	api.HandleFunc("/system/mode", s.handleGetMode).Methods(http.MethodGet)
	api.HandleFunc("/system/mode", s.handleSetMode).Methods(http.MethodPost)

	s.handler = requestIDMiddleware(loggingMiddleware(corsMiddleware(router, s.corsOrigin)))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      s.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Start() error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("journal API listening")
	log.Info().Str("url", "http://localhost"+s.httpServer.Addr+"/api/v1").Msg("API base")
	if s.limiter == nil {
		log.Warn().Msg("auth rate limiting disabled")
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

// writeError answers with the {"detail": msg} body the client expects.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error, what string) {
	log.Error().Err(err).Str("request_id", requestID(r.Context())).Msg(what)
	writeError(w, http.StatusInternalServerError, "internal error")
}
