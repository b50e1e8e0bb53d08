// Package metrics exposes the journal API's Prometheus instruments.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	TradeEvents     *prometheus.CounterVec
	AuthFailures    *prometheus.CounterVec
	RateLimited     prometheus.Counter
}

func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradejournal_http_requests_total",
				Help: "HTTP requests by method, route template and status code",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradejournal_http_request_duration_seconds",
				Help:    "HTTP request latency by method and route template",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"method", "route"},
		),
		TradeEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradejournal_trade_events_total",
				Help: "Trade writes by event (created, updated, closed, deleted)",
			},
			[]string{"event"},
		),
		AuthFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradejournal_auth_failures_total",
				Help: "Rejected authentications by reason",
			},
			[]string{"reason"},
		),
		RateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tradejournal_rate_limited_total",
				Help: "Requests rejected by the auth rate limiter",
			},
		),
	}
	r.reg.MustRegister(
		r.Requests, r.RequestDuration, r.TradeEvents, r.AuthFailures, r.RateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

func (r *Registry) TradeEvent(event string) {
	r.TradeEvents.WithLabelValues(event).Inc()
}

func (r *Registry) AuthFailure(reason string) {
	r.AuthFailures.WithLabelValues(reason).Inc()
}

// Middleware records request counts and latency labelled by the matched
// mux route template, so /trades/1 and /trades/2 share a series.
func (r *Registry) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		sw := &StatusWriter{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(sw, req)

		route := "unmatched"
		if cr := mux.CurrentRoute(req); cr != nil {
			if tpl, err := cr.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		r.Requests.WithLabelValues(req.Method, route, strconv.Itoa(sw.Status)).Inc()
		r.RequestDuration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
	})
}

// StatusWriter remembers the status code written through it.
type StatusWriter struct {
	http.ResponseWriter
	Status int
}

func (w *StatusWriter) WriteHeader(code int) {
	w.Status = code
	w.ResponseWriter.WriteHeader(code)
}
