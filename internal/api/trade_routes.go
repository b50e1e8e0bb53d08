package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/kjannette/tradejournal/internal/datamode"
	"github.com/kjannette/tradejournal/internal/models"
	"github.com/kjannette/tradejournal/internal/repository"
	"github.com/kjannette/tradejournal/internal/risk"
)

// parseTradeQuery turns the list query string into a repository query.
func parseTradeQuery(r *http.Request) (repository.TradeQuery, error) {
	v := r.URL.Query()
	q := repository.TradeQuery{Pair: strings.TrimSpace(v.Get("pair"))}

	if st := v.Get("status"); st != "" {
		switch models.Status(strings.ToUpper(st)) {
		case models.StatusOpen, models.StatusClosed:
			q.Status = models.Status(strings.ToUpper(st))
		default:
			return q, fmt.Errorf("invalid status %q, expected OPEN|CLOSED", st)
		}
	}

	var err error
	if q.Start, err = parseDate(v.Get("start_date"), false); err != nil {
		return q, fmt.Errorf("invalid start_date: %w", err)
	}
	if q.End, err = parseDate(v.Get("end_date"), true); err != nil {
		return q, fmt.Errorf("invalid end_date: %w", err)
	}
	if q.Start != nil && q.End != nil && q.End.Before(*q.Start) {
		return q, errors.New("end_date is before start_date")
	}

	if q.Limit, err = parseNonNegative(v.Get("limit")); err != nil {
		return q, fmt.Errorf("invalid limit: %w", err)
	}
	if q.Limit > repository.MaxListLimit {
		q.Limit = repository.MaxListLimit
	}
	if q.Offset, err = parseNonNegative(v.Get("offset")); err != nil {
		return q, fmt.Errorf("invalid offset: %w", err)
	}
	return q, nil
}

// parseDate accepts RFC 3339 or YYYY-MM-DD. A bare end date covers the
// whole day.
func parseDate(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("%q is not RFC3339 or YYYY-MM-DD", s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func parseNonNegative(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%q is not a non-negative integer", s)
	}
	return n, nil
}

func tradeID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func (s *Server) testMode() bool {
	return s.mode.Get() == models.ModeTest
}

func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	q, err := parseTradeQuery(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	mode := s.mode.Get()
	if mode == models.ModeTest {
		writeJSON(w, http.StatusOK, []models.Trade{datamode.FixtureTrade()})
		return
	}

	trades, err := s.trades.List(r.Context(), currentUser(r).ID, q)
	if err != nil {
		s.internalError(w, r, err, "list trades")
		return
	}
	writeJSON(w, http.StatusOK, datamode.Filter(mode, trades))
}

func (s *Server) handleCreateTrade(w http.ResponseWriter, r *http.Request) {
	var in models.TradeInput
	if msg, ok := s.decodeAndValidate(w, r, &in); !ok {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}
	if s.testMode() {
		writeJSON(w, http.StatusOK, datamode.FixtureTrade())
		return
	}

	user := currentUser(r)
	if s.guardian != nil {
		if err := s.guardian.PreTradeCheck(r.Context(), user.ID, *in.PositionSize); err != nil {
			if errors.Is(err, risk.ErrLimitExceeded) {
				s.metrics.TradeEvent("rejected")
				writeError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			s.internalError(w, r, err, "check trade limits")
			return
		}
	}

	t, err := s.trades.Create(r.Context(), user.ID, in)
	if err != nil {
		s.internalError(w, r, err, "create trade")
		return
	}
	s.metrics.TradeEvent("created")
	s.notifier.TradeOpened(t)
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleGetTrade(w http.ResponseWriter, r *http.Request) {
	if s.testMode() {
		writeJSON(w, http.StatusOK, datamode.FixtureTrade())
		return
	}
	t, err := s.trades.Get(r.Context(), currentUser(r).ID, tradeID(r))
	if s.tradeError(w, r, err, "get trade") {
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdateTrade(w http.ResponseWriter, r *http.Request) {
	var in models.TradeInput
	if msg, ok := decodeJSON(w, r, &in); !ok {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}
	if msg := s.validateUpdate(&in); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}
	if s.testMode() {
		writeJSON(w, http.StatusOK, datamode.FixtureTrade())
		return
	}

	t, err := s.trades.Update(r.Context(), currentUser(r).ID, tradeID(r), in)
	if s.tradeError(w, r, err, "update trade") {
		return
	}
	s.metrics.TradeEvent("updated")
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	if s.testMode() {
		writeJSON(w, http.StatusOK, datamode.FixtureTrade())
		return
	}
	t, err := s.trades.Delete(r.Context(), currentUser(r).ID, tradeID(r))
	if s.tradeError(w, r, err, "delete trade") {
		return
	}
	s.metrics.TradeEvent("deleted")
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleCloseTrade(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("exit_price")
	exit, err := strconv.ParseFloat(raw, 64)
	if raw == "" || err != nil || exit <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "exit_price must be a positive number")
		return
	}
	if s.testMode() {
		writeJSON(w, http.StatusOK, datamode.FixtureTrade())
		return
	}

	t, err := s.trades.Close(r.Context(), currentUser(r).ID, tradeID(r), exit)
	if s.tradeError(w, r, err, "close trade") {
		return
	}
	s.metrics.TradeEvent("closed")
	s.notifier.TradeClosed(t)
	writeJSON(w, http.StatusOK, t)
}

// tradeError writes the response for err and reports whether it did.
func (s *Server) tradeError(w http.ResponseWriter, r *http.Request, err error, what string) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "Trade not found")
	case errors.Is(err, repository.ErrAlreadyClosed):
		writeError(w, http.StatusConflict, "Trade already closed")
	case errors.Is(err, repository.ErrExitRequired), errors.Is(err, repository.ErrExitOnOpen):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.internalError(w, r, err, what)
	}
	return true
}
