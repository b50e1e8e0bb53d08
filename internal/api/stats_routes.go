package api

import (
	"net/http"

	"github.com/kjannette/tradejournal/internal/datamode"
	"github.com/kjannette/tradejournal/internal/journal"
	"github.com/kjannette/tradejournal/internal/models"
)

func (s *Server) closedTrades(r *http.Request) ([]models.Trade, error) {
	trades, err := s.trades.Closed(r.Context(), currentUser(r).ID)
	if err != nil {
		return nil, err
	}
	return datamode.Filter(models.ModeReal, trades), nil
}

func (s *Server) handleStatsSummary(w http.ResponseWriter, r *http.Request) {
	if st := datamode.FixtureStats(s.mode.Get()); st != nil {
		writeJSON(w, http.StatusOK, st)
		return
	}
	trades, err := s.closedTrades(r)
	if err != nil {
		s.internalError(w, r, err, "load closed trades")
		return
	}
	writeJSON(w, http.StatusOK, journal.Summarize(trades))
}

func (s *Server) handleEquityCurve(w http.ResponseWriter, r *http.Request) {
	if pts := datamode.FixtureEquity(s.mode.Get()); pts != nil {
		writeJSON(w, http.StatusOK, pts)
		return
	}
	trades, err := s.closedTrades(r)
	if err != nil {
		s.internalError(w, r, err, "load closed trades")
		return
	}
	writeJSON(w, http.StatusOK, journal.EquityCurve(trades))
}
