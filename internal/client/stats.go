package client

import (
	"context"
	"net/http"

	"github.com/kjannette/tradejournal/internal/models"
)

// StatsService reads performance computed from closed trades.
type StatsService struct {
	c *Client
}

func (s *StatsService) Summary(ctx context.Context) (*models.TradingStats, error) {
	var out models.TradingStats
	if err := s.c.do(ctx, http.MethodGet, "/stats/summary", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EquityCurve returns the chronological balance series. Never nil.
func (s *StatsService) EquityCurve(ctx context.Context) ([]models.EquityPoint, error) {
	var out []models.EquityPoint
	if err := s.c.do(ctx, http.MethodGet, "/stats/equity_curve", nil, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.EquityPoint{}
	}
	return out, nil
}
