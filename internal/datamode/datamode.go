// Package datamode implements the server-side dataset switch. In test mode
// the API answers with fixtures, in seed mode with the demo gold trades, and
// in real mode with the user's own journal.
package datamode

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kjannette/tradejournal/internal/models"
)

type Switch struct {
	v atomic.Value
}

func NewSwitch(initial models.DataMode) (*Switch, error) {
	s := &Switch{}
	if err := s.Set(initial); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Switch) Get() models.DataMode {
	return s.v.Load().(models.DataMode)
}

func (s *Switch) Set(m models.DataMode) error {
	m = models.DataMode(strings.ToLower(string(m)))
	switch m {
	case models.ModeTest, models.ModeSeed, models.ModeReal:
		s.v.Store(m)
		return nil
	default:
		return fmt.Errorf("invalid data mode %q, expected test|seed|real", m)
	}
}

// Visible reports whether a stored trade belongs to the dataset of mode m.
// Seed mode shows only the gold demo trades; real mode hides fixtures and demo trades.
func Visible(m models.DataMode, pair string) bool {
	p := strings.ToUpper(pair)
	switch m {
	case models.ModeSeed:
		return strings.Contains(p, "XAU")
	case models.ModeReal:
		return !strings.Contains(p, "TEST") && !strings.Contains(p, "XAU")
	default:
		return true
	}
}

// Filter keeps the trades visible in mode m. The result is never nil.
func Filter(m models.DataMode, trades []models.Trade) []models.Trade {
	out := make([]models.Trade, 0, len(trades))
	for _, t := range trades {
		if Visible(m, t.Pair) {
			out = append(out, t)
		}
	}
	return out
}

var fixtureDay = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func f(v float64) *float64 { return &v }

// FixtureTrade is returned by every trade endpoint in test mode.
func FixtureTrade() models.Trade {
	now := time.Now().UTC()
	notes := "Test trade"
	return models.Trade{
		ID:           1,
		Pair:         "TEST/USD",
		Direction:    models.Buy,
		EntryPrice:   1.0,
		ExitPrice:    f(1.1),
		StopLoss:     0.9,
		TakeProfit:   1.2,
		PositionSize: 1000,
		Notes:        &notes,
		Status:       models.StatusOpen,
		OpenedAt:     now,
		ClosedAt:     &now,
		CreatedAt:    now,
		UpdatedAt:    now,
		RiskReward:   f(1.5),
		ResultPips:   f(10),
		ResultUSD:    f(100),
	}
}

func FixtureUser(m models.DataMode) *models.User {
	switch m {
	case models.ModeTest:
		return &models.User{ID: 1, Name: "Test User", Email: "testuser@example.com", CreatedAt: fixtureDay}
	case models.ModeSeed:
		return &models.User{ID: 2, Name: "Seed User", Email: "seeduser@example.com", CreatedAt: fixtureDay}
	}
	return nil
}

// FixtureStats returns the canned summary for test and seed modes, nil for real.
func FixtureStats(m models.DataMode) *models.TradingStats {
	switch m {
	case models.ModeTest:
		return &models.TradingStats{
			TotalProfit: 9999.99, WinRate: 100, AvgRiskReward: 5,
			TotalTrades: 1, WinningTrades: 1, LosingTrades: 0,
		}
	case models.ModeSeed:
		return &models.TradingStats{
			TotalProfit: 5000, WinRate: 80, AvgRiskReward: 3,
			TotalTrades: 10, WinningTrades: 8, LosingTrades: 2,
		}
	}
	return nil
}

func FixtureEquity(m models.DataMode) []models.EquityPoint {
	switch m {
	case models.ModeTest:
		return []models.EquityPoint{{Date: "2025-01-01", Balance: 10000}, {Date: "2025-01-02", Balance: 11000}}
	case models.ModeSeed:
		return []models.EquityPoint{{Date: "2025-01-01", Balance: 5000}, {Date: "2025-01-02", Balance: 6000}}
	}
	return nil
}
