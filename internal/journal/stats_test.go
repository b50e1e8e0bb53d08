package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjannette/tradejournal/internal/models"
)

func closedTrade(usd, rr float64, at time.Time) models.Trade {
	return models.Trade{
		Status:     models.StatusClosed,
		ResultUSD:  ptr(usd),
		RiskReward: ptr(rr),
		ClosedAt:   ptr(at),
	}
}

func TestSummarize(t *testing.T) {
	day := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	trades := []models.Trade{
		closedTrade(100, 2, day),
		closedTrade(-50, -1, day.Add(time.Hour)),
		closedTrade(25.5, 0.5, day.Add(2*time.Hour)),
		{Status: models.StatusOpen, RiskReward: ptr(3.0)},
	}

	s := Summarize(trades)
	assert.Equal(t, 3, s.TotalTrades)
	assert.Equal(t, 2, s.WinningTrades)
	assert.Equal(t, 1, s.LosingTrades)
	assert.Equal(t, 75.5, s.TotalProfit)
	assert.Equal(t, 66.67, s.WinRate)
	assert.Equal(t, 0.5, s.AvgRiskReward)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, models.TradingStats{}, s)
}

func TestSummarizeBreakevenIsLoss(t *testing.T) {
	s := Summarize([]models.Trade{closedTrade(0, 0, time.Now())})
	assert.Equal(t, 0, s.WinningTrades)
	assert.Equal(t, 1, s.LosingTrades)
	assert.Equal(t, 0.0, s.WinRate)
}

func TestEquityCurveChronological(t *testing.T) {
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	trades := []models.Trade{
		closedTrade(-20, -1, day.Add(48*time.Hour)),
		closedTrade(100, 2, day),
		closedTrade(30, 1, day.Add(24*time.Hour)),
		{Status: models.StatusOpen},
	}

	curve := EquityCurve(trades)
	require.Len(t, curve, 3)
	assert.Equal(t, "2025-01-01T00:00:00Z", curve[0].Date)
	assert.Equal(t, 100.0, curve[0].Balance)
	assert.Equal(t, 130.0, curve[1].Balance)
	assert.Equal(t, 110.0, curve[2].Balance)
}

func TestEquityCurveEmptyIsNotNil(t *testing.T) {
	curve := EquityCurve(nil)
	assert.NotNil(t, curve)
	assert.Empty(t, curve)
}
