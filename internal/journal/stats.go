package journal

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kjannette/tradejournal/internal/models"
)

// Summarize aggregates closed trades. Open trades are ignored. A trade
// without a USD result counts toward the total but is neither a win nor a loss.
func Summarize(trades []models.Trade) models.TradingStats {
	var (
		total, wins, losses int
		profit, rrSum       = decimal.Zero, decimal.Zero
	)
	for _, t := range trades {
		if t.Status != models.StatusClosed {
			continue
		}
		total++
		if t.ResultUSD != nil {
			usd := decimal.NewFromFloat(*t.ResultUSD)
			profit = profit.Add(usd)
			if usd.IsPositive() {
				wins++
			} else {
				losses++
			}
		}
		if t.RiskReward != nil {
			rrSum = rrSum.Add(decimal.NewFromFloat(*t.RiskReward))
		}
	}

	s := models.TradingStats{
		TotalTrades:   total,
		WinningTrades: wins,
		LosingTrades:  losses,
	}
	s.TotalProfit, _ = profit.Round(2).Float64()
	if total > 0 {
		n := decimal.NewFromInt(int64(total))
		s.WinRate, _ = decimal.NewFromInt(int64(wins)).Div(n).Mul(decimal.NewFromInt(100)).Round(2).Float64()
		s.AvgRiskReward, _ = rrSum.Div(n).Round(2).Float64()
	}
	return s
}

// EquityCurve returns the running balance, starting from zero, with one
// point per closed trade in closing order.
func EquityCurve(trades []models.Trade) []models.EquityPoint {
	closed := make([]models.Trade, 0, len(trades))
	for _, t := range trades {
		if t.Status == models.StatusClosed && t.ClosedAt != nil {
			closed = append(closed, t)
		}
	}
	sort.SliceStable(closed, func(i, j int) bool {
		return closed[i].ClosedAt.Before(*closed[j].ClosedAt)
	})

	out := make([]models.EquityPoint, 0, len(closed))
	balance := decimal.Zero
	for _, t := range closed {
		if t.ResultUSD != nil {
			balance = balance.Add(decimal.NewFromFloat(*t.ResultUSD))
		}
		b, _ := balance.Round(2).Float64()
		out = append(out, models.EquityPoint{
			Date:    t.ClosedAt.UTC().Format(time.RFC3339),
			Balance: b,
		})
	}
	return out
}
