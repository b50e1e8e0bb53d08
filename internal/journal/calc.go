// Package journal holds the server-side trade arithmetic: risk/reward,
// realised pips and USD, and the aggregate statistics built from them.
package journal

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kjannette/tradejournal/internal/models"
)

var (
	standardPip = decimal.New(1, -4)
	jpyPip      = decimal.New(1, -2)
)

// PipSize returns the pip increment for a pair. Yen-quoted pairs move in
// hundredths, everything else in ten-thousandths.
func PipSize(pair string) decimal.Decimal {
	p := strings.ToUpper(strings.ReplaceAll(pair, "/", ""))
	if strings.HasSuffix(p, "JPY") {
		return jpyPip
	}
	return standardPip
}

func sign(d models.Direction) decimal.Decimal {
	if d == models.Sell {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// PlannedRiskReward is |take_profit - entry| / |entry - stop_loss|.
// Returns nil when no target is set or the stop sits on the entry.
func PlannedRiskReward(t *models.Trade) *float64 {
	if t.TakeProfit == 0 {
		return nil
	}
	entry := decimal.NewFromFloat(t.EntryPrice)
	risk := entry.Sub(decimal.NewFromFloat(t.StopLoss)).Abs()
	if risk.IsZero() {
		return nil
	}
	reward := decimal.NewFromFloat(t.TakeProfit).Sub(entry).Abs()
	return f64(reward.Div(risk).Round(2))
}

// move is the signed price distance from entry to exit in the trade's favour.
func move(t *models.Trade) (decimal.Decimal, bool) {
	if t.ExitPrice == nil {
		return decimal.Zero, false
	}
	d := decimal.NewFromFloat(*t.ExitPrice).Sub(decimal.NewFromFloat(t.EntryPrice))
	return d.Mul(sign(t.Direction)), true
}

func RealizedRiskReward(t *models.Trade) *float64 {
	m, ok := move(t)
	if !ok {
		return nil
	}
	risk := decimal.NewFromFloat(t.EntryPrice).Sub(decimal.NewFromFloat(t.StopLoss)).Abs()
	if risk.IsZero() {
		return nil
	}
	return f64(m.Div(risk).Round(2))
}

func ResultPips(t *models.Trade) *float64 {
	m, ok := move(t)
	if !ok {
		return nil
	}
	return f64(m.Div(PipSize(t.Pair)).Round(1))
}

func ResultUSD(t *models.Trade) *float64 {
	m, ok := move(t)
	if !ok {
		return nil
	}
	return f64(m.Mul(decimal.NewFromFloat(t.PositionSize)).Round(2))
}

// Derive fills the computed fields of t. Open trades carry the planned
// risk/reward only; closed trades carry the realised figures.
func Derive(t *models.Trade) {
	if t.Status == models.StatusClosed && t.ExitPrice != nil {
		t.RiskReward = RealizedRiskReward(t)
		t.ResultPips = ResultPips(t)
		t.ResultUSD = ResultUSD(t)
		return
	}
	t.RiskReward = PlannedRiskReward(t)
	t.ResultPips = nil
	t.ResultUSD = nil
}

func f64(d decimal.Decimal) *float64 {
	v, _ := d.Float64()
	return &v
}
