package models

import "time"

type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

type Trade struct {
	ID           int64      `json:"id" db:"id"`
	UserID       int64      `json:"-" db:"user_id"`
	Pair         string     `json:"pair" db:"pair"`
	Direction    Direction  `json:"direction" db:"direction"`
	EntryPrice   float64    `json:"entry_price" db:"entry_price"`
	ExitPrice    *float64   `json:"exit_price,omitempty" db:"exit_price"`
	StopLoss     float64    `json:"stop_loss" db:"stop_loss"`
	TakeProfit   float64    `json:"take_profit" db:"take_profit"`
	PositionSize float64    `json:"position_size" db:"position_size"`
	Notes        *string    `json:"notes,omitempty" db:"notes"`
	Screenshot   *string    `json:"screenshot,omitempty" db:"screenshot"`
	Status       Status     `json:"status" db:"status"`
	OpenedAt     time.Time  `json:"opened_at" db:"opened_at"`
	ClosedAt     *time.Time `json:"closed_at,omitempty" db:"closed_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	RiskReward   *float64   `json:"risk_reward,omitempty" db:"risk_reward"`
	ResultPips   *float64   `json:"result_pips,omitempty" db:"result_pips"`
	ResultUSD    *float64   `json:"result_usd,omitempty" db:"result_usd"`
}

// TradeInput is a partial trade. Nil fields are absent from the JSON body,
// so the server can tell "not sent" from zero.
type TradeInput struct {
	Pair         *string    `json:"pair,omitempty" validate:"required,min=1,max=32"`
	Direction    *Direction `json:"direction,omitempty" validate:"omitempty,oneof=BUY SELL"`
	EntryPrice   *float64   `json:"entry_price,omitempty" validate:"required,gt=0"`
	ExitPrice    *float64   `json:"exit_price,omitempty" validate:"omitempty,gt=0"`
	StopLoss     *float64   `json:"stop_loss,omitempty" validate:"required,gt=0"`
	TakeProfit   *float64   `json:"take_profit,omitempty" validate:"omitempty,gte=0"`
	PositionSize *float64   `json:"position_size,omitempty" validate:"required,gt=0"`
	Notes        *string    `json:"notes,omitempty"`
	Screenshot   *string    `json:"screenshot,omitempty"`
	Status       *Status    `json:"status,omitempty" validate:"omitempty,oneof=OPEN CLOSED"`
	OpenedAt     *time.Time `json:"opened_at,omitempty"`
}

// TradeFilter holds the optional list parameters for GET /trades/.
type TradeFilter struct {
	Pair      string
	Status    string
	StartDate string
	EndDate   string
	Limit     int
	Offset    int
}

type TradingStats struct {
	TotalProfit   float64 `json:"total_profit"`
	WinRate       float64 `json:"win_rate"`
	AvgRiskReward float64 `json:"avg_risk_reward"`
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
}

type EquityPoint struct {
	Date    string  `json:"date"`
	Balance float64 `json:"balance"`
}
