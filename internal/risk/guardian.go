// Package risk enforces optional per-user trading limits when a trade is logged.
package risk

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrLimitExceeded marks a trade the configured limits refuse.
var ErrLimitExceeded = errors.New("trade limit exceeded")

// TradeCounter reports how many trades a user logged since a point in time.
type TradeCounter interface {
	CountCreatedSince(ctx context.Context, userID int64, since time.Time) (int, error)
}

// Limits are the per-user trade thresholds. Zero turns a check off.
type Limits struct {
	MaxDailyTrades  int
	MaxPositionSize float64
}

func (l Limits) Enabled() bool {
	return l.MaxDailyTrades > 0 || l.MaxPositionSize > 0
}

type Guardian struct {
	limits  Limits
	counter TradeCounter
	now     func() time.Time
}

func NewGuardian(limits Limits, counter TradeCounter) *Guardian {
	return &Guardian{limits: limits, counter: counter, now: time.Now}
}

// PreTradeCheck returns nil if the user may log a trade of the given size.
// A refusal wraps ErrLimitExceeded. The daily count resets at midnight UTC.
func (g *Guardian) PreTradeCheck(ctx context.Context, userID int64, positionSize float64) error {
	if g.limits.MaxPositionSize > 0 && positionSize > g.limits.MaxPositionSize {
		return fmt.Errorf("%w: position size %s is above the maximum of %s",
			ErrLimitExceeded, units(positionSize), units(g.limits.MaxPositionSize))
	}

	if g.limits.MaxDailyTrades > 0 && g.counter != nil {
		midnight := g.now().UTC().Truncate(24 * time.Hour)
		count, err := g.counter.CountCreatedSince(ctx, userID, midnight)
		if err != nil {
			return fmt.Errorf("count today's trades: %w", err)
		}
		if count >= g.limits.MaxDailyTrades {
			return fmt.Errorf("%w: daily limit of %d trades reached",
				ErrLimitExceeded, g.limits.MaxDailyTrades)
		}
	}

	return nil
}

func units(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
