package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kjannette/tradejournal/internal/journal"
	"github.com/kjannette/tradejournal/internal/models"
)

const tradeColumns = `id, user_id, pair, direction, entry_price, exit_price, stop_loss,
	take_profit, position_size, notes, screenshot, status, opened_at, closed_at,
	created_at, updated_at, risk_reward, result_pips, result_usd`

// MaxListLimit caps a single page of trades.
const MaxListLimit = 1000

type TradeRepo struct {
	db *sqlx.DB
}

func NewTradeRepo(db *sqlx.DB) *TradeRepo {
	return &TradeRepo{db: db}
}

// TradeQuery is the parsed form of a list request.
type TradeQuery struct {
	Pair   string
	Status models.Status
	Start  *time.Time
	End    *time.Time
	Limit  int
	Offset int
}

// Create records a new OPEN trade for the user from a validated input.
func (r *TradeRepo) Create(ctx context.Context, userID int64, in models.TradeInput) (*models.Trade, error) {
	now := time.Now().UTC()
	t := models.Trade{
		UserID:    userID,
		Direction: models.Buy,
		Status:    models.StatusOpen,
		OpenedAt:  now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	apply(&t, in)
	t.Status = models.StatusOpen
	t.ExitPrice = nil
	journal.Derive(&t)

	err := r.db.QueryRowxContext(ctx, r.db.Rebind(
		`INSERT INTO trades
		 (user_id, pair, direction, entry_price, exit_price, stop_loss, take_profit,
		  position_size, notes, screenshot, status, opened_at, closed_at,
		  created_at, updated_at, risk_reward, result_pips, result_usd)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		 RETURNING id`),
		t.UserID, t.Pair, t.Direction, t.EntryPrice, t.ExitPrice, t.StopLoss, t.TakeProfit,
		t.PositionSize, t.Notes, t.Screenshot, t.Status, t.OpenedAt, t.ClosedAt,
		t.CreatedAt, t.UpdatedAt, t.RiskReward, t.ResultPips, t.ResultUSD,
	).Scan(&t.ID)
	if err != nil {
		return nil, fmt.Errorf("insert trade: %w", err)
	}
	return &t, nil
}

func (r *TradeRepo) Get(ctx context.Context, userID, id int64) (*models.Trade, error) {
	var t models.Trade
	err := r.db.GetContext(ctx, &t, r.db.Rebind(
		`SELECT `+tradeColumns+` FROM trades WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return nil, notFound(err)
	}
	normalize(&t)
	return &t, nil
}

// List returns the user's trades, newest first. Never returns a nil slice.
func (r *TradeRepo) List(ctx context.Context, userID int64, q TradeQuery) ([]models.Trade, error) {
	query, args := buildListQuery(userID, q)

	var out []models.Trade
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	if out == nil {
		out = []models.Trade{}
	}
	for i := range out {
		normalize(&out[i])
	}
	return out, nil
}

// CountCreatedSince counts the trades the user logged at or after since.
func (r *TradeRepo) CountCreatedSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(
		`SELECT COUNT(*) FROM trades WHERE user_id = ? AND created_at >= ?`), userID, since.UTC())
	if err != nil {
		return 0, fmt.Errorf("count trades: %w", err)
	}
	return n, nil
}

// Closed returns the user's closed trades in closing order.
func (r *TradeRepo) Closed(ctx context.Context, userID int64) ([]models.Trade, error) {
	var out []models.Trade
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(
		`SELECT `+tradeColumns+` FROM trades
		 WHERE user_id = ? AND status = ?
		 ORDER BY closed_at ASC, id ASC`), userID, models.StatusClosed)
	if err != nil {
		return nil, fmt.Errorf("closed trades: %w", err)
	}
	for i := range out {
		normalize(&out[i])
	}
	return out, nil
}

// Update applies the non-nil fields of in and recomputes derived values.
func (r *TradeRepo) Update(ctx context.Context, userID, id int64, in models.TradeInput) (*models.Trade, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var t models.Trade
	err = tx.GetContext(ctx, &t, tx.Rebind(
		`SELECT `+tradeColumns+` FROM trades WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return nil, notFound(err)
	}
	normalize(&t)

	apply(&t, in)
	switch t.Status {
	case models.StatusOpen:
		if in.ExitPrice != nil {
			return nil, ErrExitOnOpen
		}
		t.ExitPrice = nil
		t.ClosedAt = nil
	case models.StatusClosed:
		if t.ExitPrice == nil {
			return nil, ErrExitRequired
		}
		if t.ClosedAt == nil {
			now := time.Now().UTC()
			t.ClosedAt = &now
		}
	}
	t.UpdatedAt = time.Now().UTC()
	journal.Derive(&t)

	if _, err := r.save(ctx, tx, &t, ""); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &t, nil
}

// Close marks an OPEN trade as CLOSED at exitPrice.
func (r *TradeRepo) Close(ctx context.Context, userID, id int64, exitPrice float64) (*models.Trade, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var t models.Trade
	err = tx.GetContext(ctx, &t, tx.Rebind(
		`SELECT `+tradeColumns+` FROM trades WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return nil, notFound(err)
	}
	normalize(&t)
	if t.Status == models.StatusClosed {
		return nil, ErrAlreadyClosed
	}

	now := time.Now().UTC()
	t.ExitPrice = &exitPrice
	t.ClosedAt = &now
	t.Status = models.StatusClosed
	t.UpdatedAt = now
	journal.Derive(&t)

	// a concurrent close may have committed since the SELECT
	n, err := r.save(ctx, tx, &t, models.StatusOpen)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrAlreadyClosed
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &t, nil
}

// Delete removes the trade and returns it as it was.
func (r *TradeRepo) Delete(ctx context.Context, userID, id int64) (*models.Trade, error) {
	t, err := r.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		`DELETE FROM trades WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return nil, fmt.Errorf("delete trade: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return t, nil
}

// save writes every mutable column of t. A non-empty onlyIf adds a status
// predicate, and the caller checks the returned row count.
func (r *TradeRepo) save(ctx context.Context, tx *sqlx.Tx, t *models.Trade, onlyIf models.Status) (int64, error) {
	query := `UPDATE trades SET
		   pair = ?, direction = ?, entry_price = ?, exit_price = ?, stop_loss = ?,
		   take_profit = ?, position_size = ?, notes = ?, screenshot = ?, status = ?,
		   opened_at = ?, closed_at = ?, updated_at = ?,
		   risk_reward = ?, result_pips = ?, result_usd = ?
		 WHERE id = ? AND user_id = ?`
	args := []any{
		t.Pair, t.Direction, t.EntryPrice, t.ExitPrice, t.StopLoss,
		t.TakeProfit, t.PositionSize, t.Notes, t.Screenshot, t.Status,
		t.OpenedAt, t.ClosedAt, t.UpdatedAt,
		t.RiskReward, t.ResultPips, t.ResultUSD,
		t.ID, t.UserID,
	}
	if onlyIf != "" {
		query += ` AND status = ?`
		args = append(args, onlyIf)
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("update trade: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update trade: %w", err)
	}
	return n, nil
}

func buildListQuery(userID int64, q TradeQuery) (string, []any) {
	var b strings.Builder
	b.WriteString(`SELECT ` + tradeColumns + ` FROM trades WHERE user_id = ?`)
	args := []any{userID}

	if q.Pair != "" {
		b.WriteString(" AND pair = ?")
		args = append(args, q.Pair)
	}
	if q.Status != "" {
		b.WriteString(" AND status = ?")
		args = append(args, q.Status)
	}
	if q.Start != nil {
		b.WriteString(" AND opened_at >= ?")
		args = append(args, q.Start.UTC())
	}
	if q.End != nil {
		b.WriteString(" AND opened_at <= ?")
		args = append(args, q.End.UTC())
	}
	b.WriteString(" ORDER BY opened_at DESC, id DESC")

	limit := q.Limit
	if limit <= 0 && q.Offset > 0 {
		// SQLite rejects OFFSET without LIMIT
		limit = MaxListLimit
	}
	if limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, limit)
	}
	if q.Offset > 0 {
		b.WriteString(" OFFSET ?")
		args = append(args, q.Offset)
	}
	return b.String(), args
}

func apply(t *models.Trade, in models.TradeInput) {
	if in.Pair != nil {
		t.Pair = strings.TrimSpace(*in.Pair)
	}
	if in.Direction != nil {
		t.Direction = *in.Direction
	}
	if in.EntryPrice != nil {
		t.EntryPrice = *in.EntryPrice
	}
	if in.ExitPrice != nil {
		t.ExitPrice = in.ExitPrice
	}
	if in.StopLoss != nil {
		t.StopLoss = *in.StopLoss
	}
	if in.TakeProfit != nil {
		t.TakeProfit = *in.TakeProfit
	}
	if in.PositionSize != nil {
		t.PositionSize = *in.PositionSize
	}
	if in.Notes != nil {
		t.Notes = in.Notes
	}
	if in.Screenshot != nil {
		t.Screenshot = in.Screenshot
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.OpenedAt != nil {
		t.OpenedAt = in.OpenedAt.UTC()
	}
}

// normalize puts scanned timestamps in UTC regardless of driver.
func normalize(t *models.Trade) {
	t.OpenedAt = t.OpenedAt.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	if t.ClosedAt != nil {
		c := t.ClosedAt.UTC()
		t.ClosedAt = &c
	}
}
