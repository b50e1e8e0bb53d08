package risk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCounter struct {
	count int
	err   error

	userID int64
	since  time.Time
}

func (m *mockCounter) CountCreatedSince(_ context.Context, userID int64, since time.Time) (int, error) {
	m.userID, m.since = userID, since
	return m.count, m.err
}

func TestPositionSize(t *testing.T) {
	g := NewGuardian(Limits{MaxPositionSize: 100000}, &mockCounter{})

	assert.NoError(t, g.PreTradeCheck(context.Background(), 1, 100000))

	err := g.PreTradeCheck(context.Background(), 1, 100001)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLimitExceeded)
	assert.Contains(t, err.Error(), "position size 100001 is above the maximum of 100000")
}

func TestDisabledWhenZero(t *testing.T) {
	c := &mockCounter{count: 1000}
	g := NewGuardian(Limits{}, c)
	assert.False(t, Limits{}.Enabled())
	assert.NoError(t, g.PreTradeCheck(context.Background(), 1, 1e12))
	assert.Zero(t, c.userID, "counter must not be consulted")
}

func TestDailyTrades(t *testing.T) {
	c := &mockCounter{count: 4}
	g := NewGuardian(Limits{MaxDailyTrades: 5}, c)
	g.now = func() time.Time { return time.Date(2025, 3, 14, 15, 30, 0, 0, time.UTC) }

	require.NoError(t, g.PreTradeCheck(context.Background(), 7, 1000))
	assert.Equal(t, int64(7), c.userID)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), c.since)

	c.count = 5
	err := g.PreTradeCheck(context.Background(), 7, 1000)
	assert.ErrorIs(t, err, ErrLimitExceeded)
	assert.Contains(t, err.Error(), "daily limit of 5 trades reached")
}

func TestCounterError(t *testing.T) {
	g := NewGuardian(Limits{MaxDailyTrades: 5}, &mockCounter{err: errors.New("db down")})
	err := g.PreTradeCheck(context.Background(), 1, 1000)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLimitExceeded)
	assert.Contains(t, err.Error(), "db down")
}
