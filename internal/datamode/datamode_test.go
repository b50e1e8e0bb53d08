package datamode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjannette/tradejournal/internal/models"
)

func TestSwitch(t *testing.T) {
	s, err := NewSwitch(models.ModeReal)
	require.NoError(t, err)
	assert.Equal(t, models.ModeReal, s.Get())

	require.NoError(t, s.Set("SEED"))
	assert.Equal(t, models.ModeSeed, s.Get())

	assert.Error(t, s.Set("live"))
	assert.Equal(t, models.ModeSeed, s.Get(), "invalid mode keeps the previous one")

	_, err = NewSwitch("bogus")
	assert.Error(t, err)
}

func TestFilter(t *testing.T) {
	trades := []models.Trade{
		{Pair: "EURUSD"}, {Pair: "XAU/USD"}, {Pair: "TEST/USD"}, {Pair: "xauusd"},
	}

	visible := Filter(models.ModeReal, trades)
	require.Len(t, visible, 1)
	assert.Equal(t, "EURUSD", visible[0].Pair)

	seed := Filter(models.ModeSeed, trades)
	assert.Len(t, seed, 2)

	assert.Len(t, Filter(models.ModeTest, trades), 4)
	assert.NotNil(t, Filter(models.ModeReal, nil))
}

func TestFixtures(t *testing.T) {
	assert.Equal(t, "TEST/USD", FixtureTrade().Pair)
	assert.Equal(t, 9999.99, FixtureStats(models.ModeTest).TotalProfit)
	assert.NotEqual(t, 9999.99, FixtureStats(models.ModeSeed).TotalProfit)
	assert.Nil(t, FixtureStats(models.ModeReal))
	assert.Equal(t, "testuser@example.com", FixtureUser(models.ModeTest).Email)
	assert.Nil(t, FixtureUser(models.ModeReal))
	assert.Len(t, FixtureEquity(models.ModeSeed), 2)
	assert.Nil(t, FixtureEquity(models.ModeReal))
}
