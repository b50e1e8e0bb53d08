package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"API_PORT", "DB_DRIVER", "DATA_MODE", "SQLITE_DB", "ACCESS_TOKEN_EXPIRE_MINUTES"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.APIPort)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "real", cfg.DataMode)
	assert.Equal(t, 1440, cfg.AccessTokenExpireMinutes)
	assert.Equal(t, "./trading_journal.db", cfg.DSN())
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9001")
	t.Setenv("DB_DRIVER", "POSTGRES")
	t.Setenv("DB_USER", "journal")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "tj")
	t.Setenv("DATA_MODE", "Seed")
	t.Setenv("AUTH_RATE_LIMIT_RPS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9001, cfg.APIPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "seed", cfg.DataMode)
	assert.Equal(t, 5.0, cfg.AuthRateLimitRPS)
	assert.Equal(t, "postgres://journal:pw@localhost:5432/tj?sslmode=disable", cfg.DSN())
	assert.NoError(t, cfg.Validate())
}

func TestValidateErrors(t *testing.T) {
	cfg := &Config{DBDriver: "mysql", DataMode: "live", AccessTokenExpireMinutes: 0}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DRIVER")
	assert.Contains(t, err.Error(), "DATA_MODE")
	assert.Contains(t, err.Error(), "ACCESS_TOKEN_EXPIRE_MINUTES")
}

func TestLoadClientURLPrecedence(t *testing.T) {
	t.Setenv("JOURNAL_API_URL", "")
	t.Setenv("VITE_API_URL", "")
	assert.Equal(t, DefaultAPIURL, LoadClient().APIURL)

	t.Setenv("VITE_API_URL", "http://vite.example/api/v1/")
	assert.Equal(t, "http://vite.example/api/v1", LoadClient().APIURL)

	t.Setenv("JOURNAL_API_URL", "http://journal.example/api/v1")
	assert.Equal(t, "http://journal.example/api/v1", LoadClient().APIURL)
}

func TestLoadClientSessionFile(t *testing.T) {
	t.Setenv("JOURNAL_SESSION_FILE", "/tmp/tj/session.yaml")
	assert.Equal(t, "/tmp/tj/session.yaml", LoadClient().SessionFile)
}

func TestTradeLimits(t *testing.T) {
	t.Setenv("MAX_DAILY_TRADES", "20")
	t.Setenv("MAX_POSITION_SIZE", "250000")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.MaxDailyTrades)
	assert.Equal(t, 250000.0, cfg.MaxPositionSize)

	cfg.MaxDailyTrades = -1
	assert.ErrorContains(t, cfg.Validate(), "MAX_DAILY_TRADES")
}

func TestTrustedProxies(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,127.0.0.1")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.0/8,127.0.0.1", cfg.TrustedProxies)
}
