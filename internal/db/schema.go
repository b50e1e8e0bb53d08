package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	name            TEXT NOT NULL DEFAULT '',
	email           TEXT NOT NULL UNIQUE,
	hashed_password TEXT NOT NULL,
	created_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id       INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	pair          TEXT NOT NULL,
	direction     TEXT NOT NULL,
	entry_price   REAL NOT NULL,
	exit_price    REAL,
	stop_loss     REAL NOT NULL,
	take_profit   REAL NOT NULL DEFAULT 0,
	position_size REAL NOT NULL,
	notes         TEXT,
	screenshot    TEXT,
	status        TEXT NOT NULL,
	opened_at     DATETIME NOT NULL,
	closed_at     DATETIME,
	created_at    DATETIME NOT NULL,
	updated_at    DATETIME NOT NULL,
	risk_reward   REAL,
	result_pips   REAL,
	result_usd    REAL
);

CREATE INDEX IF NOT EXISTS idx_trades_user_opened ON trades(user_id, opened_at);
CREATE INDEX IF NOT EXISTS idx_trades_user_closed ON trades(user_id, status, closed_at);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id              BIGSERIAL PRIMARY KEY,
	name            TEXT NOT NULL DEFAULT '',
	email           TEXT NOT NULL UNIQUE,
	hashed_password TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	id            BIGSERIAL PRIMARY KEY,
	user_id       BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	pair          TEXT NOT NULL,
	direction     TEXT NOT NULL,
	entry_price   DOUBLE PRECISION NOT NULL,
	exit_price    DOUBLE PRECISION,
	stop_loss     DOUBLE PRECISION NOT NULL,
	take_profit   DOUBLE PRECISION NOT NULL DEFAULT 0,
	position_size DOUBLE PRECISION NOT NULL,
	notes         TEXT,
	screenshot    TEXT,
	status        TEXT NOT NULL,
	opened_at     TIMESTAMPTZ NOT NULL,
	closed_at     TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL,
	risk_reward   DOUBLE PRECISION,
	result_pips   DOUBLE PRECISION,
	result_usd    DOUBLE PRECISION
);

CREATE INDEX IF NOT EXISTS idx_trades_user_opened ON trades(user_id, opened_at);
CREATE INDEX IF NOT EXISTS idx_trades_user_closed ON trades(user_id, status, closed_at);
`

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, d *sqlx.DB) error {
	schema := sqliteSchema
	if d.DriverName() == "pgx" {
		schema = postgresSchema
	}
	if _, err := d.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
