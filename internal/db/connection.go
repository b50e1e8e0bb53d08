package db

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// Connect opens a pool for the given driver ("sqlite" or "postgres"),
// pings it and applies the schema.
func Connect(driver, dsn string) (*sqlx.DB, error) {
	name, err := driverName(driver)
	if err != nil {
		return nil, err
	}
	if name == "sqlite3" {
		dsn = sqliteDSN(dsn)
	}

	d, err := sqlx.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if name == "sqlite3" {
		// one writer keeps SQLite from returning SQLITE_BUSY under concurrent requests
		d.SetMaxOpenConns(1)
	} else {
		d.SetMaxOpenConns(20)
		d.SetMaxIdleConns(2)
		d.SetConnMaxIdleTime(30 * time.Second)
		d.SetConnMaxLifetime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := d.PingContext(ctx); err != nil {
		d.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	if err := Migrate(ctx, d); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func TestConnection(d *sqlx.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var one int
	if err := d.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("test query: %w", err)
	}
	log.Info().Str("driver", d.DriverName()).Msg("database connection successful")
	return nil
}

func driverName(driver string) (string, error) {
	switch driver {
	case "sqlite", "sqlite3", "":
		return "sqlite3", nil
	case "postgres", "pgx":
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

func sqliteDSN(path string) string {
	return "file:" + path + "?_foreign_keys=on&_busy_timeout=5000"
}
