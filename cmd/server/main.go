package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kjannette/tradejournal/internal/api"
	"github.com/kjannette/tradejournal/internal/auth"
	"github.com/kjannette/tradejournal/internal/config"
	"github.com/kjannette/tradejournal/internal/datamode"
	"github.com/kjannette/tradejournal/internal/db"
	"github.com/kjannette/tradejournal/internal/metrics"
	"github.com/kjannette/tradejournal/internal/models"
	"github.com/kjannette/tradejournal/internal/notifications"
	"github.com/kjannette/tradejournal/internal/risk"
)

const banner = `
╔══════════════════════════════════════╗
║        Trading Journal API v1        ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Fprint(os.Stderr, banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}
	config.SetupLogging(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	cfg.Print()

	// Database
	log.Info().Str("driver", cfg.DBDriver).Msg("connecting to database")
	conn, err := db.Connect(cfg.DBDriver, cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer func() {
		conn.Close()
		log.Info().Msg("database closed")
	}()

	if err := db.TestConnection(conn); err != nil {
		log.Fatal().Err(err).Msg("database test query failed")
	}

	mode, err := datamode.NewSwitch(models.DataMode(cfg.DataMode))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid data mode")
	}

	notify := notifications.NewSender(cfg.WebhookURL, cfg.BotName)
	if !notify.Enabled() {
		log.Info().Msg("WEBHOOK_URL not set, trade notifications are log-only")
	}

	issuer := auth.NewIssuer(cfg.SecretKey, time.Duration(cfg.AccessTokenExpireMinutes)*time.Minute)

	proxies, err := api.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid TRUSTED_PROXIES")
	}

	srv := api.NewServer(conn, issuer, mode, api.Options{
		Port:               cfg.APIPort,
		CORSOrigin:         cfg.CORSAllowOrigin,
		AuthRateLimitRPS:   cfg.AuthRateLimitRPS,
		AuthRateLimitBurst: cfg.AuthRateLimitBurst,
		Notifier:           notify,
		Metrics:            metrics.New(),
		TrustedProxies:     proxies,
		Limits: risk.Limits{
			MaxDailyTrades:  cfg.MaxDailyTrades,
			MaxPositionSize: cfg.MaxPositionSize,
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("API server error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API shutdown error")
	}
	notify.Wait()
	log.Info().Msg("shutdown complete")
}
