// Package cli implements the journal command-line client.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"

	"github.com/kjannette/tradejournal/internal/client"
	"github.com/kjannette/tradejournal/internal/config"
	"github.com/kjannette/tradejournal/internal/renderer"
	"github.com/kjannette/tradejournal/internal/session"
)

var ErrNotLoggedIn = errors.New("not logged in: run `journal login`")

const sessionExpired = "session expired: run `journal login`"

// App is the state shared by every command: flags, the token store, the API
// client and the session manager.
type App struct {
	APIURL      string
	SessionFile string
	RedisAddr   string
	JSON        bool
	Plain       bool
	Debug       bool

	out    io.Writer
	errOut io.Writer

	store   session.TokenStore
	client  *client.Client
	session *session.Manager
	printer *renderer.Printer
}

// New builds the root command writing results to out and diagnostics to errOut.
func New(out, errOut io.Writer) *cobra.Command {
	cfg := config.LoadClient()
	app := &App{out: out, errOut: errOut}

	cmd := &cobra.Command{
		Use:           "journal",
		Short:         "Trading journal client",
		Long:          "journal logs trades against the journal API and shows your performance.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cfg.LogLevel)
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	pf := cmd.PersistentFlags()
	pf.StringVar(&app.APIURL, "api-url", cfg.APIURL, "journal API base URL")
	pf.StringVar(&app.SessionFile, "session-file", cfg.SessionFile, "file holding the access token")
	pf.StringVar(&app.RedisAddr, "redis-addr", cfg.RedisAddr, "keep the access token in Redis at this address instead of the session file")
	pf.BoolVar(&app.JSON, "json", false, "print raw JSON")
	pf.BoolVar(&app.Plain, "plain", false, "print markdown without terminal styling")
	pf.BoolVar(&app.Debug, "debug", false, "log every API request")

	cmd.AddCommand(
		newLoginCmd(app),
		newSignupCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newTradesCmd(app),
		newStatsCmd(app),
		newModeCmd(app),
	)
	return cmd
}

func (a *App) setup(level string) error {
	if a.Debug {
		level = "debug"
	}
	config.SetupLogging(level)

	if a.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: a.RedisAddr})
		a.store = session.NewRedisStore(rdb, session.DefaultRedisPrefix, 0)
	} else {
		a.store = session.NewFileStore(a.SessionFile)
	}

	a.client = client.New(strings.TrimRight(a.APIURL, "/"), a.store,
		client.WithUnauthorizedHandler(func(ctx context.Context) {
			if a.session.IsAuthenticated() {
				fmt.Fprintln(a.errOut, sessionExpired)
			}
			a.session.Expire(ctx)
		}))
	a.session = session.NewManager(a.client.Auth, a.store)

	p, err := renderer.NewPrinter(a.out, a.Plain)
	if err != nil {
		return err
	}
	a.printer = p
	return nil
}

// requireSession restores the stored session or fails with ErrNotLoggedIn.
func (a *App) requireSession(ctx context.Context) error {
	if err := a.session.Start(ctx); err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			fmt.Fprintln(a.errOut, sessionExpired)
			return ErrNotLoggedIn
		}
		return err
	}
	if !a.session.IsAuthenticated() {
		return ErrNotLoggedIn
	}
	return nil
}

// show prints v as JSON with --json, or the rendered markdown otherwise.
func (a *App) show(v any, markdown func() string) error {
	if a.JSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return a.printer.Print(markdown())
}
