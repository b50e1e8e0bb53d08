package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kjannette/tradejournal/internal/models"
	"github.com/kjannette/tradejournal/internal/renderer"
)

func newTradesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trades",
		Short: "List, record and manage trades",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return app.requireSession(cmd.Context())
		},
	}
	cmd.AddCommand(
		newTradesListCmd(app),
		newTradesGetCmd(app),
		newTradesAddCmd(app),
		newTradesUpdateCmd(app),
		newTradesDeleteCmd(app),
		newTradesCloseCmd(app),
	)
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid trade id %q", s)
	}
	return id, nil
}

func newTradesListCmd(app *App) *cobra.Command {
	var f models.TradeFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trades, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			trades, err := app.client.Trades.List(cmd.Context(), &f)
			if err != nil {
				return err
			}
			return app.show(trades, func() string { return renderer.Trades(trades) })
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.Pair, "pair", "", "only this pair, e.g. EURUSD")
	fl.StringVar(&f.Status, "status", "", "OPEN or CLOSED")
	fl.StringVar(&f.StartDate, "start", "", "opened on or after (YYYY-MM-DD or RFC3339)")
	fl.StringVar(&f.EndDate, "end", "", "opened on or before (YYYY-MM-DD or RFC3339)")
	fl.IntVar(&f.Limit, "limit", 0, "maximum number of trades")
	fl.IntVar(&f.Offset, "offset", 0, "skip this many trades")
	return cmd
}

func newTradesGetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			t, err := app.client.Trades.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return app.show(t, func() string { return renderer.Trade(t) })
		},
	}
}

// tradeFlags binds the TradeInput fields to flags. input returns only the
// fields whose flags were set on the command line.
type tradeFlags struct {
	pair, direction, notes, screenshot, openedAt string
	entry, stop, target, size                    float64
}

func (tf *tradeFlags) register(fl *pflag.FlagSet) {
	fl.StringVar(&tf.pair, "pair", "", "currency pair, e.g. EURUSD")
	fl.StringVar(&tf.direction, "direction", "BUY", "BUY or SELL")
	fl.Float64Var(&tf.entry, "entry", 0, "entry price")
	fl.Float64Var(&tf.stop, "sl", 0, "stop loss")
	fl.Float64Var(&tf.target, "tp", 0, "take profit")
	fl.Float64Var(&tf.size, "size", 0, "position size in units")
	fl.StringVar(&tf.notes, "notes", "", "free-form notes")
	fl.StringVar(&tf.screenshot, "screenshot", "", "chart screenshot URL")
	fl.StringVar(&tf.openedAt, "opened-at", "", "open time (RFC3339), defaults to now")
}

func (tf *tradeFlags) input(fl *pflag.FlagSet) (models.TradeInput, error) {
	var in models.TradeInput
	if fl.Changed("pair") {
		p := strings.ToUpper(tf.pair)
		in.Pair = &p
	}
	if fl.Changed("direction") {
		d := models.Direction(strings.ToUpper(tf.direction))
		in.Direction = &d
	}
	setFloat := func(name string, v float64, dst **float64) {
		if fl.Changed(name) {
			*dst = &v
		}
	}
	setFloat("entry", tf.entry, &in.EntryPrice)
	setFloat("sl", tf.stop, &in.StopLoss)
	setFloat("tp", tf.target, &in.TakeProfit)
	setFloat("size", tf.size, &in.PositionSize)
	if fl.Changed("notes") {
		in.Notes = &tf.notes
	}
	if fl.Changed("screenshot") {
		in.Screenshot = &tf.screenshot
	}
	if fl.Changed("opened-at") {
		t, err := time.Parse(time.RFC3339, tf.openedAt)
		if err != nil {
			return in, fmt.Errorf("invalid --opened-at: %w", err)
		}
		in.OpenedAt = &t
	}
	return in, nil
}

func newTradesAddCmd(app *App) *cobra.Command {
	tf := &tradeFlags{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new open trade",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := tf.input(cmd.Flags())
			if err != nil {
				return err
			}
			t, err := app.client.Trades.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return app.show(t, func() string { return renderer.Trade(t) })
		},
	}
	tf.register(cmd.Flags())
	return cmd
}

func newTradesUpdateCmd(app *App) *cobra.Command {
	tf := &tradeFlags{}
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a trade; only the flags you pass are sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			in, err := tf.input(cmd.Flags())
			if err != nil {
				return err
			}
			t, err := app.client.Trades.Update(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			return app.show(t, func() string { return renderer.Trade(t) })
		},
	}
	tf.register(cmd.Flags())
	return cmd
}

func newTradesDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := app.client.Trades.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(app.out, "trade %d deleted\n", id)
			return nil
		},
	}
}

func newTradesCloseCmd(app *App) *cobra.Command {
	var exit float64
	cmd := &cobra.Command{
		Use:   "close <id>",
		Short: "Close an open trade at an exit price",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			t, err := app.client.Trades.Close(cmd.Context(), id, exit)
			if err != nil {
				return err
			}
			return app.show(t, func() string { return renderer.Trade(t) })
		},
	}
	cmd.Flags().Float64Var(&exit, "exit", 0, "exit price")
	_ = cmd.MarkFlagRequired("exit")
	return cmd
}
