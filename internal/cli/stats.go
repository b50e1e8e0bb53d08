package cli

import (
	"github.com/spf13/cobra"

	"github.com/kjannette/tradejournal/internal/renderer"
)

func newStatsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Performance summary and equity curve",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return app.requireSession(cmd.Context())
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "summary",
			Short: "Profit, win rate and risk/reward over closed trades",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				st, err := app.client.Stats.Summary(cmd.Context())
				if err != nil {
					return err
				}
				return app.show(st, func() string { return renderer.Stats(st) })
			},
		},
		&cobra.Command{
			Use:   "equity",
			Short: "Cumulative balance after each closed trade",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				pts, err := app.client.Stats.EquityCurve(cmd.Context())
				if err != nil {
					return err
				}
				return app.show(pts, func() string { return renderer.Equity(pts) })
			},
		},
	)
	return cmd
}
