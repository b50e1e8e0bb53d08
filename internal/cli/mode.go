package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kjannette/tradejournal/internal/models"
)

func newModeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:       "mode [test|seed|real]",
		Short:     "Show or switch the server's data mode",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"test", "seed", "real"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				m   models.DataMode
				err error
			)
			if len(args) == 0 {
				m, err = app.client.System.Mode(cmd.Context())
			} else {
				m, err = app.client.System.SetMode(cmd.Context(), models.DataMode(args[0]))
			}
			if err != nil {
				return err
			}
			if app.JSON {
				return app.show(models.ModeRequest{Mode: m}, nil)
			}
			fmt.Fprintf(app.out, "data mode: %s\n", m)
			return nil
		},
	}
}
