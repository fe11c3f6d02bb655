package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReclaimCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reclaim",
		Short: "Roll back games stuck in parsing or generating",
		Long: "Games in an in-flight state longer than pipeline.in_flight_timeout " +
			"are returned to the state a failed attempt would leave them in.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(app *application) error {
				games, err := app.reclaimer.ReclaimOnce(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, g := range games {
					fmt.Fprintln(out, renderStatusLine(g.ID, statusWarn, renderTransition(g.PreviousState, g.State, colorize), colorize))
				}
				fmt.Fprintf(out, "Reclaimed %d games\n", len(games))
				return nil
			})
		},
	}
}
