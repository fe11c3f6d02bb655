package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"vecna/internal/api"
	"vecna/internal/pipeline"
	"vecna/internal/workflow"
)

func newFamilyCommand(ctx *commandContext) *cobra.Command {
	familyCmd := &cobra.Command{
		Use:   "family",
		Short: "Inspect and batch-process game families",
	}

	familyCmd.AddCommand(newFamilyListCommand(ctx))
	familyCmd.AddCommand(newFamilyShowCommand(ctx))
	familyCmd.AddCommand(newFamilyProcessCommand(ctx))

	return familyCmd
}

func newFamilyListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List families",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(app *application) error {
				families, err := app.games.Families(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, families)
				}
				out := cmd.OutOrStdout()
				if len(families) == 0 {
					fmt.Fprintln(out, "No families found")
					return nil
				}
				rows := make([][]string, 0, len(families))
				for _, f := range families {
					rows = append(rows, []string{f.ID, f.Name, f.BaseGameID, strconv.Itoa(f.GameCount)})
				}
				fmt.Fprint(out, renderTable([]string{"ID", "Name", "Base Game", "Games"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newFamilyShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a family's games in processing order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(app *application) error {
				detail, err := app.games.Family(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, detail)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (%s)\n", detail.Family.Name, detail.Family.ID)
				if len(detail.Games) == 0 {
					fmt.Fprintln(out, "No games in family")
					return nil
				}
				fmt.Fprint(out, renderGameTable(detail.Games, shouldColorize(out)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newFamilyProcessCommand(ctx *commandContext) *cobra.Command {
	var (
		modeFlag    string
		skipBlocked bool
		stopOnError bool
		jsonOut     bool
	)
	cmd := &cobra.Command{
		Use:   "process <id>",
		Short: "Advance every game in a family according to a processing mode",
		Long: "Modes: from-current applies one forward step per game; parse-only, " +
			"generate-only, and full keep stepping each game until the mode has " +
			"nothing left to do. Games are processed one at a time in family order.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := pipeline.ParseMode(modeFlag)
			if err != nil {
				return err
			}
			return ctx.withApp(func(app *application) error {
				if _, err := app.games.Family(cmd.Context(), args[0]); err != nil {
					return err
				}
				opts := workflow.Options{
					SkipBlocked: app.cfg.Pipeline.SkipBlocked,
					StopOnError: app.cfg.Pipeline.StopOnError,
				}
				if cmd.Flags().Changed("skip-blocked") {
					opts.SkipBlocked = skipBlocked
				}
				if cmd.Flags().Changed("stop-on-error") {
					opts.StopOnError = stopOnError
				}
				summary, err := app.orchestrator.ProcessFamilyByID(cmd.Context(), args[0], mode, opts)
				if err != nil {
					return err
				}
				resp := api.FromBatchSummary(summary)
				if jsonOut {
					return writeJSON(cmd, resp)
				}
				renderBatchSummary(cmd.OutOrStdout(), resp)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&modeFlag, "mode", "m", string(pipeline.ModeFromCurrent), "Processing mode (full, parse-only, generate-only, from-current)")
	cmd.Flags().BoolVar(&skipBlocked, "skip-blocked", true, "Skip games the mode cannot move instead of counting them as errors")
	cmd.Flags().BoolVar(&stopOnError, "stop-on-error", false, "Stop at the first failed game")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func renderBatchSummary(out io.Writer, summary api.BatchSummary) {
	colorize := shouldColorize(out)
	rows := make([][]string, 0, len(summary.Results))
	for _, r := range summary.Results {
		outcome := "ok"
		detail := ""
		switch {
		case r.Skipped:
			outcome = "skipped"
			detail = r.SkipReason
		case !r.Success:
			outcome = "error"
			detail = r.Error
		}
		rows = append(rows, []string{
			r.GameID,
			r.Name,
			renderTransition(pipeline.State(r.PreviousState), pipeline.State(r.NewState), colorize),
			strconv.Itoa(r.Steps),
			outcome,
			detail,
		})
	}
	if len(rows) > 0 {
		fmt.Fprint(out, renderTable(
			[]string{"ID", "Name", "Transition", "Steps", "Result", "Detail"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
		))
	}
	s := summary.Summary
	fmt.Fprintf(out, "Mode %s: %d total, %d processed, %d skipped, %d errors\n", summary.Mode, s.Total, s.Processed, s.Skipped, s.Errors)
	if summary.Stopped {
		fmt.Fprintf(out, "Stopped early; not attempted: %v\n", summary.NotAttempted)
	}
}
