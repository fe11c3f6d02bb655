package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vecna/internal/api"
	"vecna/internal/pipeline"
)

func parseTarget(value string) (pipeline.State, error) {
	state, ok := pipeline.ParseState(value)
	if !ok {
		return "", fmt.Errorf("unknown state %q", strings.TrimSpace(value))
	}
	return state, nil
}

func newCanCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "can <id> [target]",
		Short: "Check whether a game may move to a target state",
		Long: "Evaluates the transition guard without changing anything. With no " +
			"target, every state is listed with its verdict.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(app *application) error {
				resp, err := app.games.Transitions(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(args) == 1 {
					if jsonOut {
						return writeJSON(cmd, resp)
					}
					fmt.Fprint(out, renderTransitionTable(resp.Transitions, shouldColorize(out)))
					return nil
				}

				target, err := parseTarget(args[1])
				if err != nil {
					return err
				}
				var option api.TransitionOption
				for _, opt := range resp.Transitions {
					if opt.Target == string(target) {
						option = opt
						break
					}
				}
				if jsonOut {
					return writeJSON(cmd, option)
				}
				colorize := shouldColorize(out)
				move := renderTransition(pipeline.State(resp.State), target, colorize)
				if option.Allowed {
					fmt.Fprintln(out, renderStatusLine(resp.GameID, statusOK, move, colorize))
				} else {
					fmt.Fprintln(out, renderStatusLine(resp.GameID, statusWarn, move+": "+option.Reason, colorize))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newAdvanceCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "advance <id> <target>",
		Short: "Move a game to a target state through the guard",
		Long: "Moving to parsing or generating runs the rulebook parser or content " +
			"generator and lands in parsed or generated on success. On failure the " +
			"game is rolled back and the error is recorded on it.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseTarget(args[1])
			if err != nil {
				return err
			}
			return ctx.withApp(func(app *application) error {
				before, err := app.store.GetGame(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				game, err := app.advancer.Advance(cmd.Context(), args[0], target)
				if err != nil {
					var collab *pipeline.CollaboratorFailedError
					if errors.As(err, &collab) && game != nil {
						msg := fmt.Sprintf("%s failed, rolled back to %s: %s",
							renderTransition(before.State, target, colorize), renderState(game.State, colorize), game.Error)
						fmt.Fprintln(out, renderStatusLine(game.ID, statusError, msg, colorize))
					}
					return err
				}
				fmt.Fprintln(out, renderStatusLine(game.ID, statusOK, renderTransition(before.State, game.State, colorize), colorize))
				return nil
			})
		},
	}
	return cmd
}

func newOverrideCommand(ctx *commandContext) *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "override <id> <target>",
		Short: "Force a game into a state without the guard (mark as complete)",
		Long: "Skips the transition guard and collaborators. Use it to complete a " +
			"game stuck in parsing or generating after doing the work by hand.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseTarget(args[1])
			if err != nil {
				return err
			}
			return ctx.withApp(func(app *application) error {
				before, err := app.store.GetGame(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				game, err := app.advancer.Override(cmd.Context(), args[0], target, note)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				fmt.Fprintln(out, renderStatusLine(game.ID, statusWarn, renderTransition(before.State, game.State, colorize)+" (manual)", colorize))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "Reason recorded in the log")
	return cmd
}
