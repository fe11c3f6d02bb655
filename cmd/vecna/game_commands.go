package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"vecna/internal/api"
	"vecna/internal/catalog"
	"vecna/internal/pipeline"
)

func newGameCommand(ctx *commandContext) *cobra.Command {
	gameCmd := &cobra.Command{
		Use:   "game",
		Short: "Inspect and manage catalog games",
	}

	gameCmd.AddCommand(newGameAddCommand(ctx))
	gameCmd.AddCommand(newGameListCommand(ctx))
	gameCmd.AddCommand(newGameShowCommand(ctx))
	gameCmd.AddCommand(newGameImportCommand(ctx))
	gameCmd.AddCommand(newGameFlagsCommand(ctx))

	return gameCmd
}

func newGameAddCommand(ctx *commandContext) *cobra.Command {
	var (
		id          string
		bggID       int64
		familyID    string
		position    int
		rulebookURL string
		state       string
		jsonOut     bool
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a game to the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			game := &catalog.Game{
				ID:             strings.TrimSpace(id),
				BGGID:          bggID,
				Name:           args[0],
				FamilyID:       strings.TrimSpace(familyID),
				FamilyPosition: position,
				RulebookURL:    strings.TrimSpace(rulebookURL),
			}
			if strings.TrimSpace(state) != "" {
				parsed, ok := pipeline.ParseState(state)
				if !ok {
					return fmt.Errorf("unknown state %q", state)
				}
				game.State = parsed
			}
			return ctx.withApp(func(app *application) error {
				added, err := app.store.AddGame(cmd.Context(), game)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, api.FromGame(added))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added game %s (%s) in %s\n", added.ID, added.Name, added.State)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Game identifier (generated when empty)")
	cmd.Flags().Int64Var(&bggID, "bgg-id", 0, "BoardGameGeek identifier")
	cmd.Flags().StringVar(&familyID, "family", "", "Family the game belongs to")
	cmd.Flags().IntVar(&position, "position", 0, "Processing position within the family")
	cmd.Flags().StringVar(&rulebookURL, "rulebook", "", "Rulebook PDF path or URL")
	cmd.Flags().StringVar(&state, "state", "", "Initial state (default imported)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newGameListCommand(ctx *commandContext) *cobra.Command {
	var states []string
	var jsonOut bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List games, optionally filtered by state",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := api.ParseStates(states)
			if err != nil {
				return err
			}
			return ctx.withApp(func(app *application) error {
				games, err := app.games.List(cmd.Context(), filter...)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, games)
				}
				out := cmd.OutOrStdout()
				if len(games) == 0 {
					fmt.Fprintln(out, "No games found")
					return nil
				}
				fmt.Fprint(out, renderGameTable(games, shouldColorize(out)))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&states, "state", "s", nil, "Filter by state (repeatable or comma separated)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func renderGameTable(games []api.Game, colorize bool) string {
	rows := make([][]string, 0, len(games))
	for _, g := range games {
		rows = append(rows, []string{
			g.ID,
			g.Name,
			g.FamilyID,
			renderState(pipeline.State(g.State), colorize),
			renderFlags(g.HasRulebook, g.HasContent, g.IsPublished),
			g.Error,
		})
	}
	return renderTable(
		[]string{"ID", "Name", "Family", "State", "Flags", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
	)
}

func newGameShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a game with its rulebook parse, content, and transitions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(app *application) error {
				detail, err := app.games.Describe(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				transitions, err := app.games.Transitions(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, struct {
						*api.GameDetail
						Transitions []api.TransitionOption `json:"transitions"`
					}{detail, transitions.Transitions})
				}
				renderGameDetail(cmd.OutOrStdout(), detail, transitions)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func renderGameDetail(out io.Writer, detail *api.GameDetail, transitions *api.TransitionsResponse) {
	colorize := shouldColorize(out)
	g := detail.Game
	fmt.Fprintf(out, "%s (%s)\n", g.Name, g.ID)
	fmt.Fprintf(out, "  State:     %s (%s)\n", renderState(pipeline.State(g.State), colorize), g.StateLabel)
	if g.SuggestedAction != "" {
		fmt.Fprintf(out, "  Next:      %s\n", g.SuggestedAction)
	}
	if g.Error != "" {
		fmt.Fprintf(out, "  Error:     %s\n", g.Error)
	}
	if g.FamilyID != "" {
		fmt.Fprintf(out, "  Family:    %s #%d\n", g.FamilyID, g.FamilyPosition)
	}
	if g.BGGID > 0 {
		fmt.Fprintf(out, "  BGG:       %d\n", g.BGGID)
	}
	fmt.Fprintf(out, "  Rulebook:  %s", yesNo(g.HasRulebook))
	if g.RulebookURL != "" {
		fmt.Fprintf(out, " (%s)", g.RulebookURL)
	}
	fmt.Fprintln(out)
	if detail.Rulebook != nil {
		fmt.Fprintf(out, "  Parsed:    %d pages, %d chars, complexity %.1f\n",
			detail.Rulebook.PageCount, detail.Rulebook.TextChars, detail.Rulebook.Complexity)
	}
	fmt.Fprintf(out, "  Content:   %s\n", yesNo(g.HasContent))
	for _, c := range detail.Content {
		fmt.Fprintf(out, "    - %s (%d chars)\n", c.ContentType, len(c.Body))
	}
	fmt.Fprintf(out, "  Published: %s\n", yesNo(g.IsPublished))

	if transitions == nil {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprint(out, renderTransitionTable(transitions.Transitions, colorize))
}

func renderTransitionTable(options []api.TransitionOption, colorize bool) string {
	rows := make([][]string, 0, len(options))
	for _, opt := range options {
		verdict := "allowed"
		if !opt.Allowed {
			verdict = "denied"
		}
		rows = append(rows, []string{renderState(pipeline.State(opt.Target), colorize), verdict, opt.Reason})
	}
	return renderTable([]string{"Target", "Verdict", "Reason"}, rows, nil)
}

func newGameImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <seed.yaml|->",
		Short: "Import families and games from a YAML seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader
			if args[0] == "-" {
				r = cmd.InOrStdin()
			} else {
				file, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open seed: %w", err)
				}
				defer file.Close()
				r = file
			}
			return ctx.withApp(func(app *application) error {
				result, err := app.store.ImportSeed(cmd.Context(), r)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d families and %d games\n", result.Families, result.Games)
				return nil
			})
		},
	}
}

func newGameFlagsCommand(ctx *commandContext) *cobra.Command {
	var (
		hasRulebook string
		rulebookURL string
		hasContent  string
	)
	cmd := &cobra.Command{
		Use:   "flags <id>",
		Short: "Update rulebook and content flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var update catalog.FlagUpdate
			if cmd.Flags().Changed("has-rulebook") {
				v, err := strconv.ParseBool(hasRulebook)
				if err != nil {
					return fmt.Errorf("--has-rulebook: %w", err)
				}
				update.HasRulebook = &v
			}
			if cmd.Flags().Changed("rulebook") {
				v := strings.TrimSpace(rulebookURL)
				update.RulebookURL = &v
			}
			if cmd.Flags().Changed("has-content") {
				v, err := strconv.ParseBool(hasContent)
				if err != nil {
					return fmt.Errorf("--has-content: %w", err)
				}
				update.HasContent = &v
			}
			if update.HasRulebook == nil && update.RulebookURL == nil && update.HasContent == nil {
				return fmt.Errorf("nothing to update; pass --rulebook, --has-rulebook, or --has-content")
			}
			return ctx.withApp(func(app *application) error {
				game, err := app.store.UpdateFlags(cmd.Context(), args[0], update)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: rulebook=%s content=%s\n", game.ID, yesNo(game.HasRulebook), yesNo(game.HasContent))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&hasRulebook, "has-rulebook", "", "Set has_rulebook (true|false)")
	cmd.Flags().StringVar(&rulebookURL, "rulebook", "", "Set the rulebook PDF path or URL (implies has_rulebook)")
	cmd.Flags().StringVar(&hasContent, "has-content", "", "Set has_content (true|false)")
	return cmd
}
