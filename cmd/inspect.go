package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/suderio/turnflow/internal/engine"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [game|manifest.yaml]",
	Short: "Validate a manifest and print what it declares",
	Long: `Compiles a manifest and prints its players, moves, phases and the
events players may call. Without arguments, lists the games found in games_dir.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync()

		out := cmd.OutOrStdout()
		if len(args) == 0 {
			names, err := library().Names()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			return nil
		}

		def, err := loadGame(args[0], logger)
		if err != nil {
			return err
		}
		game, err := engine.Compile(def, engine.WithLogger(logger))
		if err != nil {
			return err
		}

		fmt.Fprintln(out, titleStyle.Render(game.Name))
		fmt.Fprintf(out, "Players: %s\n", playerRange(game.MinPlayers, game.MaxPlayers))
		fmt.Fprintf(out, "Moves:   %s\n", joinNames(game.MoveNames()))

		phases := game.Flow.PhaseNames()
		if start := game.Flow.StartingPhase(); start != "" {
			for i, p := range phases {
				if p == start {
					phases[i] = p + " (start)"
				}
			}
		}
		fmt.Fprintf(out, "Phases:  %s\n", joinNames(phases))

		events := make([]string, 0, len(engine.AllEvents))
		for _, e := range game.Flow.EnabledEventNames() {
			events = append(events, string(e))
		}
		fmt.Fprintf(out, "Events:  %s\n", joinNames(events))
		if game.DisableUndo {
			fmt.Fprintln(out, infoStyle.Render("Undo is disabled."))
		}
		return nil
	},
}

func playerRange(lo, hi int) string {
	switch {
	case lo == 0 && hi == 0:
		return "any"
	case hi == 0:
		return fmt.Sprintf("%d or more", lo)
	case lo == hi:
		return fmt.Sprint(lo)
	default:
		return fmt.Sprintf("%d to %d", max(lo, 1), hi)
	}
}

func joinNames(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
