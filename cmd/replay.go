package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suderio/turnflow/internal/persistence"
	"github.com/suderio/turnflow/internal/session"
)

// replayCmd represents the replay command
var replayCmd = &cobra.Command{
	Use:   "replay <game|manifest.yaml> <journal.jsonl>",
	Short: "Replay a match journal and print the resulting state",
	Long: `Reads a match journal and folds every action it holds through the
reducer of the given game, then prints the log and the final state.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync()

		def, err := loadGame(args[0], logger)
		if err != nil {
			return err
		}

		store, err := persistence.NewStore(args[1])
		if err != nil {
			return err
		}
		defer store.Close()

		info, actions, err := store.Load()
		if err != nil {
			return fmt.Errorf("error reading journal: %w", err)
		}
		if info == nil {
			return persistence.ErrNoHeader
		}

		app, err := session.Replay(def, *info, actions, sessionOptions(logger)...)
		if err != nil {
			return err
		}

		viewer, _ := cmd.Flags().GetString("as")
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Match %s of %s, %d players, seed %s\n", info.ID, info.Game, info.NumPlayers, info.Seed)
		fmt.Fprintf(out, "Processed %d actions.\n\n", len(actions))
		if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
			for _, e := range app.Log(viewer) {
				fmt.Fprintln(out, describeEntry(e))
			}
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, describeState(app.View(viewer)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().String("as", "", "Player to view the match as (spectator when empty)")
	replayCmd.Flags().BoolP("quiet", "q", false, "Print only the final state")
}
