package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/suderio/turnflow/internal/session"
)

var playCmd = &cobra.Command{
	Use:   "play <game|manifest.yaml>",
	Short: "Start an interactive match",
	Long: `Starts the read-eval-print loop for a match of the given game.
Usage:
	> move mark 4
	> event endTurn by: 1
	> state as: 0`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plain, _ := cmd.Flags().GetBool("plain")
		logger, err := newLogger()
		if err != nil {
			return err
		}
		// The full-screen interface owns the terminal.
		if !plain && viper.GetString("log_file") == "" {
			logger = zap.NewNop()
		}
		defer logger.Sync()

		def, err := loadGame(args[0], logger)
		if err != nil {
			return err
		}
		if seed, _ := cmd.Flags().GetString("seed"); seed != "" {
			def.Seed = seed
		}

		app, err := openMatch(cmd, def, logger)
		if err != nil {
			return fmt.Errorf("failed to start match: %w", err)
		}
		defer app.Close()

		if plain {
			return runPlain(app, os.Stdin, cmd.OutOrStdout())
		}
		return RunTUI(app)
	},
}

// runPlain is a line-oriented loop for pipes and dumb terminals.
func runPlain(app *session.Session, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "Match %s of %s. Type 'exit' or 'quit' to leave.\n", app.Info().ID, app.Info().Game)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		res, err := app.Execute(line)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		for _, l := range describeResult(res) {
			fmt.Fprintln(out, l)
		}
		if app.State().Ctx.IsGameOver() && res.Action != nil {
			fmt.Fprintf(out, "Game over: %s\n", compact(app.State().Ctx.Gameover))
		}
	}
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().IntP("players", "p", 2, "Number of players")
	playCmd.Flags().String("seed", "", "Seed for the random plugin (overrides the manifest)")
	playCmd.Flags().StringP("journal", "j", "", "Journal file to record the match to, resumed if it already holds one")
	playCmd.Flags().StringP("resume", "r", "", "Match id under journal_dir to resume")
	playCmd.Flags().Bool("plain", false, "Read commands line by line instead of the full-screen interface")
	_ = viper.BindPFlag("players", playCmd.Flags().Lookup("players"))
}
