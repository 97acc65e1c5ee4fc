package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/suderio/turnflow/internal/persistence"
)

// matchesCmd represents the matches command
var matchesCmd = &cobra.Command{
	Use:   "matches <game>",
	Short: "List the journaled matches of a game",
	Long: `Lists the match ids journaled for a game under journal_dir.
Any of them can be continued with 'play --resume <id>'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := viper.GetString("journal_dir")
		if dir == "" {
			return fmt.Errorf("journal_dir is not configured")
		}

		journals := persistence.NewJournals(dir)
		ids, err := journals.List(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(ids) == 0 {
			fmt.Fprintf(out, "No matches journaled for %s.\n", args[0])
			return nil
		}
		for _, id := range ids {
			fmt.Fprintf(out, "%s\t%s\n", id, journals.Path(args[0], id))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(matchesCmd)
}
