package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "turnflow",
	Short: "Run turn-based games described by YAML manifests",
	Long: `turnflow drives turn-based games through a deterministic reducer.
Games are declared in YAML manifests whose moves, hooks and triggers are
CEL formulas. Matches can be journaled and replayed.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.turnflow.yaml)")
	rootCmd.PersistentFlags().String("log_level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log_file", "", "write logs to this file instead of stderr")
	rootCmd.PersistentFlags().Bool("production", false, "skip development checks such as the serializable guard")
	rootCmd.PersistentFlags().String("journal_dir", "", "directory holding match journals")
	rootCmd.PersistentFlags().StringSlice("games_dir", []string{".", "./games"}, "directories searched for game manifests, in order")

	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log_level"))
	_ = viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log_file"))
	_ = viper.BindPFlag("production", rootCmd.PersistentFlags().Lookup("production"))
	_ = viper.BindPFlag("journal_dir", rootCmd.PersistentFlags().Lookup("journal_dir"))
	_ = viper.BindPFlag("games_dir", rootCmd.PersistentFlags().Lookup("games_dir"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".turnflow")
	}

	viper.SetDefault("players", 2)
	viper.SetEnvPrefix("turnflow")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the logger every command hands to the engine. Logs go to
// log_file, or to stderr so they never mix with game output.
func newLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(viper.GetString("log_level"))
	if err != nil {
		return nil, fmt.Errorf("invalid log_level: %w", err)
	}

	cfg := zap.NewDevelopmentConfig()
	if viper.GetBool("production") {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = level > zapcore.DebugLevel
	cfg.OutputPaths = []string{"stderr"}
	if path := viper.GetString("log_file"); path != "" {
		cfg.OutputPaths = []string{path}
	}
	return cfg.Build()
}
