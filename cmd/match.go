package cmd

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/suderio/turnflow/internal/engine"
	"github.com/suderio/turnflow/internal/manifest"
	"github.com/suderio/turnflow/internal/persistence"
	"github.com/suderio/turnflow/internal/session"
)

func library() *manifest.Library {
	return manifest.NewLibrary(viper.GetStringSlice("games_dir"))
}

// loadGame reads and compiles the manifest ref names: a file path, or a game
// name looked up in games_dir.
func loadGame(ref string, logger *zap.Logger) (*engine.Game, error) {
	m, err := library().Load(ref)
	if err != nil {
		return nil, err
	}
	return manifest.Compile(m, logger)
}

func sessionOptions(logger *zap.Logger) []session.Option {
	return []session.Option{
		session.WithLogger(logger),
		session.WithEngineOptions(engine.WithProduction(viper.GetBool("production"))),
	}
}

// openMatch starts or resumes the match the flags of cmd point at:
// an explicit --journal file, a --resume id under journal_dir, a fresh
// journal under journal_dir, or no journal at all.
func openMatch(cmd *cobra.Command, def *engine.Game, logger *zap.Logger) (*session.Session, error) {
	journalPath, _ := cmd.Flags().GetString("journal")
	resumeID, _ := cmd.Flags().GetString("resume")
	players := viper.GetInt("players")
	opts := sessionOptions(logger)

	if journalPath != "" {
		store, err := persistence.NewStore(journalPath)
		if err != nil {
			return nil, err
		}
		info, _, err := store.Load()
		if err != nil {
			store.Close()
			return nil, err
		}
		if info != nil {
			return session.Resume(def, store, opts...)
		}
		return session.New(def, players, nil, append(opts, session.WithStore(store))...)
	}

	dir := viper.GetString("journal_dir")
	if dir == "" {
		if resumeID != "" {
			return nil, fmt.Errorf("--resume needs a journal_dir")
		}
		return session.New(def, players, nil, opts...)
	}

	game := def.Name
	if game == "" {
		game = "default"
	}
	journals := persistence.NewJournals(dir)
	if resumeID != "" {
		store, err := journals.Open(game, resumeID)
		if err != nil {
			return nil, err
		}
		return session.Resume(def, store, opts...)
	}

	id := uuid.NewString()
	store, err := journals.Create(game, id)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(os.Stderr, "Journaling match to %s\n", journals.Path(game, id))
	return session.New(def, players, nil, append(opts, session.WithStore(store), session.WithMatchID(id))...)
}
