package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/v7mdd/MoodleMate/internal/config"
	"github.com/v7mdd/MoodleMate/internal/db"
	"github.com/v7mdd/MoodleMate/internal/rag"
)

const configFilePath = "./configs/config.yaml"

var errHistoryOnly = errors.New("answering not loaded")

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "moodlemate",
	Short: "Answer questions about course material",
	Long: `MoodleMate indexes course documents and answers questions grounded in
them, keeping every conversation as a chat session.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", configFilePath, "path to the YAML config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogger(debug bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()
}

// app holds what every chat command needs.
type app struct {
	cfg   *config.Config
	store *db.SessionStore
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	log.Debug().Interface("config", cfg).Msg("Loaded config")

	bunDB, err := db.Open(&cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := db.InitDB(ctx, bunDB); err != nil {
		bunDB.Close()
		return nil, err
	}
	return &app{cfg: cfg, store: db.NewSessionStore(bunDB)}, nil
}

func (a *app) Close() error { return a.store.Close() }

// service builds the answering pipeline. It never fails; answering reports
// why it is unavailable instead.
func (a *app) service() *rag.Service {
	return rag.Bootstrap(a.cfg, a.store)
}

// history skips loading the index and model for commands that only read or
// clear sessions.
func (a *app) history() *rag.Service {
	return rag.Disabled(a.store, &rag.InitError{Stage: "cli", Err: errHistoryOnly})
}
