package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/youzarsiph/the-certain-news/internal/config"
	"github.com/youzarsiph/the-certain-news/internal/database"
	"github.com/youzarsiph/the-certain-news/internal/logger"
)

var (
	cfg *config.Config
	log *zap.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tcn",
	Short: "The Certain News server",
	Long: `tcn runs The Certain News: the REST API, the server rendered pages,
feeds, sitemaps and the live breaking news socket.

Configuration is read from the environment and an optional .env file.

Example usage:
  tcn migrate           # Create or update the database tables
  tcn serve             # Start the HTTP server
  tcn backfill-links    # Create short links for articles without one`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		log, err = logger.New(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func openDB() (database.Service, error) {
	db, err := database.New(cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}
