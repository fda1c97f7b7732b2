package main

import (
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/youzarsiph/the-certain-news/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Bool("migrate", false, "migrate the database before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.LogFormat != "console" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
		if err := db.Migrate(); err != nil {
			return err
		}
	}

	broker, err := server.NewBroker(cfg, db.GetDB(), log)
	if err != nil {
		return err
	}
	defer broker.Close()

	srv, err := server.New(cfg, log, db, broker)
	if err != nil {
		return err
	}

	log.Info("Live backend ready", zap.String("backend", broker.Name()))
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info("Server stopped")
	return nil
}

