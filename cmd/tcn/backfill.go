package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/youzarsiph/the-certain-news/internal/services"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill-links",
	Short: "Create short links for articles that lack one",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		links, err := services.NewLinkService(db.GetDB(), log, cfg.LinkCacheSize)
		if err != nil {
			return err
		}
		n, err := links.Backfill(cmd.Context())
		if err != nil {
			return err
		}
		log.Info("Short links created", zap.Int("count", n))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backfillCmd)
}
