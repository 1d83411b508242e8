package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"appealbot/internal/config"
	"appealbot/internal/database"
	"appealbot/pkg/log"
)

// migrateCmd initiates a database migration manually.
func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, errConf := config.ReadStatic(cfgFile)
			if errConf != nil {
				return errConf
			}

			cleanup := log.MustCreateLogger(cmd.Context(), conf.Log.File, conf.Log.Level, false)
			defer cleanup()

			db := database.New(conf.DB.DSN, true, conf.DB.LogQueries)
			if errConnect := db.Connect(cmd.Context()); errConnect != nil {
				return errConnect
			}

			defer func() {
				_ = db.Close()
			}()

			slog.Info("Migrations complete")

			return nil
		},
	}
}
