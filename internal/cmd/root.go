// Package cmd implements the CLI of the application.
//
// serve   - run the bot until interrupted
// migrate - apply database schema migrations manually
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	BuildVersion = "master" //nolint:gochecknoglobals
	BuildCommit  = ""       //nolint:gochecknoglobals
	BuildDate    = ""       //nolint:gochecknoglobals
)

var cfgFile string //nolint:gochecknoglobals

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "appealbot",
	Short: "Telegram appeal intake and moderation bot",
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	rootCmd.Version = BuildVersion
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "appealbot.yml", "config file path")

	if errExecute := rootCmd.Execute(); errExecute != nil {
		os.Exit(1)
	}
}
