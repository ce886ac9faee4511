// Package cmd implements the lotmap CLI commands.
package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/homestead/lotmap/pkg/logging"
)

var rootCmd = &cobra.Command{
	Use:   "lotmap",
	Short: "Subdivision map matching and synchronization engine",
	Long: `lotmap reconciles resident records and administrator-placed map pins
into one consistent subdivision map: tiered address matching, pin
precedence, and loop-safe availability synchronization.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Best effort: a missing .env is not an error.
		_ = godotenv.Load()
	},
}

// Execute runs the CLI.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		logging.Err(err).Msg("Command failed")
		return err
	}
	return nil
}
