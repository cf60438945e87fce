// Package cli implements travelctl, the operator command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	intconfig "travelbackend/internal/config"
	"travelbackend/internal/logging"
)

var (
	verbose bool
	rootCmd *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "travelctl",
		Short: "Operator tooling for the travel backend",
		Long: `travelctl runs maintenance tasks against the ledger store using the same
environment configuration as the server (DB_DRIVER, DB_DSN, VENDOR_*, ...).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := intconfig.LoadEnv().LogLevel
			if verbose {
				level = "debug"
			}
			logging.Setup(level)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(tokenCmd)
}

// Execute runs the root command
func Execute(version string) error {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
