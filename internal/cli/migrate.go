package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"travelbackend/internal/app"
	intconfig "travelbackend/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the ledger schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env := intconfig.LoadEnv()
		a, err := app.Open(cmd.Context(), env)
		if err != nil {
			return err
		}
		defer a.Close()
		fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", env.DBDriver)
		return nil
	},
}
