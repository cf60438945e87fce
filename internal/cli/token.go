package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	intconfig "travelbackend/internal/config"
	"travelbackend/internal/http/middleware"
)

var (
	tokenUserID int64
	tokenRole   string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a bearer token for a user id (development only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenUserID <= 0 {
			return fmt.Errorf("--user must be a positive id")
		}
		tok, err := middleware.IssueToken(intconfig.LoadEnv().JWTSecret, tokenUserID, tokenRole)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Int64Var(&tokenUserID, "user", 0, "User id to put in the user_id claim")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "", "Optional role claim, e.g. admin")
}
