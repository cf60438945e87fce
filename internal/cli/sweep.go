package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"travelbackend/internal/app"
	intconfig "travelbackend/internal/config"
)

var sweepBatch int

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one reconciliation pass over PENDING bookings",
	Long: `sweep asks the vendor for the status of every booking left PENDING and
confirms the ones whose passengers or units are all confirmed. It prints the
pass summary as JSON.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.Open(cmd.Context(), intconfig.LoadEnv())
		if err != nil {
			return err
		}
		defer a.Close()
		if sweepBatch > 0 {
			a.Sweeper.Batch = sweepBatch
		}

		sum, err := a.Sweeper.SweepOnce(cmd.Context())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	},
}

func init() {
	sweepCmd.Flags().IntVar(&sweepBatch, "batch", 0, "Maximum bookings to examine (default SWEEP_BATCH)")
}
