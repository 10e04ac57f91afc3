package cmd

import (
	"fmt"

	"github.com/josephgoksu/causalfuse/internal/estimator"
	"github.com/josephgoksu/causalfuse/internal/ui"
	"github.com/spf13/cobra"
)

var estimatorsCmd = &cobra.Command{
	Use:   "estimators",
	Short: "List the supported estimators by family",
	Long: `List every estimator name accepted under model.active_lfs, grouped by
family. Estimators marked native run in process; the rest need worker.command.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), ui.RenderEstimators(estimator.NewPool(nil).Native))
	},
}

func init() {
	rootCmd.AddCommand(estimatorsCmd)
}
