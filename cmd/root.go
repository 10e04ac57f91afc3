/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// verbose enables verbose output.
	verbose bool
	// version is the application version.
	version = "0.1.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "causalfuse",
	Short: "causalfuse - fuse weak causal estimates into feature selections",
	Long: `causalfuse runs a set of weak causal-structure estimators over a dataset,
fuses their estimates with vote or search fusion across a sweep of settings,
trains a downstream model on the features each fused structure selects and
reports the best candidate by validation score.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		HandleFatalError(userMessage(err), err)
	}
}

// GetVersion returns the application version.
func GetVersion() string {
	return version
}

func init() {
	cobra.OnInitialize(InitConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.SetErr(os.Stderr)
}
