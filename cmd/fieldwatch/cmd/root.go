package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fieldwatch",
	Short: "Irrigation monitoring backend",
	Long: `FieldWatch runs the irrigation monitoring backend.

The gateway serves accounts, weather and the authenticated public API.
The sensor service owns fields, checkpoints, pumps and trigger tasks and
refreshes synthetic sensor readings on a fixed interval.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(gatewayCmd)
	rootCmd.AddCommand(sensorCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(versionCmd)
}
