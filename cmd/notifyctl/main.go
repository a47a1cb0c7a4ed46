// Command notifyctl is the operator tool for the notification service.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "notifyctl",
	Short:        "Operate the todo notification service",
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(tokenCmd, sweepCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
