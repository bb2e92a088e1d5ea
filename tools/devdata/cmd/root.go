package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "devdata",
	Short:        "Create synthetic pokesag datasets",
	Long:         "devdata fills pokesag databases with generated pager traffic so the viewer, API and search modes can be exercised without a receiver.",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
