// Package cmd implements the dvpick command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dvpick",
	Short: "terminal lookup-record picker for the Dataverse Web API",
	Long: `dvpick - pick lookup-field records from the terminal
  - search records of a lookup attribute's target entity
  - polymorphic lookups: switch between candidate target entities
  - paste a record ID for an exact fetch`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(pickCmd)
	rootCmd.AddCommand(metadataCmd)
	rootCmd.AddCommand(targetsCmd)
	rootCmd.AddCommand(recentCmd)
	rootCmd.AddCommand(versionCmd)
}
