package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litsearch/internal/export"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of litsearch",
	// Printing the version needs no configuration.
	PersistentPreRunE:  func(cmd *cobra.Command, args []string) error { return nil },
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("litsearch %s (result format %s)\n", version, export.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
