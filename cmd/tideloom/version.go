package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tideloom/tideloom"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of tideloom",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tideloom version %s\n", tideloom.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
