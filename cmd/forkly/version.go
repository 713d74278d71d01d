package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/viant/forkly"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of forkly",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("forkly version %s\n", forkly.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
