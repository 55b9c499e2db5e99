package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/lobster"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of lobster",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lobster version %s\n", strings.TrimSpace(lobster.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
