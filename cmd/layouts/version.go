package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/layouts"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of layouts",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "layouts version %s\n", strings.TrimSpace(layouts.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
