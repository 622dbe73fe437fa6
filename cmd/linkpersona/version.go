package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/endo-ava/link-persona-bot/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of linkpersona",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("linkpersona version %s\n", config.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
