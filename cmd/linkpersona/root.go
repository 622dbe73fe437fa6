package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/endo-ava/link-persona-bot/utils/log"
)

var rootCmd = &cobra.Command{
	Use:   "linkpersona",
	Short: "Link Persona Bot summarizes shared links in a persona's voice",
	Long: `Link Persona Bot runs an HTTP API that summarizes articles and debates them,
and a chat bot that calls that API whenever someone shares a link.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	defer log.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		log.Sync()
		os.Exit(1)
	}
}
