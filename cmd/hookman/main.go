package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "hookman",
	Short: "Manage and trigger webhooks",
	Long: `Hookman is a small authenticated web service for storing named webhook
definitions and triggering them on demand.

It serves a password-protected front-end plus a JSON API for creating,
updating, deleting and firing webhooks.`,
	Version: version,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
