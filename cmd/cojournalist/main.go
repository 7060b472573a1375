// Package main provides the entry point for the coJournalist service.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cojournalist",
	Short: "coJournalist HTTP API server",
	Long:  "coJournalist is a chat assistant for journalists: mode-routed questions to an LLM or hosted Spaces, and scheduled scrape jobs stored in Postgres.",
	// Errors are printed once by main.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
