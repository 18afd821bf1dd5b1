package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiURL string
	token  string
)

var rootCmd = &cobra.Command{
	Use:   "eda-cli",
	Short: "A CLI client for the Auto EDA & Storytelling API",
	Long:  `Upload datasets, run the EDA pipeline, fetch generated slide decks, or profile a local file.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func init() {
	defaultURL := os.Getenv("API_URL")
	if defaultURL == "" {
		defaultURL = "http://127.0.0.1:8000"
	}
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", defaultURL, "API base URL (env API_URL)")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("EDA_TOKEN"), "bearer token (env EDA_TOKEN)")
}
