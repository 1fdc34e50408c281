package main

import (
	"os"

	"github.com/spf13/cobra"

	"docnotes/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "docnotes",
	Short: "Ask questions about PDFs and save summaries to Notion",
	Long: `docnotes serves a small HTTP API that answers questions with a
tool-calling language model. The model's tools (PDF text extraction and
Notion uploads) run in a worker subprocess that docnotes starts for every
request.

With no subcommand, docnotes runs the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("DOCNOTES_CONFIG")
	}
	return config.Load(path)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $DOCNOTES_CONFIG)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(workerCmd)
}
