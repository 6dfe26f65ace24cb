package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/OwenXu27/ereader/version"
)

var (
	cfgFile string
	homeDir string
)

var rootCmd = &cobra.Command{
	Use:   "ereader",
	Short: "E-book reading server with LLM-assisted translation and chat",
	Long: `Ereader serves an EPUB library over HTTP with a single live reading
session per instance.

Features:
  - EPUB import, paging and table-of-contents navigation
  - Double-click block translation with a content-addressed cache
  - Per-book chat with grammar and background quick prompts
  - Throttled reading-progress persistence with a time-left estimate`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ~/.ereader/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "ereader home directory (default: ~/.ereader)",
	)

	// Credentials may live in a local .env during development.
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
	}

	rootCmd.AddCommand(versionCmd)
}
