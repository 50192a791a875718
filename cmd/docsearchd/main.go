// Command docsearchd runs the HTTP front door for the contextual document
// search core: ingestion, search, autocomplete, resource CRUD, and category
// administration.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "docsearchd",
	Short: "HTTP server for the document search core",
	Long: `docsearchd serves ingestion, search, autocomplete, resource CRUD,
and category administration over HTTP, backed by Postgres, a vector store,
Redis, and an optional Temporal reindex worker.`,
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML configuration file")
}
