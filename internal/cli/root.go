// Package cli defines the docdex command tree.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "docdex",
	Short: "Session-scoped document chunking, indexing and retrieval",
	Long: `docdex ingests documents, splits them with a chunking strategy,
indexes the chunks and serves retrieval, evaluation and assistant
endpoints over HTTP. The evaluate command runs the same pipeline
offline to compare strategy combinations.`,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
