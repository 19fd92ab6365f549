package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// renderPrecision rounds durations in CLI output.
const renderPrecision = time.Millisecond

var searchLimit int

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 5, "maximum results")
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search a tenant's context documents",
	Long: `Search embeds the query and returns the tenant's most similar context
documents, best first.

Examples:
  brandforge search --tenant acme "target audience"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := requireTenant(); err != nil {
		return err
	}

	app, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.close()

	results, err := app.engine.SearchContext(cmd.Context(), tenantID, strings.Join(args, " "), searchLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "no matching context")
		return nil
	}
	for i, r := range results {
		fmt.Fprintf(out, "%d. [%.3f] %s\n", i+1, r.Score, r.Document.Content)
		if src, ok := r.Document.Metadata["source"]; ok {
			fmt.Fprintf(out, "   source: %v\n", src)
		}
	}
	return nil
}
