package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brandforge/brandforge/internal/engine"
	"github.com/brandforge/brandforge/internal/orchestrator"
)

var (
	askSession  string
	askCategory string
	askPrompt   string
	askNoSave   bool
)

func init() {
	askCmd.Flags().StringVar(&askSession, "session", "", "conversation session ID")
	askCmd.Flags().StringVar(&askCategory, "category", string(orchestrator.CategoryGeneral), "task category")
	askCmd.Flags().StringVar(&askPrompt, "base-prompt", "", "override the base instructions")
	askCmd.Flags().BoolVar(&askNoSave, "no-save", false, "do not write the interaction back into context")
}

var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Run a contextual generation for a tenant",
	Long: `Ask assembles the tenant's context, composes the prompt and routes it
through the configured providers with fallback.

Examples:
  brandforge ask --tenant acme "write a tagline for our espresso blend"
  brandforge ask --tenant acme --session s1 --category email_generation "draft a launch email"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := requireTenant(); err != nil {
		return err
	}

	app, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.close()

	res, err := app.engine.Invoke(cmd.Context(), engine.Request{
		TenantID:    tenantID,
		SessionID:   askSession,
		Category:    orchestrator.Category(askCategory),
		Query:       strings.Join(args, " "),
		BasePrompt:  askPrompt,
		SaveContext: !askNoSave,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, res.Content)
	fmt.Fprintf(out, "\n[model: %s", res.ModelUsed)
	if res.FallbackUsed {
		fmt.Fprintf(out, " (fallback from %s)", res.ModelRequested)
	}
	fmt.Fprintf(out, ", tokens: %d, context: %v, took %s]\n",
		res.Usage.Total, res.ContextUsed, res.Duration.Round(renderPrecision))
	return nil
}
