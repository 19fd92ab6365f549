package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete all stored context for a tenant",
	Long: `Purge removes the tenant's vector collection, conversation sessions and
business profile. Safe to run for tenants that were never seeded.

Examples:
  brandforge purge --tenant acme`,
	RunE: runPurge,
}

func runPurge(cmd *cobra.Command, args []string) error {
	if err := requireTenant(); err != nil {
		return err
	}

	app, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.close()

	if err := app.engine.PurgeTenant(cmd.Context(), tenantID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "purged tenant %s\n", tenantID)
	return nil
}
