package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brandforge/brandforge/internal/profile"
)

var seedProfilePath string

func init() {
	seedCmd.Flags().StringVar(&seedProfilePath, "profile", "", "path to business profile JSON")
	_ = seedCmd.MarkFlagRequired("profile")
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed a tenant's business context from a profile file",
	Long: `Seed stores the business profile and loads its derived documents into
the tenant's vector collection. Re-seeding with the same profile is a
no-op.

Examples:
  brandforge seed --tenant acme --profile acme.json`,
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	if err := requireTenant(); err != nil {
		return err
	}

	data, err := os.ReadFile(seedProfilePath)
	if err != nil {
		return fmt.Errorf("reading profile: %w", err)
	}
	var p profile.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("parsing profile: %w", err)
	}

	app, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.close()

	added, err := app.engine.SeedTenant(cmd.Context(), tenantID, p)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded tenant %s: %d documents added\n", tenantID, added)
	return nil
}
