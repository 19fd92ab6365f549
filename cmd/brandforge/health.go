package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe all configured model providers",
	Long: `Health pings every configured provider and prints a status table.

Examples:
  brandforge health --config brandforge.yaml`,
	RunE: runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	app, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.close()

	report := app.orch.HealthReport(cmd.Context())
	out := cmd.OutOrStdout()
	if len(report) == 0 {
		fmt.Fprintln(out, "no providers configured")
		return nil
	}

	unhealthy := 0
	for _, h := range report {
		status := "healthy"
		if !h.Healthy {
			status = "unhealthy"
			unhealthy++
		}
		fmt.Fprintf(out, "%-24s %-8s %-10s %s\n", h.Name, h.Kind, status, h.Latency.Round(renderPrecision))
	}
	if unhealthy > 0 {
		return fmt.Errorf("%d of %d providers unhealthy", unhealthy, len(report))
	}
	return nil
}
