package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/routing"
)

var statusFlags struct {
	probe bool
}

// statusReport is the output of "relay status".
type statusReport struct {
	routing.Status
	Health map[string]bool `json:"health,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show routing configuration and provider availability",
	Long: `Show the routing mode, fallback chain and which providers are
configured well enough to be tried. With --probe every provider is asked
for its model list to check it is reachable.

Budget spend is tracked in memory by the running server; query its
/status endpoint for live budget state.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusFlags.probe, "probe", false, "probe every provider's health endpoint")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	report := statusReport{Status: a.router.Status()}
	if statusFlags.probe {
		report.Health = a.registry.HealthCheckAll(cmd.Context())
	}

	format, err := cli.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	if format == cli.FormatJSON {
		return render(cmd, report)
	}

	if format == cli.FormatText {
		fmt.Fprintf(cmd.OutOrStdout(), "Mode:           %s\n", report.Mode)
		fmt.Fprintf(cmd.OutOrStdout(), "Default:        %s (tier %s)\n", report.DefaultProvider, report.DefaultTier)
		fmt.Fprintf(cmd.OutOrStdout(), "Local:          %s\n", report.LocalProvider)
		fmt.Fprintf(cmd.OutOrStdout(), "Fallback chain: %s\n", strings.Join(report.FallbackChain, " -> "))
		fmt.Fprintf(cmd.OutOrStdout(), "Budget:         %s (%.2f of %.2f USD)\n\n",
			report.Budget.State, report.Budget.Spend, report.Budget.Limit)
	}
	return render(cmd, providerTable(report))
}

func providerTable(report statusReport) *cli.Table {
	table := &cli.Table{Headers: []string{"PROVIDER", "AVAILABLE"}}
	if report.Health != nil {
		table.Headers = append(table.Headers, "HEALTHY")
	}
	for _, name := range slices.Sorted(maps.Keys(report.Providers)) {
		row := []string{name, fmt.Sprint(report.Providers[name])}
		if report.Health != nil {
			row = append(row, fmt.Sprint(report.Health[name]))
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
