package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/costs"
)

var costsFlags struct {
	since string
}

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Report journaled spend per provider and tier",
	Long: `Report spend recorded in the cost journal, grouped by provider and
tier. The journal must be enabled (journal.enabled) for the server to
write it.

--since accepts an RFC 3339 timestamp, a date (2026-01-02) or a duration
back from now (72h). It defaults to the start of the current month.`,
	Args: cobra.NoArgs,
	RunE: runCosts,
}

func init() {
	rootCmd.AddCommand(costsCmd)

	costsCmd.Flags().StringVar(&costsFlags.since, "since", "", "report entries recorded at or after this time")
}

func runCosts(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.Journal.Enabled {
		return errors.New("cost journal is disabled (set journal.enabled)")
	}

	since, err := parseSince(costsFlags.since, time.Now())
	if err != nil {
		return err
	}

	journal, err := costs.OpenSQLiteJournal(cfg.Journal.Path)
	if err != nil {
		return err
	}
	defer journal.Close()

	rollups, err := journal.Rollup(cmd.Context(), since)
	if err != nil {
		return err
	}

	format, err := cli.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	if format == cli.FormatJSON {
		return render(cmd, rollups)
	}
	return render(cmd, rollupTable(rollups, format == cli.FormatText))
}

func rollupTable(rollups []costs.ProviderRollup, withTotal bool) *cli.Table {
	table := &cli.Table{Headers: []string{"PROVIDER", "TIER", "REQUESTS", "INPUT_TOKENS", "OUTPUT_TOKENS", "COST_USD"}}

	var total costs.ProviderRollup
	for _, r := range rollups {
		table.AddRow(r.Provider, r.Tier, r.Requests, r.InputTokens, r.OutputTokens, fmt.Sprintf("%.6f", r.Cost))
		total.Requests += r.Requests
		total.InputTokens += r.InputTokens
		total.OutputTokens += r.OutputTokens
		total.Cost += r.Cost
	}
	if withTotal {
		table.AddRow("TOTAL", "", total.Requests, total.InputTokens, total.OutputTokens, fmt.Sprintf("%.6f", total.Cost))
	}
	return table
}

// parseSince parses the --since flag relative to now.
func parseSince(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	if d, err := time.ParseDuration(value); err == nil && d >= 0 {
		return now.Add(-d), nil
	}
	return time.Time{}, fmt.Errorf("invalid --since value %q", value)
}
