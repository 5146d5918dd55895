/*
Package cli provides helpers shared by the relay command.

Output Formatting:

Commands render results as text, JSON or CSV. Tabular results use Table so
every format can render them:

	table := &cli.Table{Headers: []string{"PROVIDER", "AVAILABLE"}}
	table.AddRow("azure", true)
	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, table); err != nil {
		return err
	}

CSV is only defined for tables. Other values are written with %v in text
mode and encoded as-is in JSON mode.

Exit Codes:

ExitCode maps routing failures to stable process exit codes: 2 for invalid
configuration, 3 when the budget breaker rejects a request and 4 when every
provider in the fallback chain failed.

Signal Handling:

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()
*/
package cli
