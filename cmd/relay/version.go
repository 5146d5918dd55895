package main

import (
	"runtime"

	"github.com/spf13/cobra"

	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/telemetry/health"
)

var (
	// Version is the semantic version (set by build flags)
	Version = "0.1.0"
	// GitCommit is the git commit hash (set by build flags)
	GitCommit = "unknown"
	// BuildDate is the build timestamp (set by build flags)
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cli.ParseFormat(outputFormat)
		if err != nil {
			return err
		}
		info := versionInfo()
		if format == cli.FormatText {
			table := &cli.Table{}
			table.AddRow("Version:", info.Version)
			table.AddRow("Git Commit:", info.Commit)
			table.AddRow("Build Date:", info.BuildTime)
			table.AddRow("Go Version:", info.GoVersion)
			table.AddRow("OS/Arch:", runtime.GOOS+"/"+runtime.GOARCH)
			return render(cmd, table)
		}
		return render(cmd, info)
	},
}

func versionInfo() health.VersionInfo {
	return health.VersionInfo{
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
		GoVersion: runtime.Version(),
	}
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
