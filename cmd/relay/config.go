package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/relay/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect relay configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load the file named by --config, apply defaults and RELAY_*
environment overrides, and report every validation error.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
		if err != nil {
			return err
		}
		source := cfgFile
		if source == "" {
			source = "defaults"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "configuration valid (%s): mode %s, %d providers, monthly budget %.2f USD\n",
			source, cfg.Router.Mode, len(cfg.Providers), cfg.Budget.MonthlyUSD)
		return nil
	},
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := config.SchemaJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd, configSchemaCmd)
}
