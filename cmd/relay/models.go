package main

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/models"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the model catalog",
	Long: `List the model every provider serves at each tier, with prices per
1000 tokens and the embedding model used by "relay embed". Configured
overrides are applied.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		overrides, err := cfg.Models.TierOverrides()
		if err != nil {
			return err
		}
		manager := models.NewManager(
			models.WithOverrides(overrides),
			models.WithEmbeddingOverrides(cfg.Models.EmbeddingOverrides),
		)
		return render(cmd, catalogTable(manager))
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func catalogTable(manager *models.Manager) *cli.Table {
	table := &cli.Table{
		Headers: []string{"PROVIDER", "TIER", "MODEL", "INPUT_PER_1K", "OUTPUT_PER_1K", "CONTEXT", "EMBEDDING"},
	}

	catalog := manager.Catalog()
	for _, provider := range manager.Providers() {
		embedding, ok := manager.EmbeddingModel(provider)
		if !ok {
			embedding = "-"
		}
		tiers := catalog[provider]
		for _, tier := range slices.Sorted(maps.Keys(tiers)) {
			m := tiers[tier]
			table.Rows = append(table.Rows, []string{
				provider,
				string(tier),
				m.ModelID,
				fmt.Sprintf("%.5f", m.InputCostPer1K),
				fmt.Sprintf("%.5f", m.OutputCostPer1K),
				fmt.Sprint(m.MaxContext),
				embedding,
			})
		}
	}
	return table
}
