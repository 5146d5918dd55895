package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/models"
	"mercator-hq/relay/pkg/providers"
	"mercator-hq/relay/pkg/routing"
)

var completeFlags struct {
	provider       string
	tier           string
	model          string
	classification string
	system         string
	maxTokens      int
	temperature    float64
	stream         bool
}

var completeCmd = &cobra.Command{
	Use:   "complete [prompt]",
	Short: "Route one chat completion through the fallback chain",
	Long: `Send a prompt to the primary provider and fall back through the
chain until one succeeds. The prompt is read from stdin when no argument
is given.

Examples:
  relay complete "Explain circuit breakers in one sentence"
  relay complete --tier sota --provider gcp "Draft a haiku"
  relay complete --classification restricted < notes.txt
  relay complete --stream "Tell me a story"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runComplete,
}

var embedCmd = &cobra.Command{
	Use:   "embed [text...]",
	Short: "Embed texts through the fallback chain",
	Long: `Embed one or more texts. Embeddings are not counted against the
monthly budget.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEmbed,
}

func init() {
	rootCmd.AddCommand(completeCmd, embedCmd)

	completeCmd.Flags().StringVar(&completeFlags.provider, "provider", "", "force the primary provider")
	completeCmd.Flags().StringVar(&completeFlags.tier, "tier", "", "model tier (sota, cost_effective)")
	completeCmd.Flags().StringVar(&completeFlags.model, "model", "", "model id sent to every provider")
	completeCmd.Flags().StringVar(&completeFlags.classification, "classification", "", "data classification for hybrid routing")
	completeCmd.Flags().StringVar(&completeFlags.system, "system", "", "system prompt")
	completeCmd.Flags().IntVar(&completeFlags.maxTokens, "max-tokens", 0, "maximum tokens to generate")
	completeCmd.Flags().Float64Var(&completeFlags.temperature, "temperature", 0, "sampling temperature")
	completeCmd.Flags().BoolVar(&completeFlags.stream, "stream", false, "print the response as it is generated")

	embedCmd.Flags().StringVar(&completeFlags.provider, "provider", "", "force the primary provider")
	embedCmd.Flags().StringVar(&completeFlags.model, "model", "", "embedding model id sent to every provider")
	embedCmd.Flags().StringVar(&completeFlags.classification, "classification", "", "data classification for hybrid routing")
}

// completionSummary is the JSON output of "relay complete".
type completionSummary struct {
	Provider     string               `json:"provider"`
	Model        string               `json:"model"`
	Content      string               `json:"content"`
	FinishReason string               `json:"finish_reason,omitempty"`
	Usage        providers.TokenUsage `json:"usage"`
	CostUSD      float64              `json:"cost_usd"`
}

func runComplete(cmd *cobra.Command, args []string) error {
	req, err := completionRequest(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	format, err := cli.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	a, err := newApp(cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	if completeFlags.stream {
		return streamCompletion(cmd, a, req, format)
	}

	resp, err := a.router.Complete(cmd.Context(), req)
	if err != nil {
		return cli.NewCommandError("complete", err)
	}

	summary := completionSummary{
		Provider:     resp.Provider,
		Model:        resp.Model,
		Content:      resp.Content,
		FinishReason: resp.FinishReason,
		Usage:        resp.Usage,
		CostUSD:      a.costs.Summary().TotalCost,
	}
	if format == cli.FormatText {
		fmt.Fprintln(cmd.OutOrStdout(), resp.Content)
		printUsage(cmd.ErrOrStderr(), summary)
		return nil
	}
	return render(cmd, summary)
}

func streamCompletion(cmd *cobra.Command, a *app, req *routing.Request, format cli.OutputFormat) error {
	chunks, err := a.router.Stream(cmd.Context(), req)
	if err != nil {
		return cli.NewCommandError("complete", err)
	}

	var (
		summary completionSummary
		content strings.Builder
		failure error
	)
	for chunk := range chunks {
		if chunk.Err != nil {
			failure = chunk.Err
			continue
		}
		summary.Provider = chunk.Provider
		summary.Model = chunk.Model
		if chunk.FinishReason != "" {
			summary.FinishReason = chunk.FinishReason
		}
		if chunk.Usage != nil {
			summary.Usage = *chunk.Usage
		}
		content.WriteString(chunk.Content)
		if format == cli.FormatText {
			fmt.Fprint(cmd.OutOrStdout(), chunk.Content)
		}
	}
	// The channel closes after the stream is accounted, so the tracker
	// holds the final (possibly estimated) usage.
	summary.Content = content.String()
	summary.CostUSD = a.costs.Summary().TotalCost
	if entries := a.costs.Entries(); len(entries) > 0 {
		e := entries[len(entries)-1]
		summary.Usage = providers.TokenUsage{
			PromptTokens:     e.InputTokens,
			CompletionTokens: e.OutputTokens,
			TotalTokens:      e.InputTokens + e.OutputTokens,
		}
	}

	if failure != nil {
		return cli.NewCommandError("complete", failure)
	}
	if format == cli.FormatText {
		fmt.Fprintln(cmd.OutOrStdout())
		printUsage(cmd.ErrOrStderr(), summary)
		return nil
	}
	return render(cmd, summary)
}

func completionRequest(stdin io.Reader, args []string) (*routing.Request, error) {
	prompt := ""
	if len(args) == 1 {
		prompt = args[0]
	} else {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt: %w", err)
		}
		prompt = string(data)
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("prompt cannot be empty")
	}

	var tier models.Tier
	if completeFlags.tier != "" {
		var err error
		if tier, err = models.ParseTier(completeFlags.tier); err != nil {
			return nil, err
		}
	}

	var messages []providers.Message
	if completeFlags.system != "" {
		messages = append(messages, providers.Message{Role: providers.RoleSystem, Content: completeFlags.system})
	}
	messages = append(messages, providers.Message{Role: providers.RoleUser, Content: prompt})

	return &routing.Request{
		Messages:           messages,
		Provider:           completeFlags.provider,
		DataClassification: completeFlags.classification,
		Tier:               tier,
		Model:              completeFlags.model,
		MaxTokens:          completeFlags.maxTokens,
		Temperature:        completeFlags.temperature,
	}, nil
}

func printUsage(w io.Writer, s completionSummary) {
	fmt.Fprintf(w, "[%s/%s] %d prompt + %d completion tokens, $%.6f\n",
		s.Provider, s.Model, s.Usage.PromptTokens, s.Usage.CompletionTokens, s.CostUSD)
}

func runEmbed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	resp, err := a.router.Embed(cmd.Context(), &routing.EmbedRequest{
		Input:              args,
		Provider:           completeFlags.provider,
		DataClassification: completeFlags.classification,
		Model:              completeFlags.model,
	})
	if err != nil {
		return cli.NewCommandError("embed", err)
	}

	format, err := cli.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	if format == cli.FormatJSON {
		return render(cmd, resp)
	}

	table := &cli.Table{Headers: []string{"INPUT", "PROVIDER", "MODEL", "DIMENSIONS"}}
	for i, vector := range resp.Embeddings {
		table.AddRow(i, resp.Provider, resp.Model, len(vector))
	}
	return render(cmd, table)
}
