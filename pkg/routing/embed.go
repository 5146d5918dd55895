package routing

import (
	"context"
	"errors"
	"slices"

	"mercator-hq/relay/pkg/models"
	"mercator-hq/relay/pkg/providers"
	"mercator-hq/relay/pkg/telemetry/tracing"
)

// Embed routes an embedding request through the same provider resolution
// and fallback chain as Complete.
//
// Embeddings are not budgeted: the breaker is not consulted and nothing is
// recorded with the cost tracker or the ledger. Token usage is only
// reported to metrics.
func (r *Router) Embed(ctx context.Context, req *EmbedRequest) (*providers.EmbeddingResponse, error) {
	if req == nil {
		return nil, errors.New("routing: embedding request is nil")
	}
	if len(req.Input) == 0 {
		return nil, errors.New("routing: embedding request has no input")
	}

	p := r.newPlan(OperationEmbed, req.RequestID, req.Provider, req.DataClassification, "")
	ctx, span := r.start(ctx, tracing.SpanEmbed, p)
	defer span.End()

	var resp *providers.EmbeddingResponse
	served, err := r.walk(ctx, p, r.embeddingModel(req.Model),
		func(ctx context.Context, provider providers.Provider, model string) error {
			out, err := provider.Embed(ctx, &providers.EmbeddingRequest{
				Model: model,
				Input: slices.Clone(req.Input),
				User:  req.User,
			})
			if err != nil {
				return err
			}
			if out == nil {
				return &providers.ProviderError{Provider: provider.Name(), Message: "empty embedding response"}
			}
			resp = out
			return nil
		})
	if err != nil {
		tracing.SetError(span, err)
		return nil, err
	}

	resp.Provider = served
	r.metrics.RecordEmbeddingTokens(served, resp.Usage.PromptTokens)
	tracing.SetStatus(span, nil)

	return resp, nil
}

// embeddingModel resolves the embedding model for a provider: the explicit
// model, the provider's embedding preset, or its cost-effective chat model.
func (r *Router) embeddingModel(explicit string) modelFunc {
	return func(provider string) (string, error) {
		if explicit != "" {
			return explicit, nil
		}
		if model, ok := r.models.EmbeddingModel(provider); ok {
			return model, nil
		}
		mc, err := r.models.GetModel(provider, models.TierCostEffective)
		if err != nil {
			return "", err
		}
		return mc.ModelID, nil
	}
}
