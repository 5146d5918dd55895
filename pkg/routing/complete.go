package routing

import (
	"context"

	"mercator-hq/relay/pkg/providers"
	"mercator-hq/relay/pkg/telemetry/tracing"
)

// Complete routes a chat completion. The budget breaker is consulted first;
// when it is open the request fails with *budget.BudgetExceededError and no
// provider is called. Otherwise the fallback chain is walked until a
// provider succeeds, and that single success is priced and recorded. When
// every provider fails the error is *AllProvidersFailedError.
func (r *Router) Complete(ctx context.Context, req *Request) (*providers.CompletionResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	p := r.newPlan(OperationComplete, req.RequestID, req.Provider, req.DataClassification, req.Tier)
	ctx, span := r.start(ctx, tracing.SpanComplete, p)
	defer span.End()

	if err := r.checkBudget(ctx, p); err != nil {
		tracing.SetError(span, err)
		return nil, err
	}

	var (
		resp      *providers.CompletionResponse
		usedModel string
	)
	served, err := r.walk(ctx, p, r.completionModel(p, req.Model),
		func(ctx context.Context, provider providers.Provider, model string) error {
			out, err := provider.Complete(ctx, req.completionRequest(model))
			if err != nil {
				return err
			}
			if out == nil {
				return &providers.ProviderError{Provider: provider.Name(), Message: "empty completion response"}
			}
			resp, usedModel = out, model
			return nil
		})
	if err != nil {
		tracing.SetError(span, err)
		return nil, err
	}

	resp.Provider = served
	if resp.Model == "" {
		resp.Model = usedModel
	}
	r.account(ctx, span, p, served, usedModel, resp.Usage, false)
	tracing.SetStatus(span, nil)

	return resp, nil
}

