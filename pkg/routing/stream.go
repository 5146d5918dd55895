package routing

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"mercator-hq/relay/pkg/providers"
	"mercator-hq/relay/pkg/telemetry/tracing"
	"mercator-hq/relay/pkg/tokens"
)

// streamBuffer is the capacity of the channel returned by Stream.
const streamBuffer = 16

// Stream routes a streaming chat completion. Budget check, resolution and
// fallback follow Complete, except that fallback only covers opening the
// stream: once a provider has returned a stream, a later failure is
// delivered as a chunk with Err set.
//
// Usage is accounted exactly once, when the provider's stream ends, from
// the usage the provider reported or, if it reported none, from an
// estimate over the prompt and the streamed text. The stream is drained to
// its end even if the consumer goes away so accounting still happens. A
// consumer is gone once ctx is cancelled or a chunk has waited longer than
// Config.StreamStallTimeout to be received; the returned channel is then
// closed without the remaining chunks.
func (r *Router) Stream(ctx context.Context, req *Request) (<-chan *providers.StreamChunk, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	p := r.newPlan(OperationStream, req.RequestID, req.Provider, req.DataClassification, req.Tier)
	ctx, span := r.start(ctx, tracing.SpanStream, p)

	if err := r.checkBudget(ctx, p); err != nil {
		tracing.SetError(span, err)
		span.End()
		return nil, err
	}

	var (
		src       <-chan *providers.StreamChunk
		usedModel string
	)
	served, err := r.walk(ctx, p, r.completionModel(p, req.Model),
		func(ctx context.Context, provider providers.Provider, model string) error {
			chunks, err := provider.Stream(ctx, req.completionRequest(model))
			if err != nil {
				return err
			}
			if chunks == nil {
				return &providers.StreamError{Provider: provider.Name(), Message: "provider returned no stream"}
			}
			src, usedModel = chunks, model
			return nil
		})
	if err != nil {
		tracing.SetError(span, err)
		span.End()
		return nil, err
	}

	out := make(chan *providers.StreamChunk, streamBuffer)
	go r.forward(ctx, span, p, req.Messages, served, usedModel, src, out)
	return out, nil
}

// streamTally collects what is needed to account a finished stream.
type streamTally struct {
	text  strings.Builder
	usage *providers.TokenUsage
	err   error
}

func (t *streamTally) add(chunk *providers.StreamChunk) {
	t.text.WriteString(chunk.Content)
	if chunk.Usage != nil {
		u := *chunk.Usage
		t.usage = &u
	}
	if chunk.Err != nil {
		t.err = chunk.Err
	}
}

// forward relays chunks from src to out, stamping the serving provider, and
// accounts the stream once src closes.
func (r *Router) forward(ctx context.Context, span trace.Span, p plan, messages []providers.Message, provider, model string, src <-chan *providers.StreamChunk, out chan<- *providers.StreamChunk) {
	defer span.End()
	defer close(out)

	var (
		tally     streamTally
		abandoned bool
	)
	stall := time.NewTimer(p.streamStall)
	defer stall.Stop()

	for chunk := range src {
		if chunk == nil {
			continue
		}
		c := *chunk
		c.Provider = provider
		if c.Model == "" {
			c.Model = model
		}
		tally.add(&c)

		if abandoned {
			continue
		}
		resetTimer(stall, p.streamStall)
		select {
		case out <- &c:
		case <-ctx.Done():
			abandoned = true
		case <-stall.C:
			slog.WarnContext(ctx, "stream consumer stalled, draining without delivery",
				"provider", provider,
				"stall_timeout", p.streamStall,
			)
			abandoned = true
		}
	}

	var (
		usage     providers.TokenUsage
		estimated bool
	)
	if tally.usage != nil {
		usage = *tally.usage
	} else {
		usage = tokens.Usage(r.estimator, messages, tally.text.String(), model)
		estimated = true
	}

	r.account(context.WithoutCancel(ctx), span, p, provider, model, usage, estimated)
	if tally.err != nil {
		tracing.SetError(span, tally.err)
	} else {
		tracing.SetStatus(span, nil)
	}
}

// resetTimer restarts t for d, discarding a pending expiry.
func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
