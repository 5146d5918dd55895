// Package tokens estimates token counts for requests whose provider does not
// report usage.
//
// The estimator is character based: text length divided by a
// characters-per-token ratio, with a minimum of one token for non-empty
// text. Ratios may be configured per model; a model matches the longest
// configured prefix ("llama3" matches "llama3.1:8b") and falls back to the
// "default" ratio, then to 4 characters per token.
//
// Estimates feed cost accounting for streams, so they err on the side of
// simplicity over tokenizer accuracy.
//
//	est := tokens.NewSimpleEstimator(nil)
//	prompt := est.EstimateMessages(req.Messages, req.Model)
//	completion := est.EstimateText(streamed.String(), req.Model)
package tokens
