// Package logging configures the process-wide slog logger.
//
// Components log through the default slog logger with key-value pairs.
// Setup installs a JSON or text handler that also appends the request id,
// provider and model carried on the context:
//
//	logging.Setup(logging.Config{Level: "info", Format: "json", RedactSecrets: true})
//
//	ctx = logging.WithRequestID(ctx, id)
//	slog.WarnContext(ctx, "provider failed", "provider", name, "error", err)
//	// {"level":"WARN","msg":"provider failed","provider":"aws",...,"request_id":"..."}
//
// With RedactSecrets, attributes named like credentials (api_key,
// authorization, token) are masked, and API keys or bearer tokens embedded
// in string values are replaced with "***".
package logging
