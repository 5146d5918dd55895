package providers

import (
	"context"
	"log/slog"
	"time"
)

// StartHealthChecker starts a background goroutine that periodically probes
// the provider and updates its health status. It runs until the provider is
// closed or ctx is cancelled, backing off while the provider is unhealthy.
func (p *HTTPProvider) StartHealthChecker(ctx context.Context) {
	p.checkerStarted = true
	go p.runHealthChecker(ctx)
}

func (p *HTTPProvider) runHealthChecker(ctx context.Context) {
	defer close(p.healthCheckStopped)

	interval := p.config.HealthCheckInterval
	if interval == 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("health checker started",
		"provider", p.config.Name,
		"interval", interval,
	)

	for {
		select {
		case <-ctx.Done():
			slog.Debug("health checker stopped (context cancelled)", "provider", p.config.Name)
			return

		case <-p.stopHealthCheck:
			slog.Debug("health checker stopped (provider closed)", "provider", p.config.Name)
			return

		case <-ticker.C:
			p.performHealthCheck(ctx)

			if !p.IsHealthy() {
				health := p.Health()
				next := calculateBackoff(health.ConsecutiveFailures, interval)
				ticker.Reset(next)

				slog.Debug("health check backoff",
					"provider", p.config.Name,
					"consecutive_failures", health.ConsecutiveFailures,
					"next_check_in", next,
				)
			} else {
				ticker.Reset(interval)
			}
		}
	}
}

// performHealthCheck executes a single probe with a 5 second bound.
func (p *HTTPProvider) performHealthCheck(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	wasHealthy := p.IsHealthy()
	start := time.Now()
	err := p.probe(checkCtx)
	latency := time.Since(start)

	if err != nil {
		p.updateHealth(false, err)
		slog.Error("health check failed",
			"provider", p.config.Name,
			"error", err,
			"latency", latency,
		)
		return
	}

	p.updateHealth(true, nil)
	slog.Debug("health check passed",
		"provider", p.config.Name,
		"latency", latency,
	)
	if !wasHealthy {
		slog.Info("provider marked healthy", "provider", p.config.Name)
	}
}

// defaultProbe issues a GET against the base URL.
func (p *HTTPProvider) defaultProbe(ctx context.Context) error {
	resp, err := p.DoRequest(ctx, "GET", p.config.BaseURL, nil, p.AuthHeaders())
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// AuthHeaders returns the authentication headers for the configured dialect.
// Local backends without a key get none.
func (p *HTTPProvider) AuthHeaders() map[string]string {
	headers := make(map[string]string, 1)
	if p.config.APIKey == "" {
		return headers
	}
	switch p.config.Dialect {
	case DialectAzure:
		headers["api-key"] = p.config.APIKey
	default:
		headers["Authorization"] = "Bearer " + p.config.APIKey
	}
	return headers
}

// calculateBackoff returns base * 2^failures, capped at 10x base and 5 minutes.
func calculateBackoff(consecutiveFailures int, baseInterval time.Duration) time.Duration {
	if consecutiveFailures <= 0 {
		return baseInterval
	}

	multiplier := 1 << uint(min(consecutiveFailures, 4))
	if multiplier > 10 {
		multiplier = 10
	}

	backoff := baseInterval * time.Duration(multiplier)
	if backoff > 5*time.Minute {
		backoff = 5 * time.Minute
	}
	return backoff
}

// HealthCheck runs the live probe once.
func (p *HTTPProvider) HealthCheck(ctx context.Context) error {
	return p.probe(ctx)
}
