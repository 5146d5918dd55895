package providers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPProvider_UnhealthyAfterThreeFailures(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	provider := NewHTTPProvider(ProviderConfig{Name: "gcp", BaseURL: server.URL, Timeout: 5 * time.Second})

	for i := 1; i <= 3; i++ {
		_, err := provider.DoRequest(context.Background(), "GET", server.URL, nil, nil)
		if err == nil {
			t.Fatalf("request %d: expected failure", i)
		}
		if want := i < 3; provider.IsHealthy() != want {
			t.Errorf("after %d failures: expected healthy=%v", i, want)
		}
	}

	fail.Store(false)
	resp, err := provider.DoRequest(context.Background(), "GET", server.URL, nil, nil)
	if err != nil {
		t.Fatalf("expected recovery request to succeed, got %v", err)
	}
	resp.Body.Close()

	health := provider.Health()
	if !health.IsHealthy || health.ConsecutiveFailures != 0 || health.LastError != nil {
		t.Errorf("expected full recovery, got %+v", health)
	}
}

func TestHTTPProvider_HealthCheckUsesProbe(t *testing.T) {
	provider := NewHTTPProvider(ProviderConfig{Name: "aws", BaseURL: "http://127.0.0.1:1"})

	probeErr := errors.New("probe down")
	provider.SetProbe(func(ctx context.Context) error { return probeErr })

	if err := provider.HealthCheck(context.Background()); !errors.Is(err, probeErr) {
		t.Errorf("expected probe error, got %v", err)
	}

	provider.SetProbe(func(ctx context.Context) error { return nil })
	if err := provider.HealthCheck(context.Background()); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestHTTPProvider_ConcurrentHealthAccess(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	provider := NewHTTPProvider(ProviderConfig{Name: "ollama", BaseURL: server.URL, Timeout: 5 * time.Second})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			resp, err := provider.DoRequest(context.Background(), "GET", server.URL, nil, nil)
			if err == nil {
				resp.Body.Close()
			}
		}()
		go func() {
			defer wg.Done()
			_ = provider.Health()
			_ = provider.IsHealthy()
		}()
	}
	wg.Wait()

	if got := provider.Health().TotalRequests; got != 20 {
		t.Errorf("expected 20 requests recorded, got %d", got)
	}
}

func TestHealthChecker_PeriodicProbes(t *testing.T) {
	provider := NewHTTPProvider(ProviderConfig{
		Name:                "vllm",
		BaseURL:             "http://127.0.0.1:1",
		HealthCheckInterval: 20 * time.Millisecond,
	})

	var probes int32
	provider.SetProbe(func(ctx context.Context) error {
		atomic.AddInt32(&probes, 1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	provider.StartHealthChecker(ctx)

	time.Sleep(150 * time.Millisecond)
	if err := provider.Close(); err != nil {
		t.Fatalf("Close() returned error: %v", err)
	}

	if got := atomic.LoadInt32(&probes); got < 3 {
		t.Errorf("expected at least 3 probes, got %d", got)
	}
}

func TestHealthChecker_StopsOnClose(t *testing.T) {
	provider := NewHTTPProvider(ProviderConfig{
		Name:                "azure",
		BaseURL:             "http://127.0.0.1:1",
		HealthCheckInterval: 10 * time.Millisecond,
	})

	var probes int32
	provider.SetProbe(func(ctx context.Context) error {
		atomic.AddInt32(&probes, 1)
		return nil
	})

	provider.StartHealthChecker(context.Background())
	time.Sleep(50 * time.Millisecond)

	if err := provider.Close(); err != nil {
		t.Fatalf("Close() returned error: %v", err)
	}
	before := atomic.LoadInt32(&probes)
	time.Sleep(50 * time.Millisecond)
	after := atomic.LoadInt32(&probes)

	if before != after {
		t.Errorf("expected probes to stop after Close(), before=%d after=%d", before, after)
	}

	// Close is idempotent.
	if err := provider.Close(); err != nil {
		t.Errorf("second Close() returned error: %v", err)
	}
}

func TestCalculateBackoff(t *testing.T) {
	base := 10 * time.Second
	tests := []struct {
		failures int
		want     time.Duration
	}{
		{0, 10 * time.Second},
		{1, 20 * time.Second},
		{2, 40 * time.Second},
		{3, 80 * time.Second},
		{4, 100 * time.Second},
		{10, 100 * time.Second},
	}
	for _, tt := range tests {
		if got := calculateBackoff(tt.failures, base); got != tt.want {
			t.Errorf("calculateBackoff(%d) = %v, want %v", tt.failures, got, tt.want)
		}
	}

	if got := calculateBackoff(4, time.Minute); got != 5*time.Minute {
		t.Errorf("expected cap at 5m, got %v", got)
	}
}
