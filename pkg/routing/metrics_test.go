package routing

import (
	"strings"
	"sync"
	"time"
)

// recordingMetrics counts routing measurements by key.
type recordingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{counts: make(map[string]int)}
}

func (m *recordingMetrics) add(key string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key] += n
}

// count returns the total for key. A "*" segment matches any value.
func (m *recordingMetrics) count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	want := strings.Split(key, ":")
	total := 0
	for k, v := range m.counts {
		got := strings.Split(k, ":")
		if len(got) != len(want) {
			continue
		}
		match := true
		for i := range want {
			if want[i] != "*" && want[i] != got[i] {
				match = false
				break
			}
		}
		if match {
			total += v
		}
	}
	return total
}

func (m *recordingMetrics) RecordRequest(operation, provider, outcome string, _ time.Duration) {
	m.add("request:"+operation+":"+provider+":"+outcome, 1)
}

func (m *recordingMetrics) RecordFallback(operation string) {
	m.add("fallback:"+operation, 1)
}

func (m *recordingMetrics) RecordRejection(operation, reason string) {
	m.add("rejection:"+operation+":"+reason, 1)
}

func (m *recordingMetrics) RecordTokens(provider, model string, inputTokens, outputTokens int) {
	m.add("tokens:"+provider, inputTokens+outputTokens)
}

func (m *recordingMetrics) RecordEmbeddingTokens(provider string, tokens int) {
	m.add("embedding_tokens:"+provider, tokens)
}

func (m *recordingMetrics) RecordCost(provider, tier string, _ float64) {
	m.add("cost:"+provider+":"+tier, 1)
}

func (m *recordingMetrics) RecordProviderError(provider string, _ error) {
	m.add("provider_error:"+provider, 1)
}
