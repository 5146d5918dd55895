package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mercator-hq/relay/pkg/providers"
)

func TestSimpleEstimator_EstimateText(t *testing.T) {
	estimator := NewSimpleEstimator(map[string]float64{
		"llama3":      3.0,
		"llama3.1:8b": 2.0,
		"default":     5.0,
		"broken":      0,
	})

	tests := []struct {
		name  string
		text  string
		model string
		want  int
	}{
		{name: "empty text", text: "", model: "gpt-4o", want: 0},
		{name: "short text rounds up to one", text: "hi", model: "gpt-4o", want: 1},
		{name: "default ratio", text: "0123456789", model: "gpt-4o", want: 2},
		{name: "exact match", text: "0123456789", model: "llama3.1:8b", want: 5},
		{name: "prefix match", text: "0123456789", model: "llama3.1:70b", want: 3},
		{name: "non-positive ratio ignored", text: "0123456789", model: "broken", want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, estimator.EstimateText(tt.text, tt.model))
		})
	}
}

func TestSimpleEstimator_FallsBackToFourCharsPerToken(t *testing.T) {
	estimator := NewSimpleEstimator(nil)

	assert.Equal(t, 3, estimator.EstimateText("0123456789", "any"))
	assert.Equal(t, 25, estimator.EstimateText(string(make([]byte, 100)), "any"))
}

func TestSimpleEstimator_EstimateMessages(t *testing.T) {
	estimator := NewSimpleEstimator(nil)

	assert.Equal(t, 0, estimator.EstimateMessages(nil, "m"))

	messages := []providers.Message{
		{Role: providers.RoleSystem, Content: "be brief"},
		{Role: providers.RoleUser, Content: "hello", Name: "x"},
	}
	// 3 conversation + 2*(1 role + 3 overhead) + content 2 + content 1 + name 1
	assert.Equal(t, 15, estimator.EstimateMessages(messages, "m"))
}

func TestUsage(t *testing.T) {
	estimator := NewSimpleEstimator(nil)
	messages := []providers.Message{{Role: providers.RoleUser, Content: "12345678"}}

	usage := Usage(estimator, messages, "abcdefgh", "m")

	assert.Equal(t, 9, usage.PromptTokens)
	assert.Equal(t, 2, usage.CompletionTokens)
	assert.Equal(t, 11, usage.TotalTokens)
}
