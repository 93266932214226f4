package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecision(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Decision
		wantErr bool
	}{
		{"bare approve", "APPROVE", DecisionApprove, false},
		{"bare reject", "REJECT", DecisionReject, false},
		{"lowercase", "approve", DecisionApprove, false},
		{"token inside a sentence", "I would APPROVE this request.", DecisionApprove, false},
		{"reject with punctuation", "Decision: reject.", DecisionReject, false},
		{"empty output", "", "", true},
		{"neither token", "maybe", "", true},
		{"both tokens", "APPROVE or REJECT, hard to say", "", true},
		{"whitespace only", "   \n", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecision(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrClassifierAmbiguous)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newTestClassifier(baseURL string) *OpenRouterClassifier {
	return &OpenRouterClassifier{
		APIKey:     "test-key",
		Model:      "test-model",
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestOpenRouterClassifierDecide(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"APPROVE"}}]}`))
	}))
	defer server.Close()

	classifier := newTestClassifier(server.URL)
	answer, err := classifier.Decide(context.Background(), "approve or reject?")
	require.NoError(t, err)
	assert.Equal(t, "APPROVE", answer)
}

func TestOpenRouterClassifierDecideAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	classifier := newTestClassifier(server.URL)
	_, err := classifier.Decide(context.Background(), "prompt")
	require.ErrorIs(t, err, ErrClassifierUnavailable)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestOpenRouterClassifierDecideEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	classifier := newTestClassifier(server.URL)
	answer, err := classifier.Decide(context.Background(), "prompt")
	require.NoError(t, err)

	// an empty answer is not an error at transport level; ParseDecision
	// classifies it as ambiguous and the fallback takes over
	_, err = ParseDecision(answer)
	require.ErrorIs(t, err, ErrClassifierAmbiguous)
}

func TestOpenRouterClassifierDecideNoKey(t *testing.T) {
	classifier := &OpenRouterClassifier{HTTPClient: http.DefaultClient}
	_, err := classifier.Decide(context.Background(), "prompt")
	require.ErrorIs(t, err, ErrClassifierUnavailable)
}

func TestOpenRouterClassifierDecideUnreachable(t *testing.T) {
	classifier := newTestClassifier("http://127.0.0.1:1")
	_, err := classifier.Decide(context.Background(), "prompt")
	require.ErrorIs(t, err, ErrClassifierUnavailable)
}
