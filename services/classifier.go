package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Decision is an unambiguous review outcome parsed from classifier output
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// Classifier answers a natural-language review question with free text
// expected to contain APPROVE or REJECT. Implementations must respect the
// context deadline.
type Classifier interface {
	Decide(ctx context.Context, prompt string) (string, error)
}

// ParseDecision extracts the decision token from raw classifier output.
// Only a response containing exactly one of the two tokens is accepted;
// empty output, or output containing both or neither, is ambiguous.
func ParseDecision(raw string) (Decision, error) {
	text := strings.ToUpper(raw)
	hasApprove := strings.Contains(text, "APPROVE")
	hasReject := strings.Contains(text, "REJECT")
	if hasApprove == hasReject {
		return "", ErrClassifierAmbiguous
	}
	if hasApprove {
		return DecisionApprove, nil
	}
	return DecisionReject, nil
}

// OpenRouterClassifier calls an OpenRouter-compatible chat completions API
type OpenRouterClassifier struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// NewOpenRouterClassifierFromEnv builds a classifier from OPENROUTER_API_KEY
// and AUTOPILOT_MODEL. With no key configured every call fails and the
// pipeline runs purely on its deterministic fallback rules.
func NewOpenRouterClassifierFromEnv() *OpenRouterClassifier {
	model := os.Getenv("AUTOPILOT_MODEL")
	if model == "" {
		model = "openai/gpt-4o-mini"
	}
	return &OpenRouterClassifier{
		APIKey:     os.Getenv("OPENROUTER_API_KEY"),
		Model:      model,
		BaseURL:    "https://openrouter.ai/api/v1",
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	// Keep answers to a single token
	MaxTokens int `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Decide sends the prompt and returns the model's raw answer
func (c *OpenRouterClassifier) Decide(ctx context.Context, prompt string) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("%w: no API key configured", ErrClassifierUnavailable)
	}
	body, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens: 10,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%w: invalid response body", ErrClassifierUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error.Message != "" {
			return "", fmt.Errorf("%w: %s", ErrClassifierUnavailable, parsed.Error.Message)
		}
		return "", fmt.Errorf("%w: status %d", ErrClassifierUnavailable, resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", nil
	}
	return parsed.Choices[0].Message.Content, nil
}
