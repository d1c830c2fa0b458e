package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ManuelReschke/LaunchPad/internal/pkg/config"
)

// ErrNotConfigured is returned when no generation API key is set.
var ErrNotConfigured = errors.New("LLM_API_KEY is not set")

// CompletionRequest is one chat completion call.
type CompletionRequest struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Completer sends a prompt to a text generation backend and returns the raw text.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// OpenAIClient talks to an OpenAI-compatible /chat/completions endpoint.
type OpenAIClient struct {
	APIKey  string
	BaseURL string
	Model   string

	HTTPClient *http.Client
}

func NewOpenAIClient(cfg config.LLMConfig) *OpenAIClient {
	return &OpenAIClient{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		BaseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		Model:   cfg.Model,
		HTTPClient: &http.Client{
			// The gateway sets the per-request deadline; this only bounds stuck connections.
			Timeout: cfg.Timeout + 5*time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if c.APIKey == "" {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("chat completion failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode chat completion: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("chat completion error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
