// Package openai provides an LLM service adapter for the OpenAI chat
// completions API and compatible providers such as DeepSeek.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/docflow/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMTimeout = 120 * time.Second

	// DeepSeekBaseURL is the OpenAI-compatible DeepSeek endpoint.
	DeepSeekBaseURL = "https://api.deepseek.com"
	// DeepSeekModel is the default DeepSeek chat model.
	DeepSeekModel = "deepseek-chat"
)

// LLMConfig holds configuration for the OpenAI LLM service.
type LLMConfig struct {
	// APIKey is the API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Point it at DeepSeekBaseURL or any other compatible API.
	BaseURL string

	// Model is the LLM model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// Name labels errors. Defaults to "openai".
	Name string
}

// LLMService provides chat completion using an OpenAI-compatible API.
type LLMService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	name    string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

// apiError is the error envelope shared by OpenAI and DeepSeek.
type apiError struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

type chatCompletionResponse struct {
	apiError
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// NewLLMService creates a new OpenAI-compatible LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.Name == "" {
		cfg.Name = "openai"
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: API key is required", cfg.Name)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	return &LLMService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		name:    cfg.Name,
	}, nil
}

// NewDeepSeekService creates a service pointed at the DeepSeek API.
func NewDeepSeekService(apiKey, model, baseURL string) (*LLMService, error) {
	if baseURL == "" {
		baseURL = DeepSeekBaseURL
	}
	if model == "" {
		model = DeepSeekModel
	}
	return NewLLMService(LLMConfig{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   model,
		Name:    "deepseek",
	})
}

// Chat sends the conversation to /chat/completions. Temperature is always
// sent because zero is meaningful. opts.JSON enables json_object output.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	temperature := opts.Temperature
	req := chatCompletionRequest{
		Model:       s.model,
		Messages:    make([]chatMessage, len(messages)),
		MaxTokens:   opts.MaxTokens,
		Temperature: &temperature,
	}
	for i, m := range messages {
		req.Messages[i] = chatMessage{Role: m.Role, Content: m.Content}
	}
	if opts.JSON {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%s: encode request: %w", s.name, err)
	}

	status, body, err := s.do(ctx, http.MethodPost, "/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}

	var resp chatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		if status != http.StatusOK {
			return "", fmt.Errorf("%s error (status %d): %s", s.name, status, truncate(body))
		}
		return "", fmt.Errorf("%s: decode response: %w", s.name, err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("%s error: %s", s.name, resp.Error.Message)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("%s error (status %d): %s", s.name, status, truncate(body))
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: no response choices returned", s.name)
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists models, which checks the API key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	status, body, err := s.do(ctx, http.MethodGet, "/models", http.NoBody)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%s: ping: status %d: %s", s.name, status, truncate(body))
	}
	return nil
}

// Close is a no-op.
func (s *LLMService) Close() error {
	return nil
}

// do sends an authenticated request and returns the status and body.
func (s *LLMService) do(ctx context.Context, method, path string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: create request: %w", s.name, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: send request: %w", s.name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: read response: %w", s.name, err)
	}
	return resp.StatusCode, data, nil
}

// truncate bounds quoted error bodies.
func truncate(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
