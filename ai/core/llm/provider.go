package llm

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// CallStats represents statistics for a single provider call.
type CallStats struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	// TotalDurationMs is the wall-clock time of the request.
	TotalDurationMs int64 `json:"total_duration_ms"`
}

// GenerateRequest is one single-turn generation: no history is sent.
type GenerateRequest struct {
	Model             string
	Prompt            string
	SystemInstruction string
}

// GenerateResponse carries the raw reply text.
type GenerateResponse struct {
	Text  string
	Stats *CallStats
}

// Provider is a hosted language-model service.
type Provider interface {
	// Name returns the provider identifier, e.g. "gemini".
	Name() string

	// Generate performs exactly one call. Every failure is a *ProviderError.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
}

// ProviderError is returned for transport, auth and malformed-response failures.
type ProviderError struct {
	Provider string
	Model    string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("llm provider %s (model %s): %v", e.Provider, e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Config represents provider configuration.
type Config struct {
	Provider    string // gemini, openai, deepseek, siliconflow, dashscope, zai, openrouter, ollama
	Model       string // default model when a request names none
	APIKey      string
	BaseURL     string
	MaxTokens   int     // 0 leaves the provider default
	Temperature float32 // default: 0.7
	Timeout     int     // Request timeout in seconds (default: 120)
}

const defaultTimeoutSeconds = 120

// NewProvider creates the provider named by cfg.Provider.
// Unknown names are treated as generic OpenAI-compatible endpoints.
func NewProvider(cfg *Config) (Provider, error) {
	if cfg == nil || cfg.Provider == "" {
		return nil, fmt.Errorf("llm provider is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeoutSeconds
	}
	if cfg.Provider == ProviderGemini {
		return newGeminiProvider(cfg)
	}
	return newOpenAIProvider(cfg)
}

// Helper for creating system prompts.
func SystemPrompt(content string) Message {
	return Message{Role: "system", Content: content}
}

// Helper for creating user messages.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}
