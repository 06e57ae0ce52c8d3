package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Default base URLs of OpenAI-compatible providers.
var openAIBaseURLs = map[string]string{
	"deepseek":    "https://api.deepseek.com",
	"siliconflow": "https://api.siliconflow.cn/v1",
	"zai":         "https://open.bigmodel.cn/api/paas/v4",
	"dashscope":   "https://dashscope.aliyuncs.com/compatible-mode/v1",
	"openrouter":  "https://openrouter.ai/api/v1",
	"ollama":      "http://localhost:11434/v1",
	"openai":      "",
}

type openAIProvider struct {
	client      *openai.Client
	provider    string
	maxTokens   int
	temperature float32
	timeout     time.Duration
}

func newOpenAIProvider(cfg *Config) (*openAIProvider, error) {
	baseURL, known := openAIBaseURLs[cfg.Provider]
	if !known {
		slog.Info("Using generic OpenAI-compatible provider", "provider", cfg.Provider)
	}
	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	clientConfig.HTTPClient = newHTTPClient(timeout)

	return &openAIProvider{
		client:      openai.NewClientWithConfig(clientConfig),
		provider:    cfg.Provider,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     timeout,
	}, nil
}

func (p *openAIProvider) Name() string {
	return p.provider
}

func (p *openAIProvider) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	messages := []Message{UserMessage(req.Prompt)}
	if req.SystemInstruction != "" {
		messages = append([]Message{SystemPrompt(req.SystemInstruction)}, messages...)
	}

	slog.Debug("LLM: generate request",
		"provider", p.provider,
		"model", req.Model,
		"prompt_length", len(req.Prompt),
	)

	startTime := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
		Messages:    convertMessages(messages),
	})
	if err != nil {
		return nil, &ProviderError{Provider: p.provider, Model: req.Model, Err: fmt.Errorf("chat completion failed: %w", err)}
	}
	if len(resp.Choices) == 0 {
		return nil, &ProviderError{Provider: p.provider, Model: req.Model, Err: fmt.Errorf("empty response from LLM")}
	}

	totalDuration := time.Since(startTime)
	stats := &CallStats{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		TotalDurationMs:  totalDuration.Milliseconds(),
	}

	slog.Debug("LLM: generate response received",
		"provider", p.provider,
		"content_length", len(resp.Choices[0].Message.Content),
		"total_tokens", stats.TotalTokens,
		"duration_ms", stats.TotalDurationMs,
	)

	return &GenerateResponse{Text: resp.Choices[0].Message.Content, Stats: stats}, nil
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	llmMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case "system":
			role = openai.ChatMessageRoleSystem
		case "assistant":
			role = openai.ChatMessageRoleAssistant
		}
		llmMessages[i] = openai.ChatCompletionMessage{Role: role, Content: m.Content}
	}
	return llmMessages
}
