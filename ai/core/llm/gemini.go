package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"
)

type geminiProvider struct {
	client      *genai.Client
	maxTokens   int32
	temperature float32
	timeout     time.Duration
}

func newGeminiProvider(cfg *Config) (*geminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	clientConfig := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: newHTTPClient(timeout),
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(context.Background(), clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &geminiProvider{
		client:      client,
		maxTokens:   int32(cfg.MaxTokens),
		temperature: cfg.Temperature,
		timeout:     timeout,
	}, nil
}

func (p *geminiProvider) Name() string {
	return ProviderGemini
}

func (p *geminiProvider) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{}
	if p.temperature > 0 {
		config.Temperature = genai.Ptr(p.temperature)
	}
	if p.maxTokens > 0 {
		config.MaxOutputTokens = p.maxTokens
	}
	if req.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}

	slog.Debug("LLM: generate request",
		"provider", ProviderGemini,
		"model", req.Model,
		"prompt_length", len(req.Prompt),
	)

	startTime := time.Now()
	resp, err := p.client.Models.GenerateContent(ctx, req.Model,
		[]*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)},
		config,
	)
	if err != nil {
		return nil, &ProviderError{Provider: ProviderGemini, Model: req.Model, Err: fmt.Errorf("generate content failed: %w", err)}
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, &ProviderError{Provider: ProviderGemini, Model: req.Model, Err: fmt.Errorf("empty response from LLM")}
	}

	stats := &CallStats{TotalDurationMs: time.Since(startTime).Milliseconds()}
	if u := resp.UsageMetadata; u != nil {
		stats.PromptTokens = int(u.PromptTokenCount)
		stats.CompletionTokens = int(u.CandidatesTokenCount)
		stats.TotalTokens = int(u.TotalTokenCount)
	}

	text := resp.Text()
	slog.Debug("LLM: generate response received",
		"provider", ProviderGemini,
		"content_length", len(text),
		"total_tokens", stats.TotalTokens,
		"duration_ms", stats.TotalDurationMs,
	)

	return &GenerateResponse{Text: text, Stats: stats}, nil
}
