package profile

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is configuration to start main server.
type Profile struct {
	// LLM configuration. "gemini" talks to the Gemini API; every other provider
	// uses the OpenAI-compatible protocol.
	LLMProvider    string  // gemini, zai, deepseek, openai, siliconflow, dashscope, openrouter, ollama
	LLMAPIKey      string  // Provider API key
	LLMBaseURL     string  // Optional, has default per provider
	LLMModel       string  // Default model when a request names none
	LLMTimeout     int     // LLM request timeout in seconds (default: 120)
	LLMTemperature float32 // 0 leaves the provider default
	LLMMaxTokens   int     // 0 leaves the provider default

	// Chat behaviour
	IntentHints     bool          // Append detected intent to the system instruction
	SessionTTL      time.Duration // Idle time before a session is dropped
	SessionCapacity int           // Max sessions kept in memory
	RateLimit       float64       // Chat requests per second per client IP, 0 disables
	RateBurst       int

	// Other configurations
	UNIXSock string
	Mode     string
	Version  string
	Addr     string
	Port     int
}

// Provider default configurations for LLM.
// Used when the base URL or model is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"gemini": {
		BaseURL: "", // genai SDK default endpoint
		Model:   "gemini-2.0-flash-lite",
	},
	"zai": {
		BaseURL: "https://open.bigmodel.cn/api/paas/v4",
		Model:   "glm-4.7",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
	},
	"siliconflow": {
		BaseURL: "https://api.siliconflow.cn/v1",
		Model:   "Qwen/Qwen2.5-72B-Instruct",
	},
	"dashscope": {
		BaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1",
		Model:   "qwen-max-latest",
	},
	"openrouter": {
		BaseURL: "https://openrouter.ai/api/v1",
		Model:   "google/gemini-2.0-flash-lite-001",
	},
	"ollama": {
		BaseURL: "http://localhost:11434/v1",
		Model:   "llama3.1",
	},
}

const defaultProvider = "gemini"

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if an LLM API key is configured. Ollama runs without one.
func (p *Profile) IsAIEnabled() bool {
	return p.LLMAPIKey != "" || p.LLMProvider == "ollama"
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvOrDefaultDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.LLMProvider = strings.ToLower(getEnvOrDefault("GEMINICHAT_LLM_PROVIDER", defaultProvider))
	p.LLMAPIKey = getEnvOrDefault("GEMINICHAT_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("GEMINICHAT_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("GEMINICHAT_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("GEMINICHAT_LLM_TIMEOUT_SECONDS", 120)
	p.LLMTemperature = float32(getEnvOrDefaultFloat("GEMINICHAT_LLM_TEMPERATURE", 0))
	p.LLMMaxTokens = getEnvOrDefaultInt("GEMINICHAT_LLM_MAX_TOKENS", 0)

	if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
		slog.Warn("Unknown LLM provider, using default", "provider", p.LLMProvider, "default", defaultProvider)
		p.LLMProvider = defaultProvider
	}
	// The Google AI SDK variable is honoured for the gemini provider.
	if p.LLMAPIKey == "" && p.LLMProvider == "gemini" {
		p.LLMAPIKey = os.Getenv("GOOGLE_GENERATIVE_AI_API_KEY")
	}
	defaults := llmProviderDefaults[p.LLMProvider]
	if p.LLMBaseURL == "" {
		p.LLMBaseURL = defaults.BaseURL
	}
	if p.LLMModel == "" {
		p.LLMModel = defaults.Model
	}

	p.IntentHints = getEnvOrDefault("GEMINICHAT_INTENT_HINTS", "false") == "true"
	p.SessionTTL = getEnvOrDefaultDuration("GEMINICHAT_SESSION_TTL", 30*time.Minute)
	p.SessionCapacity = getEnvOrDefaultInt("GEMINICHAT_SESSION_CAPACITY", 1000)
	p.RateLimit = getEnvOrDefaultFloat("GEMINICHAT_RATE_LIMIT", 2)
	p.RateBurst = getEnvOrDefaultInt("GEMINICHAT_RATE_BURST", 5)
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.UNIXSock == "" && (p.Port <= 0 || p.Port > 65535) {
		return errors.Errorf("invalid port %d", p.Port)
	}
	if p.LLMTimeout <= 0 {
		return errors.Errorf("invalid LLM timeout %ds", p.LLMTimeout)
	}
	if p.LLMTemperature < 0 || p.LLMTemperature > 2 {
		return errors.Errorf("LLM temperature %.2f out of range [0, 2]", p.LLMTemperature)
	}
	if p.RateLimit < 0 {
		return errors.Errorf("invalid rate limit %.2f", p.RateLimit)
	}
	if p.RateLimit > 0 && p.RateBurst <= 0 {
		return errors.Errorf("rate burst must be positive when rate limit is %.2f", p.RateLimit)
	}
	if p.SessionTTL <= 0 {
		return errors.Errorf("invalid session TTL %s", p.SessionTTL)
	}

	if p.UNIXSock != "" {
		if err := checkSocketDir(p.UNIXSock); err != nil {
			slog.Error("failed to check unix socket", slog.String("sock", p.UNIXSock), slog.String("error", err.Error()))
			return err
		}
	}

	if !p.IsAIEnabled() {
		slog.Warn("No LLM API key configured, every chat turn will fail", "provider", p.LLMProvider)
	}
	return nil
}

func checkSocketDir(sock string) error {
	dir := filepath.Dir(sock)
	if _, err := os.Stat(dir); err != nil {
		return errors.Wrapf(err, "unable to access socket folder %s", dir)
	}
	return nil
}
