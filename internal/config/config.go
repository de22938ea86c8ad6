package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the PlantIQ server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	AI       AIConfig
	Analysis AnalysisConfig
	Images   ImageConfig
}

type ServerConfig struct {
	Port            int
	Env             string
	RateLimitPerMin int
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL       string
	Namespace string
}

// AIConfig configures the chat-completion backend. Every supported provider
// speaks the OpenAI chat completions protocol; they differ in base URL and auth.
type AIConfig struct {
	Provider         string
	BaseURL          string
	APIKey           string
	Model            string
	Temperature      float32
	InferenceTimeout time.Duration
}

// AnalysisConfig tunes the analysis client: cache lifetime, cache cap and
// the pause the request queue takes between two upstream calls.
type AnalysisConfig struct {
	CacheTTL        time.Duration
	CacheMaxEntries int
	RequestDelay    time.Duration
}

type ImageConfig struct {
	Bucket string
}

const (
	ProviderGateway = "gateway"
	ProviderOpenAI  = "openai"
	ProviderOllama  = "ollama"
	ProviderVLLM    = "vllm"
)

var defaultBaseURLs = map[string]string{
	ProviderGateway: "https://ai.gateway.lovable.dev/v1",
	ProviderOpenAI:  "https://api.openai.com/v1",
	ProviderOllama:  "http://localhost:11434/v1",
	ProviderVLLM:    "http://localhost:8000/v1",
}

var defaultModels = map[string]string{
	ProviderGateway: "google/gemini-2.5-flash",
	ProviderOpenAI:  "gpt-4o-mini",
	ProviderOllama:  "llama3",
	ProviderVLLM:    "",
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	provider := envString("AI_PROVIDER", ProviderGateway)

	cfg := &Config{
		Server: ServerConfig{
			Port:            envInt("PLANTIQ_PORT", 8080),
			Env:             envString("PLANTIQ_ENV", "development"),
			RateLimitPerMin: envInt("RATE_LIMIT_PER_MIN", 60),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:       os.Getenv("REDIS_URL"),
			Namespace: envString("REDIS_NAMESPACE", "plantiq"),
		},
		AI: AIConfig{
			Provider:         provider,
			BaseURL:          envString("AI_GATEWAY_BASE_URL", defaultBaseURLs[provider]),
			APIKey:           os.Getenv("AI_GATEWAY_API_KEY"),
			Model:            envString("AI_MODEL", defaultModels[provider]),
			Temperature:      envFloat32("AI_TEMPERATURE", 0.7),
			InferenceTimeout: envDurationSecs("AI_INFERENCE_TIMEOUT_SECS", 60*time.Second),
		},
		Analysis: AnalysisConfig{
			CacheTTL:        envDuration("ANALYSIS_CACHE_TTL", 5*time.Minute),
			CacheMaxEntries: envInt("ANALYSIS_CACHE_MAX_ENTRIES", 0),
			RequestDelay:    envDuration("ANALYSIS_REQUEST_DELAY", 2*time.Second),
		},
		Images: ImageConfig{
			Bucket: os.Getenv("IMAGE_BUCKET"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if _, ok := defaultBaseURLs[c.AI.Provider]; !ok {
		return fmt.Errorf("AI_PROVIDER must be one of gateway, openai, ollama, vllm; got %q", c.AI.Provider)
	}
	if !strings.HasPrefix(c.AI.BaseURL, "http://") && !strings.HasPrefix(c.AI.BaseURL, "https://") {
		return fmt.Errorf("AI_GATEWAY_BASE_URL must start with http:// or https://, got %q", c.AI.BaseURL)
	}
	if (c.AI.Provider == ProviderGateway || c.AI.Provider == ProviderOpenAI) && c.AI.APIKey == "" {
		return fmt.Errorf("AI_GATEWAY_API_KEY is required when AI_PROVIDER is %s", c.AI.Provider)
	}
	if c.AI.Model == "" {
		return fmt.Errorf("AI_MODEL is required when AI_PROVIDER is %s", c.AI.Provider)
	}

	if c.Analysis.CacheTTL <= 0 {
		return fmt.Errorf("ANALYSIS_CACHE_TTL must be positive, got %s", c.Analysis.CacheTTL)
	}
	if c.Analysis.CacheMaxEntries < 0 {
		return fmt.Errorf("ANALYSIS_CACHE_MAX_ENTRIES must not be negative, got %d", c.Analysis.CacheMaxEntries)
	}
	if c.Analysis.RequestDelay < 0 {
		return fmt.Errorf("ANALYSIS_REQUEST_DELAY must not be negative, got %s", c.Analysis.RequestDelay)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envFloat32(key string, defaultVal float32) float32 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return defaultVal
	}
	return float32(f)
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
