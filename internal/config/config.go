// Package config provides configuration loading and validation for the server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/cojournalist/internal/modes"
)

// Config is the full server configuration, read from environment variables.
type Config struct {
	Port        int
	DatabaseURL string

	Auth     *JWTConfig
	Identity IdentityConfig
	LLM      LLMConfig
	Spaces   SpacesConfig
	Log      LogConfig
	Sessions SessionConfig

	// PromptsDir optionally points at a directory of {key}_prompt.json files
	// that take precedence over the embedded prompts.
	PromptsDir string
}

// IdentityConfig configures the hosted identity provider.
type IdentityConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Enabled reports whether sign-in through the provider is available.
func (c IdentityConfig) Enabled() bool {
	return c.URL != "" && c.APIKey != ""
}

// LLMConfig configures the local completion backend.
type LLMConfig struct {
	Provider    string
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// SpacesConfig configures the hosted Spaces used by remote modes.
type SpacesConfig struct {
	APIKey  string
	Timeout time.Duration
	URLs    map[modes.Mode]string
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string
	Format string
}

// SessionConfig configures in-memory session retention.
type SessionConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	auth, err := NewJWTConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Auth:        auth,
		Identity: IdentityConfig{
			URL:     strings.TrimRight(os.Getenv("IDENTITY_URL"), "/"),
			APIKey:  os.Getenv("IDENTITY_API_KEY"),
			Timeout: getEnvDuration("IDENTITY_TIMEOUT", 15*time.Second),
		},
		LLM:        loadLLMConfig(),
		Spaces:     loadSpacesConfig(),
		PromptsDir: os.Getenv("PROMPTS_DIR"),
		Log: LogConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		Sessions: SessionConfig{
			IdleTTL:       getEnvDuration("SESSION_IDLE_TTL", 2*time.Hour),
			SweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadLLMConfig() LLMConfig {
	provider := strings.ToLower(getEnvString("LLM_PROVIDER", "huggingface"))

	cfg := LLMConfig{
		Provider:    provider,
		Model:       os.Getenv("LLM_MODEL"),
		BaseURL:     os.Getenv("LLM_BASE_URL"),
		Temperature: float32(getEnvFloat("LLM_TEMPERATURE", 0.7)),
		MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 128),
		Timeout:     getEnvDuration("LLM_TIMEOUT", 30*time.Second),
	}

	switch provider {
	case "gemini":
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	case "openai":
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	default:
		cfg.APIKey = os.Getenv("HUGGINGFACE_API_KEY")
	}
	return cfg
}

func loadSpacesConfig() SpacesConfig {
	urls := make(map[modes.Mode]string)
	for _, m := range modes.All() {
		if v := os.Getenv("SPACE_URL_" + m.EnvKey()); v != "" {
			urls[m] = v
		}
	}
	return SpacesConfig{
		APIKey:  os.Getenv("HUGGINGFACE_API_KEY"),
		Timeout: getEnvDuration("SPACE_TIMEOUT", 30*time.Second),
		URLs:    urls,
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config error: DATABASE_URL is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config error: PORT out of range: %d", c.Port)
	}
	switch c.LLM.Provider {
	case "huggingface", "openai", "gemini":
	default:
		return fmt.Errorf("config error: unsupported LLM_PROVIDER %q", c.LLM.Provider)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("config error: LLM_MAX_TOKENS must be positive")
	}
	if c.LLM.Timeout <= 0 || c.Spaces.Timeout <= 0 || c.Identity.Timeout <= 0 {
		return fmt.Errorf("config error: timeouts must be positive")
	}
	if c.Sessions.IdleTTL <= 0 || c.Sessions.SweepInterval <= 0 {
		return fmt.Errorf("config error: session durations must be positive")
	}
	if c.PromptsDir != "" {
		if info, err := os.Stat(c.PromptsDir); err != nil || !info.IsDir() {
			return fmt.Errorf("config error: PROMPTS_DIR is not a directory: %s", c.PromptsDir)
		}
	}
	return nil
}

// getEnvString gets an environment variable as a string with a default value.
func getEnvString(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets an environment variable as a float with a default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration gets an environment variable as a duration with a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
