// Package llm provides the completion backends used by locally routed modes.
package llm

import "time"

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderHuggingFace is the OpenAI-compatible Hugging Face inference router
	ProviderHuggingFace Provider = "huggingface"
	// ProviderOpenAI is the OpenAI API
	ProviderOpenAI Provider = "openai"
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
)

// Base URLs of the OpenAI-compatible providers.
const (
	HuggingFaceBaseURL = "https://router.huggingface.co/v1"
	OpenAIBaseURL      = "https://api.openai.com/v1"
)

// Config holds the completion settings
type Config struct {
	Provider    Provider
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// DefaultConfig returns the default configuration for a provider
func DefaultConfig(provider Provider) *Config {
	cfg := &Config{
		Provider:    provider,
		Temperature: 0.7,
		MaxTokens:   128,
		Timeout:     30 * time.Second,
	}
	switch provider {
	case ProviderGemini:
		cfg.Model = "gemini-2.5-flash"
	case ProviderOpenAI:
		cfg.Model = "gpt-4o-mini"
		cfg.BaseURL = OpenAIBaseURL
	default:
		cfg.Provider = ProviderHuggingFace
		cfg.Model = "mistralai/Mistral-7B-Instruct-v0.2"
		cfg.BaseURL = HuggingFaceBaseURL
	}
	return cfg
}

// withDefaults fills every zero field from the provider defaults.
func (c *Config) withDefaults() *Config {
	def := DefaultConfig(c.Provider)
	out := *c
	out.Provider = def.Provider
	if out.Model == "" {
		out.Model = def.Model
	}
	if out.BaseURL == "" {
		out.BaseURL = def.BaseURL
	}
	if out.Temperature == 0 {
		out.Temperature = def.Temperature
	}
	if out.MaxTokens == 0 {
		out.MaxTokens = def.MaxTokens
	}
	if out.Timeout == 0 {
		out.Timeout = def.Timeout
	}
	return &out
}
