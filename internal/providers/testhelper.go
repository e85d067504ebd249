package providers

import (
	"os"
)

// TestConfig holds provider API keys loaded from environment variables, so
// integration tests use the same configuration shape as production.
type TestConfig struct {
	GeminiAPIKey     string
	OpenAIAPIKey     string
	OpenRouterAPIKey string
}

// LoadTestConfig loads provider API keys from environment variables.
func LoadTestConfig() TestConfig {
	return TestConfig{
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
	}
}

// HasGemini returns true if a Gemini API key is configured.
func (c TestConfig) HasGemini() bool {
	return c.GeminiAPIKey != ""
}

// HasOpenAI returns true if an OpenAI API key is configured.
func (c TestConfig) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

// HasOpenRouter returns true if an OpenRouter API key is configured.
func (c TestConfig) HasOpenRouter() bool {
	return c.OpenRouterAPIKey != ""
}

// HasAnyLLM returns true if any LLM provider is configured.
func (c TestConfig) HasAnyLLM() bool {
	return c.HasGemini() || c.HasOpenAI() || c.HasOpenRouter()
}

// ToRegistryConfig converts test config to a RegistryConfig.
// Only providers with API keys are included; Gemini is preferred as default.
func (c TestConfig) ToRegistryConfig() RegistryConfig {
	cfg := RegistryConfig{LLMProviders: make(map[string]LLMProviderConfig)}

	if c.HasOpenRouter() {
		cfg.LLMProviders[OpenRouterName] = LLMProviderConfig{Type: OpenRouterName, APIKey: c.OpenRouterAPIKey, Enabled: true}
		cfg.Default = OpenRouterName
	}
	if c.HasOpenAI() {
		cfg.LLMProviders[OpenAIName] = LLMProviderConfig{Type: OpenAIName, APIKey: c.OpenAIAPIKey, Enabled: true}
		cfg.Default = OpenAIName
	}
	if c.HasGemini() {
		cfg.LLMProviders[GeminiName] = LLMProviderConfig{Type: GeminiName, APIKey: c.GeminiAPIKey, Enabled: true}
		cfg.Default = GeminiName
	}
	return cfg
}
