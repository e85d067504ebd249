package config

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNoDefault is returned when no default value exists for a config key.
var ErrNoDefault = errors.New("no default exists")

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLMProviders: map[string]LLMProviderCfg{
			"gemini": {
				Type:           "gemini",
				Model:          "gemini-2.5-flash",
				APIKey:         "${GEMINI_API_KEY}",
				MaxRetries:     3,
				TimeoutSeconds: 60,
				RateLimit:      60,
				Enabled:        true,
			},
			"openai": {
				Type:           "openai",
				Model:          "gpt-4o-mini",
				APIKey:         "${OPENAI_API_KEY}",
				MaxRetries:     3,
				TimeoutSeconds: 60,
				Enabled:        true,
			},
			"openrouter": {
				Type:           "openrouter",
				Model:          "google/gemini-2.5-flash",
				APIKey:         "${OPENROUTER_API_KEY}",
				MaxRetries:     5,
				TimeoutSeconds: 120,
				Enabled:        true,
			},
		},
		Defaults: DefaultsCfg{
			LLMProvider: "gemini",
		},
		Agent: AgentCfg{
			StrictFields: false,
			Concurrency:  4,
		},
		Logging: LoggingCfg{
			Level:       "info",
			RecordCalls: true,
		},
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: 8480,
		},
	}
}

// DefaultEntries returns every default as a flat key/value entry, sorted
// by key.
func DefaultEntries() []Entry {
	cfg := DefaultConfig()
	entries := []Entry{
		{Key: "defaults.llm_provider", Value: cfg.Defaults.LLMProvider, Description: "Provider used when none is given"},
		{Key: "agent.strict_fields", Value: cfg.Agent.StrictFields, Description: "Fail a run when a tool response omits a field"},
		{Key: "agent.temperature", Value: cfg.Agent.Temperature, Description: "Sampling temperature for every tool (0 keeps each tool's own)"},
		{Key: "agent.max_tokens", Value: cfg.Agent.MaxTokens, Description: "Completion token limit for every tool (0 keeps each tool's own)"},
		{Key: "agent.concurrency", Value: cfg.Agent.Concurrency, Description: "Parallel runs when correcting a file"},
		{Key: "logging.level", Value: cfg.Logging.Level, Description: "Log level: debug, info, warn or error"},
		{Key: "logging.record_calls", Value: cfg.Logging.RecordCalls, Description: "Append every LLM call to llmcalls.jsonl"},
		{Key: "server.host", Value: cfg.Server.Host, Description: "Address `amend serve` binds"},
		{Key: "server.port", Value: cfg.Server.Port, Description: "Port `amend serve` listens on"},
	}

	for name, p := range cfg.LLMProviders {
		prefix := "llm_providers." + name + "."
		entries = append(entries,
			Entry{Key: prefix + "type", Value: p.Type, Description: "Provider type for " + name},
			Entry{Key: prefix + "model", Value: p.Model, Description: "Default model for " + name},
			Entry{Key: prefix + "api_key", Value: p.APIKey, Description: name + " API key (uses environment variable)"},
			Entry{Key: prefix + "max_retries", Value: p.MaxRetries, Description: "Maximum retry attempts for failed " + name + " requests"},
			Entry{Key: prefix + "timeout_seconds", Value: p.TimeoutSeconds, Description: "HTTP timeout in seconds for " + name + " requests"},
			Entry{Key: prefix + "rate_limit", Value: p.RateLimit, Description: "Requests per minute for " + name + " (0 = unlimited)"},
			Entry{Key: prefix + "enabled", Value: p.Enabled, Description: "Whether the " + name + " provider is enabled"},
		)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

// GetDefault returns the default entry for a config key.
// Returns nil if no default exists for the key.
func GetDefault(key string) *Entry {
	for _, entry := range DefaultEntries() {
		if entry.Key == key {
			return &entry
		}
	}
	return nil
}

// ResetToDefault resets a config key to its default value.
// Returns ErrNoDefault if no default exists for the key.
func (cm *Manager) ResetToDefault(key string) error {
	def := GetDefault(key)
	if def == nil {
		return fmt.Errorf("%w for key %q", ErrNoDefault, key)
	}
	return cm.Set(key, def.Value)
}
