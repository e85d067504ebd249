package config

// Config holds amend configuration.
// Stored at: ~/.amend/config.yaml (or ./config.yaml)
type Config struct {
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers"`
	Defaults     DefaultsCfg               `mapstructure:"defaults" yaml:"defaults"`
	Agent        AgentCfg                  `mapstructure:"agent" yaml:"agent"`
	Logging      LoggingCfg                `mapstructure:"logging" yaml:"logging"`
	Server       ServerCfg                 `mapstructure:"server" yaml:"server"`
}

// LLMProviderCfg configures an LLM provider.
type LLMProviderCfg struct {
	Type           string `mapstructure:"type" yaml:"type"`                       // "gemini", "openai", "openrouter"
	Model          string `mapstructure:"model" yaml:"model"`                     // Model name
	APIKey         string `mapstructure:"api_key" yaml:"api_key"`                 // API key (supports ${ENV_VAR} syntax)
	BaseURL        string `mapstructure:"base_url" yaml:"base_url,omitempty"`     // Override the provider endpoint
	MaxRetries     int    `mapstructure:"max_retries" yaml:"max_retries"`         // Transport retries
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"` // Per-request timeout
	RateLimit      int    `mapstructure:"rate_limit" yaml:"rate_limit"`           // Requests per minute
	Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg specifies default provider selections.
type DefaultsCfg struct {
	LLMProvider string `mapstructure:"llm_provider" yaml:"llm_provider"` // Default LLM provider
}

// AgentCfg tunes the correction workflow.
type AgentCfg struct {
	// StrictFields fails a run when a tool response omits a field instead
	// of substituting the documented default.
	StrictFields bool    `mapstructure:"strict_fields" yaml:"strict_fields"`
	Temperature  float64 `mapstructure:"temperature" yaml:"temperature"` // 0 keeps each tool's own
	MaxTokens    int     `mapstructure:"max_tokens" yaml:"max_tokens"`   // 0 keeps each tool's own
	Concurrency  int     `mapstructure:"concurrency" yaml:"concurrency"` // Parallel runs for batch input
}

// LoggingCfg controls log output and call recording.
type LoggingCfg struct {
	Level       string `mapstructure:"level" yaml:"level"`               // debug, info, warn, error
	RecordCalls bool   `mapstructure:"record_calls" yaml:"record_calls"` // Append every LLM call to llmcalls.jsonl
}

// ServerCfg configures `amend serve`.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}
