package providers

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Registry manages named LLM clients and the default selection.
// Safe for concurrent use; Reload swaps clients while requests are in flight.
type Registry struct {
	mu          sync.RWMutex
	llmClients  map[string]LLMClient
	fingerprint map[string]LLMProviderConfig
	defaultName string
	logger      *slog.Logger
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		llmClients:  make(map[string]LLMClient),
		fingerprint: make(map[string]LLMProviderConfig),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// RegisterLLM registers an LLM client.
func (r *Registry) RegisterLLM(name string, client LLMClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llmClients[name] = client
	delete(r.fingerprint, name)
}

// SetDefault selects the client returned by Default.
func (r *Registry) SetDefault(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultName = name
}

// GetLLM returns an LLM client by name.
func (r *Registry) GetLLM(name string) (LLMClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.llmClients[name]
	if !ok {
		return nil, fmt.Errorf("LLM client not found: %s", name)
	}
	return client, nil
}

// Default returns the configured default client. If no default is set and
// exactly one client is registered, that client is returned.
func (r *Registry) Default() (LLMClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.defaultName != "" {
		client, ok := r.llmClients[r.defaultName]
		if !ok {
			return nil, fmt.Errorf("default LLM provider %q is not available (missing API key or disabled?)", r.defaultName)
		}
		return client, nil
	}
	if len(r.llmClients) == 1 {
		for _, client := range r.llmClients {
			return client, nil
		}
	}
	return nil, fmt.Errorf("no default LLM provider configured (%d registered)", len(r.llmClients))
}

// Resolve returns the named client, or the default when name is empty.
func (r *Registry) Resolve(name string) (LLMClient, error) {
	if name == "" {
		return r.Default()
	}
	return r.GetLLM(name)
}

// ListLLM returns the sorted names of all registered LLM clients.
func (r *Registry) ListLLM() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.llmClients))
	for name := range r.llmClients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultName returns the configured default provider name.
func (r *Registry) DefaultName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultName
}

// HasLLM checks if an LLM client is registered.
func (r *Registry) HasLLM(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.llmClients[name]
	return ok
}

// RegistryConfig defines the providers to instantiate from config.
type RegistryConfig struct {
	// LLMProviders maps provider names to their config
	LLMProviders map[string]LLMProviderConfig

	// Default is the provider name used when a caller does not pick one.
	Default string
}

// LLMProviderConfig matches config.LLMProviderCfg with resolved API key.
type LLMProviderConfig struct {
	Type       string // "gemini", "openai", "openrouter"
	Model      string
	APIKey     string // Resolved API key
	BaseURL    string
	MaxRetries int
	Timeout    time.Duration
	RateLimit  int // Requests per minute; 0 disables limiting
	Enabled    bool
}

// NewRegistryFromConfig creates a registry with providers based on configuration.
// Only enabled providers with valid API keys will be registered.
func NewRegistryFromConfig(cfg RegistryConfig, logger *slog.Logger) *Registry {
	r := NewRegistry()
	r.logger = logger
	r.Reload(cfg)
	return r
}

// Reload updates the registry based on new configuration.
// Providers that are no longer configured are unregistered; providers with
// changed settings are recreated. Manually registered clients are left alone.
func (r *Registry) Reload(cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger := r.logger
	if logger == nil {
		logger = slog.Default()
	}

	want := make(map[string]bool)
	for name, provCfg := range cfg.LLMProviders {
		if !provCfg.Enabled || provCfg.APIKey == "" {
			continue
		}
		want[name] = true

		prev, hasExisting := r.fingerprint[name]
		if hasExisting && prev == provCfg {
			continue
		}

		client, err := createLLMClient(provCfg, logger)
		if err != nil {
			logger.Warn("failed to create LLM client", "name", name, "type", provCfg.Type, "error", err)
			continue
		}
		if provCfg.RateLimit > 0 {
			client = NewRateLimitedClient(client, provCfg.RateLimit)
		}
		r.llmClients[name] = client
		r.fingerprint[name] = provCfg
		if hasExisting {
			logger.Info("updated LLM client", "name", name, "type", provCfg.Type, "model", provCfg.Model)
		} else {
			logger.Info("registered LLM client", "name", name, "type", provCfg.Type, "model", provCfg.Model)
		}
	}

	for name := range r.fingerprint {
		if !want[name] {
			delete(r.llmClients, name)
			delete(r.fingerprint, name)
			logger.Info("unregistered LLM client", "name", name)
		}
	}

	r.defaultName = cfg.Default
}

// createLLMClient creates an LLM client based on provider type.
func createLLMClient(cfg LLMProviderConfig, logger *slog.Logger) (LLMClient, error) {
	switch cfg.Type {
	case GeminiName:
		return NewGeminiClient(context.Background(), GeminiConfig{
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			DefaultModel: cfg.Model,
			MaxRetries:   cfg.MaxRetries,
			Timeout:      cfg.Timeout,
			Logger:       logger,
		})
	case OpenAIName:
		return NewOpenAIClient(OpenAIConfig{
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			DefaultModel: cfg.Model,
			MaxRetries:   cfg.MaxRetries,
			Timeout:      cfg.Timeout,
		}), nil
	case OpenRouterName:
		return NewOpenRouterClient(OpenRouterConfig{
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			DefaultModel: cfg.Model,
			MaxRetries:   cfg.MaxRetries,
			Timeout:      cfg.Timeout,
			Logger:       logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Type)
	}
}
