// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackzampolin/amend/internal/agent"
	"github.com/jackzampolin/amend/internal/config"
	"github.com/jackzampolin/amend/internal/home"
	"github.com/jackzampolin/amend/internal/llmcall"
	"github.com/jackzampolin/amend/internal/prompts"
	"github.com/jackzampolin/amend/internal/providers"
	"github.com/jackzampolin/amend/internal/tools"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Registry       *providers.Registry
	PromptResolver *prompts.Resolver
	ConfigManager  *config.Manager
	LLMCallStore   *llmcall.Store
	Home           *home.Dir
	Logger         *slog.Logger
}

// New wires the services for a home directory and configuration: a
// provider registry built from config, a prompt resolver reading overrides
// from the home prompts directory, and, when logging.record_calls is set,
// a call store.
func New(cfgMgr *config.Manager, homeDir *home.Dir, logger *slog.Logger) *Services {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := cfgMgr.Get()

	s := &Services{
		Registry:       providers.NewRegistryFromConfig(cfg.ToProviderRegistryConfig(), logger),
		PromptResolver: tools.NewResolver(prompts.NewStore(homeDir.PromptsDir(), logger), logger),
		ConfigManager:  cfgMgr,
		Home:           homeDir,
		Logger:         logger,
	}
	if cfg.Logging.RecordCalls {
		s.LLMCallStore = llmcall.NewStore(homeDir.CallLogPath())
	}
	return s
}

// RunOptions selects per-request settings for Orchestrator.
type RunOptions struct {
	// Provider names a registered client; empty uses the default.
	Provider string

	// StrictFields overrides agent.strict_fields when set.
	StrictFields *bool
}

// Orchestrator builds an orchestrator over the selected provider using the
// current agent configuration.
func (s *Services) Orchestrator(opts RunOptions) (*agent.Orchestrator, error) {
	client, err := s.Registry.Resolve(opts.Provider)
	if err != nil {
		return nil, fmt.Errorf("select provider: %w", err)
	}

	var agentCfg config.AgentCfg
	if s.ConfigManager != nil {
		agentCfg = s.ConfigManager.Get().Agent
	}
	toolOpts := tools.Options{
		StrictFields: agentCfg.StrictFields,
		Temperature:  agentCfg.Temperature,
		MaxTokens:    agentCfg.MaxTokens,
		Logger:       s.Logger,
	}
	if opts.StrictFields != nil {
		toolOpts.StrictFields = *opts.StrictFields
	}

	return agent.NewOrchestrator(tools.New(client, s.PromptResolver, toolOpts), agent.Options{
		Logger:    s.Logger,
		CallStore: s.LLMCallStore,
	}), nil
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// RegistryFrom extracts the provider registry from context.
func RegistryFrom(ctx context.Context) *providers.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Registry
	}
	return nil
}

// PromptResolverFrom extracts the prompt resolver from context.
func PromptResolverFrom(ctx context.Context) *prompts.Resolver {
	if s := ServicesFrom(ctx); s != nil {
		return s.PromptResolver
	}
	return nil
}

// ConfigManagerFrom extracts the config manager from context.
func ConfigManagerFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.ConfigManager
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// LLMCallStoreFrom extracts the LLM call store from context.
func LLMCallStoreFrom(ctx context.Context) *llmcall.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.LLMCallStore
	}
	return nil
}
