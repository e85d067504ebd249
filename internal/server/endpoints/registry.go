package endpoints

import (
	"github.com/jackzampolin/amend/internal/api"
)

// NewRegistry returns every endpoint: health, correction and provider
// endpoints at the top level, the rest grouped by resource.
func NewRegistry() *api.Registry {
	r := api.NewRegistry(TopLevelCommands()...)
	r.Group("prompts", "Prompt override commands", PromptCommands()...)
	r.Group("llmcalls", "LLM call history commands", LLMCallCommands()...)
	r.Group("metrics", "Cost and latency statistics commands", MetricsCommands()...)
	r.Group("settings", "Configuration settings commands", SettingsCommands()...)
	return r
}

// TopLevelCommands returns endpoints whose commands sit directly under "api".
func TopLevelCommands() []api.Endpoint {
	return []api.Endpoint{
		&HealthEndpoint{},
		&StatusEndpoint{},
		&CorrectEndpoint{},
		&CorrectBatchEndpoint{},
		&ListExamplesEndpoint{},
		&ListProvidersEndpoint{},
	}
}

// PromptCommands returns endpoints grouped under "api prompts".
func PromptCommands() []api.Endpoint {
	return []api.Endpoint{
		&ListPromptsEndpoint{},
		&GetPromptEndpoint{},
		&SetPromptEndpoint{},
		&ClearPromptEndpoint{},
	}
}

// LLMCallCommands returns endpoints grouped under "api llmcalls".
func LLMCallCommands() []api.Endpoint {
	return []api.Endpoint{
		&ListLLMCallsEndpoint{},
		&GetLLMCallEndpoint{},
		&LLMCallCountsEndpoint{},
	}
}

// MetricsCommands returns endpoints grouped under "api metrics".
func MetricsCommands() []api.Endpoint {
	return []api.Endpoint{
		&MetricsSummaryEndpoint{},
	}
}

// SettingsCommands returns endpoints grouped under "api settings".
func SettingsCommands() []api.Endpoint {
	return []api.Endpoint{
		&ListSettingsEndpoint{},
		&GetSettingEndpoint{},
		&UpdateSettingEndpoint{},
		&ResetSettingEndpoint{},
	}
}
