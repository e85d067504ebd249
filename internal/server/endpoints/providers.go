package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/amend/internal/api"
	"github.com/jackzampolin/amend/internal/svcctx"
)

// ProviderInfo describes a registered LLM provider.
type ProviderInfo struct {
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Model   string `json:"model,omitempty"`
	Default bool   `json:"default"`
}

// ProvidersResponse lists the registered providers.
type ProvidersResponse struct {
	Providers []ProviderInfo `json:"providers"`
	Default   string         `json:"default,omitempty"`
}

// ListProvidersEndpoint handles GET /api/providers.
type ListProvidersEndpoint struct{}

func (e *ListProvidersEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/providers", e.handler
}

func (e *ListProvidersEndpoint) RequiresProvider() bool { return false }

// handler godoc
//
//	@Summary		List LLM providers
//	@Description	Providers registered from config (enabled and with an API key)
//	@Tags			providers
//	@Produce		json
//	@Success		200	{object}	ProvidersResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/providers [get]
func (e *ListProvidersEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	registry := svcctx.RegistryFrom(r.Context())
	if registry == nil {
		writeError(w, http.StatusInternalServerError, "provider registry not available")
		return
	}

	resp := ProvidersResponse{
		Providers: make([]ProviderInfo, 0),
		Default:   registry.DefaultName(),
	}

	var cfgProviders map[string]ProviderInfo
	if cm := svcctx.ConfigManagerFrom(r.Context()); cm != nil {
		cfgProviders = make(map[string]ProviderInfo)
		for name, p := range cm.Get().LLMProviders {
			cfgProviders[name] = ProviderInfo{Type: p.Type, Model: p.Model}
		}
	}

	for _, name := range registry.ListLLM() {
		info := cfgProviders[name]
		info.Name = name
		info.Default = name == resp.Default
		resp.Providers = append(resp.Providers, info)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *ListProvidersEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List registered LLM providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ProvidersResponse
			if err := client.Get(cmd.Context(), "/api/providers", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
