package endpoints

import (
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/amend/internal/api"
	"github.com/jackzampolin/amend/internal/metrics"
	"github.com/jackzampolin/amend/internal/svcctx"
)

// MetricsSummaryResponse aggregates recorded LLM calls.
type MetricsSummaryResponse struct {
	Overall        *metrics.DetailedStats            `json:"overall"`
	ByPromptKey    map[string]*metrics.DetailedStats `json:"by_prompt_key"`
	CostByProvider map[string]float64                `json:"cost_by_provider"`
	CostByModel    map[string]float64                `json:"cost_by_model"`
}

// MetricsSummaryEndpoint handles GET /api/metrics/summary.
type MetricsSummaryEndpoint struct{}

func (e *MetricsSummaryEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/metrics/summary", e.handler
}

func (e *MetricsSummaryEndpoint) RequiresProvider() bool { return false }

// handler godoc
//
//	@Summary		Metrics summary
//	@Description	Cost, token and latency statistics over recorded LLM calls
//	@Tags			metrics
//	@Produce		json
//	@Param			run_id		query		string	false	"Filter by run ID"
//	@Param			provider	query		string	false	"Filter by provider"
//	@Param			model		query		string	false	"Filter by model"
//	@Param			prompt_key	query		string	false	"Filter by prompt key"
//	@Success		200			{object}	MetricsSummaryResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Router			/api/metrics/summary [get]
func (e *MetricsSummaryEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := callStoreOrError(w, r)
	if store == nil {
		return
	}

	q := r.URL.Query()
	f := metrics.Filter{
		RunID:     q.Get("run_id"),
		Provider:  q.Get("provider"),
		Model:     q.Get("model"),
		PromptKey: q.Get("prompt_key"),
	}
	query := metrics.NewQuery(store)

	var resp MetricsSummaryResponse
	var err error
	if resp.Overall, err = query.Stats(f); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if resp.ByPromptKey, err = query.StatsByPromptKey(f); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if resp.CostByProvider, err = query.CostByProvider(f); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if resp.CostByModel, err = query.CostByModel(f); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if logger := svcctx.LoggerFrom(r.Context()); logger != nil {
		logger.Debug("metrics summary computed", "calls", resp.Overall.Count)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *MetricsSummaryEndpoint) Command(getServerURL func() string) *cobra.Command {
	var runID, provider, model, promptKey string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Cost, token and latency statistics for recorded calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := url.Values{}
			for k, v := range map[string]string{"run_id": runID, "provider": provider, "model": model, "prompt_key": promptKey} {
				if v != "" {
					params.Set(k, v)
				}
			}
			path := "/api/metrics/summary"
			if len(params) > 0 {
				path += "?" + params.Encode()
			}

			client := api.NewClient(getServerURL())
			var resp MetricsSummaryResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "Filter by run ID")
	cmd.Flags().StringVar(&provider, "provider", "", "Filter by provider")
	cmd.Flags().StringVar(&model, "model", "", "Filter by model")
	cmd.Flags().StringVar(&promptKey, "prompt-key", "", "Filter by prompt key")
	return cmd
}
