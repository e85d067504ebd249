package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/amend/internal/agent"
	"github.com/jackzampolin/amend/internal/api"
	"github.com/jackzampolin/amend/internal/providers"
	"github.com/jackzampolin/amend/internal/svcctx"
	"github.com/jackzampolin/amend/internal/tools"
)

// CorrectRequest is the request body for POST /api/correct.
type CorrectRequest struct {
	Text         string `json:"text"`
	Provider     string `json:"provider,omitempty"`
	StrictFields *bool  `json:"strict_fields,omitempty"`
}

// CorrectErrorResponse describes a failed run. Trace holds the steps
// recorded before the failure.
type CorrectErrorResponse struct {
	Error string       `json:"error"`
	Kind  string       `json:"kind"`
	RunID string       `json:"run_id,omitempty"`
	Step  string       `json:"step,omitempty"`
	Trace []agent.Step `json:"trace,omitempty"`
}

// Failure kinds reported in CorrectErrorResponse.
const (
	KindTransport    = "transport_failure"
	KindMalformed    = "malformed_response"
	KindMissingField = "missing_field"
	KindInternal     = "internal"
)

// classifyRunError maps a run failure to an HTTP status and kind.
func classifyRunError(err error) (int, string) {
	var missing *tools.MissingFieldError
	switch {
	case providers.IsTransport(err):
		return http.StatusBadGateway, KindTransport
	case errors.As(err, &missing):
		return http.StatusUnprocessableEntity, KindMissingField
	case providers.IsMalformed(err):
		return http.StatusUnprocessableEntity, KindMalformed
	default:
		return http.StatusInternalServerError, KindInternal
	}
}

func runErrorResponse(err error) (int, CorrectErrorResponse) {
	status, kind := classifyRunError(err)
	resp := CorrectErrorResponse{Error: err.Error(), Kind: kind}
	var runErr *agent.RunError
	if errors.As(err, &runErr) {
		resp.RunID = runErr.RunID
		resp.Step = runErr.Step
		resp.Trace = runErr.Trace
	}
	return status, resp
}

// CorrectEndpoint handles POST /api/correct.
type CorrectEndpoint struct{}

func (e *CorrectEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/correct", e.handler
}

func (e *CorrectEndpoint) RequiresProvider() bool { return true }

// handler godoc
//
//	@Summary		Correct text
//	@Description	Run the correction agent on one input and return the outcome with its trace
//	@Tags			correct
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CorrectRequest	true	"Text to correct"
//	@Success		200		{object}	agent.Outcome
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	CorrectErrorResponse
//	@Failure		502		{object}	CorrectErrorResponse
//	@Router			/api/correct [post]
func (e *CorrectEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req CorrectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	services := svcctx.ServicesFrom(r.Context())
	if services == nil {
		writeError(w, http.StatusInternalServerError, "services not available")
		return
	}

	orch, err := services.Orchestrator(svcctx.RunOptions{Provider: req.Provider, StrictFields: req.StrictFields})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := orch.Run(r.Context(), req.Text)
	if err != nil {
		status, resp := runErrorResponse(err)
		writeJSON(w, status, resp)
		return
	}

	writeJSON(w, http.StatusOK, out)
}

func (e *CorrectEndpoint) Command(getServerURL func() string) *cobra.Command {
	var provider string
	var strict bool

	cmd := &cobra.Command{
		Use:   "correct <text>",
		Short: "Correct text on the server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			req := CorrectRequest{Text: strings.Join(args, " "), Provider: provider}
			if cmd.Flags().Changed("strict-fields") {
				req.StrictFields = &strict
			}

			var out agent.Outcome
			err := client.Post(cmd.Context(), "/api/correct", req, &out)
			var apiErr *api.Error
			if errors.As(err, &apiErr) {
				var failed CorrectErrorResponse
				if json.Unmarshal(apiErr.Body, &failed) == nil && failed.Kind != "" {
					_ = api.Output(failed)
				}
				return err
			}
			if err != nil {
				return err
			}
			return api.Output(&out)
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "LLM provider (default: configured default)")
	cmd.Flags().BoolVar(&strict, "strict-fields", false, "Fail when a tool response omits a field")
	return cmd
}

// CorrectBatchRequest is the request body for POST /api/correct/batch.
type CorrectBatchRequest struct {
	Texts       []string `json:"texts"`
	Provider    string   `json:"provider,omitempty"`
	Concurrency int      `json:"concurrency,omitempty"`
}

// CorrectBatchItem is one result of a batch.
type CorrectBatchItem struct {
	Index   int                   `json:"index"`
	Text    string                `json:"text"`
	Outcome *agent.Outcome        `json:"outcome,omitempty"`
	Failure *CorrectErrorResponse `json:"failure,omitempty"`
}

// CorrectBatchResponse contains every batch result in input order.
type CorrectBatchResponse struct {
	Results   []CorrectBatchItem `json:"results"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
}

// CorrectBatchEndpoint handles POST /api/correct/batch.
type CorrectBatchEndpoint struct{}

func (e *CorrectBatchEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/correct/batch", e.handler
}

func (e *CorrectBatchEndpoint) RequiresProvider() bool { return true }

// handler godoc
//
//	@Summary		Correct several texts
//	@Description	Run independent corrections concurrently; one failure does not stop the others
//	@Tags			correct
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CorrectBatchRequest	true	"Texts to correct"
//	@Success		200		{object}	CorrectBatchResponse
//	@Failure		400		{object}	ErrorResponse
//	@Router			/api/correct/batch [post]
func (e *CorrectBatchEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req CorrectBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Texts) == 0 {
		writeError(w, http.StatusBadRequest, "texts required")
		return
	}

	services := svcctx.ServicesFrom(r.Context())
	if services == nil {
		writeError(w, http.StatusInternalServerError, "services not available")
		return
	}
	orch, err := services.Orchestrator(svcctx.RunOptions{Provider: req.Provider})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	concurrency := req.Concurrency
	if concurrency <= 0 && services.ConfigManager != nil {
		concurrency = services.ConfigManager.Get().Agent.Concurrency
	}

	resp := CorrectBatchResponse{Results: make([]CorrectBatchItem, 0, len(req.Texts))}
	for _, res := range orch.RunBatch(r.Context(), req.Texts, concurrency) {
		item := CorrectBatchItem{Index: res.Index, Text: res.Text, Outcome: res.Outcome}
		if res.Err != nil {
			_, failure := runErrorResponse(res.Err)
			item.Failure = &failure
			resp.Failed++
		} else {
			resp.Succeeded++
		}
		resp.Results = append(resp.Results, item)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *CorrectBatchEndpoint) Command(getServerURL func() string) *cobra.Command {
	var provider string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "correct-batch <text>...",
		Short: "Correct several texts on the server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp CorrectBatchResponse
			req := CorrectBatchRequest{Texts: args, Provider: provider, Concurrency: concurrency}
			if err := client.Post(cmd.Context(), "/api/correct/batch", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "LLM provider (default: configured default)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Parallel runs (default: agent.concurrency)")
	return cmd
}
