// Package llmcall provides LLM call recording and querying for traceability.
// Every LLM API call made during a correction run is recorded with its
// prompt key, response, and metrics.
package llmcall

import (
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/amend/internal/prompts"
	"github.com/jackzampolin/amend/internal/providers"
)

// Call represents a recorded LLM API call.
type Call struct {
	// Unique identifier
	ID string `json:"id"`

	// Timing
	Timestamp time.Time `json:"timestamp"`
	LatencyMs int       `json:"latency_ms"`

	// Correlation
	RunID string `json:"run_id,omitempty"`

	// Prompt traceability
	PromptKey  string `json:"prompt_key"`
	PromptHash string `json:"prompt_hash,omitempty"` // SHA256 of the system prompt actually sent
	Schema     string `json:"schema,omitempty"`

	// Model info
	Provider    string   `json:"provider"`
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature,omitempty"`
	Attempts    int      `json:"attempts,omitempty"`

	// Token usage
	InputTokens     int     `json:"input_tokens"`
	OutputTokens    int     `json:"output_tokens"`
	ReasoningTokens int     `json:"reasoning_tokens,omitempty"`
	CostUSD         float64 `json:"cost_usd,omitempty"`

	// Response
	Response string `json:"response"`

	// Status
	Success   bool   `json:"success"`
	ErrorType string `json:"error_type,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RecordOptions provides context for recording an LLM call.
type RecordOptions struct {
	RunID string

	// Prompt identification
	PromptKey  string
	PromptHash string
	Schema     string

	// Request parameters (pointer to distinguish "not set" from "set to 0")
	Temperature *float64
}

// OptionsFromRequest derives record options from the request that was sent.
func OptionsFromRequest(runID string, req *providers.ChatRequest) RecordOptions {
	opts := RecordOptions{RunID: runID}
	if req == nil {
		return opts
	}
	opts.PromptKey = req.PromptKey
	opts.Schema = req.SchemaName()
	for _, m := range req.Messages {
		if m.Role == "system" {
			opts.PromptHash = prompts.HashText(m.Content)
			break
		}
	}
	if req.Temperature > 0 {
		temp := req.Temperature
		opts.Temperature = &temp
	}
	return opts
}

// FromChatResult creates a Call from a ChatResult.
// Returns nil if result is nil.
func FromChatResult(result *providers.ChatResult, opts RecordOptions) *Call {
	if result == nil {
		return nil
	}

	latency := result.ExecutionTime
	if latency == 0 {
		latency = result.TotalTime
	}

	call := &Call{
		ID:              uuid.New().String(),
		Timestamp:       time.Now(),
		LatencyMs:       int(latency.Milliseconds()),
		RunID:           opts.RunID,
		PromptKey:       opts.PromptKey,
		PromptHash:      opts.PromptHash,
		Schema:          opts.Schema,
		Provider:        result.Provider,
		Model:           result.ModelUsed,
		Temperature:     opts.Temperature,
		Attempts:        result.Attempts,
		InputTokens:     result.PromptTokens,
		OutputTokens:    result.CompletionTokens,
		ReasoningTokens: result.ReasoningTokens,
		CostUSD:         result.CostUSD,
		Response:        result.Content,
		Success:         result.Success,
	}

	if !result.Success {
		call.ErrorType = result.ErrorType
		call.Error = result.ErrorMessage
	}

	return call
}

// FromError creates a Call for a request that failed before any result existed.
func FromError(provider string, err error, latency time.Duration, opts RecordOptions) *Call {
	return &Call{
		ID:          uuid.New().String(),
		Timestamp:   time.Now(),
		LatencyMs:   int(latency.Milliseconds()),
		RunID:       opts.RunID,
		PromptKey:   opts.PromptKey,
		PromptHash:  opts.PromptHash,
		Schema:      opts.Schema,
		Provider:    provider,
		Temperature: opts.Temperature,
		Success:     false,
		Error:       err.Error(),
	}
}
