package llmcall

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackzampolin/amend/internal/providers"
)

// Recorder wraps an LLMClient for a single run and records every call.
// It implements providers.LLMClient itself, so the tool set can be built
// over it without knowing calls are being captured.
type Recorder struct {
	client providers.LLMClient
	runID  string
	store  *Store
	logger *slog.Logger

	mu    sync.Mutex
	calls []Call
}

// NewRecorder creates a recorder around client. store may be nil, in which
// case calls are only kept in memory.
func NewRecorder(client providers.LLMClient, runID string, store *Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		client: client,
		runID:  runID,
		store:  store,
		logger: logger,
	}
}

// Name returns the wrapped client's name.
func (r *Recorder) Name() string {
	return r.client.Name()
}

// Chat delegates to the wrapped client and records the outcome.
// Store failures are logged and never affect the call result.
func (r *Recorder) Chat(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResult, error) {
	start := time.Now()
	result, err := r.client.Chat(ctx, req)

	opts := OptionsFromRequest(r.runID, req)
	var call *Call
	if result != nil {
		call = FromChatResult(result, opts)
		if err != nil && call.Error == "" {
			call.Success = false
			call.Error = err.Error()
		}
	} else if err != nil {
		call = FromError(r.client.Name(), err, time.Since(start), opts)
	}

	if call != nil {
		r.mu.Lock()
		r.calls = append(r.calls, *call)
		r.mu.Unlock()

		if r.store != nil {
			if serr := r.store.Append(call); serr != nil {
				r.logger.Warn("failed to persist LLM call record", "call_id", call.ID, "error", serr)
			}
		}
	}

	return result, err
}

// Calls returns the calls recorded so far, in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}
