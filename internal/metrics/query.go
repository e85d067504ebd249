// Package metrics aggregates recorded LLM calls into cost, token and
// latency statistics.
package metrics

import (
	"github.com/jackzampolin/amend/internal/llmcall"
)

// Query computes statistics over a call store.
type Query struct {
	store *llmcall.Store
}

// NewQuery creates a new metrics query helper.
func NewQuery(store *llmcall.Store) *Query {
	return &Query{store: store}
}

// Filter selects the calls to aggregate. Limit and Offset are ignored;
// aggregates always cover every matching call.
type Filter = llmcall.QueryFilter

func (q *Query) list(f Filter) ([]llmcall.Call, error) {
	f.Limit = 0
	f.Offset = 0
	return q.store.List(f)
}
