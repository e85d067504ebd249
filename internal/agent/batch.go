package agent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchResult is the result of one input in RunBatch.
type BatchResult struct {
	Index   int      `json:"index"`
	Text    string   `json:"text"`
	Outcome *Outcome `json:"outcome,omitempty"`
	Err     error    `json:"-"`
	Error   string   `json:"error,omitempty"`
}

// RunBatch corrects each text in its own run, at most concurrency at a
// time. Runs are independent: one failure does not cancel the others.
// Results are returned in input order.
func (o *Orchestrator) RunBatch(ctx context.Context, texts []string, concurrency int) []BatchResult {
	if concurrency <= 0 {
		concurrency = 1
	}
	results := make([]BatchResult, len(texts))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, text := range texts {
		g.Go(func() error {
			out, err := o.Run(ctx, text)
			res := BatchResult{Index: i, Text: text, Outcome: out, Err: err}
			if err != nil {
				res.Error = err.Error()
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}
