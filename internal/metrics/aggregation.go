package metrics

import (
	"sort"

	"github.com/jackzampolin/amend/internal/llmcall"
)

// DetailedStats provides comprehensive statistics including percentiles and token breakdowns.
type DetailedStats struct {
	// Basic counts
	Count        int `json:"count"`
	SuccessCount int `json:"success_count"`
	ErrorCount   int `json:"error_count"`
	Runs         int `json:"runs"`

	// Cost
	TotalCostUSD float64 `json:"total_cost_usd"`
	AvgCostUSD   float64 `json:"avg_cost_usd"`

	// Latency percentiles (milliseconds)
	LatencyP50 float64 `json:"latency_p50_ms"`
	LatencyP95 float64 `json:"latency_p95_ms"`
	LatencyP99 float64 `json:"latency_p99_ms"`
	LatencyAvg float64 `json:"latency_avg_ms"`
	LatencyMin float64 `json:"latency_min_ms"`
	LatencyMax float64 `json:"latency_max_ms"`

	// Token stats
	TotalInputTokens     int `json:"total_input_tokens"`
	TotalOutputTokens    int `json:"total_output_tokens"`
	TotalReasoningTokens int `json:"total_reasoning_tokens"`

	// Average tokens per call
	AvgInputTokens  float64 `json:"avg_input_tokens"`
	AvgOutputTokens float64 `json:"avg_output_tokens"`
}

// Stats returns detailed statistics for calls matching the filter.
func (q *Query) Stats(f Filter) (*DetailedStats, error) {
	calls, err := q.list(f)
	if err != nil {
		return nil, err
	}
	return computeStats(calls), nil
}

// StatsByPromptKey returns detailed stats grouped by prompt key, which
// identifies the tool that made each call.
func (q *Query) StatsByPromptKey(f Filter) (map[string]*DetailedStats, error) {
	calls, err := q.list(f)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string][]llmcall.Call)
	for _, c := range calls {
		byKey[c.PromptKey] = append(byKey[c.PromptKey], c)
	}

	result := make(map[string]*DetailedStats, len(byKey))
	for key, group := range byKey {
		result[key] = computeStats(group)
	}
	return result, nil
}

func computeStats(calls []llmcall.Call) *DetailedStats {
	stats := &DetailedStats{Count: len(calls)}
	if len(calls) == 0 {
		return stats
	}

	runs := make(map[string]struct{})
	var latencies []float64
	for _, c := range calls {
		stats.TotalCostUSD += c.CostUSD
		if c.Success {
			stats.SuccessCount++
		} else {
			stats.ErrorCount++
		}
		if c.RunID != "" {
			runs[c.RunID] = struct{}{}
		}

		stats.TotalInputTokens += c.InputTokens
		stats.TotalOutputTokens += c.OutputTokens
		stats.TotalReasoningTokens += c.ReasoningTokens

		if c.LatencyMs > 0 {
			latencies = append(latencies, float64(c.LatencyMs))
		}
	}
	stats.Runs = len(runs)

	count := float64(stats.Count)
	stats.AvgCostUSD = stats.TotalCostUSD / count
	stats.AvgInputTokens = float64(stats.TotalInputTokens) / count
	stats.AvgOutputTokens = float64(stats.TotalOutputTokens) / count

	if len(latencies) > 0 {
		sort.Float64s(latencies)
		stats.LatencyMin = latencies[0]
		stats.LatencyMax = latencies[len(latencies)-1]

		var sum float64
		for _, l := range latencies {
			sum += l
		}
		stats.LatencyAvg = sum / float64(len(latencies))

		stats.LatencyP50 = percentile(latencies, 50)
		stats.LatencyP95 = percentile(latencies, 95)
		stats.LatencyP99 = percentile(latencies, 99)
	}

	return stats
}

// percentile calculates the p-th percentile from a sorted slice of values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	n := float64(len(sorted))
	idx := (p / 100.0) * (n - 1)

	// Interpolate between floor and ceil indices
	lower := int(idx)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
