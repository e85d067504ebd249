package metrics

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jackzampolin/amend/internal/llmcall"
)

func newQuery(t *testing.T, calls ...llmcall.Call) *Query {
	t.Helper()
	store := llmcall.NewStore(filepath.Join(t.TempDir(), "llmcalls.jsonl"))
	for i := range calls {
		if err := store.Append(&calls[i]); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	return NewQuery(store)
}

func testCalls() []llmcall.Call {
	return []llmcall.Call{
		{ID: "1", RunID: "r1", PromptKey: "tools.analyze.system", Provider: "gemini", Model: "flash", LatencyMs: 100, InputTokens: 10, OutputTokens: 5, CostUSD: 0.01, Success: true},
		{ID: "2", RunID: "r1", PromptKey: "tools.detect.system", Provider: "gemini", Model: "flash", LatencyMs: 300, InputTokens: 20, OutputTokens: 5, CostUSD: 0.02, Success: true},
		{ID: "3", RunID: "r2", PromptKey: "tools.analyze.system", Provider: "openai", Model: "mini", LatencyMs: 200, InputTokens: 30, OutputTokens: 0, CostUSD: 0.03, Success: false},
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestStats(t *testing.T) {
	q := newQuery(t, testCalls()...)

	stats, err := q.Stats(Filter{})
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Count != 3 || stats.SuccessCount != 2 || stats.ErrorCount != 1 || stats.Runs != 2 {
		t.Errorf("counts = %+v", stats)
	}
	if !almostEqual(stats.TotalCostUSD, 0.06) || !almostEqual(stats.AvgCostUSD, 0.02) {
		t.Errorf("cost = %v avg %v", stats.TotalCostUSD, stats.AvgCostUSD)
	}
	if stats.TotalInputTokens != 60 || stats.TotalOutputTokens != 10 {
		t.Errorf("tokens = %d/%d", stats.TotalInputTokens, stats.TotalOutputTokens)
	}
	if stats.LatencyMin != 100 || stats.LatencyMax != 300 || stats.LatencyP50 != 200 || stats.LatencyAvg != 200 {
		t.Errorf("latency = %+v", stats)
	}

	filtered, err := q.Stats(Filter{RunID: "r2", Limit: 1, Offset: 5})
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if filtered.Count != 1 {
		t.Errorf("filtered Count = %d, want 1 (limit and offset ignored)", filtered.Count)
	}
}

func TestStats_Empty(t *testing.T) {
	stats, err := newQuery(t).Stats(Filter{})
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if diff := cmp.Diff(&DetailedStats{}, stats); diff != "" {
		t.Errorf("empty stats mismatch (-want +got):\n%s", diff)
	}
}

func TestStatsByPromptKey(t *testing.T) {
	byKey, err := newQuery(t, testCalls()...).StatsByPromptKey(Filter{})
	if err != nil {
		t.Fatalf("StatsByPromptKey() error = %v", err)
	}
	if len(byKey) != 2 {
		t.Fatalf("len = %d, want 2", len(byKey))
	}
	if got := byKey["tools.analyze.system"]; got.Count != 2 || got.ErrorCount != 1 {
		t.Errorf("analyze stats = %+v", got)
	}
}

func TestCostBreakdowns(t *testing.T) {
	q := newQuery(t, testCalls()...)

	byProvider, err := q.CostByProvider(Filter{})
	if err != nil {
		t.Fatalf("CostByProvider() error = %v", err)
	}
	if !almostEqual(byProvider["gemini"], 0.03) || !almostEqual(byProvider["openai"], 0.03) {
		t.Errorf("CostByProvider() = %v", byProvider)
	}

	byModel, err := q.CostByModel(Filter{Provider: "gemini"})
	if err != nil {
		t.Fatalf("CostByModel() error = %v", err)
	}
	if len(byModel) != 1 || !almostEqual(byModel["flash"], 0.03) {
		t.Errorf("CostByModel() = %v", byModel)
	}
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty", nil, 50, 0},
		{"single", []float64{7}, 99, 7},
		{"median odd", []float64{1, 2, 3}, 50, 2},
		{"interpolated", []float64{0, 10}, 95, 9.5},
		{"max", []float64{1, 2, 3}, 100, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := percentile(tt.sorted, tt.p); !almostEqual(got, tt.want) {
				t.Errorf("percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}
