package metrics

import "github.com/jackzampolin/amend/internal/llmcall"

// CostByModel returns cost breakdown by model.
func (q *Query) CostByModel(f Filter) (map[string]float64, error) {
	return q.costBy(f, func(c llmcall.Call) string { return c.Model })
}

// CostByProvider returns cost breakdown by provider.
func (q *Query) CostByProvider(f Filter) (map[string]float64, error) {
	return q.costBy(f, func(c llmcall.Call) string { return c.Provider })
}

func (q *Query) costBy(f Filter, key func(llmcall.Call) string) (map[string]float64, error) {
	calls, err := q.list(f)
	if err != nil {
		return nil, err
	}

	breakdown := make(map[string]float64)
	for _, c := range calls {
		breakdown[key(c)] += c.CostUSD
	}
	return breakdown, nil
}
