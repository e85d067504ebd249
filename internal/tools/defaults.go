package tools

import (
	"log/slog"
	"math"
)

// defaulter applies the missing-field policy for one tool call.
type defaulter struct {
	tool   string
	strict bool
	logger *slog.Logger
	fields []string
}

// missing records that field was absent. In strict mode it returns the
// error that aborts the run.
func (d *defaulter) missing(field string) error {
	if d.strict {
		return &MissingFieldError{Tool: d.tool, Field: field}
	}
	d.fields = append(d.fields, field)
	d.logger.Warn("field missing from response, using default", "tool", d.tool, "field", field)
	return nil
}

// field returns *p, or def when p is nil.
func field[T any](d *defaulter, p *T, name string, def T) (T, error) {
	if p != nil {
		return *p, nil
	}
	if err := d.missing(name); err != nil {
		var zero T
		return zero, err
	}
	return def, nil
}

// clampConfidence rounds v and bounds it to [0, 100].
func clampConfidence(v float64) int {
	r := math.Round(v)
	switch {
	case r < 0:
		return 0
	case r > 100:
		return 100
	default:
		return int(r)
	}
}
