package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackzampolin/amend/internal/agent"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"usage error", errors.New("give exactly one of: text argument, --example or --file"), 1},
		{"run aborted", &agent.RunError{RunID: "r1", Step: agent.StepAnalyze, Err: errors.New("boom")}, 2},
		{"wrapped run error", fmt.Errorf("correct: %w", &agent.RunError{Err: errors.New("boom")}), 2},
		{"batch with failures", fmt.Errorf("%w: 1 of 3", errRunsFailed), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
