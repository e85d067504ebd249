package agent

import (
	"encoding/json"
	"fmt"
)

// Step names recorded in a run's trace, in the order a run can emit them.
const (
	StepObserve     = "OBSERVE"
	StepAnalyze     = "ANALYZE"
	StepDecide      = "DECIDE"
	StepReconstruct = "RECONSTRUCT"
	StepVerified    = "VERIFIED"
	StepCorrection  = "CORRECTION"
	StepDetect      = "DETECT"
	StepFix         = "FIX"
	StepComplete    = "COMPLETE"
)

// Step is one entry in a run's trace.
type Step struct {
	Name    string `json:"step"`
	Content string `json:"content"`
}

// Trace is the ordered, append-only log of one run. It is owned by a
// single run and never shared.
type Trace struct {
	steps []Step
}

// Add appends a step.
func (t *Trace) Add(name, content string) {
	t.steps = append(t.steps, Step{Name: name, Content: content})
}

// AddJSON appends a step whose content is v rendered as indented JSON.
func (t *Trace) AddJSON(name string, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Add(name, fmt.Sprintf("%+v", v))
		return
	}
	t.Add(name, string(b))
}

// Steps returns a copy of the recorded steps.
func (t *Trace) Steps() []Step {
	out := make([]Step, len(t.steps))
	copy(out, t.steps)
	return out
}

// Len returns the number of recorded steps.
func (t *Trace) Len() int {
	return len(t.steps)
}

// StepNames returns the names of steps, in order.
func StepNames(steps []Step) []string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	return names
}
