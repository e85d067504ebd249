package agent

import (
	"fmt"
	"io"
	"time"

	"github.com/jackzampolin/amend/internal/llmcall"
	"github.com/jackzampolin/amend/internal/tools"
)

// Correction methods reported on an Outcome.
const (
	MethodReconstruction = "semantic_reconstruction"
	MethodSpellCheck     = "spell_check"
)

// Outcome is the result of a completed run.
//
// Reconstructed, Confidence and Reasoning are set only by the
// reconstruction branch; HasErrors, Errors, Corrected and Changes only by
// the spell-check branch.
type Outcome struct {
	RunID    string `json:"run_id"`
	Original string `json:"original"`
	Method   string `json:"method"`

	// Reconstruction branch
	Reconstructed *string `json:"reconstructed,omitempty"`
	Confidence    *int    `json:"confidence,omitempty"`
	Reasoning     *string `json:"reasoning,omitempty"`

	// Spell-check branch
	HasErrors *bool                 `json:"has_errors,omitempty"`
	Errors    []tools.SpellingError `json:"errors,omitempty"`
	Corrected *string               `json:"corrected,omitempty"`
	Changes   []string              `json:"changes,omitempty"`

	FinalText string `json:"final_text"`
	Steps     []Step `json:"steps"`

	// Observability
	Calls    []llmcall.Call         `json:"calls,omitempty"`
	Defaults []tools.DefaultedField `json:"defaults,omitempty"`
	Duration time.Duration          `json:"duration_ns"`
}

// RenderText writes the outcome for a terminal: the trace, then the result.
func (o *Outcome) RenderText(w io.Writer) error {
	for _, s := range o.Steps {
		if _, err := fmt.Fprintf(w, "[%s]\n%s\n\n", s.Name, s.Content); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Method:   %s\nOriginal: %s\nFinal:    %s\n", o.Method, o.Original, o.FinalText)
	return err
}
