// Package agent runs the correction workflow: observe the input, analyze
// it, then either reconstruct a misquoted phrase or spell-check, recording
// every step in an ordered trace.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/amend/internal/llmcall"
	"github.com/jackzampolin/amend/internal/tools"
)

// Options configures an Orchestrator.
type Options struct {
	Logger *slog.Logger

	// CallStore persists every LLM call when set.
	CallStore *llmcall.Store
}

// Orchestrator runs correction workflows. It holds only immutable
// collaborators, so one Orchestrator can serve concurrent runs.
type Orchestrator struct {
	toolset   *tools.Toolset
	callStore *llmcall.Store
	logger    *slog.Logger
}

// NewOrchestrator creates an orchestrator over toolset.
func NewOrchestrator(toolset *tools.Toolset, opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		toolset:   toolset,
		callStore: opts.CallStore,
		logger:    logger,
	}
}

// run holds the private state of a single Run.
type run struct {
	id     string
	text   string
	tools  *tools.Toolset
	trace  Trace
	logger *slog.Logger

	defaults []tools.DefaultedField
}

// Run corrects text. On failure it returns a nil Outcome and a *RunError
// carrying the partial trace. Empty input is not special-cased.
func (o *Orchestrator) Run(ctx context.Context, text string) (*Outcome, error) {
	start := time.Now()
	id := uuid.New().String()
	logger := o.logger.With("run_id", id)

	recorder := llmcall.NewRecorder(o.toolset.Client(), id, o.callStore, logger)
	r := &run{
		id:     id,
		text:   text,
		tools:  o.toolset.WithClient(recorder).WithLogger(logger),
		logger: logger,
	}

	out, err := r.execute(ctx)
	if err != nil {
		logger.Warn("correction run failed", "error", err)
		return nil, err
	}

	out.Calls = recorder.Calls()
	out.Defaults = r.defaults
	out.Duration = time.Since(start)
	logger.Info("correction run complete",
		"method", out.Method,
		"steps", len(out.Steps),
		"calls", len(out.Calls),
		"defaults", len(out.Defaults),
		"duration", out.Duration)
	return out, nil
}

func (r *run) add(name, content string) {
	r.trace.Add(name, content)
	r.logger.Debug("step", "name", name)
}

func (r *run) addJSON(name string, v any) {
	r.trace.AddJSON(name, v)
	r.logger.Debug("step", "name", name)
}

func (r *run) fail(step string, err error) error {
	return &RunError{RunID: r.id, Step: step, Trace: r.trace.Steps(), Err: err}
}

func (r *run) noteDefaults(tool string, fields []string) {
	for _, f := range fields {
		r.defaults = append(r.defaults, tools.DefaultedField{Tool: tool, Field: f})
	}
}

func (r *run) execute(ctx context.Context) (*Outcome, error) {
	r.add(StepObserve, fmt.Sprintf("Input text: '%s'", r.text))

	analysis, err := r.tools.Analyze(ctx, r.text)
	if err != nil {
		return nil, r.fail(StepAnalyze, err)
	}
	r.noteDefaults(tools.AnalyzeText, analysis.Defaulted)
	r.addJSON(StepAnalyze, analysis)

	// needs_grammar_fix is deliberately not consulted: grammar-only input
	// falls through to spell checking.
	if analysis.NeedsReconstruction {
		r.add(StepDecide, "Text is scrambled or misquoted - using SEMANTIC RECONSTRUCTION")
		return r.reconstruct(ctx)
	}
	r.add(StepDecide, "Text needs SPELL CHECKING only")
	return r.spellCheck(ctx)
}

func (r *run) reconstruct(ctx context.Context) (*Outcome, error) {
	rec, err := r.tools.Reconstruct(ctx, r.text)
	if err != nil {
		return nil, r.fail(StepReconstruct, err)
	}
	r.noteDefaults(tools.ReconstructPhrase, rec.Defaulted)
	r.addJSON(StepReconstruct, rec)

	candidate := rec.Reconstructed

	verdict, err := r.tools.Verify(ctx, r.text, candidate)
	if err != nil {
		return nil, r.fail(StepVerified, err)
	}
	r.noteDefaults(tools.VerifyReconstruction, verdict.Defaulted)
	if verdict.IsCorrect {
		r.add(StepVerified, fmt.Sprintf("Reconstruction verified as correct: %s", candidate))
	} else {
		// The suggested phrase is recorded only; downstream steps keep the
		// reconstruction as produced.
		r.add(StepCorrection, fmt.Sprintf("Corrected reconstruction to: %s", verdict.CorrectPhrase))
		r.logger.Info("verification suggested a different phrase; keeping reconstruction",
			"reconstructed", candidate, "suggested", verdict.CorrectPhrase, "source", verdict.Source)
	}

	final, _, _, err := r.detectAndFix(ctx, candidate)
	if err != nil {
		return nil, err
	}

	r.add(StepComplete, fmt.Sprintf("Final result: '%s'", final))

	confidence := rec.Confidence
	reasoning := rec.Reasoning
	return &Outcome{
		RunID:         r.id,
		Original:      r.text,
		Method:        MethodReconstruction,
		Reconstructed: &candidate,
		Confidence:    &confidence,
		Reasoning:     &reasoning,
		FinalText:     final,
		Steps:         r.trace.Steps(),
	}, nil
}

func (r *run) spellCheck(ctx context.Context) (*Outcome, error) {
	final, detection, fixed, err := r.detectAndFix(ctx, r.text)
	if err != nil {
		return nil, err
	}

	r.add(StepComplete, fmt.Sprintf("Final result: '%s'", final))

	hasErrors := detection.HasErrors
	out := &Outcome{
		RunID:     r.id,
		Original:  r.text,
		Method:    MethodSpellCheck,
		HasErrors: &hasErrors,
		Errors:    detection.Errors,
		FinalText: final,
		Steps:     r.trace.Steps(),
	}
	if fixed != nil {
		corrected := fixed.CorrectedText
		out.Corrected = &corrected
		out.Changes = fixed.Changes
	}
	return out, nil
}

// detectAndFix runs spelling detection on text and, when errors are found,
// the fix. It returns the final text; with no errors that is text itself.
func (r *run) detectAndFix(ctx context.Context, text string) (string, *tools.DetectionResult, *tools.SpellFixResult, error) {
	detection, err := r.tools.DetectSpelling(ctx, text)
	if err != nil {
		return "", nil, nil, r.fail(StepDetect, err)
	}
	r.noteDefaults(tools.DetectSpellingErrors, detection.Defaulted)
	r.addJSON(StepDetect, detection)

	if !detection.HasErrors {
		return text, detection, nil, nil
	}

	fixed, err := r.tools.FixSpelling(ctx, text, detection.Errors)
	if err != nil {
		return "", nil, nil, r.fail(StepFix, err)
	}
	r.noteDefaults(tools.FixSpellingErrors, fixed.Defaulted)
	r.addJSON(StepFix, fixed)

	return fixed.CorrectedText, detection, fixed, nil
}
