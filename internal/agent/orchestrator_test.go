package agent

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/jackzampolin/amend/internal/llmcall"
	"github.com/jackzampolin/amend/internal/prompts/analyze"
	"github.com/jackzampolin/amend/internal/prompts/detect"
	"github.com/jackzampolin/amend/internal/prompts/fix"
	"github.com/jackzampolin/amend/internal/prompts/grammar"
	"github.com/jackzampolin/amend/internal/prompts/reconstruct"
	"github.com/jackzampolin/amend/internal/prompts/verify"
	"github.com/jackzampolin/amend/internal/providers"
	"github.com/jackzampolin/amend/internal/tools"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newOrchestrator(client providers.LLMClient, opts tools.Options) *Orchestrator {
	return NewOrchestrator(tools.New(client, nil, opts), Options{})
}

func analysis(reconstruct, grammarFix, spell bool) map[string]any {
	severity := "low"
	if reconstruct {
		severity = "high"
	}
	return map[string]any{
		"needs_reconstruction": reconstruct,
		"needs_grammar_fix":    grammarFix,
		"needs_spell_check":    spell,
		"severity":             severity,
		"reasoning":            "test",
	}
}

func noSpellingErrors() map[string]any {
	return map[string]any{"has_errors": false, "errors": []any{}}
}

func TestRun_SpellCheckWithErrors(t *testing.T) {
	mock := providers.NewMockClient().
		RespondJSON(analyze.SchemaName, analysis(false, false, true)).
		RespondJSON(detect.SchemaName, map[string]any{
			"has_errors": true,
			"errors": []map[string]any{
				{"error_text": "havv", "correct_spelling": "have", "explanation": "typo"},
				{"error_text": "speling", "correct_spelling": "spelling", "explanation": "missing l"},
				{"error_text": "eror", "correct_spelling": "error", "explanation": "missing r"},
			},
		}).
		RespondJSON(fix.SchemaName, map[string]any{
			"corrected_text": "I have a spelling error",
			"changes":        []string{"havv -> have", "speling -> spelling", "eror -> error"},
		})

	out, err := newOrchestrator(mock, tools.Options{}).Run(context.Background(), "I havv a speling eror")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if out.Method != MethodSpellCheck {
		t.Errorf("Method = %q, want %q", out.Method, MethodSpellCheck)
	}
	if out.HasErrors == nil || !*out.HasErrors {
		t.Error("HasErrors should be true")
	}
	if out.FinalText != "I have a spelling error" {
		t.Errorf("FinalText = %q", out.FinalText)
	}
	for _, bad := range []string{"havv", "speling", "eror"} {
		if strings.Contains(out.FinalText, bad) {
			t.Errorf("FinalText still contains %q", bad)
		}
	}
	if out.Corrected == nil || *out.Corrected != out.FinalText {
		t.Errorf("Corrected = %v", out.Corrected)
	}
	if len(out.Errors) != 3 || len(out.Changes) != 3 {
		t.Errorf("Errors = %d, Changes = %d; want 3 each", len(out.Errors), len(out.Changes))
	}
	if out.Reconstructed != nil {
		t.Error("spell-check outcome must not carry a reconstruction")
	}

	want := []string{StepObserve, StepAnalyze, StepDecide, StepDetect, StepFix, StepComplete}
	if diff := cmp.Diff(want, StepNames(out.Steps)); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
	if out.Steps[0].Content != "Input text: 'I havv a speling eror'" {
		t.Errorf("OBSERVE content = %q", out.Steps[0].Content)
	}
	if last := out.Steps[len(out.Steps)-1].Content; last != "Final result: 'I have a spelling error'" {
		t.Errorf("COMPLETE content = %q", last)
	}
	if len(out.Calls) != 3 {
		t.Errorf("len(Calls) = %d, want 3", len(out.Calls))
	}
	if out.RunID == "" {
		t.Error("RunID should be set")
	}
}

func TestRun_Reconstruction(t *testing.T) {
	mock := providers.NewMockClient().
		RespondJSON(analyze.SchemaName, analysis(true, false, false)).
		RespondJSON(reconstruct.SchemaName, map[string]any{
			"reconstructed": "The pen is mightier than the sword",
			"confidence":    95,
			"reasoning":     "Edward Bulwer-Lytton",
			"words_changed": []string{"pencil"},
		}).
		RespondJSON(verify.SchemaName, map[string]any{
			"is_correct":     true,
			"correct_phrase": "The pen is mightier than the sword",
			"source":         "Edward Bulwer-Lytton",
		}).
		RespondJSON(detect.SchemaName, noSpellingErrors())

	out, err := newOrchestrator(mock, tools.Options{}).Run(context.Background(), "The pen is mightier than the pencil")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if out.Method != MethodReconstruction {
		t.Errorf("Method = %q", out.Method)
	}
	if out.Reconstructed == nil || *out.Reconstructed != "The pen is mightier than the sword" {
		t.Errorf("Reconstructed = %v", out.Reconstructed)
	}
	if out.Confidence == nil || *out.Confidence != 95 {
		t.Errorf("Confidence = %v", out.Confidence)
	}
	if out.FinalText != "The pen is mightier than the sword" {
		t.Errorf("FinalText = %q", out.FinalText)
	}
	if out.HasErrors != nil {
		t.Error("reconstruction outcome must not carry spell-check fields")
	}

	want := []string{StepObserve, StepAnalyze, StepDecide, StepReconstruct, StepVerified, StepDetect, StepComplete}
	if diff := cmp.Diff(want, StepNames(out.Steps)); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
	wantCalls := []string{analyze.SchemaName, reconstruct.SchemaName, verify.SchemaName, detect.SchemaName}
	if diff := cmp.Diff(wantCalls, mock.Calls()); diff != "" {
		t.Errorf("call order mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_ReconstructionFixesRemainingSpelling(t *testing.T) {
	mock := providers.NewMockClient().
		RespondJSON(analyze.SchemaName, analysis(true, false, true)).
		RespondJSON(reconstruct.SchemaName, map[string]any{
			"reconstructed": "A stich in time saves nine",
			"confidence":    80,
			"reasoning":     "proverb",
			"words_changed": []string{"nien"},
		}).
		RespondJSON(verify.SchemaName, map[string]any{"is_correct": true, "correct_phrase": "A stitch in time saves nine", "source": "proverb"}).
		RespondJSON(detect.SchemaName, map[string]any{
			"has_errors": true,
			"errors":     []map[string]any{{"error_text": "stich", "correct_spelling": "stitch", "explanation": "missing t"}},
		}).
		RespondJSON(fix.SchemaName, map[string]any{"corrected_text": "A stitch in time saves nine", "changes": []string{"stich -> stitch"}})

	out, err := newOrchestrator(mock, tools.Options{}).Run(context.Background(), "a stich in time saves nien")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{StepObserve, StepAnalyze, StepDecide, StepReconstruct, StepVerified, StepDetect, StepFix, StepComplete}
	if diff := cmp.Diff(want, StepNames(out.Steps)); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
	if out.FinalText != "A stitch in time saves nine" {
		t.Errorf("FinalText = %q", out.FinalText)
	}
	if *out.Reconstructed != "A stich in time saves nine" {
		t.Errorf("Reconstructed should be the raw reconstruction, got %q", *out.Reconstructed)
	}
}

func TestRun_VerificationOverrideIsNotApplied(t *testing.T) {
	var detectedText string
	client := &inspectClient{
		MockClient: providers.NewMockClient().
			RespondJSON(analyze.SchemaName, analysis(true, false, false)).
			RespondJSON(reconstruct.SchemaName, map[string]any{
				"reconstructed": "To err is human, to forgive is human",
				"confidence":    60,
				"reasoning":     "Pope",
				"words_changed": []string{"huma", "forgiv", "hman"},
			}).
			RespondJSON(verify.SchemaName, map[string]any{
				"is_correct":     false,
				"correct_phrase": "To err is human, to forgive is divine",
				"source":         "Alexander Pope",
			}).
			RespondJSON(detect.SchemaName, noSpellingErrors()),
		inspect: func(req *providers.ChatRequest) {
			if req.SchemaName() == detect.SchemaName {
				detectedText = req.Messages[len(req.Messages)-1].Content
			}
		},
	}

	out, err := newOrchestrator(client, tools.Options{}).Run(context.Background(), "to err is huma to forgiv is hman")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{StepObserve, StepAnalyze, StepDecide, StepReconstruct, StepCorrection, StepDetect, StepComplete}
	if diff := cmp.Diff(want, StepNames(out.Steps)); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
	if got := out.Steps[4].Content; !strings.Contains(got, "To err is human, to forgive is divine") {
		t.Errorf("CORRECTION content = %q", got)
	}
	if *out.Reconstructed != "To err is human, to forgive is human" {
		t.Errorf("Reconstructed = %q, want the unverified reconstruction", *out.Reconstructed)
	}
	if out.FinalText != "To err is human, to forgive is human" {
		t.Errorf("FinalText = %q", out.FinalText)
	}
	if !strings.Contains(detectedText, "to forgive is human") {
		t.Errorf("detection should run on the reconstruction, got prompt %q", detectedText)
	}
}

func TestRun_GrammarOnlyInputIsNotCorrected(t *testing.T) {
	mock := providers.NewMockClient().
		RespondJSON(analyze.SchemaName, analysis(false, true, false)).
		RespondJSON(detect.SchemaName, noSpellingErrors())

	input := "She don't likes apples"
	out, err := newOrchestrator(mock, tools.Options{}).Run(context.Background(), input)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if out.Method != MethodSpellCheck {
		t.Errorf("Method = %q, want spell_check regardless of needs_grammar_fix", out.Method)
	}
	if out.HasErrors == nil || *out.HasErrors {
		t.Error("HasErrors should be false")
	}
	if out.FinalText != input {
		t.Errorf("FinalText = %q, want input unchanged", out.FinalText)
	}
	for _, c := range mock.Calls() {
		if c == grammar.SchemaName {
			t.Error("grammar tool must not be called by the workflow")
		}
	}
	want := []string{StepObserve, StepAnalyze, StepDecide, StepDetect, StepComplete}
	if diff := cmp.Diff(want, StepNames(out.Steps)); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_Failures(t *testing.T) {
	t.Run("transport failure during analyze", func(t *testing.T) {
		boom := &providers.TransportError{Provider: "mock", StatusCode: 503, Err: errors.New("unavailable")}
		mock := providers.NewMockClient().Fail(analyze.SchemaName, boom)

		out, err := newOrchestrator(mock, tools.Options{}).Run(context.Background(), "anything")
		if out != nil {
			t.Fatalf("Outcome = %+v, want nil", out)
		}
		var runErr *RunError
		if !errors.As(err, &runErr) {
			t.Fatalf("error = %v, want RunError", err)
		}
		if runErr.Step != StepAnalyze {
			t.Errorf("Step = %q, want ANALYZE", runErr.Step)
		}
		if diff := cmp.Diff([]string{StepObserve}, StepNames(runErr.Trace)); diff != "" {
			t.Errorf("partial trace mismatch (-want +got):\n%s", diff)
		}
		var te *providers.TransportError
		if !errors.As(err, &te) || te.StatusCode != 503 {
			t.Errorf("errors.As TransportError failed: %v", err)
		}
	})

	t.Run("malformed detection aborts reconstruction", func(t *testing.T) {
		mock := providers.NewMockClient().
			RespondJSON(analyze.SchemaName, analysis(true, false, false)).
			RespondJSON(reconstruct.SchemaName, map[string]any{"reconstructed": "x", "confidence": 10, "reasoning": "", "words_changed": []string{}}).
			RespondJSON(verify.SchemaName, map[string]any{"is_correct": true, "correct_phrase": "x", "source": ""}).
			Respond(detect.SchemaName, "this is not json")

		out, err := newOrchestrator(mock, tools.Options{}).Run(context.Background(), "y")
		if out != nil {
			t.Fatal("Outcome should be nil")
		}
		if !providers.IsMalformed(err) {
			t.Fatalf("error = %v, want MalformedResponseError", err)
		}
		var runErr *RunError
		errors.As(err, &runErr)
		if runErr.Step != StepDetect {
			t.Errorf("Step = %q, want DETECT", runErr.Step)
		}
		want := []string{StepObserve, StepAnalyze, StepDecide, StepReconstruct, StepVerified}
		if diff := cmp.Diff(want, StepNames(runErr.Trace)); diff != "" {
			t.Errorf("partial trace mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("strict mode missing field", func(t *testing.T) {
		mock := providers.NewMockClient().
			RespondJSON(analyze.SchemaName, analysis(false, false, true)).
			Respond(detect.SchemaName, `{"errors":[]}`)

		_, err := newOrchestrator(mock, tools.Options{StrictFields: true}).Run(context.Background(), "z")
		var mf *tools.MissingFieldError
		if !errors.As(err, &mf) {
			t.Fatalf("error = %v, want MissingFieldError", err)
		}
		if mf.Tool != tools.DetectSpellingErrors || mf.Field != "has_errors" {
			t.Errorf("MissingFieldError = %+v", mf)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		mock := providers.NewMockClient()
		mock.Latency = 50 * time.Millisecond
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newOrchestrator(mock, tools.Options{}).Run(ctx, "z")
		if !providers.IsTransport(err) || !errors.Is(err, context.Canceled) {
			t.Fatalf("error = %v, want TransportError wrapping context.Canceled", err)
		}
	})
}

func TestRun_DefaultsAreSurfaced(t *testing.T) {
	mock := providers.NewMockClient().
		RespondJSON(analyze.SchemaName, analysis(true, false, false)).
		Respond(reconstruct.SchemaName, `{"reconstructed":"All that glitters is not gold"}`).
		Respond(verify.SchemaName, `{}`).
		RespondJSON(detect.SchemaName, noSpellingErrors())

	out, err := newOrchestrator(mock, tools.Options{}).Run(context.Background(), "all that glitters is not goled")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if *out.Confidence != 0 {
		t.Errorf("Confidence = %d, want default 0", *out.Confidence)
	}
	if out.Steps[4].Name != StepVerified {
		t.Errorf("missing verdict should count as verified, got %q", out.Steps[4].Name)
	}

	want := []tools.DefaultedField{
		{Tool: tools.ReconstructPhrase, Field: "confidence"},
		{Tool: tools.ReconstructPhrase, Field: "reasoning"},
		{Tool: tools.ReconstructPhrase, Field: "words_changed"},
		{Tool: tools.VerifyReconstruction, Field: "is_correct"},
		{Tool: tools.VerifyReconstruction, Field: "correct_phrase"},
		{Tool: tools.VerifyReconstruction, Field: "source"},
	}
	if diff := cmp.Diff(want, out.Defaults); diff != "" {
		t.Errorf("Defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_RecordsCallsToStore(t *testing.T) {
	store := llmcall.NewStore(filepath.Join(t.TempDir(), "llmcalls.jsonl"))
	mock := providers.NewMockClient().
		RespondJSON(analyze.SchemaName, analysis(false, false, false)).
		RespondJSON(detect.SchemaName, noSpellingErrors())

	o := NewOrchestrator(tools.New(mock, nil, tools.Options{}), Options{CallStore: store})
	out, err := o.Run(context.Background(), "fine text")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	stored, err := store.List(llmcall.QueryFilter{RunID: out.RunID})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored %d calls, want 2", len(stored))
	}
	if stored[0].PromptKey != detect.SystemPromptKey || stored[1].PromptKey != analyze.SystemPromptKey {
		t.Errorf("prompt keys = %q, %q", stored[0].PromptKey, stored[1].PromptKey)
	}
}

func TestRun_ConcurrentRunsDoNotShareTraces(t *testing.T) {
	mock := providers.NewMockClient().
		RespondJSON(analyze.SchemaName, analysis(false, false, false)).
		RespondJSON(detect.SchemaName, noSpellingErrors())
	mock.Latency = 2 * time.Millisecond
	o := newOrchestrator(mock, tools.Options{})

	const n = 25
	outcomes := make([]*Outcome, n)
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < n; i++ {
		g.Go(func() error {
			out, err := o.Run(ctx, fmt.Sprintf("input number %d", i))
			outcomes[i] = out
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent Run() error = %v", err)
	}

	want := []string{StepObserve, StepAnalyze, StepDecide, StepDetect, StepComplete}
	seen := make(map[string]bool)
	for i, out := range outcomes {
		if diff := cmp.Diff(want, StepNames(out.Steps)); diff != "" {
			t.Errorf("run %d trace mismatch (-want +got):\n%s", i, diff)
		}
		text := fmt.Sprintf("input number %d", i)
		if out.Steps[0].Content != fmt.Sprintf("Input text: '%s'", text) || out.FinalText != text {
			t.Errorf("run %d mixed up: %+v", i, out.Steps[0])
		}
		if len(out.Calls) != 2 {
			t.Errorf("run %d recorded %d calls, want 2", i, len(out.Calls))
		}
		if seen[out.RunID] {
			t.Errorf("duplicate RunID %s", out.RunID)
		}
		seen[out.RunID] = true
	}
}

// inspectClient lets a test look at each request before the mock answers.
type inspectClient struct {
	*providers.MockClient
	inspect func(*providers.ChatRequest)
}

func (c *inspectClient) Chat(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResult, error) {
	c.inspect(req)
	return c.MockClient.Chat(ctx, req)
}
