// Package tools implements the six language-model tools the correction
// agent composes. Each tool issues exactly one structured call, never
// mutates its inputs, and applies a documented default for every field the
// model leaves out.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackzampolin/amend/internal/prompts"
	"github.com/jackzampolin/amend/internal/prompts/analyze"
	"github.com/jackzampolin/amend/internal/prompts/detect"
	"github.com/jackzampolin/amend/internal/prompts/fix"
	"github.com/jackzampolin/amend/internal/prompts/grammar"
	"github.com/jackzampolin/amend/internal/prompts/reconstruct"
	"github.com/jackzampolin/amend/internal/prompts/verify"
	"github.com/jackzampolin/amend/internal/providers"
)

// Tool names, used in logs, errors and defaulted-field records.
const (
	AnalyzeText          = "analyze_text"
	FixGrammar           = "fix_grammar"
	ReconstructPhrase    = "reconstruct_phrase"
	VerifyReconstruction = "verify_reconstruction"
	DetectSpellingErrors = "detect_spelling_errors"
	FixSpellingErrors    = "fix_spelling_errors"
)

// Options tunes every tool call.
type Options struct {
	// StrictFields makes a missing response field fatal instead of defaulted.
	StrictFields bool

	// Temperature and MaxTokens override the per-tool defaults when > 0.
	Temperature float64
	MaxTokens   int

	// Model overrides the client's default model when set.
	Model string

	Logger *slog.Logger
}

// Toolset binds the tools to one LLM client and prompt resolver.
type Toolset struct {
	client   providers.LLMClient
	resolver *prompts.Resolver
	opts     Options
	logger   *slog.Logger
}

// New creates a Toolset. resolver may be nil, in which case embedded
// prompts are always used.
func New(client providers.LLMClient, resolver *prompts.Resolver, opts Options) *Toolset {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Toolset{client: client, resolver: resolver, opts: opts, logger: logger}
}

// WithClient returns a copy of the toolset that calls client instead.
func (t *Toolset) WithClient(client providers.LLMClient) *Toolset {
	c := *t
	c.client = client
	return &c
}

// WithLogger returns a copy of the toolset that logs to logger.
func (t *Toolset) WithLogger(logger *slog.Logger) *Toolset {
	c := *t
	c.logger = logger
	return &c
}

// Client returns the LLM client the tools call.
func (t *Toolset) Client() providers.LLMClient {
	return t.client
}

// Options returns the toolset options.
func (t *Toolset) Options() Options {
	return t.opts
}

// RegisterPrompts registers every tool prompt with r.
func RegisterPrompts(r *prompts.Resolver) {
	analyze.RegisterPrompts(r)
	grammar.RegisterPrompts(r)
	reconstruct.RegisterPrompts(r)
	verify.RegisterPrompts(r)
	detect.RegisterPrompts(r)
	fix.RegisterPrompts(r)
}

// NewResolver creates a resolver with every tool prompt registered.
func NewResolver(store *prompts.Store, logger *slog.Logger) *prompts.Resolver {
	r := prompts.NewResolver(store, logger)
	RegisterPrompts(r)
	return r
}

func (t *Toolset) override(key string) string {
	return t.resolver.Override(key)
}

func (t *Toolset) defaulter(tool string) *defaulter {
	return &defaulter{tool: tool, strict: t.opts.StrictFields, logger: t.logger}
}

// call issues one structured request and returns the validated JSON.
func (t *Toolset) call(ctx context.Context, tool string, req *providers.ChatRequest) (json.RawMessage, error) {
	if t.opts.Temperature > 0 {
		req.Temperature = t.opts.Temperature
	}
	if t.opts.MaxTokens > 0 {
		req.MaxTokens = t.opts.MaxTokens
	}
	if t.opts.Model != "" {
		req.Model = t.opts.Model
	}

	t.logger.Debug("calling tool", "tool", tool, "provider", t.client.Name())
	result, err := t.client.Chat(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tool, err)
	}
	if len(result.ParsedJSON) == 0 {
		return nil, fmt.Errorf("%s: %w", tool, &providers.MalformedResponseError{
			Provider: t.client.Name(),
			Schema:   req.SchemaName(),
			Content:  result.Content,
			Err:      errors.New("no structured content in response"),
		})
	}
	return result.ParsedJSON, nil
}

// malformed wraps a decode failure of already-validated JSON.
func (t *Toolset) malformed(tool string, raw json.RawMessage, err error) error {
	return fmt.Errorf("%s: %w", tool, &providers.MalformedResponseError{
		Provider: t.client.Name(),
		Content:  string(raw),
		Err:      err,
	})
}

// Analyze classifies the input text.
func (t *Toolset) Analyze(ctx context.Context, text string) (*AnalysisResult, error) {
	req, err := analyze.BuildRequest(analyze.Input{
		Text:                 text,
		SystemPromptOverride: t.override(analyze.SystemPromptKey),
		UserPromptOverride:   t.override(analyze.UserPromptKey),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", AnalyzeText, err)
	}
	raw, err := t.call(ctx, AnalyzeText, req)
	if err != nil {
		return nil, err
	}
	parsed, err := analyze.ParseResult(raw)
	if err != nil {
		return nil, t.malformed(AnalyzeText, raw, err)
	}

	d := t.defaulter(AnalyzeText)
	out := &AnalysisResult{}
	if out.NeedsReconstruction, err = field(d, parsed.NeedsReconstruction, "needs_reconstruction", false); err != nil {
		return nil, err
	}
	if out.NeedsGrammarFix, err = field(d, parsed.NeedsGrammarFix, "needs_grammar_fix", false); err != nil {
		return nil, err
	}
	if out.NeedsSpellCheck, err = field(d, parsed.NeedsSpellCheck, "needs_spell_check", false); err != nil {
		return nil, err
	}
	if out.Severity, err = field(d, parsed.Severity, "severity", analyze.SeverityLow); err != nil {
		return nil, err
	}
	if out.Reasoning, err = field(d, parsed.Reasoning, "reasoning", ""); err != nil {
		return nil, err
	}
	out.Defaulted = d.fields
	return out, nil
}

// FixGrammar corrects sentence structure. The agent does not route to it;
// it is available to callers that want a grammar-only pass.
func (t *Toolset) FixGrammar(ctx context.Context, text string) (*GrammarFixResult, error) {
	req, err := grammar.BuildRequest(grammar.Input{
		Text:                 text,
		SystemPromptOverride: t.override(grammar.SystemPromptKey),
		UserPromptOverride:   t.override(grammar.UserPromptKey),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FixGrammar, err)
	}
	raw, err := t.call(ctx, FixGrammar, req)
	if err != nil {
		return nil, err
	}
	parsed, err := grammar.ParseResult(raw)
	if err != nil {
		return nil, t.malformed(FixGrammar, raw, err)
	}

	d := t.defaulter(FixGrammar)
	out := &GrammarFixResult{}
	if out.HasErrors, err = field(d, parsed.HasErrors, "has_errors", false); err != nil {
		return nil, err
	}
	if out.Corrected, err = field(d, parsed.Corrected, "corrected", text); err != nil {
		return nil, err
	}
	errs, err := field(d, parsed.Errors, "errors", []grammar.Error{})
	if err != nil {
		return nil, err
	}
	out.Errors = make([]GrammarError, 0, len(errs))
	for _, e := range errs {
		out.Errors = append(out.Errors, GrammarError(e))
	}
	out.Defaulted = d.fields
	return out, nil
}

// Reconstruct restores the phrase the text was most likely meant to be.
func (t *Toolset) Reconstruct(ctx context.Context, text string) (*ReconstructionResult, error) {
	req, err := reconstruct.BuildRequest(reconstruct.Input{
		Text:                 text,
		SystemPromptOverride: t.override(reconstruct.SystemPromptKey),
		UserPromptOverride:   t.override(reconstruct.UserPromptKey),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ReconstructPhrase, err)
	}
	raw, err := t.call(ctx, ReconstructPhrase, req)
	if err != nil {
		return nil, err
	}
	parsed, err := reconstruct.ParseResult(raw)
	if err != nil {
		return nil, t.malformed(ReconstructPhrase, raw, err)
	}

	d := t.defaulter(ReconstructPhrase)
	out := &ReconstructionResult{}
	if out.Reconstructed, err = field(d, parsed.Reconstructed, "reconstructed", text); err != nil {
		return nil, err
	}
	confidence, err := field(d, parsed.Confidence, "confidence", 0)
	if err != nil {
		return nil, err
	}
	out.Confidence = clampConfidence(confidence)
	if out.Reasoning, err = field(d, parsed.Reasoning, "reasoning", ""); err != nil {
		return nil, err
	}
	if out.WordsChanged, err = field(d, parsed.WordsChanged, "words_changed", []string{}); err != nil {
		return nil, err
	}
	out.Defaulted = d.fields
	return out, nil
}

// Verify asks whether candidate is a correct reconstruction of original.
// A missing verdict counts as correct so it never triggers a correction.
func (t *Toolset) Verify(ctx context.Context, original, candidate string) (*VerificationResult, error) {
	req, err := verify.BuildRequest(verify.Input{
		Original:             original,
		Candidate:            candidate,
		SystemPromptOverride: t.override(verify.SystemPromptKey),
		UserPromptOverride:   t.override(verify.UserPromptKey),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", VerifyReconstruction, err)
	}
	raw, err := t.call(ctx, VerifyReconstruction, req)
	if err != nil {
		return nil, err
	}
	parsed, err := verify.ParseResult(raw)
	if err != nil {
		return nil, t.malformed(VerifyReconstruction, raw, err)
	}

	d := t.defaulter(VerifyReconstruction)
	out := &VerificationResult{}
	if out.IsCorrect, err = field(d, parsed.IsCorrect, "is_correct", true); err != nil {
		return nil, err
	}
	if out.CorrectPhrase, err = field(d, parsed.CorrectPhrase, "correct_phrase", candidate); err != nil {
		return nil, err
	}
	if out.Source, err = field(d, parsed.Source, "source", ""); err != nil {
		return nil, err
	}
	out.Defaulted = d.fields
	return out, nil
}

// DetectSpelling lists the misspellings in text.
func (t *Toolset) DetectSpelling(ctx context.Context, text string) (*DetectionResult, error) {
	req, err := detect.BuildRequest(detect.Input{
		Text:                 text,
		SystemPromptOverride: t.override(detect.SystemPromptKey),
		UserPromptOverride:   t.override(detect.UserPromptKey),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", DetectSpellingErrors, err)
	}
	raw, err := t.call(ctx, DetectSpellingErrors, req)
	if err != nil {
		return nil, err
	}
	parsed, err := detect.ParseResult(raw)
	if err != nil {
		return nil, t.malformed(DetectSpellingErrors, raw, err)
	}

	d := t.defaulter(DetectSpellingErrors)
	out := &DetectionResult{}

	// errors first: the has_errors default is derived from it.
	errs, err := field(d, parsed.Errors, "errors", []detect.Error{})
	if err != nil {
		return nil, err
	}
	out.Errors = make([]SpellingError, 0, len(errs))
	for _, e := range errs {
		out.Errors = append(out.Errors, SpellingError(e))
	}
	if out.HasErrors, err = field(d, parsed.HasErrors, "has_errors", len(out.Errors) > 0); err != nil {
		return nil, err
	}
	out.Defaulted = d.fields
	return out, nil
}

// FixSpelling corrects the given misspellings in text.
func (t *Toolset) FixSpelling(ctx context.Context, text string, errs []SpellingError) (*SpellFixResult, error) {
	input := fix.Input{
		Text:                 text,
		Errors:               make([]fix.SpellingError, 0, len(errs)),
		SystemPromptOverride: t.override(fix.SystemPromptKey),
		UserPromptOverride:   t.override(fix.UserPromptKey),
	}
	for _, e := range errs {
		input.Errors = append(input.Errors, fix.SpellingError(e))
	}
	req, err := fix.BuildRequest(input)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FixSpellingErrors, err)
	}
	raw, err := t.call(ctx, FixSpellingErrors, req)
	if err != nil {
		return nil, err
	}
	parsed, err := fix.ParseResult(raw)
	if err != nil {
		return nil, t.malformed(FixSpellingErrors, raw, err)
	}

	d := t.defaulter(FixSpellingErrors)
	out := &SpellFixResult{}
	if out.CorrectedText, err = field(d, parsed.CorrectedText, "corrected_text", text); err != nil {
		return nil, err
	}
	if out.Changes, err = field(d, parsed.Changes, "changes", []string{}); err != nil {
		return nil, err
	}
	out.Defaulted = d.fields
	return out, nil
}
