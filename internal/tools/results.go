package tools

// AnalysisResult classifies what kind of correction a text needs.
type AnalysisResult struct {
	NeedsReconstruction bool   `json:"needs_reconstruction"`
	NeedsGrammarFix     bool   `json:"needs_grammar_fix"`
	NeedsSpellCheck     bool   `json:"needs_spell_check"`
	Severity            string `json:"severity"`
	Reasoning           string `json:"reasoning"`

	// Defaulted lists the fields filled in because the model omitted them.
	Defaulted []string `json:"-"`
}

// GrammarError is one grammar problem found by FixGrammar.
type GrammarError struct {
	ErrorType   string `json:"error_type"` // word_order, preposition, subject_verb, tense, structure
	Wrong       string `json:"wrong"`
	Correct     string `json:"correct"`
	Explanation string `json:"explanation"`
}

// GrammarFixResult is the output of FixGrammar.
type GrammarFixResult struct {
	HasErrors bool           `json:"has_errors"`
	Corrected string         `json:"corrected"`
	Errors    []GrammarError `json:"errors"`

	Defaulted []string `json:"-"`
}

// ReconstructionResult is the output of Reconstruct.
// Confidence is always within [0, 100].
type ReconstructionResult struct {
	Reconstructed string   `json:"reconstructed"`
	Confidence    int      `json:"confidence"`
	Reasoning     string   `json:"reasoning"`
	WordsChanged  []string `json:"words_changed"`

	Defaulted []string `json:"-"`
}

// VerificationResult is the output of Verify.
type VerificationResult struct {
	IsCorrect     bool   `json:"is_correct"`
	CorrectPhrase string `json:"correct_phrase"`
	Source        string `json:"source"`

	Defaulted []string `json:"-"`
}

// SpellingError is one misspelling found by DetectSpelling.
type SpellingError struct {
	ErrorText       string `json:"error_text"`
	CorrectSpelling string `json:"correct_spelling"`
	Explanation     string `json:"explanation"`
}

// DetectionResult is the output of DetectSpelling.
type DetectionResult struct {
	HasErrors bool            `json:"has_errors"`
	Errors    []SpellingError `json:"errors"`

	Defaulted []string `json:"-"`
}

// SpellFixResult is the output of FixSpelling.
type SpellFixResult struct {
	CorrectedText string   `json:"corrected_text"`
	Changes       []string `json:"changes"`

	Defaulted []string `json:"-"`
}

// DefaultedField records one default applied during a run.
type DefaultedField struct {
	Tool  string `json:"tool"`
	Field string `json:"field"`
}
