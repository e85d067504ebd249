package analyze

// Severity levels reported by the analysis.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// SchemaName names the structured output schema.
const SchemaName = "text_analysis"

// Schema is the JSON schema for the analysis output.
var Schema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name":   SchemaName,
		"strict": true,
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"needs_reconstruction": map[string]any{
					"type":        "boolean",
					"description": "True if the text has wrong words, is scrambled, or misquotes a famous phrase",
				},
				"needs_grammar_fix": map[string]any{
					"type":        "boolean",
					"description": "True if sentence structure or grammar is wrong",
				},
				"needs_spell_check": map[string]any{
					"type":        "boolean",
					"description": "True if the only problems are spelling errors",
				},
				"severity": map[string]any{
					"type":        "string",
					"enum":        []string{SeverityHigh, SeverityMedium, SeverityLow},
					"description": "high for reconstruction, medium for grammar, low for spelling",
				},
				"reasoning": map[string]any{
					"type":        "string",
					"description": "Short explanation of what is wrong",
				},
			},
			"required": []string{
				"needs_reconstruction",
				"needs_grammar_fix",
				"needs_spell_check",
				"severity",
				"reasoning",
			},
			"additionalProperties": false,
		},
	},
}

// Result is the raw analysis response. Pointer fields are nil when the
// model omitted the key.
type Result struct {
	NeedsReconstruction *bool   `json:"needs_reconstruction"`
	NeedsGrammarFix     *bool   `json:"needs_grammar_fix"`
	NeedsSpellCheck     *bool   `json:"needs_spell_check"`
	Severity            *string `json:"severity"`
	Reasoning           *string `json:"reasoning"`
}
