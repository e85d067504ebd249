package grammar

// Error categories a grammar error can carry.
var ErrorTypes = []string{"word_order", "preposition", "subject_verb", "tense", "structure"}

// SchemaName names the structured output schema.
const SchemaName = "grammar_fix"

// Schema is the JSON schema for grammar correction output.
var Schema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name":   SchemaName,
		"strict": true,
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"has_errors": map[string]any{
					"type": "boolean",
				},
				"corrected": map[string]any{
					"type":        "string",
					"description": "The grammatically correct sentence",
				},
				"errors": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"error_type":  map[string]any{"type": "string", "enum": ErrorTypes},
							"wrong":       map[string]any{"type": "string"},
							"correct":     map[string]any{"type": "string"},
							"explanation": map[string]any{"type": "string"},
						},
						"required":             []string{"error_type", "wrong", "correct", "explanation"},
						"additionalProperties": false,
					},
				},
			},
			"required":             []string{"has_errors", "corrected", "errors"},
			"additionalProperties": false,
		},
	},
}

// Error is one grammar error reported by the model.
type Error struct {
	ErrorType   string `json:"error_type"`
	Wrong       string `json:"wrong"`
	Correct     string `json:"correct"`
	Explanation string `json:"explanation"`
}

// Result is the raw grammar response; nil fields were omitted by the model.
type Result struct {
	HasErrors *bool    `json:"has_errors"`
	Corrected *string  `json:"corrected"`
	Errors    *[]Error `json:"errors"`
}
