package detect

// SchemaName names the structured output schema.
const SchemaName = "spelling_detection"

// Schema is the JSON schema for spelling detection output.
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
				"errors": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"error_text":       map[string]any{"type": "string"},
							"correct_spelling": map[string]any{"type": "string"},
							"explanation":      map[string]any{"type": "string"},
						},
						"required":             []string{"error_text", "correct_spelling", "explanation"},
						"additionalProperties": false,
					},
				},
			},
			"required":             []string{"has_errors", "errors"},
			"additionalProperties": false,
		},
	},
}

// Error is one misspelling reported by the model.
type Error struct {
	ErrorText       string `json:"error_text"`
	CorrectSpelling string `json:"correct_spelling"`
	Explanation     string `json:"explanation"`
}

// Result is the raw detection response.
type Result struct {
	HasErrors *bool    `json:"has_errors"`
	Errors    *[]Error `json:"errors"`
}
