package verify

// SchemaName names the structured output schema.
const SchemaName = "reconstruction_verification"

var Schema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name":   SchemaName,
		"strict": true,
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"is_correct": map[string]any{
					"type":        "boolean",
					"description": "True if the reconstruction is accurate",
				},
				"correct_phrase": map[string]any{
					"type":        "string",
					"description": "The actual complete phrase",
				},
				"source": map[string]any{
					"type":        "string",
					"description": "Origin of the phrase",
				},
			},
			"required":             []string{"is_correct", "correct_phrase", "source"},
			"additionalProperties": false,
		},
	},
}

// Result is the raw verification response.
type Result struct {
	IsCorrect     *bool   `json:"is_correct"`
	CorrectPhrase *string `json:"correct_phrase"`
	Source        *string `json:"source"`
}
