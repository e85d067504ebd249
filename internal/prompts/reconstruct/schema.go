package reconstruct

// SchemaName names the structured output schema.
const SchemaName = "phrase_reconstruction"

// Schema is the JSON schema for reconstruction output.
// confidence is a plain number; the tool layer rounds and clamps it.
var Schema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name":   SchemaName,
		"strict": true,
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"reconstructed": map[string]any{
					"type":        "string",
					"description": "The complete, correct phrase",
				},
				"confidence": map[string]any{
					"type":        "number",
					"description": "Confidence from 0 to 100",
				},
				"reasoning": map[string]any{
					"type":        "string",
					"description": "Which phrase this is and what was wrong",
				},
				"words_changed": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Words that were wrong, even if spelled correctly",
				},
			},
			"required":             []string{"reconstructed", "confidence", "reasoning", "words_changed"},
			"additionalProperties": false,
		},
	},
}

// Result is the raw reconstruction response.
type Result struct {
	Reconstructed *string   `json:"reconstructed"`
	Confidence    *float64  `json:"confidence"`
	Reasoning     *string   `json:"reasoning"`
	WordsChanged  *[]string `json:"words_changed"`
}
