package fix

// SchemaName names the structured output schema.
const SchemaName = "spelling_fix"

// Schema is the JSON schema for spelling fix output.
var Schema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name":   SchemaName,
		"strict": true,
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"corrected_text": map[string]any{
					"type":        "string",
					"description": "The text with the listed errors fixed",
				},
				"changes": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "One description per change",
				},
			},
			"required":             []string{"corrected_text", "changes"},
			"additionalProperties": false,
		},
	},
}

// Result is the raw spelling fix response.
type Result struct {
	CorrectedText *string   `json:"corrected_text"`
	Changes       *[]string `json:"changes"`
}
