package providers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// compiledSchemas caches compiled validation schemas keyed by their canonical
// JSON. Tool schemas are static, so the cache stays small.
var compiledSchemas sync.Map // string -> *jsonschema.Schema

// decodeStructured turns the raw text of a structured response into
// validated JSON. It is the shared tail of every client's Chat.
func decodeStructured(provider string, req *ChatRequest, content string) (json.RawMessage, error) {
	parsed, err := parseStructuredJSON(content)
	if err != nil {
		return nil, &MalformedResponseError{Provider: provider, Schema: req.SchemaName(), Content: content, Err: err}
	}
	if err := validateStructuredJSON(req.ResponseFormat.JSONSchema, parsed); err != nil {
		return nil, &MalformedResponseError{Provider: provider, Schema: req.SchemaName(), Content: content, Err: err}
	}
	return parsed, nil
}

// innerSchema returns the bare JSON schema from a response format wrapper as
// a generic value, for SDKs that take the schema as an object.
func innerSchema(rf *ResponseFormat) (map[string]any, error) {
	if rf == nil || len(rf.JSONSchema) == 0 {
		return nil, nil
	}
	raw, err := extractValidationSchema(rf.JSONSchema)
	if err != nil {
		return nil, err
	}
	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("invalid structured schema: %w", err)
	}
	return schema, nil
}

// parseStructuredJSON parses JSON from model output, recovering from markdown
// code fences and prose around the object.
func parseStructuredJSON(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty structured output")
	}

	seen := make(map[string]struct{}, 3)
	for _, candidate := range []string{content, stripCodeFences(content), extractJSONObject(content)} {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}

		var parsed map[string]any
		if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
			continue
		}
		dropNulls(parsed)
		normalized, err := json.Marshal(parsed)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize structured output: %w", err)
		}
		return normalized, nil
	}

	return nil, fmt.Errorf("output is not a JSON object")
}

// dropNulls removes null-valued members from objects at every depth, so an
// explicit null reads the same as an absent field.
func dropNulls(node any) {
	switch n := node.(type) {
	case map[string]any:
		for k, v := range n {
			if v == nil {
				delete(n, k)
				continue
			}
			dropNulls(v)
		}
	case []any:
		for _, v := range n {
			dropNulls(v)
		}
	}
}

func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}
	lines = lines[1:] // ```json
	if last := len(lines) - 1; strings.TrimSpace(lines[last]) == "```" {
		lines = lines[:last]
	}
	return strings.Join(lines, "\n")
}

// extractJSONObject returns the span between the first '{' and the last '}'.
func extractJSONObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return ""
	}
	return content[start : end+1]
}

// validateStructuredJSON validates parsed output against the schema's types
// and enums. Required-field lists are ignored here: absent fields are the
// caller's concern, since tools fall back to documented defaults for them.
// Unknown extra members are ignored as well.
func validateStructuredJSON(schemaRaw, parsed json.RawMessage) error {
	if len(schemaRaw) == 0 || len(parsed) == 0 {
		return nil
	}

	schema, err := compileLenient(schemaRaw)
	if err != nil {
		return err
	}

	var doc any
	if err := json.Unmarshal(parsed, &doc); err != nil {
		return fmt.Errorf("failed to decode structured JSON for validation: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("structured output does not match schema: %w", err)
	}
	return nil
}

func compileLenient(schemaRaw json.RawMessage) (*jsonschema.Schema, error) {
	core, err := extractValidationSchema(schemaRaw)
	if err != nil {
		return nil, err
	}

	var root any
	if err := json.Unmarshal(core, &root); err != nil {
		return nil, fmt.Errorf("invalid structured schema JSON: %w", err)
	}
	relaxSchema(root)
	lenient, err := json.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize structured schema: %w", err)
	}

	key := string(lenient)
	if cached, ok := compiledSchemas.Load(key); ok {
		return cached.(*jsonschema.Schema), nil
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(lenient)); err != nil {
		return nil, fmt.Errorf("failed to load structured schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile structured schema: %w", err)
	}
	compiledSchemas.Store(key, schema)
	return schema, nil
}

// relaxSchema removes "required" lists and "additionalProperties": false at
// every level of a schema.
func relaxSchema(node any) {
	switch n := node.(type) {
	case map[string]any:
		if _, ok := n["required"].([]any); ok {
			delete(n, "required")
		}
		if allowed, ok := n["additionalProperties"].(bool); ok && !allowed {
			delete(n, "additionalProperties")
		}
		for _, v := range n {
			relaxSchema(v)
		}
	case []any:
		for _, v := range n {
			relaxSchema(v)
		}
	}
}

// extractValidationSchema unwraps {"name","strict","schema"} and
// {"type":"json_schema","json_schema":{...}} wrappers.
func extractValidationSchema(schemaRaw json.RawMessage) (json.RawMessage, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(schemaRaw, &root); err != nil {
		return nil, fmt.Errorf("invalid structured schema JSON: %w", err)
	}
	if inner, ok := root["schema"]; ok {
		return inner, nil
	}
	if wrapped, ok := root["json_schema"]; ok {
		return extractValidationSchema(wrapped)
	}
	return schemaRaw, nil
}

// sanitizeSchemaForModel applies model-specific schema shims. Anthropic
// models routed through OpenRouter reject integer minimum/maximum bounds,
// which the reconstruction schema uses for confidence.
func sanitizeSchemaForModel(model string, schemaRaw json.RawMessage) (json.RawMessage, error) {
	if len(schemaRaw) == 0 || !isAnthropicModel(model) {
		return schemaRaw, nil
	}

	var root any
	if err := json.Unmarshal(schemaRaw, &root); err != nil {
		return nil, fmt.Errorf("failed to parse structured schema: %w", err)
	}
	stripIntegerBounds(root)
	return json.Marshal(root)
}

func isAnthropicModel(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "anthropic/")
}

func stripIntegerBounds(node any) {
	switch n := node.(type) {
	case map[string]any:
		if t, _ := n["type"].(string); t == "integer" {
			delete(n, "minimum")
			delete(n, "maximum")
		}
		for _, v := range n {
			stripIntegerBounds(v)
		}
	case []any:
		for _, v := range n {
			stripIntegerBounds(v)
		}
	}
}
