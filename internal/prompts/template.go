package prompts

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"text/template"

	"github.com/jackzampolin/amend/internal/providers"
)

// variablePattern matches Go template variable references like {{.VarName}} or {{ .VarName }}
var variablePattern = regexp.MustCompile(`\{\{\s*\.([a-zA-Z_][a-zA-Z0-9_.]*)\s*\}\}`)

// ExtractVariables extracts template variable names from a Go template string.
// For example, "Hello {{.Name}}, you have {{.Count}} items" returns ["Count", "Name"].
func ExtractVariables(text string) []string {
	matches := variablePattern.FindAllStringSubmatch(text, -1)
	seen := make(map[string]bool)
	var vars []string

	for _, match := range matches {
		if len(match) > 1 {
			varName := match[1]
			if !seen[varName] {
				seen[varName] = true
				vars = append(vars, varName)
			}
		}
	}

	sort.Strings(vars)
	return vars
}

// HashText returns a SHA256 hash of the text for change detection.
func HashText(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// Render executes tmpl with data. When override is non-empty it is parsed
// and executed instead.
func Render(tmpl *template.Template, override string, data any) (string, error) {
	t := tmpl
	if override != "" {
		parsed, err := template.New(tmpl.Name()).Parse(override)
		if err != nil {
			return "", fmt.Errorf("failed to parse override for %s: %w", tmpl.Name(), err)
		}
		t = parsed
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// ResponseFormat converts a {"type","json_schema"} schema wrapper into a
// providers.ResponseFormat.
func ResponseFormat(wrapper map[string]any) *providers.ResponseFormat {
	jsonSchema, err := json.Marshal(wrapper["json_schema"])
	if err != nil {
		panic(fmt.Sprintf("prompts: invalid schema wrapper: %v", err))
	}
	return &providers.ResponseFormat{
		Type:       "json_schema",
		JSONSchema: jsonSchema,
	}
}

// Decode unmarshals a structured response into a result of type T.
func Decode[T any](raw json.RawMessage) (*T, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty structured response")
	}
	var result T
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
