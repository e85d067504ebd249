package detect

import (
	_ "embed"
	"text/template"

	"github.com/jackzampolin/amend/internal/prompts"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPromptTmpl string

var userTemplate = template.Must(template.New("detect.user").Parse(userPromptTmpl))

// Prompt keys
const (
	SystemPromptKey = "tools.detect.system"
	UserPromptKey   = "tools.detect.user"
)

// SystemPrompt returns the embedded spelling detection system prompt.
func SystemPrompt() string {
	return systemPrompt
}

// UserPromptData is the template data for the user prompt.
type UserPromptData struct {
	Text string
}

// RegisterPrompts registers the detection prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Spelling detection system prompt",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserPromptKey,
		Text:        userPromptTmpl,
		Description: "Spelling detection user prompt template",
	})
}
