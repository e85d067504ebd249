package analyze

import (
	_ "embed"
	"text/template"

	"github.com/jackzampolin/amend/internal/prompts"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPromptTmpl string

var userTemplate = template.Must(template.New("analyze.user").Parse(userPromptTmpl))

// Prompt keys
const (
	SystemPromptKey = "tools.analyze.system"
	UserPromptKey   = "tools.analyze.user"
)

// SystemPrompt returns the embedded system prompt for text analysis.
func SystemPrompt() string {
	return systemPrompt
}

// UserPromptData is the template data for the user prompt.
type UserPromptData struct {
	Text string
}

// RegisterPrompts registers the analyze prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Triage system prompt - classifies text as reconstruction, grammar or spelling",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserPromptKey,
		Text:        userPromptTmpl,
		Description: "Triage user prompt template",
	})
}
