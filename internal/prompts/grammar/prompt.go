package grammar

import (
	_ "embed"
	"text/template"

	"github.com/jackzampolin/amend/internal/prompts"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPromptTmpl string

var userTemplate = template.Must(template.New("grammar.user").Parse(userPromptTmpl))

const (
	SystemPromptKey = "tools.grammar.system"
	UserPromptKey   = "tools.grammar.user"
)

// SystemPrompt returns the embedded grammar system prompt.
func SystemPrompt() string {
	return systemPrompt
}

type UserPromptData struct {
	Text string
}

// RegisterPrompts registers the grammar prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Grammar fix system prompt",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserPromptKey,
		Text:        userPromptTmpl,
		Description: "Grammar fix user prompt template",
	})
}
