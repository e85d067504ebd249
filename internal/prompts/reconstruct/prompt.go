package reconstruct

import (
	_ "embed"
	"text/template"

	"github.com/jackzampolin/amend/internal/prompts"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPromptTmpl string

var userTemplate = template.Must(template.New("reconstruct.user").Parse(userPromptTmpl))

// Prompt keys
const (
	SystemPromptKey = "tools.reconstruct.system"
	UserPromptKey   = "tools.reconstruct.user"
)

// SystemPrompt returns the embedded reconstruction system prompt.
func SystemPrompt() string {
	return systemPrompt
}

// UserPromptData is the template data for the user prompt.
type UserPromptData struct {
	Text string
}

// RegisterPrompts registers the reconstruction prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Semantic reconstruction system prompt - restores misquoted famous phrases",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserPromptKey,
		Text:        userPromptTmpl,
		Description: "Semantic reconstruction user prompt template",
	})
}
