package verify

import (
	_ "embed"
	"text/template"

	"github.com/jackzampolin/amend/internal/prompts"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPromptTmpl string

var userTemplate = template.Must(template.New("verify.user").Parse(userPromptTmpl))

const (
	SystemPromptKey = "tools.verify.system"
	UserPromptKey   = "tools.verify.user"
)

func SystemPrompt() string {
	return systemPrompt
}

// UserPromptData carries the original input and the reconstruction under review.
type UserPromptData struct {
	Original  string
	Candidate string
}

// RegisterPrompts registers the verification prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Reconstruction verification system prompt",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserPromptKey,
		Text:        userPromptTmpl,
		Description: "Reconstruction verification user prompt template",
	})
}
