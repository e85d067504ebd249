package fix

import (
	_ "embed"
	"text/template"

	"github.com/jackzampolin/amend/internal/prompts"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPromptTmpl string

var userTemplate = template.Must(template.New("fix.user").Parse(userPromptTmpl))

const (
	SystemPromptKey = "tools.fix.system"
	UserPromptKey   = "tools.fix.user"
)

// SystemPrompt returns the embedded spelling fix system prompt.
func SystemPrompt() string {
	return systemPrompt
}

// UserPromptData is the template data for the user prompt.
// ErrorsJSON is the detected error list rendered as JSON.
type UserPromptData struct {
	Text       string
	ErrorsJSON string
}

func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Spelling fix system prompt",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserPromptKey,
		Text:        userPromptTmpl,
		Description: "Spelling fix user prompt template",
	})
}
