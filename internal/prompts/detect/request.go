package detect

import (
	"encoding/json"

	"github.com/jackzampolin/amend/internal/prompts"
	"github.com/jackzampolin/amend/internal/providers"
)

// Input contains the data needed for a detection request.
type Input struct {
	Text                 string
	SystemPromptOverride string
	UserPromptOverride   string
}

// BuildRequest creates the structured chat request for spelling detection.
func BuildRequest(input Input) (*providers.ChatRequest, error) {
	system := input.SystemPromptOverride
	if system == "" {
		system = SystemPrompt()
	}
	user, err := prompts.Render(userTemplate, input.UserPromptOverride, UserPromptData{Text: input.Text})
	if err != nil {
		return nil, err
	}

	return &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: prompts.ResponseFormat(Schema),
		Temperature:    0.0,
		MaxTokens:      2048,
		PromptKey:      SystemPromptKey,
	}, nil
}

// ParseResult parses the structured response into a Result.
func ParseResult(raw json.RawMessage) (*Result, error) {
	return prompts.Decode[Result](raw)
}
