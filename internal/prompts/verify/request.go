package verify

import (
	"encoding/json"

	"github.com/jackzampolin/amend/internal/prompts"
	"github.com/jackzampolin/amend/internal/providers"
)

// Input contains the data needed for a verification request.
type Input struct {
	Original  string
	Candidate string

	SystemPromptOverride string
	UserPromptOverride   string
}

// BuildRequest creates the structured chat request that checks a reconstruction.
func BuildRequest(input Input) (*providers.ChatRequest, error) {
	system := input.SystemPromptOverride
	if system == "" {
		system = SystemPrompt()
	}
	data := UserPromptData{Original: input.Original, Candidate: input.Candidate}
	user, err := prompts.Render(userTemplate, input.UserPromptOverride, data)
	if err != nil {
		return nil, err
	}

	return &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: prompts.ResponseFormat(Schema),
		Temperature:    0.1,
		MaxTokens:      512,
		PromptKey:      SystemPromptKey,
	}, nil
}

// ParseResult parses the structured response into a Result.
func ParseResult(raw json.RawMessage) (*Result, error) {
	return prompts.Decode[Result](raw)
}
