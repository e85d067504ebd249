package fix

import (
	"encoding/json"
	"fmt"

	"github.com/jackzampolin/amend/internal/prompts"
	"github.com/jackzampolin/amend/internal/providers"
)

// SpellingError is one error to fix, in the shape the detection step reports it.
type SpellingError struct {
	ErrorText       string `json:"error_text"`
	CorrectSpelling string `json:"correct_spelling"`
	Explanation     string `json:"explanation"`
}

// Input contains the data needed for a spelling fix request.
type Input struct {
	Text   string
	Errors []SpellingError

	SystemPromptOverride string
	UserPromptOverride   string
}

// BuildRequest creates the structured chat request for a spelling fix.
func BuildRequest(input Input) (*providers.ChatRequest, error) {
	system := input.SystemPromptOverride
	if system == "" {
		system = SystemPrompt()
	}

	errs := input.Errors
	if errs == nil {
		errs = []SpellingError{}
	}
	errorsJSON, err := json.Marshal(errs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal spelling errors: %w", err)
	}

	user, err := prompts.Render(userTemplate, input.UserPromptOverride, UserPromptData{
		Text:       input.Text,
		ErrorsJSON: string(errorsJSON),
	})
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
