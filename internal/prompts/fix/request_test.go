package fix

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/jackzampolin/amend/internal/prompts"
)

func TestBuildRequest(t *testing.T) {
	req, err := BuildRequest(Input{
		Text: "I havv a speling eror",
		Errors: []SpellingError{
			{ErrorText: "havv", CorrectSpelling: "have", Explanation: "doubled consonant"},
		},
	})
	if err != nil {
		t.Fatalf("BuildRequest() error = %v", err)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
		t.Fatalf("Messages = %+v", req.Messages)
	}
	user := req.Messages[1].Content
	if !strings.Contains(user, `"I havv a speling eror"`) {
		t.Errorf("user prompt missing text: %q", user)
	}
	if !strings.Contains(user, `"error_text":"havv"`) {
		t.Errorf("user prompt missing errors JSON: %q", user)
	}
	if req.SchemaName() != "spelling_fix" {
		t.Errorf("SchemaName() = %q", req.SchemaName())
	}
	if req.PromptKey != SystemPromptKey {
		t.Errorf("PromptKey = %q", req.PromptKey)
	}
}

func TestBuildRequest_NilErrorsRenderAsEmptyList(t *testing.T) {
	req, err := BuildRequest(Input{Text: "fine text"})
	if err != nil {
		t.Fatalf("BuildRequest() error = %v", err)
	}
	if !strings.Contains(req.Messages[1].Content, "Errors: []") {
		t.Errorf("user prompt = %q", req.Messages[1].Content)
	}
}

func TestParseResult_MissingFieldsAreNil(t *testing.T) {
	res, err := ParseResult(json.RawMessage(`{"corrected_text":"I have a spelling error"}`))
	if err != nil {
		t.Fatalf("ParseResult() error = %v", err)
	}
	if res.CorrectedText == nil || *res.CorrectedText != "I have a spelling error" {
		t.Errorf("CorrectedText = %v", res.CorrectedText)
	}
	if res.Changes != nil {
		t.Errorf("Changes = %v, want nil for missing key", *res.Changes)
	}
}

func TestRegisterPrompts(t *testing.T) {
	r := prompts.NewResolver(nil, nil)
	RegisterPrompts(r)

	p, ok := r.GetEmbedded(UserPromptKey)
	if !ok {
		t.Fatal("user prompt not registered")
	}
	if strings.Join(p.Variables, ",") != "ErrorsJSON,Text" {
		t.Errorf("Variables = %v", p.Variables)
	}
}
