// Package prompts provides prompt management with embedded defaults and
// on-disk overrides.
//
// Embedded .tmpl files in each tool sub-package are the source of truth for
// defaults. An override is a file named <key>.tmpl in the prompts directory
// under the amend home (usually ~/.amend/prompts); when present it replaces
// the embedded text for every run.
//
// Resolution order:
//  1. On-disk override (if the file exists)
//  2. Embedded default
package prompts

import (
	"time"
)

// EmbeddedPrompt represents a prompt loaded from an embedded .tmpl file.
type EmbeddedPrompt struct {
	Key         string   `json:"key"`                   // Hierarchical key: tools.analyze.system
	Text        string   `json:"text"`                  // The prompt text (Go template)
	Description string   `json:"description,omitempty"` // Human-readable description
	Variables   []string `json:"variables,omitempty"`   // Extracted template variables
	Hash        string   `json:"hash"`                  // SHA256 hash of the text for change detection
}

// Override is a prompt text read from the overrides directory.
type Override struct {
	Key       string    `json:"key"`
	Text      string    `json:"text"`
	Path      string    `json:"path"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResolvedPrompt is the result of resolving a prompt key.
type ResolvedPrompt struct {
	Key        string   `json:"key"`
	Text       string   `json:"text"`
	Variables  []string `json:"variables,omitempty"`
	Hash       string   `json:"hash"`
	IsOverride bool     `json:"is_override"`
	Path       string   `json:"path,omitempty"` // override file, if any
}

// Summary describes a registered prompt for listings.
type Summary struct {
	Key          string   `json:"key"`
	Description  string   `json:"description,omitempty"`
	Variables    []string `json:"variables,omitempty"`
	EmbeddedHash string   `json:"embedded_hash"`
	Overridden   bool     `json:"overridden"`
}
