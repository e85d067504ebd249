package prompts

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Resolver resolves prompts with on-disk overrides.
// Resolution order: override file > embedded default.
type Resolver struct {
	store    *Store
	embedded map[string]EmbeddedPrompt
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewResolver creates a new prompt resolver. store may be nil.
func NewResolver(store *Store, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:    store,
		embedded: make(map[string]EmbeddedPrompt),
		logger:   logger,
	}
}

// Register registers an embedded prompt.
// Each tool package calls this through its RegisterPrompts function.
func (r *Resolver) Register(prompt EmbeddedPrompt) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prompt.Hash == "" {
		prompt.Hash = HashText(prompt.Text)
	}
	if prompt.Variables == nil {
		prompt.Variables = ExtractVariables(prompt.Text)
	}

	r.embedded[prompt.Key] = prompt
	r.logger.Debug("registered embedded prompt", "key", prompt.Key, "vars", prompt.Variables)
}

// Resolve returns the override for key if one exists, otherwise the embedded default.
// A broken override is logged and skipped rather than failing the caller.
func (r *Resolver) Resolve(key string) (*ResolvedPrompt, error) {
	if r.store != nil {
		override, err := r.store.Get(key)
		if err != nil {
			r.logger.Warn("failed to check prompt override", "key", key, "error", err)
		} else if override != nil {
			return &ResolvedPrompt{
				Key:        key,
				Text:       override.Text,
				Variables:  ExtractVariables(override.Text),
				Hash:       HashText(override.Text),
				IsOverride: true,
				Path:       override.Path,
			}, nil
		}
	}

	r.mu.RLock()
	embedded, ok := r.embedded[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("prompt not found: %s", key)
	}

	return &ResolvedPrompt{
		Key:       key,
		Text:      embedded.Text,
		Variables: embedded.Variables,
		Hash:      embedded.Hash,
	}, nil
}

// Override returns the override text for key, or "" when the embedded
// default applies. Tool request builders treat "" as "use the default".
func (r *Resolver) Override(key string) string {
	if r == nil {
		return ""
	}
	resolved, err := r.Resolve(key)
	if err != nil || !resolved.IsOverride {
		return ""
	}
	return resolved.Text
}

// GetEmbedded returns the embedded default for a key.
func (r *Resolver) GetEmbedded(key string) (*EmbeddedPrompt, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.embedded[key]
	return &p, ok
}

// AllEmbedded returns all registered embedded prompts sorted by key.
func (r *Resolver) AllEmbedded() []EmbeddedPrompt {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]EmbeddedPrompt, 0, len(r.embedded))
	for _, p := range r.embedded {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}

// Summaries lists every registered prompt with its override status.
func (r *Resolver) Summaries() ([]Summary, error) {
	overridden := make(map[string]bool)
	if r.store != nil {
		keys, err := r.store.Keys()
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			overridden[k] = true
		}
	}

	all := r.AllEmbedded()
	out := make([]Summary, 0, len(all))
	for _, p := range all {
		out = append(out, Summary{
			Key:          p.Key,
			Description:  p.Description,
			Variables:    p.Variables,
			EmbeddedHash: p.Hash,
			Overridden:   overridden[p.Key],
		})
	}
	return out, nil
}

// ErrUnknownPrompt is returned when overriding a key that no tool registered.
var ErrUnknownPrompt = errors.New("unknown prompt key")

// SetOverride stores text as the override for a registered key.
func (r *Resolver) SetOverride(key, text string) error {
	if _, ok := r.GetEmbedded(key); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPrompt, key)
	}
	return r.store.Put(key, text)
}

// ClearOverride removes the override for key, restoring the embedded default.
func (r *Resolver) ClearOverride(key string) error {
	if _, ok := r.GetEmbedded(key); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPrompt, key)
	}
	return r.store.Delete(key)
}
