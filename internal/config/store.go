package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// ErrInvalidKey is returned when a config key contains invalid characters.
var ErrInvalidKey = errors.New("invalid config key")

// ValidateKey checks if a config key contains only allowed characters.
// Valid keys contain: letters, digits, dots, underscores, and hyphens.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	for i, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '_' && r != '-' {
			return fmt.Errorf("%w: invalid character %q at position %d", ErrInvalidKey, r, i)
		}
	}
	if key[0] == '.' || key[len(key)-1] == '.' {
		return fmt.Errorf("%w: key cannot start or end with a dot", ErrInvalidKey)
	}
	return nil
}

// Entry is a single configuration value with its description.
type Entry struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Entry returns the current value of key. Values are returned as written,
// with ${ENV_VAR} references unresolved.
func (cm *Manager) Entry(key string) (*Entry, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	key = strings.ToLower(key)

	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if !cm.v.IsSet(key) {
		return nil, nil
	}
	entry := &Entry{Key: key, Value: cm.v.Get(key)}
	if def := GetDefault(key); def != nil {
		entry.Description = def.Description
	}
	return entry, nil
}

// Entries returns the current value of every known key with the given
// prefix, sorted by key.
func (cm *Manager) Entries(prefix string) []Entry {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	var out []Entry
	for _, def := range DefaultEntries() {
		if !strings.HasPrefix(def.Key, prefix) {
			continue
		}
		def.Value = cm.v.Get(def.Key)
		out = append(out, def)
	}
	return out
}

// Set stores value under key and persists the whole configuration to the
// config file in use, creating it under the home directory if needed.
// Registered OnChange callbacks run with the new configuration.
func (cm *Manager) Set(key string, value any) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	cm.mu.Lock()
	cm.v.Set(key, value)
	path := cm.v.ConfigFileUsed()
	if path == "" {
		path = filepath.Join(cm.homeDir, "config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		cm.mu.Unlock()
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := cm.v.WriteConfigAs(path); err != nil {
		cm.mu.Unlock()
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	cm.mu.Unlock()

	return cm.reload()
}
