package prompts

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// validKeyPattern matches valid prompt keys (alphanumeric with dots, underscores).
var validKeyPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9._]*$`)

const overrideExt = ".tmpl"

// Store reads and writes prompt overrides as files in a directory.
// A nil *Store behaves as an empty store.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates a new prompt store rooted at dir.
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, logger: logger}
}

// Dir returns the overrides directory.
func (s *Store) Dir() string {
	if s == nil {
		return ""
	}
	return s.dir
}

func (s *Store) path(key string) (string, error) {
	if !validKeyPattern.MatchString(key) {
		return "", fmt.Errorf("invalid prompt key: %s", key)
	}
	return filepath.Join(s.dir, key+overrideExt), nil
}

// Get returns the override for key, or nil if there is none.
func (s *Store) Get(key string) (*Override, error) {
	if s == nil || s.dir == "" {
		return nil, nil
	}
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat override %s: %w", key, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read override %s: %w", key, err)
	}

	return &Override{
		Key:       key,
		Text:      string(data),
		Path:      path,
		UpdatedAt: info.ModTime(),
	}, nil
}

// Put writes an override, creating the directory if needed.
func (s *Store) Put(key, text string) error {
	if s == nil || s.dir == "" {
		return errors.New("prompt store not configured")
	}
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create prompts directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write override %s: %w", key, err)
	}
	s.logger.Info("saved prompt override", "key", key, "path", path)
	return nil
}

// Delete removes an override. Deleting a missing override is not an error.
func (s *Store) Delete(key string) error {
	if s == nil || s.dir == "" {
		return nil
	}
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete override %s: %w", key, err)
	}
	return nil
}

// Keys lists the keys that currently have overrides, sorted.
func (s *Store) Keys() ([]string, error) {
	if s == nil || s.dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}

	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, overrideExt) {
			continue
		}
		key := strings.TrimSuffix(name, overrideExt)
		if validKeyPattern.MatchString(key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
