package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/opensource-finance/harrier/internal/domain"
)

// ErrConfigMissing signals that no rule configuration document exists at
// the configured path. Callers degrade to an empty rule set and default
// thresholds instead of refusing to start.
var ErrConfigMissing = errors.New("rule configuration file not found")

// Store reads and writes the rule configuration document on disk.
type Store struct {
	path string
}

// NewStore creates a store for the given document path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

// Load reads and parses the document. Returns ErrConfigMissing when the
// file does not exist.
func (s *Store) Load() (*domain.RuleConfig, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrConfigMissing
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rule config: %w", err)
	}

	var cfg domain.RuleConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse rule config: %w", err)
	}
	return &cfg, nil
}

// Save writes the document atomically: marshal to a temp file in the same
// directory, then rename over the target. Readers never observe a partial
// document.
func (s *Store) Save(cfg *domain.RuleConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal rule config: %w", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, ".rules-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp config file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write rule config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp config file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace rule config: %w", err)
	}
	return nil
}
