package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	defaultDir  = ".rbac-console"
	defaultFile = "credentials.json"
)

// FileStore keeps the tokens in a JSON document on disk.
type FileStore struct {
	path string
}

var _ Store = (*FileStore)(nil)

// DefaultPath returns ~/.rbac-console/credentials.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("credentials: home directory: %w", err)
	}
	return filepath.Join(home, defaultDir, defaultFile), nil
}

// NewFileStore creates the parent directory of path and returns a store.
// An empty path selects DefaultPath.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		def, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = def
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("credentials: create directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Path returns the file location.
func (s *FileStore) Path() string {
	return s.path
}

// Put writes both tokens through a temp file and rename.
func (s *FileStore) Put(_ context.Context, accessToken, refreshToken string) error {
	data, err := json.MarshalIndent(Tokens{AccessToken: accessToken, RefreshToken: refreshToken}, "", "  ")
	if err != nil {
		return fmt.Errorf("credentials: marshal: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("credentials: temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("credentials: chmod: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("credentials: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("credentials: close: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("credentials: rename: %w", err)
	}
	return nil
}

// Read loads the tokens. A missing file yields empty Tokens.
func (s *FileStore) Read(_ context.Context) (Tokens, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Tokens{}, nil
		}
		return Tokens{}, fmt.Errorf("credentials: read: %w", err)
	}
	var tokens Tokens
	if err := json.Unmarshal(data, &tokens); err != nil {
		return Tokens{}, fmt.Errorf("credentials: unmarshal: %w", err)
	}
	return tokens, nil
}

// Clear removes the file.
func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("credentials: remove: %w", err)
	}
	return nil
}
