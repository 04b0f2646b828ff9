// Package dotenv provides a file-backed token storage that keeps tokens in a
// KEY=value file, so CLI invocations and the console server share one session.
// Values are stored base64url encoded; tokens are opaque and may contain bytes
// the dotenv format cannot quote.
package dotenv

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

const (
	fileMode = 0o600
	// valuePrefix keeps godotenv.Marshal from writing all-digit encodings as integers.
	valuePrefix = "b64:"
)

// TokenStorage reads the file on every Get so changes made by another process are
// observed, and rewrites it atomically on every Set and Remove.
type TokenStorage struct {
	path string
	mu   sync.Mutex
}

// NewTokenStorage creates a token storage backed by path. The file is created on the
// first write.
func NewTokenStorage(path string) (*TokenStorage, error) {
	if path == "" {
		return nil, errors.New("token file path is required")
	}
	return &TokenStorage{path: path}, nil
}

// Path returns the backing file path.
func (s *TokenStorage) Path() string { return s.path }

func (s *TokenStorage) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return "", false
	}
	v, ok := values[key]
	return v, ok
}

func (s *TokenStorage) Set(key, value string) error {
	if key == "" {
		return errors.New("storage key cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	values[key] = value
	return s.write(values)
}

func (s *TokenStorage) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return s.write(values)
}

func (s *TokenStorage) read() (map[string]string, error) {
	raw, err := godotenv.Read(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read token file: %w", err)
	}

	values := make(map[string]string, len(raw))
	for k, v := range raw {
		enc, found := strings.CutPrefix(v, valuePrefix)
		if !found {
			// Entries not written by this storage are dropped on the next write.
			continue
		}
		decoded, decErr := base64.RawURLEncoding.DecodeString(enc)
		if decErr != nil {
			continue
		}
		values[k] = string(decoded)
	}
	return values, nil
}

func (s *TokenStorage) write(values map[string]string) error {
	encoded := make(map[string]string, len(values))
	for k, v := range values {
		encoded[k] = valuePrefix + base64.RawURLEncoding.EncodeToString([]byte(v))
	}
	content, err := godotenv.Marshal(encoded)
	if err != nil {
		return fmt.Errorf("encode token file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if mkErr := os.MkdirAll(dir, 0o700); mkErr != nil {
		return fmt.Errorf("create token dir: %w", mkErr)
	}

	tmp, err := os.CreateTemp(dir, ".tokens-*")
	if err != nil {
		return fmt.Errorf("create temp token file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func(cause error) error {
		_ = tmp.Close()
		if rmErr := os.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return errors.Join(cause, fmt.Errorf("remove temp token file: %w", rmErr))
		}
		return cause
	}

	if chErr := tmp.Chmod(fileMode); chErr != nil {
		return cleanup(fmt.Errorf("chmod temp token file: %w", chErr))
	}
	if _, wErr := tmp.WriteString(content + "\n"); wErr != nil {
		return cleanup(fmt.Errorf("write temp token file: %w", wErr))
	}
	if cErr := tmp.Close(); cErr != nil {
		return cleanup(fmt.Errorf("close temp token file: %w", cErr))
	}
	if rnErr := os.Rename(tmpName, s.path); rnErr != nil {
		return cleanup(fmt.Errorf("replace token file: %w", rnErr))
	}
	return nil
}
