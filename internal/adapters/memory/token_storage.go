package memory

// Package memory provides a process-local token storage. Tokens do not survive a restart.

import "sync"

// TokenStorage keeps tokens in a map guarded by a mutex.
type TokenStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewTokenStorage creates an empty in-memory token storage.
func NewTokenStorage() *TokenStorage {
	return &TokenStorage{values: make(map[string]string)}
}

func (s *TokenStorage) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *TokenStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *TokenStorage) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
