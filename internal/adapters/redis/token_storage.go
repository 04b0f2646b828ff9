package redis

// Package redis provides Redis-based adapters for the helpdesk console.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultOpTimeout = 2 * time.Second

// TokenStorage is a Redis-backed token storage. Keys are namespaced with a prefix so
// several consoles can share one Redis.
//
// The storage port is synchronous, so each call blocks on its own round-trip bounded by
// the operation timeout.
type TokenStorage struct {
	client    redis.UniversalClient
	prefix    string
	opTimeout time.Duration
}

// TokenStorageOptions configures TokenStorage.
type TokenStorageOptions struct {
	Prefix    string
	OpTimeout time.Duration
}

// NewTokenStorage creates a Redis token storage with the default "helpdesk:session:" prefix.
func NewTokenStorage(client redis.UniversalClient) *TokenStorage {
	return NewTokenStorageWithOptions(client, TokenStorageOptions{})
}

// NewTokenStorageWithOptions creates a Redis token storage with a custom prefix and timeout.
func NewTokenStorageWithOptions(client redis.UniversalClient, opts TokenStorageOptions) *TokenStorage {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "helpdesk:session:"
	}
	timeout := opts.OpTimeout
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	return &TokenStorage{
		client:    client,
		prefix:    prefix,
		opTimeout: timeout,
	}
}

func (s *TokenStorage) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.opTimeout)
}

// Get returns the value for key. Redis errors are reported as a missing key, matching
// the behavior of an unavailable browser storage.
func (s *TokenStorage) Get(key string) (string, bool) {
	ctx, cancel := s.ctx()
	defer cancel()

	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		return "", false
	}
	return v, true
}

func (s *TokenStorage) Set(key, value string) error {
	if key == "" {
		return errors.New("storage key cannot be empty")
	}

	ctx, cancel := s.ctx()
	defer cancel()

	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *TokenStorage) Remove(key string) error {
	if key == "" {
		return nil // Nothing to delete
	}

	ctx, cancel := s.ctx()
	defer cancel()

	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
