// Package cache abstracts the short-TTL key-value cache used for one-time
// login codes.
//
// Backends:
//   - memory (in-process, development/testing)
//   - redis (distributed, production)
//
// Add is the load-bearing operation: it must be atomic first-writer-wins so
// duplicate OAuth callback deliveries cannot overwrite each other's code.
package cache

import (
	"context"
	"errors"
	"time"
)

// Client defines the cache operations.
type Client interface {
	// Get returns ErrNotFound when the key is absent or expired.
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value with a TTL. ttl == 0 means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Add stores the value only if the key is absent. Returns false (and no
	// error) when another writer got there first.
	Add(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) error
	Close() error
}

var ErrNotFound = errors.New("cache: key not found")

// Config selects and configures a backend.
type Config struct {
	Kind   string // "memory" | "redis"
	Prefix string // prepended to every key

	Redis struct {
		Addr     string
		Password string
		DB       int
	}
}

// New builds a Client for cfg.Kind. Memory is the default.
func New(cfg Config) (Client, error) {
	switch cfg.Kind {
	case "redis":
		return NewRedis(cfg)
	case "memory", "":
		return NewMemory(cfg.Prefix), nil
	default:
		return NewMemory(cfg.Prefix), nil
	}
}
