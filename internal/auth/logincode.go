package auth

import (
	"context"
	"errors"
	"time"

	"github.com/goodow/moonauth/internal/cache"
	"github.com/goodow/moonauth/internal/metrics"
	"github.com/goodow/moonauth/internal/observability/logger"
	"github.com/goodow/moonauth/internal/store/core"
)

const (
	codeKeyPrefix = "oauth:code:"

	// DefaultLoginCodeTTL bounds how long the browser callback and the
	// polling client have to meet in the middle.
	DefaultLoginCodeTTL = 30 * time.Second
)

// CodeStore bridges the browser callback and a secondary client channel
// with single-use, short-TTL correlation codes. Concurrency safety rests on
// the cache's atomic add-only-if-absent.
type CodeStore struct {
	cache cache.Client
	ttl   time.Duration
}

func NewCodeStore(c cache.Client, ttl time.Duration) *CodeStore {
	if ttl <= 0 {
		ttl = DefaultLoginCodeTTL
	}
	return &CodeStore{cache: c, ttl: ttl}
}

// Put stores code → userID, first writer wins. A duplicate put (a provider
// delivering the same callback twice) is a silent no-op.
func (s *CodeStore) Put(ctx context.Context, code string, id core.UserID) error {
	ok, err := s.cache.Add(ctx, codeKeyPrefix+code, string(id), s.ttl)
	if err != nil {
		return err
	}
	if !ok {
		metrics.LoginCodeDuplicatePuts.Inc()
		logger.From(ctx).Debug("duplicate login code put ignored", logger.Component("auth.codestore"))
	}
	return nil
}

// Consume looks up and deletes the code in one motion. A second Consume of
// the same code returns ErrCodeNotFound. The delete is unconditional once
// the code was found, so a half-consumed code can never be replayed.
func (s *CodeStore) Consume(ctx context.Context, code string) (core.UserID, error) {
	key := codeKeyPrefix + code
	val, err := s.cache.Get(ctx, key)
	if errors.Is(err, cache.ErrNotFound) {
		metrics.LoginCodeConsumes.WithLabelValues("miss").Inc()
		return "", ErrCodeNotFound
	}
	if err != nil {
		return "", err
	}
	if derr := s.cache.Delete(ctx, key); derr != nil {
		// The value is already in hand; log and keep going rather than
		// failing the login over a cache hiccup.
		logger.From(ctx).Warn("login code delete failed",
			logger.Component("auth.codestore"), logger.Err(derr))
	}
	metrics.LoginCodeConsumes.WithLabelValues("hit").Inc()
	return core.UserID(val), nil
}
