// Package memory provides an in-process AccountStore for development and
// tests. Records are copied on the way in and out so callers can never
// mutate the store's view of an account.
package memory

import (
	"context"
	"sync"

	"github.com/goodow/moonauth/internal/store/core"
)

type Store struct {
	mu   sync.RWMutex
	recs map[core.UserID]core.AccountRecord
}

func New() *Store {
	return &Store{recs: make(map[core.UserID]core.AccountRecord)}
}

func (s *Store) GetAccount(ctx context.Context, id core.UserID) (*core.AccountRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.recs[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	out := rec
	if rec.Credentials != nil {
		creds := *rec.Credentials
		out.Credentials = &creds
	}
	return &out, nil
}

func (s *Store) PutAccount(ctx context.Context, rec *core.AccountRecord) error {
	if rec == nil || rec.UserID == "" {
		return core.ErrInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *rec
	if rec.Credentials != nil {
		creds := *rec.Credentials
		stored.Credentials = &creds
	}
	s.recs[rec.UserID] = stored
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, id core.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recs, id)
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }
