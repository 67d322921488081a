// Package pg implements the AccountStore on Postgres via pgxpool.
package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goodow/moonauth/internal/store/core"
)

type Store struct{ pool *pgxpool.Pool }

type Tuning struct {
	MaxOpenConns    int
	MinConns        int
	ConnMaxLifetime string
}

func New(ctx context.Context, dsn string, t Tuning) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if t.MaxOpenConns > 0 {
		pcfg.MaxConns = int32(t.MaxOpenConns)
	}
	if t.MinConns > 0 {
		pcfg.MinConns = int32(t.MinConns)
	}
	if t.ConnMaxLifetime != "" {
		if d, err := time.ParseDuration(t.ConnMaxLifetime); err == nil {
			pcfg.MaxConnLifetime = d
			pcfg.MaxConnIdleTime = d
		}
	}
	if pcfg.MaxConns == 0 {
		pcfg.MaxConns = 10
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Pool exposes the underlying pool for migrations and metrics.
func (s *Store) Pool() *pgxpool.Pool {
	if s == nil {
		return nil
	}
	return s.pool
}

func (s *Store) GetAccount(ctx context.Context, id core.UserID) (*core.AccountRecord, error) {
	const q = `
		SELECT user_id, participant_id, access_token, refresh_token
		FROM accounts WHERE user_id = $1`

	var (
		rec          core.AccountRecord
		accessToken  *string
		refreshToken *string
	)
	err := s.pool.QueryRow(ctx, q, string(id)).Scan(&rec.UserID, &rec.ParticipantID, &accessToken, &refreshToken)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if accessToken != nil && *accessToken != "" {
		rec.Credentials = &core.OAuthCredentials{AccessToken: *accessToken}
		if refreshToken != nil {
			rec.Credentials.RefreshToken = *refreshToken
		}
	}
	return &rec, nil
}

func (s *Store) PutAccount(ctx context.Context, rec *core.AccountRecord) error {
	if rec == nil || rec.UserID == "" {
		return core.ErrInvalid
	}
	const q = `
		INSERT INTO accounts (user_id, participant_id, access_token, refresh_token, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET participant_id = EXCLUDED.participant_id,
		              access_token   = EXCLUDED.access_token,
		              refresh_token  = EXCLUDED.refresh_token,
		              updated_at     = NOW()`

	var accessToken, refreshToken *string
	if rec.Credentials != nil {
		accessToken = &rec.Credentials.AccessToken
		if rec.Credentials.RefreshToken != "" {
			refreshToken = &rec.Credentials.RefreshToken
		}
	}
	_, err := s.pool.Exec(ctx, q, string(rec.UserID), string(rec.ParticipantID), accessToken, refreshToken)
	return err
}

func (s *Store) DeleteAccount(ctx context.Context, id core.UserID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM accounts WHERE user_id = $1`, string(id))
	return err
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}
