package core

import "context"

// AccountStore is the persistent account collaborator. Implementations must
// make PutAccount an upsert keyed by UserID.
type AccountStore interface {
	// GetAccount returns ErrNotFound when no record exists for id.
	GetAccount(ctx context.Context, id UserID) (*AccountRecord, error)

	// PutAccount inserts or replaces the record for rec.UserID.
	PutAccount(ctx context.Context, rec *AccountRecord) error

	// DeleteAccount removes the record. Deleting a missing record is not
	// an error.
	DeleteAccount(ctx context.Context, id UserID) error

	Ping(ctx context.Context) error
	Close() error
}
