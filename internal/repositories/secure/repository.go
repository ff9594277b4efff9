// Package secure persists encrypted secure store entries.
//
// Rows are namespaced by KeyID, the fingerprint of the unlock key that
// encrypted them, so a password change can write a complete new
// generation before the old one is removed.
package secure

import (
	"context"
	"time"
)

// Entry is one encrypted value.
type Entry struct {
	KeyID      string
	Key        string
	Ciphertext []byte
	Nonce      []byte
	UpdatedAt  time.Time
}

// Repository stores encrypted entries grouped by the key that sealed them.
type Repository interface {
	// Get returns (nil, nil) when the entry is absent.
	Get(ctx context.Context, keyID, key string) (*Entry, error)
	Put(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, keyID, key string) error
	// List returns every entry of a generation ordered by key.
	List(ctx context.Context, keyID string) ([]Entry, error)
	DeleteGeneration(ctx context.Context, keyID string) (int64, error)
}
