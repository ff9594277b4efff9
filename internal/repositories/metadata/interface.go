// Package metadata stores small unencrypted wallet facts (password salt,
// verifier, schema flags) in the local database.
package metadata

import (
	"context"
)

// Well-known metadata keys.
const (
	KeySalt     = "salt"
	KeyVerifier = "verifier"
	KeyInitedAt = "initialized_at"
)

// Repository stores plaintext wallet metadata by key.
type Repository interface {
	// Get returns (nil, nil) when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
