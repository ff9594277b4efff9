package securestore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/gophwallet/internal/cryptox"
	"github.com/dmitrijs2005/gophwallet/internal/dbx"
	"github.com/dmitrijs2005/gophwallet/internal/repositories/secure"
)

// MigrateHook runs inside the migration transaction after the new
// generation is written and before the old one is deleted. The wallet
// service uses it to swap the persisted password verifier.
type MigrateHook func(ctx context.Context, tx dbx.DBTX) error

// Migrate re-encrypts every entry written under oldKey with newKey.
//
// Copy, hook and delete run in a single transaction, so an interrupted
// migration leaves either the complete old generation or the complete new
// one. Switching the session to newKey is left to the caller and must
// happen only after Migrate returns nil.
func (f *Facade) Migrate(ctx context.Context, oldKey, newKey string, hook MigrateHook) (int, error) {
	from, err := newGeneration(oldKey)
	if err != nil {
		return 0, err
	}
	to, err := newGeneration(newKey)
	if err != nil {
		return 0, err
	}

	moved := 0
	err = dbx.WithTx(ctx, f.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := secure.NewSQLiteRepository(tx)

		entries, err := repo.List(ctx, from.id)
		if err != nil {
			return err
		}

		if from.id != to.id {
			for _, e := range entries {
				var value json.RawMessage
				if err := cryptox.DecryptEntry(e.Ciphertext, e.Nonce, from.key, &value); err != nil {
					return fmt.Errorf("decrypt %s: %w", e.Key, err)
				}
				ciphertext, nonce, err := cryptox.EncryptEntry(value, to.key)
				if err != nil {
					return fmt.Errorf("encrypt %s: %w", e.Key, err)
				}
				if err := repo.Put(ctx, &secure.Entry{
					KeyID:      to.id,
					Key:        e.Key,
					Ciphertext: ciphertext,
					Nonce:      nonce,
					UpdatedAt:  e.UpdatedAt,
				}); err != nil {
					return err
				}
				moved++
			}
		}

		if hook != nil {
			if err := hook(ctx, tx); err != nil {
				return err
			}
		}

		if from.id == to.id {
			return nil
		}
		_, err = repo.DeleteGeneration(ctx, from.id)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("migrate secure store: %w", err)
	}

	f.logger.Info(ctx, "secure store migrated", "entries", moved)
	return moved, nil
}
