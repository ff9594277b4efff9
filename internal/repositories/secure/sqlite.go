package secure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophwallet/internal/dbx"
)

// SQLiteRepository implements Repository on the secure_entries table.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository runs on db, which may be a transaction.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, keyID, key string) (*Entry, error) {
	e := &Entry{KeyID: keyID, Key: key}
	var updated int64
	err := r.db.QueryRowContext(ctx,
		`SELECT ciphertext, nonce, updated_at FROM secure_entries WHERE key_id = ? AND key = ?`,
		keyID, key).Scan(&e.Ciphertext, &e.Nonce, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get secure entry[%s]: %w", key, err)
	}
	e.UpdatedAt = time.UnixMilli(updated)
	return e, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, e *Entry) error {
	updated := e.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO secure_entries (key_id, key, ciphertext, nonce, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key_id, key) DO UPDATE SET
			ciphertext = excluded.ciphertext,
			nonce = excluded.nonce,
			updated_at = excluded.updated_at
	`, e.KeyID, e.Key, e.Ciphertext, e.Nonce, updated.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to put secure entry[%s]: %w", e.Key, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, keyID, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM secure_entries WHERE key_id = ? AND key = ?`, keyID, key)
	if err != nil {
		return fmt.Errorf("failed to delete secure entry[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context, keyID string) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, ciphertext, nonce, updated_at FROM secure_entries WHERE key_id = ? ORDER BY key`, keyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list secure entries: %w", err)
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		e := Entry{KeyID: keyID}
		var updated int64
		if err := rows.Scan(&e.Key, &e.Ciphertext, &e.Nonce, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan secure entry: %w", err)
		}
		e.UpdatedAt = time.UnixMilli(updated)
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate secure entries: %w", err)
	}
	return result, nil
}

// DeleteGeneration removes every entry written under keyID and reports how
// many rows went away.
func (r *SQLiteRepository) DeleteGeneration(ctx context.Context, keyID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM secure_entries WHERE key_id = ?`, keyID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete generation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
