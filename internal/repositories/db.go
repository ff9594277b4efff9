// Package repositories opens the local wallet database and wires the
// repositories that live in it.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/dmitrijs2005/gophwallet/internal/filex"
	"github.com/dmitrijs2005/gophwallet/internal/migrations"
	"github.com/dmitrijs2005/gophwallet/internal/repositories/metadata"
	"github.com/dmitrijs2005/gophwallet/internal/repositories/secure"
)

// Repositories bundles the database handle with the repositories on it.
type Repositories struct {
	DB       *sql.DB
	Metadata metadata.Repository
	Secure   secure.Repository
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}

// RunMigrations brings the schema up to date. Safe to call repeatedly.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// InitDatabase opens the SQLite database at dsn and migrates it.
//
// SQLite serialises writers anyway; a single connection keeps ":memory:"
// databases coherent across repositories.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	if path := filex.DatabasePath(dsn); path != "" {
		if err := filex.EnsureParentDir(path); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repositories{
		DB:       db,
		Metadata: metadata.NewSQLiteRepository(db),
		Secure:   secure.NewSQLiteRepository(db),
	}, nil
}
