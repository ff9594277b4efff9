package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophwallet/internal/common"
	"github.com/dmitrijs2005/gophwallet/internal/cryptox"
	"github.com/dmitrijs2005/gophwallet/internal/dbx"
	"github.com/dmitrijs2005/gophwallet/internal/logging"
	"github.com/dmitrijs2005/gophwallet/internal/models"
	"github.com/dmitrijs2005/gophwallet/internal/repositories/metadata"
	"github.com/dmitrijs2005/gophwallet/internal/securestore"
	"github.com/dmitrijs2005/gophwallet/internal/session"
)

// WalletService manages the wallet password and the session it unlocks.
//
// Contract:
//   - Initialize: first-time setup, leaves the wallet unlocked.
//   - Unlock: check the password and open a session.
//   - Lock: close the session and clear the session namespace.
//   - ChangePassword: re-key the secure store, then lock.
type WalletService interface {
	IsInitialized(ctx context.Context) (bool, error)
	Initialize(ctx context.Context, password string) error
	Unlock(ctx context.Context, password string) error
	Lock(ctx context.Context) error
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
	IsLocked() bool
}

type walletService struct {
	db      *sql.DB
	manager *session.Manager
	secure  *securestore.Facade
	store   session.Store
	logger  logging.Logger
}

// NewWalletService clears store on every lock, so the session namespace
// never outlives the unlock key.
func NewWalletService(db *sql.DB, manager *session.Manager, secure *securestore.Facade, store session.Store, logger logging.Logger) WalletService {
	return &walletService{
		db:      db,
		manager: manager,
		secure:  secure,
		store:   store,
		logger:  logger.With("module", "wallet"),
	}
}

func (w *walletService) metadataRepo(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

func (w *walletService) IsInitialized(ctx context.Context) (bool, error) {
	v, err := w.metadataRepo(w.db).Get(ctx, metadata.KeyVerifier)
	if err != nil {
		return false, err
	}
	return len(v) > 0, nil
}

func (w *walletService) IsLocked() bool {
	return w.manager.IsLocked()
}

func validatePassword(password string) error {
	if len(password) < common.MinPasswordLength {
		return fmt.Errorf("%w: at least %d characters", common.ErrWeakPassword, common.MinPasswordLength)
	}
	return nil
}

// saveVerifier stores a fresh salt and the argon2 verifier of password.
func saveVerifier(ctx context.Context, repo metadata.Repository, password string) error {
	salt := common.GenerateRandByteArray(32)
	verifier := cryptox.MakeVerifier(cryptox.DeriveMasterKey([]byte(password), salt))

	if err := repo.Set(ctx, metadata.KeySalt, salt); err != nil {
		return err
	}
	return repo.Set(ctx, metadata.KeyVerifier, verifier)
}

// verify checks password against the stored verifier in constant time.
func (w *walletService) verify(ctx context.Context, password string) error {
	repo := w.metadataRepo(w.db)

	salt, err := repo.Get(ctx, metadata.KeySalt)
	if err != nil {
		return err
	}
	saved, err := repo.Get(ctx, metadata.KeyVerifier)
	if err != nil {
		return err
	}
	if len(saved) == 0 {
		return common.ErrNotInitialized
	}

	candidate := cryptox.MakeVerifier(cryptox.DeriveMasterKey([]byte(password), salt))
	if subtle.ConstantTimeCompare(saved, candidate) == 0 {
		return common.ErrorUnauthorized
	}
	return nil
}

// Initialize sets the password, unlocks the wallet and creates its first
// identity.
func (w *walletService) Initialize(ctx context.Context, password string) error {
	initialized, err := w.IsInitialized(ctx)
	if err != nil {
		return err
	}
	if initialized {
		return common.ErrInitialized
	}
	if err := validatePassword(password); err != nil {
		return err
	}

	err = dbx.WithTx(ctx, w.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := w.metadataRepo(tx)
		if err := saveVerifier(ctx, repo, password); err != nil {
			return err
		}
		return repo.Set(ctx, metadata.KeyInitedAt, []byte(time.Now().UTC().Format(time.RFC3339)))
	})
	if err != nil {
		return fmt.Errorf("save verifier: %w", err)
	}

	if err := w.open(ctx, password); err != nil {
		return err
	}

	pk, err := newPrivateKeys()
	if err != nil {
		return fmt.Errorf("create identity: %w", err)
	}
	if err := w.secure.SetPrivateKeys(ctx, pk); err != nil {
		return fmt.Errorf("save identity: %w", err)
	}

	w.logger.Info(ctx, "wallet initialized", "identity", pk.Current)
	return nil
}

func (w *walletService) open(ctx context.Context, password string) error {
	keys, err := w.manager.Derive(ctx, password)
	if err != nil {
		return err
	}
	w.manager.Unlock(keys.VerificationHash)
	return nil
}

func (w *walletService) Unlock(ctx context.Context, password string) error {
	if err := w.verify(ctx, password); err != nil {
		return err
	}
	if err := w.open(ctx, password); err != nil {
		return err
	}
	w.logger.Info(ctx, "wallet unlocked")
	return nil
}

// Lock is idempotent.
func (w *walletService) Lock(ctx context.Context) error {
	w.manager.Lock()
	if err := w.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session store: %w", err)
	}
	w.logger.Info(ctx, "wallet locked")
	return nil
}

// ChangePassword moves the secure store to the new password's unlock key
// and swaps the verifier in the same transaction. The wallet is locked
// afterwards and must be unlocked with the new password.
func (w *walletService) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if err := w.verify(ctx, oldPassword); err != nil {
		return err
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	oldKeys, err := cryptox.DerivePasswordKeysAsync(ctx, oldPassword)
	if err != nil {
		return err
	}
	newKeys, err := cryptox.DerivePasswordKeysAsync(ctx, newPassword)
	if err != nil {
		return err
	}

	moved, err := w.secure.Migrate(ctx, oldKeys.UnlockKey, newKeys.UnlockKey, func(ctx context.Context, tx dbx.DBTX) error {
		return saveVerifier(ctx, w.metadataRepo(tx), newPassword)
	})
	if err != nil {
		return err
	}

	w.logger.Info(ctx, "password changed", "entries", moved)
	return w.Lock(ctx)
}

// newPrivateKeys creates a single identity with random addresses. Real key
// material is managed outside the wallet core.
func newPrivateKeys() (*models.PrivateKeys, error) {
	owner, err := randomPrincipal()
	if err != nil {
		return nil, err
	}
	evm := make([]byte, 20)
	if _, err := rand.Read(evm); err != nil {
		return nil, err
	}
	evmAddr := "0x" + hex.EncodeToString(evm)
	account, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	return &models.PrivateKeys{
		Current: id,
		Keys: []models.IdentityKey{{
			ID:   id,
			Name: "Account 1",
			Address: models.IdentityAddress{
				IC:  &models.IcAddress{Owner: owner, AccountID: account},
				EVM: &models.EvmAddress{Address: evmAddr},
			},
			Chain: models.ChainIC,
		}},
		CurrentIdentityNetwork: models.CurrentIdentityNetwork{
			IC:  &models.IdentityNetwork{Family: "ic", Owner: owner},
			EVM: &models.IdentityNetwork{Family: "evm", Owner: evmAddr},
		},
	}, nil
}

// randomPrincipal renders 29 random bytes in the dashed base32 text form
// used for IC principals.
func randomPrincipal() (string, error) {
	b := make([]byte, 29)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	text := strings.ToLower(base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b))

	var groups []string
	for len(text) > 5 {
		groups = append(groups, text[:5])
		text = text[5:]
	}
	groups = append(groups, text)
	return strings.Join(groups, "-"), nil
}
