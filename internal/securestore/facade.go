package securestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophwallet/internal/common"
	"github.com/dmitrijs2005/gophwallet/internal/cryptox"
	"github.com/dmitrijs2005/gophwallet/internal/logging"
	"github.com/dmitrijs2005/gophwallet/internal/models"
	"github.com/dmitrijs2005/gophwallet/internal/repositories/secure"
	"github.com/dmitrijs2005/gophwallet/internal/session"
)

const (
	keyPrivateKeys   = "private_keys"
	keyConnectedApps = "connected_apps"
	keyApproved      = "approved"
)

// KeySource yields the unlock key of the active session.
type KeySource interface {
	UnlockKey() (string, error)
}

var _ KeySource = (*session.Manager)(nil)

// Facade is the typed view of the encrypted store. Values are sealed with
// the unlock key of the active session, so every call fails with
// common.ErrLocked while the wallet is locked.
type Facade struct {
	db     *sql.DB
	repo   secure.Repository
	keys   KeySource
	now    func() time.Time
	logger logging.Logger
}

// New returns a Facade on db taking unlock keys from keys.
func New(db *sql.DB, keys KeySource, logger logging.Logger) *Facade {
	return &Facade{
		db:     db,
		repo:   secure.NewSQLiteRepository(db),
		keys:   keys,
		now:    time.Now,
		logger: logger.With("module", "securestore"),
	}
}

func storeKey(parts ...string) string {
	return strings.Join(parts, "|")
}

type generation struct {
	id  string
	key []byte
}

func newGeneration(unlockKey string) (generation, error) {
	key, err := cryptox.DeriveStorageKey(unlockKey)
	if err != nil {
		return generation{}, fmt.Errorf("derive storage key: %w", err)
	}
	return generation{id: cryptox.KeyID(unlockKey), key: key}, nil
}

// active resolves the unlock key on every call so a lock between two calls
// is always observed.
func (f *Facade) active() (generation, error) {
	unlockKey, err := f.keys.UnlockKey()
	if err != nil {
		return generation{}, err
	}
	return newGeneration(unlockKey)
}

// read decodes key into v and reports whether it was present.
func (f *Facade) read(ctx context.Context, key string, v any) (bool, error) {
	gen, err := f.active()
	if err != nil {
		return false, err
	}
	e, err := f.repo.Get(ctx, gen.id, key)
	if err != nil || e == nil {
		return false, err
	}
	if err := cryptox.DecryptEntry(e.Ciphertext, e.Nonce, gen.key, v); err != nil {
		return false, fmt.Errorf("decrypt %s: %w", key, err)
	}
	return true, nil
}

func (f *Facade) write(ctx context.Context, key string, v any) error {
	gen, err := f.active()
	if errors.Is(err, common.ErrLocked) {
		f.logger.Warn(ctx, "write dropped, wallet is locked", "key", key)
		return nil
	}
	if err != nil {
		return err
	}
	ciphertext, nonce, err := cryptox.EncryptEntry(v, gen.key)
	if err != nil {
		return fmt.Errorf("encrypt %s: %w", key, err)
	}
	return f.repo.Put(ctx, &secure.Entry{
		KeyID:      gen.id,
		Key:        key,
		Ciphertext: ciphertext,
		Nonce:      nonce,
		UpdatedAt:  f.now(),
	})
}

func (f *Facade) remove(ctx context.Context, key string) error {
	gen, err := f.active()
	if errors.Is(err, common.ErrLocked) {
		f.logger.Warn(ctx, "remove dropped, wallet is locked", "key", key)
		return nil
	}
	if err != nil {
		return err
	}
	return f.repo.Delete(ctx, gen.id, key)
}

// GetConnectedApps lists the apps of the current identity network on chain.
// Without a network for the chain's family the list is empty.
func (f *Facade) GetConnectedApps(ctx context.Context, chain models.Chain, cin models.CurrentIdentityNetwork) ([]models.ConnectedApp, error) {
	n, ok := cin.For(chain)
	if !ok {
		return nil, nil
	}
	var apps []models.ConnectedApp
	if _, err := f.read(ctx, storeKey(keyConnectedApps, n.Key(), string(chain)), &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// SetConnectedApps replaces the app list. Without a network for the chain's
// family it does nothing.
func (f *Facade) SetConnectedApps(ctx context.Context, chain models.Chain, cin models.CurrentIdentityNetwork, apps []models.ConnectedApp) error {
	n, ok := cin.For(chain)
	if !ok {
		return nil
	}
	if apps == nil {
		apps = []models.ConnectedApp{}
	}
	return f.write(ctx, storeKey(keyConnectedApps, n.Key(), string(chain)), apps)
}

// GetApproved returns the stored decision for one signing request, or nil.
func (f *Facade) GetApproved(ctx context.Context, chain models.Chain, cin models.CurrentIdentityNetwork, origin, requestHash string) (*models.ApprovedState, error) {
	n, ok := cin.For(chain)
	if !ok {
		return nil, nil
	}
	var state models.ApprovedState
	found, err := f.read(ctx, storeKey(keyApproved, n.Key(), string(chain), origin, requestHash), &state)
	if err != nil || !found {
		return nil, err
	}
	return &state, nil
}

func (f *Facade) SetApproved(ctx context.Context, chain models.Chain, cin models.CurrentIdentityNetwork, origin, requestHash string, state models.ApprovedState) error {
	n, ok := cin.For(chain)
	if !ok {
		return nil
	}
	return f.write(ctx, storeKey(keyApproved, n.Key(), string(chain), origin, requestHash), state)
}

func (f *Facade) DeleteApproved(ctx context.Context, chain models.Chain, cin models.CurrentIdentityNetwork, origin, requestHash string) error {
	n, ok := cin.For(chain)
	if !ok {
		return nil
	}
	return f.remove(ctx, storeKey(keyApproved, n.Key(), string(chain), origin, requestHash))
}

// GetPrivateKeys returns common.ErrorNotFound if no identity book exists yet.
func (f *Facade) GetPrivateKeys(ctx context.Context) (*models.PrivateKeys, error) {
	var pk models.PrivateKeys
	found, err := f.read(ctx, keyPrivateKeys, &pk)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, common.ErrorNotFound
	}
	return &pk, nil
}

// SetPrivateKeys replaces the identity book.
func (f *Facade) SetPrivateKeys(ctx context.Context, pk *models.PrivateKeys) error {
	return f.write(ctx, keyPrivateKeys, pk)
}

// CurrentInfo describes the current identity of the unlocked wallet.
func (f *Facade) CurrentInfo(ctx context.Context) (*models.CurrentInfo, error) {
	pk, err := f.GetPrivateKeys(ctx)
	if err != nil {
		return nil, err
	}
	key, ok := pk.CurrentKey()
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &models.CurrentInfo{
		IdentityID:             key.ID,
		Address:                key.Address,
		Chain:                  key.Chain,
		CurrentIdentityNetwork: pk.CurrentIdentityNetwork,
	}, nil
}

type addressPicker struct{ a models.IdentityAddress }

func (p addressPicker) IC() string {
	if p.a.IC == nil {
		return ""
	}
	return p.a.IC.Owner
}

func (p addressPicker) EVM() string {
	if p.a.EVM == nil {
		return ""
	}
	return p.a.EVM.Address
}

// CurrentAddress returns the current identity's address on chain, falling
// back to the identity's own chain when chain is empty. An identity without
// an address for that family yields "".
func (f *Facade) CurrentAddress(ctx context.Context, chain models.Chain) (string, error) {
	info, err := f.CurrentInfo(ctx)
	if err != nil {
		return "", err
	}
	if chain == "" {
		chain = info.Chain
	}
	return models.MatchChain[string](chain, addressPicker{a: info.Address})
}
