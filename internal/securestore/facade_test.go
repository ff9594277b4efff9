package securestore

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophwallet/internal/common"
	"github.com/dmitrijs2005/gophwallet/internal/dbx"
	"github.com/dmitrijs2005/gophwallet/internal/logging"
	"github.com/dmitrijs2005/gophwallet/internal/models"
	"github.com/dmitrijs2005/gophwallet/internal/repositories"
	"github.com/dmitrijs2005/gophwallet/internal/session"
)

var cin = models.CurrentIdentityNetwork{
	IC:  &models.IdentityNetwork{Family: "ic", Owner: "aaaaa-aa"},
	EVM: &models.IdentityNetwork{Family: "evm", Owner: "0x01"},
}

type fixture struct {
	repos   *repositories.Repositories
	manager *session.Manager
	facade  *Facade
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos, err := repositories.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })

	m := session.NewManager(logging.Nop())
	return &fixture{repos: repos, manager: m, facade: New(repos.DB, m, logging.Nop())}
}

func (f *fixture) unlock(t *testing.T, password string) {
	t.Helper()
	keys, err := f.manager.Derive(context.Background(), password)
	require.NoError(t, err)
	f.manager.Unlock(keys.VerificationHash)
}

func countRows(t *testing.T, f *fixture) int {
	t.Helper()
	var n int
	require.NoError(t, f.repos.DB.QueryRow(`SELECT COUNT(*) FROM secure_entries`).Scan(&n))
	return n
}

func TestFacade_LockedReadsFailClosed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.facade.GetConnectedApps(ctx, models.ChainIC, cin)
	require.ErrorIs(t, err, common.ErrLocked)

	_, err = f.facade.GetApproved(ctx, models.ChainIC, cin, "https://a", "h")
	require.ErrorIs(t, err, common.ErrLocked)

	_, err = f.facade.CurrentInfo(ctx)
	require.ErrorIs(t, err, common.ErrLocked)
	assert.False(t, errors.Is(err, common.ErrorNotFound))
}

func TestFacade_LockedWritesAreDropped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.facade.SetConnectedApps(ctx, models.ChainIC, cin, []models.ConnectedApp{{Origin: "https://a"}}))
	require.NoError(t, f.facade.SetApproved(ctx, models.ChainIC, cin, "https://a", "h", models.ApprovedState{State: models.Granted{}}))
	require.NoError(t, f.facade.DeleteApproved(ctx, models.ChainIC, cin, "https://a", "h"))

	assert.Equal(t, 0, countRows(t, f))
}

func TestFacade_ConnectedAppsRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.unlock(t, "correct horse")
	ctx := context.Background()

	empty, err := f.facade.GetConnectedApps(ctx, models.ChainEthereum, cin)
	require.NoError(t, err)
	assert.Empty(t, empty)

	apps := []models.ConnectedApp{{
		Origin:  "https://dapp.example",
		Title:   "Dapp",
		State:   models.GrantedExpired{ExpiryWindow: models.ExpiryWindow{Created: time.UnixMilli(1000), Duration: time.Hour}},
		Updated: time.UnixMilli(2000),
	}}
	require.NoError(t, f.facade.SetConnectedApps(ctx, models.ChainEthereum, cin, apps))

	got, err := f.facade.GetConnectedApps(ctx, models.ChainEthereum, cin)
	require.NoError(t, err)
	assert.Equal(t, apps, got)

	other, err := f.facade.GetConnectedApps(ctx, models.ChainPolygon, cin)
	require.NoError(t, err)
	assert.Empty(t, other, "chains do not share app lists")
}

func TestFacade_ApprovedLifecycle(t *testing.T) {
	f := newFixture(t)
	f.unlock(t, "correct horse")
	ctx := context.Background()

	require.NoError(t, f.facade.SetApproved(ctx, models.ChainIC, cin, "https://a", "h1", models.ApprovedState{State: models.DeniedSession{}}))

	st, err := f.facade.GetApproved(ctx, models.ChainIC, cin, "https://a", "h1")
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, models.DeniedSession{}, st.State)

	require.NoError(t, f.facade.DeleteApproved(ctx, models.ChainIC, cin, "https://a", "h1"))
	st, err = f.facade.GetApproved(ctx, models.ChainIC, cin, "https://a", "h1")
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestFacade_MissingNetwork(t *testing.T) {
	f := newFixture(t)
	f.unlock(t, "correct horse")
	ctx := context.Background()
	icOnly := models.CurrentIdentityNetwork{IC: cin.IC}

	require.NoError(t, f.facade.SetConnectedApps(ctx, models.ChainBsc, icOnly, []models.ConnectedApp{{Origin: "https://a"}}))
	apps, err := f.facade.GetConnectedApps(ctx, models.ChainBsc, icOnly)
	require.NoError(t, err)
	assert.Nil(t, apps)
	assert.Equal(t, 0, countRows(t, f))
}

func TestFacade_CurrentInfoAndAddress(t *testing.T) {
	f := newFixture(t)
	f.unlock(t, "correct horse")
	ctx := context.Background()

	_, err := f.facade.CurrentInfo(ctx)
	require.ErrorIs(t, err, common.ErrorNotFound)

	pk := &models.PrivateKeys{
		Current: "id-1",
		Keys: []models.IdentityKey{{
			ID:   "id-1",
			Name: "main",
			Address: models.IdentityAddress{
				IC:  &models.IcAddress{Owner: "aaaaa-aa", AccountID: "acc"},
				EVM: &models.EvmAddress{Address: "0x01"},
			},
			Chain: models.ChainIC,
		}},
		CurrentIdentityNetwork: cin,
	}
	require.NoError(t, f.facade.SetPrivateKeys(ctx, pk))

	info, err := f.facade.CurrentInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "id-1", info.IdentityID)
	assert.Equal(t, cin, info.CurrentIdentityNetwork)

	addr, err := f.facade.CurrentAddress(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "aaaaa-aa", addr)

	addr, err = f.facade.CurrentAddress(ctx, models.ChainPolygon)
	require.NoError(t, err)
	assert.Equal(t, "0x01", addr)

	_, err = f.facade.CurrentAddress(ctx, "solana")
	require.ErrorIs(t, err, common.ErrUnknownChain)
}

func TestFacade_RelockHidesData(t *testing.T) {
	f := newFixture(t)
	f.unlock(t, "correct horse")
	ctx := context.Background()
	require.NoError(t, f.facade.SetConnectedApps(ctx, models.ChainIC, cin, []models.ConnectedApp{{Origin: "https://a"}}))

	f.manager.Lock()
	_, err := f.facade.GetConnectedApps(ctx, models.ChainIC, cin)
	require.ErrorIs(t, err, common.ErrLocked)

	f.unlock(t, "another password")
	apps, err := f.facade.GetConnectedApps(ctx, models.ChainIC, cin)
	require.NoError(t, err)
	assert.Empty(t, apps, "a different password opens a different generation")
}

func TestFacade_Migrate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	oldKeys, err := f.manager.Derive(ctx, "old password")
	require.NoError(t, err)
	f.manager.Unlock(oldKeys.VerificationHash)

	apps := []models.ConnectedApp{{Origin: "https://a", Title: "A", State: models.Granted{}, Updated: time.UnixMilli(5)}}
	require.NoError(t, f.facade.SetConnectedApps(ctx, models.ChainIC, cin, apps))
	require.NoError(t, f.facade.SetApproved(ctx, models.ChainIC, cin, "https://a", "h", models.ApprovedState{State: models.Denied{}}))

	newKeys, err := f.manager.Derive(ctx, "new password")
	require.NoError(t, err)

	hookRan := false
	moved, err := f.facade.Migrate(ctx, oldKeys.UnlockKey, newKeys.UnlockKey, func(ctx context.Context, tx dbx.DBTX) error {
		hookRan = true
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, moved)
	assert.True(t, hookRan)
	assert.Equal(t, 2, countRows(t, f), "old generation is gone")

	f.manager.Unlock(newKeys.VerificationHash)
	got, err := f.facade.GetConnectedApps(ctx, models.ChainIC, cin)
	require.NoError(t, err)
	assert.Equal(t, apps, got)

	f.manager.Unlock(oldKeys.VerificationHash)
	got, err = f.facade.GetConnectedApps(ctx, models.ChainIC, cin)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFacade_MigrateRollsBackOnHookError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	oldKeys, err := f.manager.Derive(ctx, "old password")
	require.NoError(t, err)
	f.manager.Unlock(oldKeys.VerificationHash)
	require.NoError(t, f.facade.SetConnectedApps(ctx, models.ChainIC, cin, []models.ConnectedApp{{Origin: "https://a"}}))

	boom := errors.New("verifier write failed")
	_, err = f.facade.Migrate(ctx, oldKeys.UnlockKey, "new-unlock-key", func(context.Context, dbx.DBTX) error { return boom })
	require.ErrorIs(t, err, boom)

	assert.Equal(t, 1, countRows(t, f))
	got, err := f.facade.GetConnectedApps(ctx, models.ChainIC, cin)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

type staticKey string

func (k staticKey) UnlockKey() (string, error) { return string(k), nil }

func TestFacade_DriverErrorPropagates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("disk I/O error")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ciphertext, nonce, updated_at FROM secure_entries`)).WillReturnError(boom)

	f := New(db, staticKey("k"), logging.Nop())
	_, err = f.GetPrivateKeys(context.Background())
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}
