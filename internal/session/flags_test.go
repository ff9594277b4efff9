package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophwallet/internal/models"
)

var testNetwork = models.CurrentIdentityNetwork{
	IC:  &models.IdentityNetwork{Family: "ic", Owner: "owner-1"},
	EVM: &models.IdentityNetwork{Family: "evm", Owner: "0xabc"},
}

func TestFlags_OnceLifecycle(t *testing.T) {
	f := NewFlags(NewMemoryStore())
	ctx := context.Background()

	d, err := f.FindOnce(ctx, models.ChainIC, testNetwork, "https://a", "m1")
	require.NoError(t, err)
	assert.Equal(t, models.DecisionUndecided, d)

	require.NoError(t, f.SetOnce(ctx, models.ChainIC, testNetwork, "https://a", "m1", false))
	d, err = f.FindOnce(ctx, models.ChainIC, testNetwork, "https://a", "m1")
	require.NoError(t, err)
	assert.Equal(t, models.DecisionDeny, d)

	other, err := f.FindOnce(ctx, models.ChainIC, testNetwork, "https://a", "m2")
	require.NoError(t, err)
	assert.Equal(t, models.DecisionUndecided, other, "once flags are per message")

	require.NoError(t, f.DeleteOnce(ctx, models.ChainIC, testNetwork, "https://a", "m1"))
	d, err = f.FindOnce(ctx, models.ChainIC, testNetwork, "https://a", "m1")
	require.NoError(t, err)
	assert.Equal(t, models.DecisionUndecided, d)
}

func TestFlags_SessionScopedByChain(t *testing.T) {
	f := NewFlags(NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, f.SetSession(ctx, models.ChainEthereum, testNetwork, "https://a", true))

	d, err := f.FindSession(ctx, models.ChainEthereum, testNetwork, "https://a")
	require.NoError(t, err)
	assert.Equal(t, models.DecisionAllow, d)

	d, err = f.FindSession(ctx, models.ChainPolygon, testNetwork, "https://a")
	require.NoError(t, err)
	assert.Equal(t, models.DecisionUndecided, d)

	require.NoError(t, f.DeleteSession(ctx, models.ChainEthereum, testNetwork, "https://a"))
	d, _ = f.FindSession(ctx, models.ChainEthereum, testNetwork, "https://a")
	assert.Equal(t, models.DecisionUndecided, d)
}

func TestFlags_ResetGrantRevoke(t *testing.T) {
	f := NewFlags(NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, f.Reset(ctx, models.ChainIC, testNetwork, "https://a", true))
	ok, err := f.IsConnected(ctx, models.ChainIC, testNetwork, "https://a")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, f.Reset(ctx, models.ChainIC, testNetwork, "https://a", false))
	ok, err = f.IsConnected(ctx, models.ChainIC, testNetwork, "https://a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, f.Revoke(ctx, models.ChainIC, testNetwork, "https://a"))
}

func TestFlags_MissingNetworkIsNoop(t *testing.T) {
	store := NewMemoryStore()
	f := NewFlags(store)
	ctx := context.Background()
	icOnly := models.CurrentIdentityNetwork{IC: testNetwork.IC}

	require.NoError(t, f.SetSession(ctx, models.ChainBsc, icOnly, "https://a", true))
	require.NoError(t, f.Grant(ctx, models.ChainBsc, icOnly, "https://a"))

	keys, err := store.Keys(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)

	d, err := f.FindSession(ctx, models.ChainBsc, icOnly, "https://a")
	require.NoError(t, err)
	assert.Equal(t, models.DecisionUndecided, d)
}

func TestFlags_ApproveFlags(t *testing.T) {
	f := NewFlags(NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, f.SetApproveOnce(ctx, models.ChainIC, testNetwork, "https://a", "id1", true))
	require.NoError(t, f.SetApproveSession(ctx, models.ChainIC, testNetwork, "https://a", "hash", false))

	d, err := f.FindApproveOnce(ctx, models.ChainIC, testNetwork, "https://a", "id1")
	require.NoError(t, err)
	assert.Equal(t, models.DecisionAllow, d)

	d, err = f.FindApproveSession(ctx, models.ChainIC, testNetwork, "https://a", "hash")
	require.NoError(t, err)
	assert.Equal(t, models.DecisionDeny, d)

	require.NoError(t, f.DeleteApproveOnce(ctx, models.ChainIC, testNetwork, "https://a", "id1"))
	require.NoError(t, f.DeleteApproveSession(ctx, models.ChainIC, testNetwork, "https://a", "hash"))
	d, _ = f.FindApproveOnce(ctx, models.ChainIC, testNetwork, "https://a", "id1")
	assert.Equal(t, models.DecisionUndecided, d)
}

func TestFlags_CorruptValue(t *testing.T) {
	store := NewMemoryStore()
	f := NewFlags(store)
	ctx := context.Background()

	key := flagKey(keyConnectedAppSession, *testNetwork.IC, models.ChainIC, "https://a")
	require.NoError(t, store.Set(ctx, key, []byte("not-json")))

	_, err := f.FindSession(ctx, models.ChainIC, testNetwork, "https://a")
	require.Error(t, err)
}
