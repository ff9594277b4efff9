package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophwallet/internal/common"
	"github.com/dmitrijs2005/gophwallet/internal/cryptox"
	"github.com/dmitrijs2005/gophwallet/internal/logging"
)

func newTestManager(t *testing.T, now time.Time) *Manager {
	t.Helper()
	m := NewManager(logging.Nop())
	m.now = func() time.Time { return now }
	return m
}

func TestManager_StartsLocked(t *testing.T) {
	m := newTestManager(t, time.Now())

	assert.True(t, m.IsLocked())
	_, err := m.UnlockKey()
	require.ErrorIs(t, err, common.ErrLocked)
	assert.True(t, m.AliveAt().IsZero())
}

func TestManager_DeriveUnlockRelay(t *testing.T) {
	now := time.UnixMilli(5_000)
	m := newTestManager(t, now)

	keys, err := m.Derive(context.Background(), "hunter22")
	require.NoError(t, err)
	assert.Equal(t, cryptox.DerivePasswordKeys("hunter22"), keys)

	relayed, ok := m.Relay(keys.VerificationHash)
	require.True(t, ok)
	assert.Equal(t, keys.UnlockKey, relayed)

	m.Unlock(keys.VerificationHash)
	assert.False(t, m.IsLocked())
	assert.Equal(t, now, m.AliveAt())

	got, err := m.UnlockKey()
	require.NoError(t, err)
	assert.Equal(t, keys.UnlockKey, got)
}

func TestManager_UnlockWithoutRelayedKeyStaysUnusable(t *testing.T) {
	m := newTestManager(t, time.Now())
	m.Unlock("unknown-hash")

	assert.False(t, m.IsLocked())
	_, err := m.UnlockKey()
	require.ErrorIs(t, err, common.ErrLocked)
}

func TestManager_LockIsIdempotentAndForgetsRelay(t *testing.T) {
	m := newTestManager(t, time.Now())
	m.Publish("hash", "key")
	m.Unlock("hash")

	m.Lock()
	m.Lock()

	assert.True(t, m.IsLocked())
	assert.True(t, m.AliveAt().IsZero())
	_, ok := m.Relay("hash")
	assert.False(t, ok)
}

func TestManager_PublishIgnoresEmpty(t *testing.T) {
	m := newTestManager(t, time.Now())
	m.Publish("", "key")
	m.Publish("hash", "")

	_, ok := m.Relay("")
	assert.False(t, ok)
	_, ok = m.Relay("hash")
	assert.False(t, ok)
}

func TestManager_TouchOnlyWhenUnlocked(t *testing.T) {
	m := newTestManager(t, time.UnixMilli(10))
	m.Touch()
	assert.True(t, m.AliveAt().IsZero())

	m.Publish("h", "k")
	m.Unlock("h")
	m.now = func() time.Time { return time.UnixMilli(20) }
	m.Touch()
	assert.Equal(t, time.UnixMilli(20), m.AliveAt())
}

func TestManager_ConcurrentLockUnlock(t *testing.T) {
	m := newTestManager(t, time.Now())
	m.Publish("h", "k")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); m.Unlock("h") }()
		go func() {
			defer wg.Done()
			if key, err := m.UnlockKey(); err == nil {
				assert.Equal(t, "k", key)
			}
		}()
	}
	wg.Wait()
}
