package cryptox

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerivePasswordKeys_Deterministic(t *testing.T) {
	a := DerivePasswordKeys("correct horse")
	b := DerivePasswordKeys("correct horse")

	require.Equal(t, a, b)
	assert.Len(t, a.VerificationHash, 64)
	assert.Len(t, a.UnlockKey, 64)
	assert.NotEqual(t, a.VerificationHash, a.UnlockKey)
}

func TestDerivePasswordKeys_FollowsChain(t *testing.T) {
	const pw = "pw"
	h := sha256Hex(pw)
	for i := 0; i < 2048; i++ {
		h = sha256Hex(pw + ":" + h)
	}
	k := sha256Hex(pw + ":" + h)
	for i := 0; i < 2048; i++ {
		k = sha256Hex(pw + ":" + k)
	}

	got := DerivePasswordKeys(pw)
	assert.Equal(t, h, got.VerificationHash)
	assert.Equal(t, k, got.UnlockKey)
}

func TestDerivePasswordKeys_EmptyPassword(t *testing.T) {
	got := DerivePasswordKeys("")
	assert.True(t, got.IsEmpty())
	assert.Equal(t, PasswordKeys{}, got)
}

func TestDerivePasswordKeys_NoCollisions(t *testing.T) {
	seenHash := make(map[string]string)
	seenKey := make(map[string]string)
	for i := 0; i < 32; i++ {
		pw := fmt.Sprintf("password-%d", i)
		k := DerivePasswordKeys(pw)

		if prev, ok := seenHash[k.VerificationHash]; ok {
			t.Fatalf("verification hash collision between %q and %q", prev, pw)
		}
		if prev, ok := seenKey[k.UnlockKey]; ok {
			t.Fatalf("unlock key collision between %q and %q", prev, pw)
		}
		seenHash[k.VerificationHash] = pw
		seenKey[k.UnlockKey] = pw
	}
}

func TestDerivePasswordKeysAsync(t *testing.T) {
	got, err := DerivePasswordKeysAsync(context.Background(), "async")
	require.NoError(t, err)
	assert.Equal(t, DerivePasswordKeys("async"), got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = DerivePasswordKeysAsync(ctx, "cancelled")
	require.ErrorIs(t, err, context.Canceled)

	empty, err := DerivePasswordKeysAsync(ctx, "")
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
}
