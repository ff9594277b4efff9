package cryptox

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/dmitrijs2005/gophwallet/internal/common"
)

// PasswordKeys are the two secrets derived from a password.
//
// VerificationHash identifies the password inside the session; UnlockKey
// opens the secure store. Both are lower-case hex SHA-256 digests.
type PasswordKeys struct {
	VerificationHash string
	UnlockKey        string
}

// IsEmpty reports whether the keys represent "no password".
func (k PasswordKeys) IsEmpty() bool {
	return k.VerificationHash == "" && k.UnlockKey == ""
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// fold applies the round function, each round mixing the password back in.
func fold(password, hash string, rounds int) string {
	for i := 0; i < rounds; i++ {
		hash = sha256Hex(password + ":" + hash)
	}
	return hash
}

// DerivePasswordKeys runs the password hash chain.
//
// The verification hash is H(password) followed by KeyDerivationRounds
// rounds of H(password:hash). The unlock key continues from there with one
// more H(password:hash) and another KeyDerivationRounds rounds, so it can
// only be reached by walking the whole chain. An empty password yields
// empty keys without hashing anything.
func DerivePasswordKeys(password string) PasswordKeys {
	if password == "" {
		return PasswordKeys{}
	}

	hashed := fold(password, sha256Hex(password), common.KeyDerivationRounds)
	unlock := fold(password, sha256Hex(password+":"+hashed), common.KeyDerivationRounds)

	return PasswordKeys{VerificationHash: hashed, UnlockKey: unlock}
}

// DerivePasswordKeysAsync runs DerivePasswordKeys on its own goroutine so
// interactive callers are never blocked by the chain. If ctx is done first
// the derivation result is discarded.
func DerivePasswordKeysAsync(ctx context.Context, password string) (PasswordKeys, error) {
	if password == "" {
		return PasswordKeys{}, nil
	}
	if err := ctx.Err(); err != nil {
		return PasswordKeys{}, err
	}

	done := make(chan PasswordKeys, 1)
	go func() {
		done <- DerivePasswordKeys(password)
	}()

	select {
	case keys := <-done:
		return keys, nil
	case <-ctx.Done():
		return PasswordKeys{}, ctx.Err()
	}
}
