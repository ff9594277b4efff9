// Package cryptox holds the wallet's cryptographic building blocks: the
// password verifier, the password key chain, the storage key schedule and
// AES-GCM sealing of secure store values.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

const storageKeyInfo = "gophwallet secure store v1"

// MakeVerifier returns the value persisted to check a password later.
func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

// DeriveMasterKey stretches the password with argon2id. It is only used to
// build the persisted verifier; secure data is keyed by the unlock key.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// DeriveStorageKey expands an unlock key into a 32-byte AES-256 key.
func DeriveStorageKey(unlockKey string) ([]byte, error) {
	r := hkdf.New(sha256.New, []byte(unlockKey), nil, []byte(storageKeyInfo))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

// KeyID fingerprints an unlock key. Secure rows are namespaced by it so
// that data written under different passwords never mixes.
func KeyID(unlockKey string) string {
	sum := sha256.Sum256([]byte("key-id:" + unlockKey))
	return hex.EncodeToString(sum[:8])
}

// EncryptEntry serializes the given entry to JSON and encrypts it using AES-GCM.
//
// The key must be a valid AES key length (16, 24, or 32 bytes). A new random
// 12-byte nonce is generated for each encryption; ciphertext and nonce are
// returned separately.
func EncryptEntry(entry any, key []byte) (ciphertext, nonce []byte, err error) {

	// serializing JSON
	plaintext, err := json.Marshal(entry)
	if err != nil {
		return nil, nil, err
	}

	// nonce
	nonce = make([]byte, 12)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}

	ciphertext = aesgcm.Seal(nil, nonce, plaintext, nil)

	return ciphertext, nonce, nil
}

// DecryptEntry decrypts ciphertext produced by EncryptEntry and unmarshals
// the resulting JSON into v. Key and nonce must match the ones used to seal.
func DecryptEntry(ciphertext, nonce, key []byte, v any) error {
	block, err := aes.NewCipher(key)
	if err != nil {
		return err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return err
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return err
	}

	return json.Unmarshal(plaintext, v)
}
