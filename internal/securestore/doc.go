// Package securestore gates identity-network-scoped wallet data behind an
// unlocked session.
//
// Values are JSON documents sealed with AES-GCM under a key derived from
// the session's unlock key and stored in the secure_entries table. While
// the session is locked, reads fail with common.ErrLocked and writes are
// dropped.
package securestore
