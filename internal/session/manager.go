package session

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophwallet/internal/common"
	"github.com/dmitrijs2005/gophwallet/internal/cryptox"
	"github.com/dmitrijs2005/gophwallet/internal/logging"
)

// Manager holds the session slot and the key relay.
//
// The slot contains the wrapped key (the password's verification hash) or
// "" when locked. The relay maps verification hashes to unlock keys and is
// kept in memory only.
type Manager struct {
	mu      sync.RWMutex
	slot    string
	aliveAt time.Time
	relay   map[string]string

	now    func() time.Time
	logger logging.Logger
}

// NewManager returns a locked Manager.
func NewManager(logger logging.Logger) *Manager {
	return &Manager{
		relay:  make(map[string]string),
		now:    time.Now,
		logger: logger.With("module", "session"),
	}
}

// Publish makes unlockKey retrievable by its verification hash.
func (m *Manager) Publish(verificationHash, unlockKey string) {
	if verificationHash == "" || unlockKey == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relay[verificationHash] = unlockKey
}

// Relay returns the unlock key published for verificationHash.
func (m *Manager) Relay(verificationHash string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	key, ok := m.relay[verificationHash]
	return key, ok
}

// Derive runs the password key chain off the caller's goroutine and
// publishes the result before returning it.
func (m *Manager) Derive(ctx context.Context, password string) (cryptox.PasswordKeys, error) {
	keys, err := cryptox.DerivePasswordKeysAsync(ctx, password)
	if err != nil {
		return cryptox.PasswordKeys{}, err
	}
	m.Publish(keys.VerificationHash, keys.UnlockKey)
	return keys, nil
}

// Unlock stores the wrapped key and then refreshes liveness, so no reader
// ever sees a fresh AliveAt without a key behind it.
func (m *Manager) Unlock(wrapped string) {
	m.mu.Lock()
	m.slot = wrapped
	m.mu.Unlock()

	m.Touch()
	m.logger.Debug(context.Background(), "session unlocked")
}

// Lock empties the slot and forgets every relayed key. Idempotent.
func (m *Manager) Lock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slot = ""
	m.aliveAt = time.Time{}
	clear(m.relay)
}

// IsLocked reports whether the slot is empty.
func (m *Manager) IsLocked() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slot == ""
}

// UnlockKey resolves the slot through the relay. It returns
// common.ErrLocked when there is no usable session.
func (m *Manager) UnlockKey() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.slot == "" {
		return "", common.ErrLocked
	}
	key, ok := m.relay[m.slot]
	if !ok {
		return "", common.ErrLocked
	}
	return key, nil
}

// Touch refreshes AliveAt when unlocked.
func (m *Manager) Touch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slot != "" {
		m.aliveAt = m.now()
	}
}

// AliveAt is the last time the session was used; zero when locked.
func (m *Manager) AliveAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.aliveAt
}
