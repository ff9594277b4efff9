package session

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophwallet/internal/logging"
)

// Locker locks the wallet, including any cleanup beyond the Manager.
type Locker interface {
	Lock(ctx context.Context) error
}

// AutoLocker locks the wallet once it has been idle for longer than the
// configured timeout.
type AutoLocker struct {
	manager *Manager
	locker  Locker
	idle    time.Duration
	logger  logging.Logger
}

// NewAutoLocker locks through locker once m has been idle for idle. A
// non-positive idle disables it.
func NewAutoLocker(m *Manager, locker Locker, idle time.Duration, logger logging.Logger) *AutoLocker {
	return &AutoLocker{manager: m, locker: locker, idle: idle, logger: logger.With("module", "autolock")}
}

// Check locks the wallet if it is unlocked and idle at now. It reports
// whether a lock was performed.
func (a *AutoLocker) Check(ctx context.Context, now time.Time) bool {
	if a.idle <= 0 || a.manager.IsLocked() {
		return false
	}
	alive := a.manager.AliveAt()
	if alive.IsZero() || now.Sub(alive) < a.idle {
		return false
	}
	if err := a.locker.Lock(ctx); err != nil {
		a.logger.Error(ctx, "auto lock failed", "error", err)
		return false
	}
	a.logger.Info(ctx, "wallet locked after inactivity", "idle", a.idle)
	return true
}

// Run checks every interval until ctx is done.
func (a *AutoLocker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			a.Check(ctx, now)
		case <-ctx.Done():
			return
		}
	}
}
