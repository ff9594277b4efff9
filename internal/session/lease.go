package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLeaseHeld means another wallet process owns the session namespace.
var ErrLeaseHeld = errors.New("session namespace is held by another wallet process")

var (
	renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)
)

// Lease gives one process exclusive use of a Redis session namespace. The
// session slot and the queue bookkeeping of a wallet live in process
// memory, so a namespace must never be shared: one process locking would
// clear the queue and grants another one is still serving.
type Lease struct {
	client redis.UniversalClient
	key    string
	owner  string
	ttl    time.Duration
}

// NewLease describes a lease on key held as owner. It expires ttl after
// the last renewal, so a crashed process frees the namespace.
func NewLease(client redis.UniversalClient, key, owner string, ttl time.Duration) *Lease {
	return &Lease{client: client, key: key, owner: owner, ttl: ttl}
}

// Acquire takes the lease, or returns ErrLeaseHeld.
func (l *Lease) Acquire(ctx context.Context) error {
	ok, err := l.client.SetNX(ctx, l.key, l.owner, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire lease %s: %w", l.key, err)
	}
	if !ok {
		return ErrLeaseHeld
	}
	return nil
}

// Renew extends the lease. It returns ErrLeaseHeld once the lease was lost.
func (l *Lease) Renew(ctx context.Context) error {
	n, err := renewScript.Run(ctx, l.client, []string{l.key}, l.owner, l.ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("renew lease %s: %w", l.key, err)
	}
	if n == 0 {
		return ErrLeaseHeld
	}
	return nil
}

// Run renews the lease every third of its ttl until ctx is done or the
// lease is lost.
func (l *Lease) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := l.Renew(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

// Release gives the lease up if this process still holds it.
func (l *Lease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.owner).Err(); err != nil {
		return fmt.Errorf("release lease %s: %w", l.key, err)
	}
	return nil
}
