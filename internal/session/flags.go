package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophwallet/internal/models"
)

const (
	keyConnectedApp        = "connected_app"
	keyConnectedAppOnce    = "connected_app_once"
	keyConnectedAppSession = "connected_app_session"
	keyApproveOnce         = "approve_once"
	keyApproveSession      = "approve_session"
)

// Flags gives typed access to the ephemeral approval facts kept in the
// session namespace. Every fact is scoped by the identity network of the
// chain's family; when the current identity has no network for that
// family, lookups are undecided and writes do nothing.
type Flags struct {
	store Store
}

// NewFlags stores facts in store, which is cleared on lock.
func NewFlags(store Store) *Flags {
	return &Flags{store: store}
}

func flagKey(kind string, n models.IdentityNetwork, chain models.Chain, origin string, extra ...string) string {
	parts := append([]string{kind, n.Key(), string(chain), origin}, extra...)
	return strings.Join(parts, "|")
}

func (f *Flags) find(ctx context.Context, key string) (models.Decision, error) {
	raw, ok, err := f.store.Get(ctx, key)
	if err != nil || !ok {
		return models.DecisionUndecided, err
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return models.DecisionUndecided, fmt.Errorf("decode flag %s: %w", key, err)
	}
	return models.DecisionOf(v, true), nil
}

func (f *Flags) set(ctx context.Context, key string, v bool) error {
	raw, _ := json.Marshal(v)
	return f.store.Set(ctx, key, raw)
}

// withNetwork runs fn with the identity network of chain, if there is one.
func withNetwork[T any](chain models.Chain, cin models.CurrentIdentityNetwork, def T, fn func(n models.IdentityNetwork) (T, error)) (T, error) {
	n, ok := cin.For(chain)
	if !ok {
		return def, nil
	}
	return fn(n)
}

// IsConnected reports whether origin was allowed during this session.
func (f *Flags) IsConnected(ctx context.Context, chain models.Chain, cin models.CurrentIdentityNetwork, origin string) (bool, error) {
	return withNetwork(chain, cin, false, func(n models.IdentityNetwork) (bool, error) {
		d, err := f.find(ctx, flagKey(keyConnectedApp, n, chain, origin))
		return d == models.DecisionAllow, err
	})
}

// Grant marks origin as connected for this session.
func (f *Flags) Grant(ctx context.Context, chain models.Chain, cin models.CurrentIdentityNetwork, origin string) error {
	_, err := withNetwork(chain, cin, struct{}{}, func(n models.IdentityNetwork) (struct{}, error) {
		return struct{}{}, f.set(ctx, flagKey(keyConnectedApp, n, chain, origin), true)
	})
	return err
}

// Revoke drops the connected marker. Revoking twice is fine.
func (f *Flags) Revoke(ctx context.Context, chain models.Chain, cin models.CurrentIdentityNetwork, origin string) error {
	_, err := withNetwork(chain, cin, struct{}{}, func(n models.IdentityNetwork) (struct{}, error) {
		return struct{}{}, f.store.Remove(ctx, flagKey(keyConnectedApp, n, chain, origin))
	})
	return err
}

// Reset grants or revokes according to the latest decision.
func (f *Flags) Reset(ctx context.Context, chain models.Chain, cin models.CurrentIdentityNetwork, origin string, granted bool) error {
	if granted {
		return f.Grant(ctx, chain, cin, origin)
	}
	return f.Revoke(ctx, chain, cin, origin)
}

// FindOnce returns the single-request decision for messageID.
func (f *Flags) FindOnce(ctx context.Context, chain models.Chain, cin models.CurrentIdentityNetwork, origin, messageID string) (models.Decision, error) {
	return withNetwork(chain, cin, models.DecisionUndecided, func(n models.IdentityNetwork) (models.Decision, error) {
		return f.find(ctx, flagKey(keyConnectedAppOnce, n, chain, origin, messageID))
	})
}

func (f *Flags) SetOnce(ctx context.Context, chain models.Chain, cin models.CurrentIdentityNetwork, origin, messageID string, granted bool) error {
	_, err := withNetwork(chain, cin, struct{}{}, func(n models.IdentityNetwork) (struct{}, error) {
		return struct{}{}, f.set(ctx, flagKey(keyConnectedAppOnce, n, chain, origin, messageID), granted)
	})
	return err
}

func (f *Flags) DeleteOnce(ctx context.Context, chain models.Chain, cin models.CurrentIdentityNetwork, origin, messageID string) error {
	_, err := withNetwork(chain, cin, struct{}{}, func(n models.IdentityNetwork) (struct{}, error) {
		return struct{}{}, f.store.Remove(ctx, flagKey(keyConnectedAppOnce, n, chain, origin, messageID))
	})
	return err
}

// FindSession returns the session-scoped decision for origin.
func (f *Flags) FindSession(ctx context.Context, chain models.Chain, cin models.CurrentIdentityNetwork, origin string) (models.Decision, error) {
	return withNetwork(chain, cin, models.DecisionUndecided, func(n models.IdentityNetwork) (models.Decision, error) {
		return f.find(ctx, flagKey(keyConnectedAppSession, n, chain, origin))
	})
}

func (f *Flags) SetSession(ctx context.Context, chain models.Chain, cin models.CurrentIdentityNetwork, origin string, granted bool) error {
	_, err := withNetwork(chain, cin, struct{}{}, func(n models.IdentityNetwork) (struct{}, error) {
		return struct{}{}, f.set(ctx, flagKey(keyConnectedAppSession, n, chain, origin), granted)
	})
	return err
}

func (f *Flags) DeleteSession(ctx context.Context, chain models.Chain, cin models.CurrentIdentityNetwork, origin string) error {
	_, err := withNetwork(chain, cin, struct{}{}, func(n models.IdentityNetwork) (struct{}, error) {
		return struct{}{}, f.store.Remove(ctx, flagKey(keyConnectedAppSession, n, chain, origin))
	})
	return err
}

// FindApproveOnce returns the single-use decision for a signing request.
func (f *Flags) FindApproveOnce(ctx context.Context, chain models.Chain, cin models.CurrentIdentityNetwork, origin, approveID string) (models.Decision, error) {
	return withNetwork(chain, cin, models.DecisionUndecided, func(n models.IdentityNetwork) (models.Decision, error) {
		return f.find(ctx, flagKey(keyApproveOnce, n, chain, origin, approveID))
	})
}

func (f *Flags) SetApproveOnce(ctx context.Context, chain models.Chain, cin models.CurrentIdentityNetwork, origin, approveID string, approved bool) error {
	_, err := withNetwork(chain, cin, struct{}{}, func(n models.IdentityNetwork) (struct{}, error) {
		return struct{}{}, f.set(ctx, flagKey(keyApproveOnce, n, chain, origin, approveID), approved)
	})
	return err
}

func (f *Flags) DeleteApproveOnce(ctx context.Context, chain models.Chain, cin models.CurrentIdentityNetwork, origin, approveID string) error {
	_, err := withNetwork(chain, cin, struct{}{}, func(n models.IdentityNetwork) (struct{}, error) {
		return struct{}{}, f.store.Remove(ctx, flagKey(keyApproveOnce, n, chain, origin, approveID))
	})
	return err
}

// FindApproveSession returns the session decision for a request hash.
func (f *Flags) FindApproveSession(ctx context.Context, chain models.Chain, cin models.CurrentIdentityNetwork, origin, requestHash string) (models.Decision, error) {
	return withNetwork(chain, cin, models.DecisionUndecided, func(n models.IdentityNetwork) (models.Decision, error) {
		return f.find(ctx, flagKey(keyApproveSession, n, chain, origin, requestHash))
	})
}

func (f *Flags) SetApproveSession(ctx context.Context, chain models.Chain, cin models.CurrentIdentityNetwork, origin, requestHash string, approved bool) error {
	_, err := withNetwork(chain, cin, struct{}{}, func(n models.IdentityNetwork) (struct{}, error) {
		return struct{}{}, f.set(ctx, flagKey(keyApproveSession, n, chain, origin, requestHash), approved)
	})
	return err
}

func (f *Flags) DeleteApproveSession(ctx context.Context, chain models.Chain, cin models.CurrentIdentityNetwork, origin, requestHash string) error {
	_, err := withNetwork(chain, cin, struct{}{}, func(n models.IdentityNetwork) (struct{}, error) {
		return struct{}{}, f.store.Remove(ctx, flagKey(keyApproveSession, n, chain, origin, requestHash))
	})
	return err
}
