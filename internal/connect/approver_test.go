package connect

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophwallet/internal/common"
	"github.com/dmitrijs2005/gophwallet/internal/models"
)

func TestApprover_DecideConnectChoices(t *testing.T) {
	now := time.UnixMilli(50_000)
	tests := []struct {
		choice  Choice
		state   models.AppState
		session models.Decision
		once    models.Decision
	}{
		{Choice{Kind: Deny}, models.Denied{}, undec, undec},
		{Choice{Kind: Allow}, models.Granted{}, undec, undec},
		{Choice{Kind: AllowSession}, models.GrantedSession{}, allow, undec},
		{Choice{Kind: DenySession}, models.DeniedSession{}, deny, undec},
		{Choice{Kind: AllowOnce}, models.AskOnUse{}, undec, allow},
		{Choice{Kind: DenyOnce}, models.AskOnUse{}, undec, deny},
		{Choice{Kind: AllowFor, Duration: time.Hour}, models.GrantedExpired{ExpiryWindow: models.ExpiryWindow{Created: now, Duration: time.Hour}}, undec, undec},
	}

	for _, tt := range tests {
		t.Run(tt.choice.Kind.String(), func(t *testing.T) {
			h := newHarness(t)
			h.approver.now = func() time.Time { return now }
			ctx := context.Background()

			act := models.ConnectAction{MessageID: "m1", Chain: models.ChainIC, Origin: origin, Title: "Dapp"}
			require.NoError(t, h.approver.Decide(ctx, act, tt.choice))

			app, ok := h.wallet.app(models.ChainIC, origin)
			require.True(t, ok)
			assert.Equal(t, tt.state, app.State)
			assert.Equal(t, now, app.Updated)

			s, err := h.flags.FindSession(ctx, models.ChainIC, h.cin(), origin)
			require.NoError(t, err)
			assert.Equal(t, tt.session, s)

			o, err := h.flags.FindOnce(ctx, models.ChainIC, h.cin(), origin, "m1")
			require.NoError(t, err)
			assert.Equal(t, tt.once, o)
		})
	}
}

func TestApprover_DecideUpdatesExistingApp(t *testing.T) {
	h := newHarness(t)
	h.seed(models.Denied{})

	act := models.ConnectAction{MessageID: "m1", Chain: models.ChainIC, Origin: origin, Title: "Renamed"}
	require.NoError(t, h.approver.Decide(context.Background(), act, Choice{Kind: Allow}))

	apps := h.wallet.apps[models.ChainIC]
	require.Len(t, apps, 1)
	assert.Equal(t, "Renamed", apps[0].Title)
	assert.Equal(t, models.Granted{}, apps[0].State)
}

func TestApprover_DecideApproveAction(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	act := models.ApproveAction{MessageID: "m9", Chain: models.ChainEthereum, Origin: origin, RequestHash: "rh"}
	_, err := h.actions.Push(ctx, act)
	require.NoError(t, err)

	require.NoError(t, h.approver.Decide(ctx, act, Choice{Kind: Deny}))
	assert.Equal(t, models.ApprovedState{State: models.Denied{}}, h.wallet.approved["ethereum|"+origin+"|rh"])
	assert.Empty(t, h.pending(t))

	require.NoError(t, h.approver.Decide(ctx, act, Choice{Kind: AllowSession}))
	d, err := h.flags.FindApproveSession(ctx, models.ChainEthereum, h.cin(), origin, "rh")
	require.NoError(t, err)
	assert.Equal(t, allow, d)
}

func TestApprover_LockedFails(t *testing.T) {
	h := newHarness(t)
	h.wallet.setLocked(true)

	err := h.approver.Decide(context.Background(), models.ConnectAction{Chain: models.ChainIC, Origin: origin}, Choice{Kind: Allow})
	require.ErrorIs(t, err, common.ErrLocked)
}

func TestApprover_DecideWakesWaiters(t *testing.T) {
	h := newHarness(t)
	wait := h.coord.Signal.Wait()

	require.NoError(t, h.approver.Decide(context.Background(), models.ConnectAction{Chain: models.ChainIC, Origin: origin}, Choice{Kind: Allow}))

	select {
	case <-wait:
	default:
		t.Fatal("signal not fired")
	}
}

func TestApprover_ConnectedAppsAndForget(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seed(models.GrantedSession{})
	require.NoError(t, h.flags.SetSession(ctx, models.ChainIC, h.cin(), origin, true))

	apps, err := h.approver.ConnectedApps(ctx, models.ChainIC)
	require.NoError(t, err)
	require.Len(t, apps, 1)

	known, err := h.approver.Forget(ctx, models.ChainIC, origin)
	require.NoError(t, err)
	assert.True(t, known)

	apps, err = h.approver.ConnectedApps(ctx, models.ChainIC)
	require.NoError(t, err)
	assert.Empty(t, apps)

	s, err := h.flags.FindSession(ctx, models.ChainIC, h.cin(), origin)
	require.NoError(t, err)
	assert.Equal(t, undec, s)

	known, err = h.approver.Forget(ctx, models.ChainIC, origin)
	require.NoError(t, err)
	assert.False(t, known)
}
