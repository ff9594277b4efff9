package connect

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophwallet/internal/logging"
	"github.com/dmitrijs2005/gophwallet/internal/models"
	"github.com/dmitrijs2005/gophwallet/internal/session"
)

// ApprovalStore is the persistent side of approvals.
type ApprovalStore interface {
	AppStore
	SetApproved(ctx context.Context, chain models.Chain, cin models.CurrentIdentityNetwork, origin, requestHash string, state models.ApprovedState) error
}

// Approver applies human decisions to queued popup actions and manages
// the connected app list.
type Approver struct {
	info    InfoSource
	store   ApprovalStore
	flags   *session.Flags
	actions *session.Actions
	signal  *Signal
	now     func() time.Time
	logger  logging.Logger
}

// NewApprover notifies signal after every decision so waiting requests
// re-evaluate at once.
func NewApprover(info InfoSource, store ApprovalStore, flags *session.Flags, actions *session.Actions, signal *Signal, logger logging.Logger) *Approver {
	return &Approver{
		info:    info,
		store:   store,
		flags:   flags,
		actions: actions,
		signal:  signal,
		now:     time.Now,
		logger:  logger.With("module", "approver"),
	}
}

// Pending lists queued popup actions, oldest first.
func (a *Approver) Pending(ctx context.Context) ([]models.PopupAction, error) {
	return a.actions.List(ctx)
}

// Decide records choice for action and wakes waiting requests. It fails
// with common.ErrLocked while the wallet is locked.
func (a *Approver) Decide(ctx context.Context, action models.PopupAction, choice Choice) error {
	info, err := a.info.CurrentInfo(ctx)
	if err != nil {
		return err
	}
	err = models.MatchAction[error](action, decision{
		ctx:    ctx,
		a:      a,
		cin:    info.CurrentIdentityNetwork,
		choice: choice,
		now:    a.now(),
	})
	if err != nil {
		return err
	}
	a.logger.Info(ctx, "popup action decided", "request", action.Request(), "choice", choice.Kind)
	a.signal.Notify()
	return nil
}

// decision applies one choice; it lives for a single Decide call.
type decision struct {
	ctx    context.Context
	a      *Approver
	cin    models.CurrentIdentityNetwork
	choice Choice
	now    time.Time
}

func (d decision) Connect(act models.ConnectAction) error {
	ctx, a := d.ctx, d.a

	apps, err := a.store.GetConnectedApps(ctx, act.Chain, d.cin)
	if err != nil {
		return err
	}
	state := d.choice.State(d.now)
	if idx := models.FindApp(apps, act.Origin); idx >= 0 {
		apps[idx].Title = act.Title
		apps[idx].Favicon = act.Favicon
		apps[idx].State = state
		apps[idx].Updated = d.now
	} else {
		apps = append(apps, models.ConnectedApp{
			Origin:  act.Origin,
			Title:   act.Title,
			Favicon: act.Favicon,
			State:   state,
			Updated: d.now,
		})
	}
	if err := a.store.SetConnectedApps(ctx, act.Chain, d.cin, apps); err != nil {
		return fmt.Errorf("save connected apps: %w", err)
	}

	granted := d.choice.Granted()
	switch {
	case d.choice.Once():
		return a.flags.SetOnce(ctx, act.Chain, d.cin, act.Origin, act.MessageID, granted)
	case d.choice.Session():
		return a.flags.SetSession(ctx, act.Chain, d.cin, act.Origin, granted)
	}
	return nil
}

// Approve records a signing decision. Nothing in this process waits on
// approve actions, so the action is dequeued here.
func (d decision) Approve(act models.ApproveAction) error {
	ctx, a := d.ctx, d.a

	granted := d.choice.Granted()
	var err error
	switch {
	case d.choice.Once():
		err = a.flags.SetApproveOnce(ctx, act.Chain, d.cin, act.Origin, act.MessageID, granted)
	case d.choice.Session():
		err = a.flags.SetApproveSession(ctx, act.Chain, d.cin, act.Origin, act.RequestHash, granted)
	default:
		err = a.store.SetApproved(ctx, act.Chain, d.cin, act.Origin, act.RequestHash, models.ApprovedState{State: d.choice.State(d.now)})
	}
	if err != nil {
		return err
	}
	return a.actions.Remove(ctx, act)
}

// ConnectedApps lists the apps known for chain.
func (a *Approver) ConnectedApps(ctx context.Context, chain models.Chain) ([]models.ConnectedApp, error) {
	info, err := a.info.CurrentInfo(ctx)
	if err != nil {
		return nil, err
	}
	return a.store.GetConnectedApps(ctx, chain, info.CurrentIdentityNetwork)
}

// Forget removes origin from the connected apps of chain and drops its
// session facts. It reports whether the origin was known.
func (a *Approver) Forget(ctx context.Context, chain models.Chain, origin string) (bool, error) {
	info, err := a.info.CurrentInfo(ctx)
	if err != nil {
		return false, err
	}
	cin := info.CurrentIdentityNetwork

	apps, err := a.store.GetConnectedApps(ctx, chain, cin)
	if err != nil {
		return false, err
	}
	idx := models.FindApp(apps, origin)
	if idx >= 0 {
		apps = append(apps[:idx], apps[idx+1:]...)
		if err := a.store.SetConnectedApps(ctx, chain, cin, apps); err != nil {
			return false, err
		}
	}
	if err := a.flags.DeleteSession(ctx, chain, cin, origin); err != nil {
		return false, err
	}
	if err := a.flags.Revoke(ctx, chain, cin, origin); err != nil {
		return false, err
	}
	return idx >= 0, nil
}
