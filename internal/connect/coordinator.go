package connect

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophwallet/internal/common"
	"github.com/dmitrijs2005/gophwallet/internal/logging"
	"github.com/dmitrijs2005/gophwallet/internal/models"
	"github.com/dmitrijs2005/gophwallet/internal/session"
)

// DefaultPollInterval is the fallback re-evaluation period while a request
// waits for approval.
const DefaultPollInterval = 67 * time.Millisecond

// maxTimeoutMillis is the largest request timeout representable as a
// time.Duration.
const maxTimeoutMillis = math.MaxInt64 / int64(time.Millisecond)

// InitChecker reports whether a wallet exists yet. Connect points the user
// at setup instead of queueing anything until it does.
type InitChecker interface {
	IsInitialized(ctx context.Context) (bool, error)
}

// InfoSource describes the unlocked current identity. Both methods return
// common.ErrLocked while the wallet is locked.
type InfoSource interface {
	CurrentInfo(ctx context.Context) (*models.CurrentInfo, error)
	CurrentAddress(ctx context.Context, chain models.Chain) (string, error)
}

// Notifier is the surface through which a human is asked to decide.
type Notifier interface {
	// OpenSetup points the user at wallet initialization.
	OpenSetup(ctx context.Context) error
	// IsOpen reports whether a notification surface is already showing.
	IsOpen(ctx context.Context) (bool, error)
	// Open shows a notification surface, positioned near window if given.
	Open(ctx context.Context, window *models.Window) error
	// Close dismisses the surface once nothing is left to decide.
	Close(ctx context.Context) error
}

// ConnectRequest asks whether Origin may connect on Chain. Popup allows
// queueing the request for a human decision for up to Timeout.
type ConnectRequest struct {
	MessageID string         `json:"message_id"`
	Window    *models.Window `json:"window,omitempty"`
	// Timeout bounds the approval wait, in milliseconds. Values beyond
	// what a time.Duration holds are clamped.
	Timeout int64        `json:"timeout"`
	Popup   bool         `json:"popup,omitempty"`
	Chain   models.Chain `json:"chain"`
	Origin  string       `json:"origin"`
	Title   string       `json:"title"`
	Favicon string       `json:"favicon,omitempty"`
}

// DisconnectRequest revokes the session connection of Origin on Chain.
type DisconnectRequest struct {
	MessageID string       `json:"message_id"`
	Chain     models.Chain `json:"chain"`
	Origin    string       `json:"origin"`
}

// AddressRequest asks for the current identity's address. An empty Chain
// asks for every address of the identity.
type AddressRequest struct {
	MessageID string       `json:"message_id"`
	Chain     models.Chain `json:"chain,omitempty"`
}

func (r *ConnectRequest) query() Query {
	return Query{MessageID: r.MessageID, Chain: r.Chain, Origin: r.Origin, Title: r.Title, Favicon: r.Favicon}
}

func (r *ConnectRequest) action() models.ConnectAction {
	return models.ConnectAction{MessageID: r.MessageID, Chain: r.Chain, Origin: r.Origin, Title: r.Title, Favicon: r.Favicon}
}

func validate(chain models.Chain, origin string) error {
	if origin == "" {
		return fmt.Errorf("%w: origin", common.ErrInvalidRequest)
	}
	_, err := models.ParseChain(string(chain))
	return err
}

// Deps are the collaborators a Coordinator runs requests against. Store
// must be the namespace backing Flags and Actions, since its change feed
// wakes waiting requests.
type Deps struct {
	Init     InitChecker
	Info     InfoSource
	Finder   *Finder
	Flags    *session.Flags
	Actions  *session.Actions
	Store    session.Store
	Signal   *Signal
	Notifier Notifier
}

// Coordinator runs relay requests from origins.
type Coordinator struct {
	Deps
	poll   time.Duration
	logger logging.Logger

	// mu guards joined, the number of live requests sharing each queued
	// connect action.
	mu     sync.Mutex
	joined map[models.ConnectAction]int
}

// NewCoordinator returns a Coordinator polling every poll while requests
// wait. A non-positive poll means DefaultPollInterval, and a nil
// deps.Signal gets a private one.
func NewCoordinator(deps Deps, poll time.Duration, logger logging.Logger) *Coordinator {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	if deps.Signal == nil {
		deps.Signal = NewSignal()
	}
	return &Coordinator{
		Deps:   deps,
		poll:   poll,
		logger: logger.With("module", "connect"),
		joined: make(map[models.ConnectAction]int),
	}
}

// Connect answers whether req.Origin may connect on req.Chain.
//
// Known decisions resolve immediately. Otherwise, with Popup unset the
// answer is false; with Popup set a connect action is queued and the call
// waits until the decision appears or req.Timeout elapses. The wait does
// not follow ctx cancellation: cleanup of the queued action and the
// request's once-flag always runs.
func (c *Coordinator) Connect(ctx context.Context, req *ConnectRequest) (res Result) {
	if req == nil {
		return Fail(common.ErrInvalidRequest)
	}
	if err := validate(req.Chain, req.Origin); err != nil {
		return Fail(err)
	}

	initialized, err := c.Init.IsInitialized(ctx)
	if err != nil {
		return Fail(err)
	}
	if !initialized {
		if err := c.Notifier.OpenSetup(ctx); err != nil {
			c.logger.Warn(ctx, "failed to open setup", "error", err)
		}
		return Fail(common.ErrNotInitialized)
	}

	ctx = context.WithoutCancel(ctx)
	r := &pending{c: c, req: req}
	defer r.cleanup(ctx)
	defer func() {
		if p := recover(); p != nil {
			c.logger.Error(ctx, "connect panicked", "origin", req.Origin, "panic", p)
			res = Fail(recovered(p))
		}
	}()

	d, err := r.check(ctx)
	if err != nil {
		return Fail(err)
	}
	if v, ok := d.Bool(); ok {
		return Ok(v)
	}
	if !req.Popup {
		return Ok(false)
	}

	if err := r.join(ctx); err != nil {
		return Fail(err)
	}
	return r.wait(ctx)
}

// Disconnect revokes the session connection of an origin. It always
// succeeds, locked or not.
func (c *Coordinator) Disconnect(ctx context.Context, req *DisconnectRequest) Result {
	if req == nil {
		return Fail(common.ErrInvalidRequest)
	}
	info, err := c.Info.CurrentInfo(ctx)
	if err != nil {
		return Ok(true)
	}
	if err := c.Flags.Revoke(ctx, req.Chain, info.CurrentIdentityNetwork, req.Origin); err != nil {
		c.logger.Warn(ctx, "revoke failed", "origin", req.Origin, "error", err)
	}
	return Ok(true)
}

// GetAddress returns the current identity's address on req.Chain, or all
// of its addresses when no chain is given.
func (c *Coordinator) GetAddress(ctx context.Context, req *AddressRequest) Result {
	if req == nil {
		return Fail(common.ErrInvalidRequest)
	}
	info, err := c.Info.CurrentInfo(ctx)
	if err != nil {
		return Fail(common.ErrLocked)
	}
	if req.Chain == "" {
		return Ok(info.Address)
	}
	addr, err := c.Info.CurrentAddress(ctx, req.Chain)
	if err != nil {
		if errors.Is(err, common.ErrLocked) || errors.Is(err, common.ErrorNotFound) {
			return Fail(common.ErrLocked)
		}
		return Fail(err)
	}
	return Ok(addr)
}

func (c *Coordinator) acquire(ctx context.Context, a models.ConnectAction) error {
	key := a
	key.MessageID = ""

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.Actions.Push(ctx, a); err != nil {
		return err
	}
	c.joined[key]++
	return nil
}

func (c *Coordinator) release(ctx context.Context, a models.ConnectAction) {
	key := a
	key.MessageID = ""

	c.mu.Lock()
	defer c.mu.Unlock()
	c.joined[key]--
	if c.joined[key] > 0 {
		return
	}
	delete(c.joined, key)
	if err := c.Actions.Remove(ctx, a); err != nil {
		c.logger.Error(ctx, "failed to remove popup action", "origin", a.Origin, "error", err)
		return
	}

	// acquire holds mu while pushing, so no request can queue between the
	// removal above and the emptiness check below.
	left, err := c.Actions.List(ctx)
	if err != nil {
		c.logger.Warn(ctx, "failed to list popup actions", "error", err)
		return
	}
	if len(left) > 0 {
		return
	}
	if err := c.Notifier.Close(ctx); err != nil {
		c.logger.Warn(ctx, "failed to close notification", "error", err)
	}
}

// waitTimeout converts a request timeout to a duration, clamping negative
// values to zero and huge ones to the largest duration.
func waitTimeout(ms int64) time.Duration {
	switch {
	case ms <= 0:
		return 0
	case ms > maxTimeoutMillis:
		return time.Duration(math.MaxInt64)
	default:
		return time.Duration(ms) * time.Millisecond
	}
}

// pending is one in-flight connect request.
type pending struct {
	c   *Coordinator
	req *ConnectRequest

	cin    *models.CurrentIdentityNetwork
	joined bool
	opened bool
}

// check evaluates the request once. A locked wallet or a wallet without a
// current identity is undecided. Decided results reset the session
// connection marker.
func (r *pending) check(ctx context.Context) (models.Decision, error) {
	info, err := r.c.Info.CurrentInfo(ctx)
	if errors.Is(err, common.ErrLocked) || errors.Is(err, common.ErrorNotFound) {
		return models.DecisionUndecided, nil
	}
	if err != nil {
		return models.DecisionUndecided, err
	}
	cin := info.CurrentIdentityNetwork
	r.cin = &cin

	d, err := r.c.Finder.Find(ctx, cin, r.req.query())
	if err != nil {
		return models.DecisionUndecided, err
	}
	if v, ok := d.Bool(); ok {
		if err := r.c.Flags.Reset(ctx, r.req.Chain, cin, r.req.Origin, v); err != nil {
			return models.DecisionUndecided, err
		}
	}
	return d, nil
}

func (r *pending) join(ctx context.Context) error {
	if err := r.c.acquire(ctx, r.req.action()); err != nil {
		return fmt.Errorf("queue popup action: %w", err)
	}
	r.joined = true
	return nil
}

// wait re-evaluates on every change notification, approval signal and
// poll tick until a decision appears or the deadline passes.
func (r *pending) wait(ctx context.Context) Result {
	deadline := time.NewTimer(waitTimeout(r.req.Timeout))
	defer deadline.Stop()
	ticker := time.NewTicker(r.c.poll)
	defer ticker.Stop()
	changes, unsubscribe := r.c.Store.Subscribe()
	defer unsubscribe()
	approved := r.c.Signal.Wait()

	for {
		select {
		case <-deadline.C:
			return Fail(common.ErrTimeout)
		case <-approved:
			approved = r.c.Signal.Wait()
		case <-changes:
		case <-ticker.C:
		}

		d, err := r.check(ctx)
		if err != nil {
			return Fail(err)
		}
		if v, ok := d.Bool(); ok {
			return Ok(v)
		}
		r.notify(ctx)
	}
}

// notify opens a notification surface at most once per request, and only
// when none is showing.
func (r *pending) notify(ctx context.Context) {
	if r.opened {
		return
	}
	open, err := r.c.Notifier.IsOpen(ctx)
	if err != nil {
		r.c.logger.Warn(ctx, "notification state unknown", "error", err)
		return
	}
	if open {
		return
	}
	r.opened = true
	if err := r.c.Notifier.Open(ctx, r.req.Window); err != nil {
		r.c.logger.Warn(ctx, "failed to open notification", "error", err)
	}
}

func (r *pending) cleanup(ctx context.Context) {
	if r.joined {
		r.c.release(ctx, r.req.action())
	}
	if r.cin == nil {
		info, err := r.c.Info.CurrentInfo(ctx)
		if err != nil {
			return
		}
		r.cin = &info.CurrentIdentityNetwork
	}
	if err := r.c.Flags.DeleteOnce(ctx, r.req.Chain, *r.cin, r.req.Origin, r.req.MessageID); err != nil {
		r.c.logger.Error(ctx, "failed to delete once flag", "origin", r.req.Origin, "error", err)
	}
}
