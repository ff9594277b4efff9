package connect

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophwallet/internal/logging"
	"github.com/dmitrijs2005/gophwallet/internal/models"
	"github.com/dmitrijs2005/gophwallet/internal/session"
)

// AppStore persists connected apps per chain and identity network.
type AppStore interface {
	GetConnectedApps(ctx context.Context, chain models.Chain, cin models.CurrentIdentityNetwork) ([]models.ConnectedApp, error)
	SetConnectedApps(ctx context.Context, chain models.Chain, cin models.CurrentIdentityNetwork, apps []models.ConnectedApp) error
}

// Query identifies the origin being evaluated and the profile it presents.
type Query struct {
	MessageID string
	Chain     models.Chain
	Origin    string
	Title     string
	Favicon   string
}

// Finder evaluates the stored decision for an origin.
type Finder struct {
	apps   AppStore
	flags  *session.Flags
	now    func() time.Time
	logger logging.Logger
}

// NewFinder reads persisted states from apps and session facts from flags.
func NewFinder(apps AppStore, flags *session.Flags, logger logging.Logger) *Finder {
	return &Finder{apps: apps, flags: flags, now: time.Now, logger: logger}
}

// Find returns the decision for q under cin. An origin with no connected
// app is undecided. A changed title or favicon is persisted on the way.
func (f *Finder) Find(ctx context.Context, cin models.CurrentIdentityNetwork, q Query) (models.Decision, error) {
	apps, err := f.apps.GetConnectedApps(ctx, q.Chain, cin)
	if err != nil {
		return models.DecisionUndecided, fmt.Errorf("load connected apps: %w", err)
	}
	idx := models.FindApp(apps, q.Origin)
	if idx < 0 {
		return models.DecisionUndecided, nil
	}

	now := f.now()
	app := &apps[idx]
	if RefreshProfile(app, q.Title, q.Favicon, now) {
		if err := f.apps.SetConnectedApps(ctx, q.Chain, cin, apps); err != nil {
			return models.DecisionUndecided, fmt.Errorf("save connected apps: %w", err)
		}
		f.logger.Debug(ctx, "app profile refreshed", "origin", q.Origin, "chain", q.Chain)
	}

	state := app.State
	if state == nil {
		state = models.AskOnUse{}
	}

	var facts Facts
	need := models.MatchState[factNeeds](state, needsOf{})
	if need.once {
		if facts.Once, err = f.flags.FindOnce(ctx, q.Chain, cin, q.Origin, q.MessageID); err != nil {
			return models.DecisionUndecided, err
		}
	}
	if need.session {
		if facts.Session, err = f.flags.FindSession(ctx, q.Chain, cin, q.Origin); err != nil {
			return models.DecisionUndecided, err
		}
	}

	return Evaluate(state, facts, now), nil
}
