package connect

import (
	"time"

	"github.com/dmitrijs2005/gophwallet/internal/models"
)

// Facts are the ephemeral flags an evaluation may consult.
type Facts struct {
	// Once is the once-flag of the request's message id.
	Once models.Decision
	// Session is the session-flag of the origin.
	Session models.Decision
}

type evaluator struct {
	facts Facts
	now   time.Time
}

func (e evaluator) Denied() models.Decision   { return models.DecisionDeny }
func (e evaluator) AskOnUse() models.Decision { return e.facts.Once }
func (e evaluator) Granted() models.Decision  { return models.DecisionAllow }

// A granted session flag does not satisfy DeniedSession and vice versa.
func (e evaluator) DeniedSession() models.Decision {
	if e.facts.Session == models.DecisionDeny {
		return models.DecisionDeny
	}
	return models.DecisionUndecided
}

func (e evaluator) GrantedSession() models.Decision {
	if e.facts.Session == models.DecisionAllow {
		return models.DecisionAllow
	}
	return models.DecisionUndecided
}

func (e evaluator) DeniedExpired(w models.ExpiryWindow) models.Decision {
	if w.Contains(e.now) {
		return models.DecisionDeny
	}
	return models.DecisionUndecided
}

func (e evaluator) GrantedExpired(w models.ExpiryWindow) models.Decision {
	if w.Contains(e.now) {
		return models.DecisionAllow
	}
	return models.DecisionUndecided
}

// Evaluate reduces state and facts to allow, deny or undecided.
func Evaluate(state models.AppState, facts Facts, now time.Time) models.Decision {
	return models.MatchState[models.Decision](state, evaluator{facts: facts, now: now})
}

// RefreshProfile copies title and favicon into app and bumps Updated when
// either differs. It reports whether app changed.
func RefreshProfile(app *models.ConnectedApp, title, favicon string, now time.Time) bool {
	if app.Title == title && app.Favicon == favicon {
		return false
	}
	app.Title = title
	app.Favicon = favicon
	app.Updated = now
	return true
}

// factNeeds reports which facts a state consults, so callers read only
// those.
type factNeeds struct{ once, session bool }

type needsOf struct{}

func (needsOf) Denied() factNeeds                            { return factNeeds{} }
func (needsOf) AskOnUse() factNeeds                          { return factNeeds{once: true} }
func (needsOf) Granted() factNeeds                           { return factNeeds{} }
func (needsOf) DeniedSession() factNeeds                     { return factNeeds{session: true} }
func (needsOf) GrantedSession() factNeeds                    { return factNeeds{session: true} }
func (needsOf) DeniedExpired(models.ExpiryWindow) factNeeds  { return factNeeds{} }
func (needsOf) GrantedExpired(models.ExpiryWindow) factNeeds { return factNeeds{} }
