package connect

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophwallet/internal/models"
)

// ChoiceKind is what a human answered to a popup action.
type ChoiceKind int

const (
	Deny ChoiceKind = iota
	DenyOnce
	DenySession
	DenyFor
	Allow
	AllowOnce
	AllowSession
	AllowFor
)

var choiceNames = map[ChoiceKind]string{
	Deny:         "deny",
	DenyOnce:     "deny-once",
	DenySession:  "deny-session",
	DenyFor:      "deny-for",
	Allow:        "allow",
	AllowOnce:    "allow-once",
	AllowSession: "allow-session",
	AllowFor:     "allow-for",
}

func (k ChoiceKind) String() string {
	if name, ok := choiceNames[k]; ok {
		return name
	}
	return fmt.Sprintf("choice(%d)", int(k))
}

// Choice is a decision plus, for the timed kinds, how long it lasts.
type Choice struct {
	Kind     ChoiceKind
	Duration time.Duration
}

// ErrInvalidChoice is returned by ParseChoice for unknown names.
var ErrInvalidChoice = errors.New("invalid choice")

// ParseChoice reads names such as "allow-session". The timed kinds need a
// positive duration.
func ParseChoice(name string, d time.Duration) (Choice, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for kind, n := range choiceNames {
		if n != name {
			continue
		}
		c := Choice{Kind: kind}
		if kind == DenyFor || kind == AllowFor {
			if d <= 0 {
				return Choice{}, fmt.Errorf("%w: %s needs a duration", ErrInvalidChoice, name)
			}
			c.Duration = d
		}
		return c, nil
	}
	return Choice{}, fmt.Errorf("%w: %q", ErrInvalidChoice, name)
}

// Granted reports whether the choice lets the origin in.
func (c Choice) Granted() bool {
	return c.Kind >= Allow
}

func (c Choice) Once() bool    { return c.Kind == DenyOnce || c.Kind == AllowOnce }
func (c Choice) Session() bool { return c.Kind == DenySession || c.Kind == AllowSession }

// State is the persisted app state this choice leaves behind.
func (c Choice) State(now time.Time) models.AppState {
	w := models.ExpiryWindow{Created: now, Duration: c.Duration}
	switch c.Kind {
	case Deny:
		return models.Denied{}
	case DenySession:
		return models.DeniedSession{}
	case DenyFor:
		return models.DeniedExpired{ExpiryWindow: w}
	case Allow:
		return models.Granted{}
	case AllowSession:
		return models.GrantedSession{}
	case AllowFor:
		return models.GrantedExpired{ExpiryWindow: w}
	}
	return models.AskOnUse{}
}
