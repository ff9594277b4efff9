package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// AppState is the persisted authorization state of a connected app.
// It is a closed set: only the types in this file implement it.
type AppState interface {
	appState()
}

// Denied never allows the origin.
type Denied struct{}

// AskOnUse defers to a decision made for a single request.
type AskOnUse struct{}

// Granted always allows the origin.
type Granted struct{}

// DeniedSession denies while the session flag says so.
type DeniedSession struct{}

// GrantedSession allows while the session flag says so.
type GrantedSession struct{}

// ExpiryWindow is the half-open interval [Created, Created+Duration).
type ExpiryWindow struct {
	Created  time.Time
	Duration time.Duration
}

// Contains reports whether now falls inside the window.
func (w ExpiryWindow) Contains(now time.Time) bool {
	return !now.Before(w.Created) && now.Before(w.Created.Add(w.Duration))
}

// DeniedExpired denies inside its window and lapses afterwards.
type DeniedExpired struct{ ExpiryWindow }

// GrantedExpired allows inside its window and lapses afterwards.
type GrantedExpired struct{ ExpiryWindow }

func (Denied) appState()         {}
func (AskOnUse) appState()       {}
func (Granted) appState()        {}
func (DeniedSession) appState()  {}
func (GrantedSession) appState() {}
func (DeniedExpired) appState()  {}
func (GrantedExpired) appState() {}

// StateVisitor has one method per AppState variant.
type StateVisitor[T any] interface {
	Denied() T
	AskOnUse() T
	Granted() T
	DeniedSession() T
	GrantedSession() T
	DeniedExpired(w ExpiryWindow) T
	GrantedExpired(w ExpiryWindow) T
}

// MatchState dispatches s to the matching visitor method.
func MatchState[T any](s AppState, v StateVisitor[T]) T {
	switch st := s.(type) {
	case Denied:
		return v.Denied()
	case AskOnUse:
		return v.AskOnUse()
	case Granted:
		return v.Granted()
	case DeniedSession:
		return v.DeniedSession()
	case GrantedSession:
		return v.GrantedSession()
	case DeniedExpired:
		return v.DeniedExpired(st.ExpiryWindow)
	case GrantedExpired:
		return v.GrantedExpired(st.ExpiryWindow)
	}
	panic(fmt.Sprintf("models: unknown app state %T", s))
}

const (
	stateKindDenied         = "denied"
	stateKindAskOnUse       = "ask_on_use"
	stateKindGranted        = "granted"
	stateKindDeniedSession  = "denied_session"
	stateKindGrantedSession = "granted_session"
	stateKindDeniedExpired  = "denied_expired"
	stateKindGrantedExpired = "granted_expired"
)

// stateJSON is the wire form of an AppState; times are unix milliseconds.
type stateJSON struct {
	Kind     string `json:"kind"`
	Created  int64  `json:"created,omitempty"`
	Duration int64  `json:"duration,omitempty"`
}

type stateEncoder struct{}

func (stateEncoder) Denied() stateJSON         { return stateJSON{Kind: stateKindDenied} }
func (stateEncoder) AskOnUse() stateJSON       { return stateJSON{Kind: stateKindAskOnUse} }
func (stateEncoder) Granted() stateJSON        { return stateJSON{Kind: stateKindGranted} }
func (stateEncoder) DeniedSession() stateJSON  { return stateJSON{Kind: stateKindDeniedSession} }
func (stateEncoder) GrantedSession() stateJSON { return stateJSON{Kind: stateKindGrantedSession} }
func (stateEncoder) DeniedExpired(w ExpiryWindow) stateJSON {
	return stateJSON{Kind: stateKindDeniedExpired, Created: w.Created.UnixMilli(), Duration: w.Duration.Milliseconds()}
}
func (stateEncoder) GrantedExpired(w ExpiryWindow) stateJSON {
	return stateJSON{Kind: stateKindGrantedExpired, Created: w.Created.UnixMilli(), Duration: w.Duration.Milliseconds()}
}

// StateKind returns the stable name of the variant, e.g. "granted_session".
func StateKind(s AppState) string {
	return MatchState[stateJSON](s, stateEncoder{}).Kind
}

func (j stateJSON) decode() (AppState, error) {
	w := ExpiryWindow{Created: time.UnixMilli(j.Created), Duration: time.Duration(j.Duration) * time.Millisecond}
	switch j.Kind {
	case stateKindDenied:
		return Denied{}, nil
	case stateKindAskOnUse:
		return AskOnUse{}, nil
	case stateKindGranted:
		return Granted{}, nil
	case stateKindDeniedSession:
		return DeniedSession{}, nil
	case stateKindGrantedSession:
		return GrantedSession{}, nil
	case stateKindDeniedExpired:
		return DeniedExpired{w}, nil
	case stateKindGrantedExpired:
		return GrantedExpired{w}, nil
	}
	return nil, fmt.Errorf("unknown app state kind %q", j.Kind)
}

// MarshalState encodes an AppState to JSON.
func MarshalState(s AppState) ([]byte, error) {
	return json.Marshal(MatchState[stateJSON](s, stateEncoder{}))
}

// UnmarshalState decodes an AppState from JSON.
func UnmarshalState(data []byte) (AppState, error) {
	var j stateJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	return j.decode()
}
