package models

import (
	"encoding/json"
	"time"
)

// ConnectedApp is one origin's persisted authorization for one chain of
// one identity network. Collections are unique by Origin.
type ConnectedApp struct {
	Origin  string
	Title   string
	Favicon string
	State   AppState
	Updated time.Time
}

type connectedAppJSON struct {
	Origin  string    `json:"origin"`
	Title   string    `json:"title"`
	Favicon string    `json:"favicon,omitempty"`
	State   stateJSON `json:"state"`
	Updated int64     `json:"updated"`
}

// MarshalJSON implements json.Marshaler.
func (a ConnectedApp) MarshalJSON() ([]byte, error) {
	state := a.State
	if state == nil {
		state = AskOnUse{}
	}
	return json.Marshal(connectedAppJSON{
		Origin:  a.Origin,
		Title:   a.Title,
		Favicon: a.Favicon,
		State:   MatchState[stateJSON](state, stateEncoder{}),
		Updated: a.Updated.UnixMilli(),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *ConnectedApp) UnmarshalJSON(data []byte) error {
	var j connectedAppJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	state, err := j.State.decode()
	if err != nil {
		return err
	}
	*a = ConnectedApp{
		Origin:  j.Origin,
		Title:   j.Title,
		Favicon: j.Favicon,
		State:   state,
		Updated: time.UnixMilli(j.Updated),
	}
	return nil
}

// FindApp returns the index of the app for origin, or -1.
func FindApp(apps []ConnectedApp, origin string) int {
	for i := range apps {
		if apps[i].Origin == origin {
			return i
		}
	}
	return -1
}

// ApprovedState is a persisted decision for one signing request
// (identified by its request hash) of one origin.
type ApprovedState struct {
	State AppState
}

// MarshalJSON implements json.Marshaler.
func (s ApprovedState) MarshalJSON() ([]byte, error) {
	return MarshalState(s.State)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *ApprovedState) UnmarshalJSON(data []byte) error {
	state, err := UnmarshalState(data)
	if err != nil {
		return err
	}
	s.State = state
	return nil
}
