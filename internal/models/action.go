package models

import (
	"encoding/json"
	"fmt"
)

// Window describes the caller's browser window, used to place the
// notification surface next to it.
type Window struct {
	ID     int64 `json:"id,omitempty"`
	Left   int   `json:"left,omitempty"`
	Top    int   `json:"top,omitempty"`
	Width  int   `json:"width,omitempty"`
	Height int   `json:"height,omitempty"`
}

// PopupAction is a pending request waiting for a user decision.
// Identity is structural: two actions are the same when Same says so.
type PopupAction interface {
	popupAction()
	// Request is the message id of the request that enqueued the action.
	Request() string
}

// ConnectAction asks the user whether an origin may connect.
type ConnectAction struct {
	MessageID string `json:"message_id"`
	Chain     Chain  `json:"chain"`
	Origin    string `json:"origin"`
	Title     string `json:"title"`
	Favicon   string `json:"favicon,omitempty"`
}

// ApproveAction asks the user to approve a signing request.
type ApproveAction struct {
	MessageID   string `json:"message_id"`
	Chain       Chain  `json:"chain"`
	Origin      string `json:"origin"`
	RequestHash string `json:"request_hash"`
	Title       string `json:"title"`
	Favicon     string `json:"favicon,omitempty"`
	Payload     string `json:"payload,omitempty"`
}

func (ConnectAction) popupAction() {}
func (ApproveAction) popupAction() {}

func (a ConnectAction) Request() string { return a.MessageID }
func (a ApproveAction) Request() string { return a.MessageID }

// ActionVisitor has one method per PopupAction variant.
type ActionVisitor[T any] interface {
	Connect(a ConnectAction) T
	Approve(a ApproveAction) T
}

// MatchAction dispatches a to the matching visitor method.
func MatchAction[T any](a PopupAction, v ActionVisitor[T]) T {
	switch act := a.(type) {
	case ConnectAction:
		return v.Connect(act)
	case ApproveAction:
		return v.Approve(act)
	}
	panic(fmt.Sprintf("models: unknown popup action %T", a))
}

// identity strips fields that do not take part in equality.
type identity struct{}

func (identity) Connect(a ConnectAction) PopupAction {
	a.MessageID = ""
	return a
}

func (identity) Approve(a ApproveAction) PopupAction {
	a.MessageID = ""
	return a
}

// Same reports whether two actions describe the same request. The message
// id is ignored so repeated submissions join the pending entry.
func Same(a, b PopupAction) bool {
	if a == nil || b == nil {
		return a == b
	}
	return MatchAction[PopupAction](a, identity{}) == MatchAction[PopupAction](b, identity{})
}

type actionJSON struct {
	Connect *ConnectAction `json:"connect,omitempty"`
	Approve *ApproveAction `json:"approve,omitempty"`
}

type actionEncoder struct{}

func (actionEncoder) Connect(a ConnectAction) actionJSON { return actionJSON{Connect: &a} }
func (actionEncoder) Approve(a ApproveAction) actionJSON { return actionJSON{Approve: &a} }

// MarshalActions encodes a queue of actions.
func MarshalActions(actions []PopupAction) ([]byte, error) {
	out := make([]actionJSON, 0, len(actions))
	for _, a := range actions {
		out = append(out, MatchAction[actionJSON](a, actionEncoder{}))
	}
	return json.Marshal(out)
}

// UnmarshalActions decodes a queue of actions.
func UnmarshalActions(data []byte) ([]PopupAction, error) {
	var in []actionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	out := make([]PopupAction, 0, len(in))
	for _, j := range in {
		switch {
		case j.Connect != nil:
			out = append(out, *j.Connect)
		case j.Approve != nil:
			out = append(out, *j.Approve)
		default:
			return nil, fmt.Errorf("empty popup action")
		}
	}
	return out, nil
}
