package session

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophwallet/internal/models"
)

const keyPopupActions = "popup_actions"

// Actions is the queue of popup actions waiting for the user. Entries are
// unique by models.Same and the key is removed once the queue is empty.
type Actions struct {
	store Store
	mu    sync.Mutex
}

// NewActions keeps the queue under one key of store.
func NewActions(store Store) *Actions {
	return &Actions{store: store}
}

// List returns the pending actions in arrival order.
func (a *Actions) List(ctx context.Context) ([]models.PopupAction, error) {
	raw, ok, err := a.store.Get(ctx, keyPopupActions)
	if err != nil || !ok {
		return nil, err
	}
	return models.UnmarshalActions(raw)
}

// Push appends action unless an equal one is already queued. It reports
// whether the action was added.
func (a *Actions) Push(ctx context.Context, action models.PopupAction) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	actions, err := a.List(ctx)
	if err != nil {
		return false, err
	}
	for _, existing := range actions {
		if models.Same(existing, action) {
			return false, nil
		}
	}
	return true, a.save(ctx, append(actions, action))
}

// Remove drops every action equal to action.
func (a *Actions) Remove(ctx context.Context, action models.PopupAction) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	actions, err := a.List(ctx)
	if err != nil {
		return err
	}
	kept := actions[:0]
	for _, existing := range actions {
		if !models.Same(existing, action) {
			kept = append(kept, existing)
		}
	}
	if len(kept) == len(actions) {
		return nil
	}
	return a.save(ctx, kept)
}

// Clear drops the whole queue and returns what was in it.
func (a *Actions) Clear(ctx context.Context) ([]models.PopupAction, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	actions, err := a.List(ctx)
	if err != nil {
		return nil, err
	}
	return actions, a.store.Remove(ctx, keyPopupActions)
}

func (a *Actions) save(ctx context.Context, actions []models.PopupAction) error {
	if len(actions) == 0 {
		return a.store.Remove(ctx, keyPopupActions)
	}
	raw, err := models.MarshalActions(actions)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, keyPopupActions, raw)
}
