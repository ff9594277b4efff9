package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/gophwallet/internal/connect"
	"github.com/dmitrijs2005/gophwallet/internal/models"
)

// Publisher is the part of *nats.Conn used for notifications.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Event is published on <prefix>.notify whenever a surface is asked for.
type Event struct {
	Kind   string         `json:"kind"`
	Window *models.Window `json:"window,omitempty"`
}

// Event kinds.
const (
	EventSetup = "setup"
	EventOpen  = "open"
	EventClose = "close"
)

// BusNotifier mirrors notification requests onto the bus, then forwards
// them to the local surface.
type BusNotifier struct {
	pub     Publisher
	subject string
	next    connect.Notifier
}

// NewBusNotifier publishes on <prefix>.notify before delegating to next.
func NewBusNotifier(pub Publisher, prefix string, next connect.Notifier) *BusNotifier {
	return &BusNotifier{pub: pub, subject: prefix + ".notify", next: next}
}

func (n *BusNotifier) publish(e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := n.pub.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", n.subject, err)
	}
	return nil
}

func (n *BusNotifier) OpenSetup(ctx context.Context) error {
	if err := n.publish(Event{Kind: EventSetup}); err != nil {
		return err
	}
	return n.next.OpenSetup(ctx)
}

func (n *BusNotifier) IsOpen(ctx context.Context) (bool, error) {
	return n.next.IsOpen(ctx)
}

func (n *BusNotifier) Open(ctx context.Context, window *models.Window) error {
	if err := n.publish(Event{Kind: EventOpen, Window: window}); err != nil {
		return err
	}
	return n.next.Open(ctx, window)
}

func (n *BusNotifier) Close(ctx context.Context) error {
	if err := n.publish(Event{Kind: EventClose}); err != nil {
		return err
	}
	return n.next.Close(ctx)
}
