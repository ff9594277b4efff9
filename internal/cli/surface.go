package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/gophwallet/internal/models"
)

// Surface is the console side of the notification flow. It serializes
// writes to the terminal, since relay goroutines announce requests while
// the REPL is printing.
type Surface struct {
	mu   sync.Mutex
	out  io.Writer
	open bool
}

// NewSurface returns a closed surface printing to out.
func NewSurface(out io.Writer) *Surface {
	return &Surface{out: out}
}

func (s *Surface) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out.Write(p)
}

// OpenSetup tells the user a dapp is waiting for wallet initialization.
func (s *Surface) OpenSetup(context.Context) error {
	_, err := fmt.Fprintln(s, "! a dapp tried to connect but the wallet is not initialized, run 'init'")
	return err
}

// IsOpen reports whether a request announcement is still current.
func (s *Surface) IsOpen(context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open, nil
}

// Open announces pending requests. The surface stays open until Close, so
// requests queued meanwhile join it silently.
func (s *Surface) Open(_ context.Context, window *models.Window) error {
	s.mu.Lock()
	s.open = true
	s.mu.Unlock()

	msg := "! connection request waiting, type 'pending' to review"
	if window != nil && window.ID != 0 {
		msg = fmt.Sprintf("%s (window %d)", msg, window.ID)
	}
	_, err := fmt.Fprintln(s, msg)
	return err
}

// Close marks the surface dismissed once the queue is empty, so the next
// request is announced again.
func (s *Surface) Close(context.Context) error {
	s.mu.Lock()
	s.open = false
	s.mu.Unlock()
	return nil
}
