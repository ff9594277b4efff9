package cli

import (
	"bufio"
	"context"
	"io"

	"github.com/dmitrijs2005/gophwallet/internal/connect"
	"github.com/dmitrijs2005/gophwallet/internal/models"
	"github.com/dmitrijs2005/gophwallet/internal/services"
)

// Approvals is the human side of the connection flow; *connect.Approver
// implements it.
type Approvals interface {
	Pending(ctx context.Context) ([]models.PopupAction, error)
	Decide(ctx context.Context, action models.PopupAction, choice connect.Choice) error
	ConnectedApps(ctx context.Context, chain models.Chain) ([]models.ConnectedApp, error)
	Forget(ctx context.Context, chain models.Chain, origin string) (bool, error)
}

// App is the interactive console. It executes commands for the REPL and
// serves as the notification surface through Surface.
type App struct {
	wallet    services.WalletService
	approvals Approvals
	info      connect.InfoSource
	surface   *Surface
	in        io.Reader
	activity  func()
}

// NewApp reads commands from in and prints through surface.
func NewApp(wallet services.WalletService, approvals Approvals, info connect.InfoSource, surface *Surface, in io.Reader) *App {
	return &App{wallet: wallet, approvals: approvals, info: info, surface: surface, in: in}
}

// OnActivity registers fn to run for every line the user enters; the
// daemon uses it to keep the session alive.
func (a *App) OnActivity(fn func()) {
	a.activity = fn
}

func (a *App) isLocked() bool {
	return a.wallet.IsLocked()
}

func (a *App) status(ctx context.Context) string {
	ok, err := a.wallet.IsInitialized(ctx)
	switch {
	case err != nil:
		return "error"
	case !ok:
		return "new"
	case a.wallet.IsLocked():
		return "locked"
	default:
		return "unlocked"
	}
}

// Run reads commands until the user exits, input ends or ctx is done.
func (a *App) Run(ctx context.Context) error {
	printlnFn("GophWallet console (type 'help' for commands)")
	runREPL(ctx, a, func() string { return a.status(ctx) }, a.lineReader(ctx))
	return nil
}

// lineReader scans input on a separate goroutine so ctx can interrupt the
// REPL. Lines are scanned only on request: a read left pending while a
// command prompts for a password would swallow the password.
func (a *App) lineReader(ctx context.Context) func() (string, bool) {
	reqs := make(chan struct{}, 1)
	lines := make(chan string)

	go func() {
		defer close(lines)
		sc := bufio.NewScanner(a.in)
		for {
			select {
			case <-reqs:
			case <-ctx.Done():
				return
			}
			if !sc.Scan() {
				return
			}
			if a.activity != nil {
				a.activity()
			}
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() (string, bool) {
		reqs <- struct{}{}
		select {
		case line, ok := <-lines:
			return line, ok
		case <-ctx.Done():
			return "", false
		}
	}
}
