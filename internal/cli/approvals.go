package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/gophwallet/internal/connect"
	"github.com/dmitrijs2005/gophwallet/internal/models"
)

// ErrUsage wraps malformed command arguments.
var ErrUsage = errors.New("usage")

type actionPrinter struct{}

func (actionPrinter) Connect(a models.ConnectAction) string {
	return fmt.Sprintf("connect\t%s\t%s\t%s", a.Chain, a.Origin, a.Title)
}

func (actionPrinter) Approve(a models.ApproveAction) string {
	return fmt.Sprintf("approve\t%s\t%s\t%s", a.Chain, a.Origin, a.RequestHash)
}

// Pending lists queued actions, numbered from 1 for approve.
func (a *App) Pending(ctx context.Context) error {
	actions, err := a.approvals.Pending(ctx)
	if err != nil {
		return err
	}
	if len(actions) == 0 {
		_ = a.surface.Close(ctx)
		fmt.Fprintln(a.surface, "Nothing pending.")
		return nil
	}

	tw := tabwriter.NewWriter(a.surface, 0, 4, 2, ' ', 0)
	for i, act := range actions {
		fmt.Fprintf(tw, "%d\t%s\n", i+1, models.MatchAction[string](act, actionPrinter{}))
	}
	return tw.Flush()
}

// Approve answers pending action n: approve <n> <choice> [duration].
func (a *App) Approve(ctx context.Context, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return fmt.Errorf("%w: approve <n> <choice> [duration]", ErrUsage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: %q is not a number", ErrUsage, args[0])
	}

	var d time.Duration
	if len(args) == 3 {
		if d, err = time.ParseDuration(args[2]); err != nil {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}
	}
	choice, err := connect.ParseChoice(args[1], d)
	if err != nil {
		return err
	}

	actions, err := a.approvals.Pending(ctx)
	if err != nil {
		return err
	}
	if n < 1 || n > len(actions) {
		return fmt.Errorf("no pending action %d", n)
	}
	if err := a.approvals.Decide(ctx, actions[n-1], choice); err != nil {
		return err
	}
	if len(actions) == 1 {
		_ = a.surface.Close(ctx)
	}

	fmt.Fprintf(a.surface, "Answered %s.\n", choice.Kind)
	return nil
}

func chainArg(args []string, i int) (models.Chain, error) {
	if len(args) <= i {
		return "", fmt.Errorf("%w: missing chain", ErrUsage)
	}
	return models.ParseChain(args[i])
}

// Apps lists the origins known on a chain with their states.
func (a *App) Apps(ctx context.Context, args []string) error {
	chain, err := chainArg(args, 0)
	if err != nil {
		return err
	}
	apps, err := a.approvals.ConnectedApps(ctx, chain)
	if err != nil {
		return err
	}
	if len(apps) == 0 {
		fmt.Fprintln(a.surface, "No connected apps.")
		return nil
	}

	tw := tabwriter.NewWriter(a.surface, 0, 4, 2, ' ', 0)
	for _, app := range apps {
		state := "ask"
		if app.State != nil {
			state = models.StateKind(app.State)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", app.Origin, state, app.Title)
	}
	return tw.Flush()
}

// Revoke forgets an origin on a chain: revoke <chain> <origin>.
func (a *App) Revoke(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: revoke <chain> <origin>", ErrUsage)
	}
	chain, err := chainArg(args, 0)
	if err != nil {
		return err
	}
	ok, err := a.approvals.Forget(ctx, chain, args[1])
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(a.surface, "%s is not connected.\n", args[1])
		return nil
	}
	fmt.Fprintf(a.surface, "Revoked %s.\n", args[1])
	return nil
}

// Address prints the current identity's address, for one chain if given.
func (a *App) Address(ctx context.Context, args []string) error {
	if len(args) > 0 {
		chain, err := chainArg(args, 0)
		if err != nil {
			return err
		}
		addr, err := a.info.CurrentAddress(ctx, chain)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.surface, addr)
		return nil
	}

	info, err := a.info.CurrentInfo(ctx)
	if err != nil {
		return err
	}
	if ic := info.Address.IC; ic != nil {
		fmt.Fprintf(a.surface, "ic\t%s\n", ic.Owner)
	}
	if evm := info.Address.EVM; evm != nil {
		fmt.Fprintf(a.surface, "evm\t%s\n", evm.Address)
	}
	return nil
}
