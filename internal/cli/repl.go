package cli

import (
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLocked() bool
	Init(ctx context.Context) error
	Unlock(ctx context.Context) error
	Lock(ctx context.Context) error
	Passwd(ctx context.Context) error
	Pending(ctx context.Context) error
	Approve(ctx context.Context, args []string) error
	Apps(ctx context.Context, args []string) error
	Revoke(ctx context.Context, args []string) error
	Address(ctx context.Context, args []string) error
}

const (
	helpLocked   = "Available commands: init, unlock, help, exit"
	helpUnlocked = "Available commands: pending, approve <n> <choice> [duration], apps <chain>, revoke <chain> <origin>, address [chain], passwd, lock, help, exit"
)

// runREPL reads one command per readLine call and dispatches it to a.
// Command errors are printed and the loop continues. It returns when
// readLine reports no more input, ctx is done, or the user types "exit" or
// "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, readLine func() (string, bool)) {
	for ctx.Err() == nil {
		printlnFn(fmt.Sprintf("wallet (%s) > ", statusFn()))

		line, ok := readLine()
		if !ok {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLocked() {
				printlnFn(helpLocked)
			} else {
				printlnFn(helpUnlocked)
			}
		case "init":
			err = a.Init(ctx)
		case "unlock":
			err = a.Unlock(ctx)
		case "lock":
			err = a.Lock(ctx)
		case "passwd":
			err = a.Passwd(ctx)
		case "p", "pending":
			err = a.Pending(ctx)
		case "approve":
			err = a.Approve(ctx, args)
		case "apps":
			err = a.Apps(ctx, args)
		case "revoke":
			err = a.Revoke(ctx, args)
		case "address":
			err = a.Address(ctx, args)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("error:", err)
		}
	}
}
