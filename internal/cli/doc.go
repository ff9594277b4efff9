// Package cli is the interactive wallet console.
//
// The console is also the notification surface of the relay: connection
// requests that need a human decision are announced here and answered with
// the pending and approve commands. The REPL is started via App.Run, which
// blocks until the user exits or ctx is done.
package cli
