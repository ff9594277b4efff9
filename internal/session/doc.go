// Package session owns everything that lives only as long as the wallet
// is unlocked: the session key relay (Manager), the ephemeral key/value
// namespace (Store) with typed access to approval flags (Flags) and the
// popup action queue (Actions), plus the idle AutoLocker.
//
// A Manager is created once per process and passed by reference to every
// component that needs the unlock key. Readers must call UnlockKey right
// before use and never cache the result across blocking calls, since a
// Lock can happen at any time.
package session
