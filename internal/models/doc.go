// Package models defines the wallet's domain types: chains and identity
// networks, connected apps with their authorization states, popup actions
// and the identity bookkeeping the authorization engine depends on.
//
// Variant types (chain families, app states, popup actions) are closed:
// their marker methods are unexported and every dispatch goes through a
// visitor interface, so adding a variant breaks every matcher at compile time.
package models
