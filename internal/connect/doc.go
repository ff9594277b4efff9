// Package connect decides whether an origin may act for the current
// identity and runs the interactive connect handshake.
//
// Evaluate is the pure reducer from a persisted app state plus ephemeral
// session facts to a decision. Finder loads those inputs, Coordinator
// drives a live request through checking, approval and cleanup, and
// Approver applies the human's choice.
package connect
