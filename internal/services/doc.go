// Package services holds the wallet's application services: setup,
// unlocking, locking and password changes.
package services
