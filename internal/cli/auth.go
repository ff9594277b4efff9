package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophwallet/internal/common"
)

// getPassword is swapped in tests.
var getPassword = GetPassword

// ErrPasswordMismatch is returned when the repeated password differs.
var ErrPasswordMismatch = errors.New("passwords do not match")

// readNewPassword asks for a password twice.
func (a *App) readNewPassword(prompt string) (string, error) {
	first, err := getPassword(a.surface, prompt)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(first)

	second, err := getPassword(a.surface, "Repeat password")
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(second)

	if string(first) != string(second) {
		return "", ErrPasswordMismatch
	}
	return string(first), nil
}

// Init sets the wallet password and creates the first identity.
func (a *App) Init(ctx context.Context) error {
	ok, err := a.wallet.IsInitialized(ctx)
	if err != nil {
		return err
	}
	if ok {
		return common.ErrInitialized
	}

	password, err := a.readNewPassword("New password")
	if err != nil {
		return err
	}
	if err := a.wallet.Initialize(ctx, password); err != nil {
		return err
	}

	fmt.Fprintln(a.surface, "Wallet created and unlocked.")
	return nil
}

// Unlock prompts for the password and unlocks the wallet.
func (a *App) Unlock(ctx context.Context) error {
	password, err := getPassword(a.surface, "Password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.wallet.Unlock(ctx, string(password)); err != nil {
		return err
	}
	fmt.Fprintln(a.surface, "Unlocked.")
	return nil
}

func (a *App) Lock(ctx context.Context) error {
	if err := a.wallet.Lock(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.surface, "Locked.")
	return nil
}

// Passwd changes the password. The wallet is locked afterwards and has to
// be unlocked with the new password.
func (a *App) Passwd(ctx context.Context) error {
	old, err := getPassword(a.surface, "Current password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(old)

	password, err := a.readNewPassword("New password")
	if err != nil {
		return err
	}
	if err := a.wallet.ChangePassword(ctx, string(old), password); err != nil {
		return err
	}

	fmt.Fprintln(a.surface, "Password changed, unlock again with the new password.")
	return nil
}
