package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophchat/internal/client/client"
	"github.com/dmitrijs2005/gophchat/internal/common"
)

// Indirections over the interactive input helpers, swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.authService.Register(ctx, email, password, name)
	if err != nil {
		a.report(err)
		return err
	}

	a.signedIn(user.Email)
	fmt.Fprintf(a.out, "Welcome, %s!\n", user.Name)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.authService.Login(ctx, email, password)
	if err != nil {
		a.report(err)
		return err
	}

	a.signedIn(user.Email)
	fmt.Fprintf(a.out, "Login successful, hello %s\n", user.Name)
	return nil
}

func (a *App) signedIn(email string) {
	a.userEmail = email
	a.activeSessionID = ""
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		a.report(err)
		return err
	}
	a.signedIn("")
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// report prints err for the user. An expired or rejected token signs the
// user out locally.
func (a *App) report(err error) {
	switch {
	case errors.Is(err, client.ErrUnauthorized) && a.isLoggedIn():
		a.signedIn("")
		fmt.Fprintln(a.out, "Your session has expired, please login again")
	case errors.Is(err, client.ErrUnavailable):
		fmt.Fprintln(a.out, "Server unavailable, try again later")
	default:
		fmt.Fprintf(a.out, "Error: %s\n", err.Error())
	}
}
