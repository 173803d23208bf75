package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/fieldsales/internal/common"
)

// getSimpleText, getPassword and getConfirmation are indirections used to
// facilitate testing.
var (
	getSimpleText   = GetSimpleText
	getPassword     = GetPassword
	getConfirmation = GetConfirmation
)

var errEmptyCredentials = errors.New("user name and password are required")

// Login prompts for credentials and the remember flag, authenticates and
// shows the day state of the new session.
func (a *App) Login(ctx context.Context) error {
	if sess := a.authService.Current(); sess != nil {
		a.printf("Already logged in as %s, logout first\n", sess.UserName)
		return nil
	}

	userName, err := getSimpleText(a.reader, "Enter user name", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if userName == "" || len(password) == 0 {
		return errEmptyCredentials
	}

	remember, err := getConfirmation(a.reader, "Remember me?", a.out)
	if err != nil {
		return err
	}

	sess, err := a.authService.Login(ctx, userName, string(password), remember)
	if err != nil {
		return err
	}

	a.println(okStyle.Render("Login successful, welcome " + displayName(sess)))
	return a.Status(ctx)
}

// Logout stops the auto close and drops the session and the day record.
func (a *App) Logout(ctx context.Context) error {
	a.autoClose.Stop()
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	a.println("Logged out")
	return nil
}
