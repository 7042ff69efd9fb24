package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/marketauth/internal/common"
)

func (app *App) Register(ctx context.Context) error {
	userName, err := GetSimpleText(app.reader, "Enter user name", app.out)
	if err != nil {
		return app.fail(err)
	}
	email, err := GetSimpleText(app.reader, "Enter email", app.out)
	if err != nil {
		return app.fail(err)
	}
	role, err := GetSimpleText(app.reader, "Enter role (seller/buyer, empty for buyer)", app.out)
	if err != nil {
		return app.fail(err)
	}
	password, err := GetPassword(app.out)
	if err != nil {
		return app.fail(err)
	}

	if err := app.client.Register(ctx, userName, password, email, role); err != nil {
		return app.fail(err)
	}

	fmt.Fprintln(app.out, "Successfully registered.")
	return nil
}

func (app *App) Login(ctx context.Context) error {
	userName, err := GetSimpleText(app.reader, "Enter user name", app.out)
	if err != nil {
		return app.fail(err)
	}
	password, err := GetPassword(app.out)
	if err != nil {
		return app.fail(err)
	}

	if err := app.client.Login(ctx, userName, password); err != nil {
		return app.fail(err)
	}

	app.userName = userName
	fmt.Fprintln(app.out, "Logged in as", userName)
	return nil
}

func (app *App) Refresh(ctx context.Context) error {
	if err := app.client.Refresh(ctx); err != nil {
		return app.fail(err)
	}
	fmt.Fprintln(app.out, "Access token refreshed.")
	return nil
}

func (app *App) Logout(ctx context.Context) error {
	err := app.client.Logout(ctx)
	if err != nil && !errors.Is(err, common.ErrUnknownRefreshToken) {
		return app.fail(err)
	}
	app.userName = ""
	fmt.Fprintln(app.out, "Logged out.")
	return nil
}

func (app *App) WhoAmI(ctx context.Context) error {
	p, err := app.client.WhoAmI(ctx)
	if err != nil {
		return app.fail(err)
	}
	fmt.Fprintf(app.out, "id: %s\nusername: %s\nemail: %s\nrole: %s\nregistered on: %s\n",
		p.ID, p.UserName, p.Email, p.Role, p.RegisteredOn)
	return nil
}

// fail prints a user-facing message for err and returns it.
func (app *App) fail(err error) error {
	fmt.Fprintln(app.out, "error:", describe(err))
	return err
}

func describe(err error) string {
	switch {
	case errors.Is(err, common.ErrDuplicateUsername):
		return "this username already exists"
	case errors.Is(err, common.ErrDuplicateEmail):
		return "this email already exists"
	case errors.Is(err, common.ErrInvalidCredentials):
		return "invalid credentials"
	case errors.Is(err, common.ErrTokenExpired), errors.Is(err, common.ErrUnknownRefreshToken):
		return "session expired, please log in again"
	default:
		return err.Error()
	}
}
