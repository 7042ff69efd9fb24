// Package cli implements the interactive marketauth client: register, login,
// refresh, logout and whoami against the gRPC API.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/marketauth/internal/client/client"
	"github.com/dmitrijs2005/marketauth/internal/client/config"
)

// AuthClient is what the commands need from client.GRPCClient.
type AuthClient interface {
	Register(ctx context.Context, userName, password, email, role string) error
	Login(ctx context.Context, userName, password string) error
	Refresh(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) (*client.Profile, error)
	LoggedIn() bool
}

type App struct {
	config   *config.Config
	client   AuthClient
	userName string
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		return nil, err
	}
	return newApp(c, apiClient, os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, ac AuthClient, in io.Reader, out io.Writer) *App {
	return &App{config: c, client: ac, reader: bufio.NewReader(in), out: out}
}

func (app *App) isLoggedIn() bool {
	return app.client.LoggedIn()
}

func (app *App) status() string {
	if app.isLoggedIn() && app.userName != "" {
		return "(" + app.userName + ")"
	}
	return ""
}

// Run starts the REPL on the app's input until EOF or "exit".
func (app *App) Run(ctx context.Context) {
	fmt.Fprintln(app.out, "Welcome to marketauth CLI (type 'help' for commands)")
	runREPL(ctx, app, app.status, app.reader, app.out)
}
