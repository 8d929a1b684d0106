package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gallery/internal/client/client"
	"github.com/dmitrijs2005/gallery/internal/client/config"
	"github.com/dmitrijs2005/gallery/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

type App struct {
	config   *config.Config
	api      client.Client
	reader   *bufio.Reader
	out      io.Writer
	userName string
}

func NewApp(c *config.Config, in io.Reader, out io.Writer) *App {
	return &App{
		config: c,
		api:    client.NewHTTPClient(c.ServerURL, c.RequestTimeout),
		reader: bufio.NewReader(in),
		out:    out,
	}
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

func (a *App) status() string {
	if a.userName == "" {
		return ""
	}
	return "(" + a.userName + ")"
}

// Run starts the REPL and blocks until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to gallery CLI (type 'help' for commands)")
	runREPL(ctx, a, a.status, a.reader, a.out)
}

// Register prompts for a user name and password and creates the account.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter user name", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	id, err := a.api.Register(ctx, userName, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered, user id %s\n", id)
	return nil
}

// Login prompts for credentials and keeps the session on success.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter user name", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res, err := a.api.Login(ctx, userName, password)
	if err != nil {
		return err
	}

	a.userName = res.User.UserName
	fmt.Fprintf(a.out, "Logged in as %s, session valid until %s\n",
		res.User.UserName, res.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
	return nil
}

func (a *App) Me(ctx context.Context) error {
	id, err := a.api.Me(ctx)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			a.Logout(ctx)
		}
		return err
	}
	fmt.Fprintf(a.out, "%s (%s), token expires %s\n",
		id.UserName, id.UserID, id.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
	return nil
}

func (a *App) Users(ctx context.Context) error {
	users, err := a.api.ListUsers(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		fmt.Fprintf(a.out, "%s\t%s\n", u.UserID, u.UserName)
	}
	return nil
}

func (a *App) Ping(ctx context.Context) error {
	if err := a.api.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Server is up")
	return nil
}

// Logout forgets the session token. Issued tokens stay valid on the server
// until they expire.
func (a *App) Logout(context.Context) error {
	a.api.Logout()
	a.userName = ""
	return nil
}
