// Package cli is the interactive peoplebook client: a read-eval-print loop
// over the HTTP API.
package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/dmitrijs2005/peoplebook/internal/client/api"
	"github.com/dmitrijs2005/peoplebook/internal/client/config"
	"github.com/dmitrijs2005/peoplebook/internal/server/models"
)

// apiClient is the part of api.Client the commands use.
type apiClient interface {
	Ping(ctx context.Context) error
	Signup(ctx context.Context, username, password string) (bool, error)
	Login(ctx context.Context, username, password string) (*api.Session, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*models.Account, error)
	ListPersons(ctx context.Context) ([]api.Person, error)
	CreatePerson(ctx context.Context, p api.Person) (*api.Person, error)
	GetPerson(ctx context.Context, id int64) (*api.Person, error)
	DeletePerson(ctx context.Context, id int64) error
}

type App struct {
	client   apiClient
	userName string
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(c *config.Config) *App {
	return &App{
		client: api.NewClient(c.ServerURL, c.RequestTimeout),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
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

func (a *App) Run(ctx context.Context) {
	printlnFn("Welcome to peoplebook CLI (type 'help' for commands)")
	if err := a.client.Ping(ctx); err != nil {
		printlnFn("Server is not reachable:", err)
	}
	runREPL(ctx, a, a.status, a.reader)
}
