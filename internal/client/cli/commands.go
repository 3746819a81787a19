package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/peoplebook/internal/client/api"
)

var errNotLoggedIn = errors.New("not logged in")

func (a *App) credentials() (string, string, error) {
	username, err := GetSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return "", "", err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}

func (a *App) Register(ctx context.Context) error {
	username, password, err := a.credentials()
	if err != nil {
		return err
	}
	created, err := a.client.Signup(ctx, username, password)
	if err != nil {
		printlnFn("Registration failed:", err)
		return err
	}
	if created {
		printlnFn("Account created, you can log in now")
	} else {
		printlnFn("Username already registered")
	}
	return nil
}

func (a *App) Login(ctx context.Context) error {
	username, password, err := a.credentials()
	if err != nil {
		return err
	}
	s, err := a.client.Login(ctx, username, password)
	if err != nil {
		printlnFn("Login failed:", err)
		return err
	}
	a.userName = username
	printlnFn("Logged in, session valid until", s.ExpiresAt.Local().Format("2006-01-02 15:04"))
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	err := a.client.Logout(ctx)
	a.userName = ""
	if err != nil && !errors.Is(err, api.ErrUnauthorized) {
		printlnFn("Logout failed:", err)
		return err
	}
	printlnFn("Logged out")
	return nil
}

func (a *App) Me(ctx context.Context) error {
	acc, err := a.client.Me(ctx)
	if err != nil {
		return a.fail(err)
	}
	printlnFn(fmt.Sprintf("#%d %s, member since %s", acc.ID, acc.Username, acc.CreatedAt.Format("2006-01-02")))
	return nil
}

func (a *App) List(ctx context.Context) error {
	people, err := a.client.ListPersons(ctx)
	if err != nil {
		return a.fail(err)
	}
	if len(people) == 0 {
		printlnFn("No records")
	}
	for _, p := range people {
		printlnFn(formatPerson(p))
	}
	return nil
}

func (a *App) Add(ctx context.Context) error {
	if !a.isLoggedIn() {
		printlnFn("Please log in first")
		return errNotLoggedIn
	}
	var p api.Person
	fields := []struct {
		prompt string
		dst    *string
	}{
		{"First name", &p.FirstName},
		{"Last name", &p.LastName},
		{"Email", &p.Email},
		{"Phone", &p.Phone},
	}
	for _, f := range fields {
		v, err := GetSimpleText(a.reader, f.prompt, a.out)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	created, err := a.client.CreatePerson(ctx, p)
	if err != nil {
		return a.fail(err)
	}
	printlnFn("Added", formatPerson(*created))
	return nil
}

func (a *App) Show(ctx context.Context, arg string) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	p, err := a.client.GetPerson(ctx, id)
	if err != nil {
		return a.fail(err)
	}
	printlnFn(formatPerson(*p))
	return nil
}

func (a *App) Delete(ctx context.Context, arg string) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	if err := a.client.DeletePerson(ctx, id); err != nil {
		return a.fail(err)
	}
	printlnFn("Deleted", id)
	return nil
}

// fail reports err and forgets the login when the server no longer accepts
// the session.
func (a *App) fail(err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		a.userName = ""
		printlnFn("Session is not valid, please log in again:", err)
		return err
	}
	printlnFn("Error:", err)
	return err
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		printlnFn("Usage: <command> <id>")
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func formatPerson(p api.Person) string {
	s := fmt.Sprintf("#%d %s %s", p.ID, p.FirstName, p.LastName)
	if p.Email != "" {
		s += " <" + p.Email + ">"
	}
	if p.Phone != "" {
		s += " " + p.Phone
	}
	return s
}
