package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/peoplebook/internal/common"
	"github.com/dmitrijs2005/peoplebook/internal/dbx"
	"github.com/dmitrijs2005/peoplebook/internal/server/models"
	"github.com/dmitrijs2005/peoplebook/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/peoplebook/internal/server/repositories/loginevents"
	"github.com/dmitrijs2005/peoplebook/internal/server/repositories/persons"
)

var errBoom = errors.New("boom")

// memStore is an in-memory stand-in for the three tables. Each method holds
// the lock for its whole body, like a single-row UPDATE would.
type memStore struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]*models.Account
	persons  map[int64]*models.Person
	events   []*models.LoginEvent

	// sessionWrites records every SetSessionID value in commit order.
	sessionWrites []string

	failExists, failGet, failSetSession, failCreate, failAppend, failPersons error
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[int64]*models.Account{},
		persons:  map[int64]*models.Person{},
	}
}

type memAccounts struct{ s *memStore }

func (r memAccounts) Create(_ context.Context, a *models.Account) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failCreate != nil {
		return nil, r.s.failCreate
	}
	for _, existing := range r.s.accounts {
		if existing.Username == a.Username {
			return nil, common.ErrorAlreadyExists
		}
	}
	r.s.nextID++
	cp := *a
	cp.ID = r.s.nextID
	cp.SessionID = ""
	cp.CreatedAt = time.Now()
	r.s.accounts[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r memAccounts) GetByUsername(_ context.Context, username string) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failGet != nil {
		return nil, r.s.failGet
	}
	for _, a := range r.s.accounts {
		if a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memAccounts) GetByID(_ context.Context, id int64) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failGet != nil {
		return nil, r.s.failGet
	}
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *a
	return &cp, nil
}

func (r memAccounts) Exists(_ context.Context, username string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failExists != nil {
		return false, r.s.failExists
	}
	for _, a := range r.s.accounts {
		if a.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r memAccounts) SetSessionID(_ context.Context, id int64, sessionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failSetSession != nil {
		return r.s.failSetSession
	}
	a, ok := r.s.accounts[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.SessionID = sessionID
	r.s.sessionWrites = append(r.s.sessionWrites, sessionID)
	return nil
}

func (r memAccounts) Update(_ context.Context, a *models.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.accounts[a.ID]
	if !ok {
		return common.ErrorNotFound
	}
	for id, other := range r.s.accounts {
		if id != a.ID && other.Username == a.Username {
			return common.ErrorAlreadyExists
		}
	}
	cur.Username = a.Username
	cur.PasswordHash = a.PasswordHash
	return nil
}

func (r memAccounts) Delete(_ context.Context, id int64) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(r.s.accounts, id)
	return a, nil
}

type memPersons struct{ s *memStore }

func (r memPersons) Create(_ context.Context, p *models.Person) (*models.Person, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failPersons != nil {
		return nil, r.s.failPersons
	}
	r.s.nextID++
	cp := *p
	cp.ID = r.s.nextID
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	r.s.persons[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r memPersons) Get(_ context.Context, accountID, id int64) (*models.Person, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failPersons != nil {
		return nil, r.s.failPersons
	}
	p, ok := r.s.persons[id]
	if !ok || p.AccountID != accountID {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (r memPersons) List(_ context.Context, accountID int64) ([]*models.Person, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failPersons != nil {
		return nil, r.s.failPersons
	}
	out := []*models.Person{}
	for _, p := range r.s.persons {
		if p.AccountID == accountID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memPersons) Update(_ context.Context, p *models.Person) (*models.Person, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.persons[p.ID]
	if !ok || cur.AccountID != p.AccountID {
		return nil, common.ErrorNotFound
	}
	cur.FirstName, cur.LastName, cur.Email, cur.Phone = p.FirstName, p.LastName, p.Email, p.Phone
	cur.UpdatedAt = time.Now()
	cp := *cur
	return &cp, nil
}

func (r memPersons) Delete(_ context.Context, accountID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.persons[id]
	if !ok || p.AccountID != accountID {
		return common.ErrorNotFound
	}
	delete(r.s.persons, id)
	return nil
}

func (r memPersons) DeleteAll(_ context.Context, accountID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failPersons != nil {
		return 0, r.s.failPersons
	}
	var n int64
	for id, p := range r.s.persons {
		if p.AccountID == accountID {
			delete(r.s.persons, id)
			n++
		}
	}
	return n, nil
}

type memEvents struct{ s *memStore }

func (r memEvents) Append(_ context.Context, accountID int64, at time.Time) (*models.LoginEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failAppend != nil {
		return nil, r.s.failAppend
	}
	ev := &models.LoginEvent{ID: at.String(), AccountID: accountID, LoggedInAt: at}
	r.s.events = append(r.s.events, ev)
	return ev, nil
}

func (r memEvents) ListRecent(_ context.Context, accountID int64, limit int) ([]*models.LoginEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.LoginEvent{}
	for i := len(r.s.events) - 1; i >= 0 && len(out) < limit; i-- {
		if r.s.events[i].AccountID == accountID {
			out = append(out, r.s.events[i])
		}
	}
	return out, nil
}

type fakeRepoManager struct{ s *memStore }

func (m fakeRepoManager) RunMigrations(context.Context, *sql.DB) error  { return nil }
func (m fakeRepoManager) Accounts(dbx.DBTX) accounts.Repository       { return memAccounts{m.s} }
func (m fakeRepoManager) Persons(dbx.DBTX) persons.Repository         { return memPersons{m.s} }
func (m fakeRepoManager) LoginEvents(dbx.DBTX) loginevents.Repository { return memEvents{m.s} }

