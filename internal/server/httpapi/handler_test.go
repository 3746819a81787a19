package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/peoplebook/internal/common"
	"github.com/dmitrijs2005/peoplebook/internal/logging"
	"github.com/dmitrijs2005/peoplebook/internal/server/gate"
	"github.com/dmitrijs2005/peoplebook/internal/server/models"
	"github.com/dmitrijs2005/peoplebook/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type fakeAccounts struct {
	signupRes services.SignupResult
	signupErr error

	loginRes *services.LoginResult
	loginErr error

	logoutErr  error
	loggedOut  int64
	account    *models.Account
	accountErr error
	updateErr  error
	deleteRes  *services.DeleteResult
	deleteErr  error

	events    []*models.LoginEvent
	lastLimit int
}

func (f *fakeAccounts) Signup(context.Context, string, string) (services.SignupResult, error) {
	return f.signupRes, f.signupErr
}
func (f *fakeAccounts) Login(context.Context, string, string) (*services.LoginResult, error) {
	return f.loginRes, f.loginErr
}
func (f *fakeAccounts) Logout(_ context.Context, id int64) error {
	f.loggedOut = id
	return f.logoutErr
}
func (f *fakeAccounts) Account(context.Context, int64) (*models.Account, error) {
	return f.account, f.accountErr
}
func (f *fakeAccounts) Update(_ context.Context, id int64, username, _ string) (*models.Account, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &models.Account{ID: id, Username: username}, nil
}
func (f *fakeAccounts) Delete(context.Context, int64) (*services.DeleteResult, error) {
	return f.deleteRes, f.deleteErr
}
func (f *fakeAccounts) RecentLogins(_ context.Context, _ int64, limit int) ([]*models.LoginEvent, error) {
	f.lastLimit = limit
	return f.events, nil
}

type fakePersons struct {
	byID map[int64]*models.Person
	err  error
}

func (f *fakePersons) Create(_ context.Context, accountID int64, in services.PersonInput) (*models.Person, error) {
	if f.err != nil {
		return nil, f.err
	}
	if in.FirstName == "" {
		return nil, fmt.Errorf("%w: first_name is required", common.ErrorValidation)
	}
	p := &models.Person{ID: int64(len(f.byID) + 1), AccountID: accountID, FirstName: in.FirstName}
	f.byID[p.ID] = p
	return p, nil
}
func (f *fakePersons) Get(_ context.Context, accountID, id int64) (*models.Person, error) {
	p, ok := f.byID[id]
	if !ok || p.AccountID != accountID {
		return nil, common.ErrorNotFound
	}
	return p, nil
}
func (f *fakePersons) List(_ context.Context, accountID int64) ([]*models.Person, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []*models.Person{}
	for _, p := range f.byID {
		if p.AccountID == accountID {
			out = append(out, p)
		}
	}
	return out, nil
}
func (f *fakePersons) Update(ctx context.Context, accountID, id int64, in services.PersonInput) (*models.Person, error) {
	p, err := f.Get(ctx, accountID, id)
	if err != nil {
		return nil, err
	}
	p.FirstName = in.FirstName
	return p, nil
}
func (f *fakePersons) Delete(_ context.Context, accountID, id int64) error {
	p, ok := f.byID[id]
	if !ok || p.AccountID != accountID {
		return common.ErrorNotFound
	}
	delete(f.byID, id)
	return nil
}

// ---- helpers ----

// asAccount admits every request as account 1 / alice.
func asAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := gate.WithIdentity(r.Context(), gate.Identity{AccountID: 1, Username: "alice"})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newTestAPI(acc *fakeAccounts, per *fakePersons, auth Middleware) http.Handler {
	if per == nil {
		per = &fakePersons{byID: map[int64]*models.Person{}}
	}
	h := NewHandler(acc, per, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	}), logging.Nop())
	return h.Routes(auth, "http://localhost:3000", "Authorization")
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	out := map[string]any{}
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rr.Body.Bytes(), &out)
	}
	return rr, out
}

// ---- tests ----

func TestSignup(t *testing.T) {
	cases := []struct {
		name       string
		acc        *fakeAccounts
		body       string
		wantStatus int
		wantMsg    string
	}{
		{"created", &fakeAccounts{signupRes: services.SignupCreated}, `{"username":"alice","password":"pw"}`, 201, "account created"},
		{"already registered", &fakeAccounts{signupRes: services.SignupAlreadyRegistered}, `{"username":"alice","password":"pw"}`, 200, "username already registered"},
		{"validation", &fakeAccounts{signupErr: fmt.Errorf("%w: password is required", common.ErrorValidation)}, `{"username":"alice"}`, 400, "validation error: password is required"},
		{"malformed body", &fakeAccounts{}, `{"username":`, 400, ""},
		{"unknown field", &fakeAccounts{}, `{"user":"alice"}`, 400, ""},
		{"store down", &fakeAccounts{signupErr: common.ErrorInternal}, `{"username":"a","password":"b"}`, 500, "internal error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr, body := do(t, newTestAPI(tc.acc, nil, nil), http.MethodPost, "/auth/signup", tc.body)
			assert.Equal(t, tc.wantStatus, rr.Code)
			if tc.wantMsg != "" {
				assert.Equal(t, tc.wantMsg, body["message"])
			}
		})
	}
}

func TestLogin(t *testing.T) {
	exp := time.Unix(1700604800, 0).UTC()
	acc := &fakeAccounts{loginRes: &services.LoginResult{Token: "tok", AccountID: 1, ExpiresAt: exp}}

	rr, body := do(t, newTestAPI(acc, nil, nil), http.MethodPost, "/auth/login", `{"username":"alice","password":"pw"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "tok", body["token"])
	assert.Equal(t, "bearer", body["token_type"])
	assert.Equal(t, exp.Format(time.RFC3339), body["expires_at"])

	acc = &fakeAccounts{loginErr: common.ErrorUnauthorized}
	rr, body = do(t, newTestAPI(acc, nil, nil), http.MethodPost, "/auth/login", `{"username":"ghost","password":"pw"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "invalid username or password", body["message"])
}

func TestProtectedRoutesNeedIdentity(t *testing.T) {
	api := newTestAPI(&fakeAccounts{}, nil, nil)
	for _, route := range [][2]string{
		{http.MethodPost, "/auth/logout"},
		{http.MethodGet, "/auth/me"},
		{http.MethodGet, "/auth/logins"},
		{http.MethodGet, "/persons"},
		{http.MethodDelete, "/persons/1"},
	} {
		rr, _ := do(t, api, route[0], route[1], "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, route[1])
	}
}

func TestLogoutAndMe(t *testing.T) {
	acc := &fakeAccounts{account: &models.Account{ID: 1, Username: "alice", PasswordHash: "$2a$secret", SessionID: "sid"}}
	api := newTestAPI(acc, nil, asAccount)

	rr, body := do(t, api, http.MethodGet, "/auth/me", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "alice", body["username"])
	assert.NotContains(t, rr.Body.String(), "secret")
	assert.NotContains(t, rr.Body.String(), "sid")

	rr, body = do(t, api, http.MethodPost, "/auth/logout", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "logged out", body["message"])
	assert.Equal(t, int64(1), acc.loggedOut)
}

func TestUpdateAndDeleteAccount(t *testing.T) {
	acc := &fakeAccounts{deleteRes: &services.DeleteResult{Username: "alice", DeletedPersons: 2}}
	api := newTestAPI(acc, nil, asAccount)

	rr, body := do(t, api, http.MethodPut, "/auth/update", `{"username":"alicia","password":""}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "alicia", body["username"])

	acc.updateErr = common.ErrorAlreadyExists
	rr, _ = do(t, api, http.MethodPut, "/auth/update", `{"username":"bob"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr, body = do(t, api, http.MethodDelete, "/auth/delete", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(2), body["deleted_persons"])
}

func TestLogins_Limit(t *testing.T) {
	acc := &fakeAccounts{events: []*models.LoginEvent{{ID: "01H", LoggedInAt: time.Unix(1, 0)}}}
	api := newTestAPI(acc, nil, asAccount)

	rr, _ := do(t, api, http.MethodGet, "/auth/logins?limit=5", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 5, acc.lastLimit)
	assert.Contains(t, rr.Body.String(), `"id":"01H"`)

	rr, _ = do(t, api, http.MethodGet, "/auth/logins?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPersonsCRUD(t *testing.T) {
	per := &fakePersons{byID: map[int64]*models.Person{
		9: {ID: 9, AccountID: 2, FirstName: "Mallory"},
	}}
	api := newTestAPI(&fakeAccounts{}, per, asAccount)

	rr, body := do(t, api, http.MethodPost, "/persons", `{"first_name":"Ada","last_name":"Lovelace"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	id := int64(body["id"].(float64))

	rr, body = do(t, api, http.MethodGet, fmt.Sprintf("/persons/%d", id), "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Ada", body["first_name"])

	rr, body = do(t, api, http.MethodPut, "/persons", fmt.Sprintf(`{"id":%d,"first_name":"Augusta"}`, id))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Augusta", body["first_name"])

	rr, _ = do(t, api, http.MethodGet, "/persons", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "Mallory")

	rr, _ = do(t, api, http.MethodGet, "/persons/9", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr, _ = do(t, api, http.MethodGet, "/persons/abc", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, _ = do(t, api, http.MethodPost, "/persons", `{"last_name":"NoFirst"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, _ = do(t, api, http.MethodDelete, fmt.Sprintf("/persons/%d", id), "")
	assert.Equal(t, http.StatusOK, rr.Code)
	rr, _ = do(t, api, http.MethodDelete, fmt.Sprintf("/persons/%d", id), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPersons_InternalErrorHidesCause(t *testing.T) {
	per := &fakePersons{byID: map[int64]*models.Person{}, err: fmt.Errorf("pq: connection refused")}
	api := newTestAPI(&fakeAccounts{}, per, asAccount)

	rr, body := do(t, api, http.MethodGet, "/persons", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "internal error", body["message"])
}

func TestPublicRoutes(t *testing.T) {
	api := newTestAPI(&fakeAccounts{}, nil, nil)

	rr, _ := do(t, api, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "pong!", rr.Body.String())

	rr, _ = do(t, api, http.MethodGet, "/documentation", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "# peoplebook API")

	rr, _ = do(t, api, http.MethodGet, "/metrics", "")
	assert.Equal(t, "# metrics", rr.Body.String())

	rr, _ = do(t, api, http.MethodPost, "/ping", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
