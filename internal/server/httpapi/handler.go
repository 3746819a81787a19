// Package httpapi is the HTTP surface of peoplebook: routes, JSON handlers
// and the middleware chain placed around the request gate.
package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/peoplebook/internal/logging"
	"github.com/dmitrijs2005/peoplebook/internal/server/models"
	"github.com/dmitrijs2005/peoplebook/internal/server/services"
)

type accountSvc interface {
	Signup(ctx context.Context, username, password string) (services.SignupResult, error)
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
	Logout(ctx context.Context, accountID int64) error
	Account(ctx context.Context, accountID int64) (*models.Account, error)
	Update(ctx context.Context, accountID int64, username, password string) (*models.Account, error)
	Delete(ctx context.Context, accountID int64) (*services.DeleteResult, error)
	RecentLogins(ctx context.Context, accountID int64, limit int) ([]*models.LoginEvent, error)
}

type personSvc interface {
	Create(ctx context.Context, accountID int64, in services.PersonInput) (*models.Person, error)
	Get(ctx context.Context, accountID, id int64) (*models.Person, error)
	List(ctx context.Context, accountID int64) ([]*models.Person, error)
	Update(ctx context.Context, accountID, id int64, in services.PersonInput) (*models.Person, error)
	Delete(ctx context.Context, accountID, id int64) error
}

type Handler struct {
	accounts accountSvc
	persons  personSvc
	metrics  http.Handler
	logger   logging.Logger
}

// NewHandler builds the route handlers. metricsHandler may be nil, in which
// case /metrics is not registered.
func NewHandler(accounts accountSvc, persons personSvc, metricsHandler http.Handler, l logging.Logger) *Handler {
	return &Handler{
		accounts: accounts,
		persons:  persons,
		metrics:  metricsHandler,
		logger:   l.With("module", "http_api"),
	}
}

// Register adds every route to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/signup", h.handleSignup)
	mux.HandleFunc("POST /auth/login", h.handleLogin)
	mux.HandleFunc("POST /auth/logout", h.handleLogout)
	mux.HandleFunc("GET /auth/me", h.handleMe)
	mux.HandleFunc("PUT /auth/update", h.handleUpdateAccount)
	mux.HandleFunc("DELETE /auth/delete", h.handleDeleteAccount)
	mux.HandleFunc("GET /auth/logins", h.handleLogins)

	mux.HandleFunc("GET /persons", h.handleListPersons)
	mux.HandleFunc("POST /persons", h.handleCreatePerson)
	mux.HandleFunc("PUT /persons", h.handleUpdatePerson)
	mux.HandleFunc("GET /persons/{id}", h.handleGetPerson)
	mux.HandleFunc("DELETE /persons/{id}", h.handleDeletePerson)

	mux.HandleFunc("GET /ping", handlePing)
	mux.HandleFunc("GET /documentation", handleDocumentation)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}
}

func handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong!"))
}

// Middleware is an http.Handler decorator such as gate.Gate.Middleware.
type Middleware func(http.Handler) http.Handler

// Routes returns the full handler chain: request logging, panic recovery,
// CORS and then auth in front of the mux.
func (h *Handler) Routes(auth Middleware, allowedOrigin, authHeader string) http.Handler {
	mux := http.NewServeMux()
	h.Register(mux)

	var next http.Handler = mux
	if auth != nil {
		next = auth(next)
	}
	next = WithCORS(next, allowedOrigin, authHeader)
	next = WithRecover(next, h.logger)
	return WithRequestLogging(next, h.logger)
}
