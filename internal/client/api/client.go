// Package api is a small HTTP client for the peoplebook server. It keeps the
// session token returned by Login and sends it on every later call.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/peoplebook/internal/server/models"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// Error is a non-2xx answer from the server.
type Error struct {
	Status  int
	Message string
	Reason  string
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%d %s (%s)", e.Status, e.Message, e.Reason)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

// Is lets callers match on ErrUnauthorized and ErrNotFound.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

type Session struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Person struct {
	ID        int64  `json:"id,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(t string) {
	c.mu.Lock()
	c.token = t
	c.mu.Unlock()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/ping", nil, nil)
}

// Signup reports whether a new account was created; an existing username
// is not an error.
func (c *Client) Signup(ctx context.Context, username, password string) (bool, error) {
	var status int
	err := c.doStatus(ctx, http.MethodPost, "/auth/signup", credentials{username, password}, nil, &status)
	return status == http.StatusCreated, err
}

func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/auth/login", credentials{username, password}, &s); err != nil {
		return nil, err
	}
	c.setToken(s.Token)
	return &s, nil
}

// Logout ends the session on the server and forgets the local token.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.setToken("")
	return err
}

func (c *Client) Me(ctx context.Context) (*models.Account, error) {
	var a models.Account
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) ListPersons(ctx context.Context) ([]Person, error) {
	var out []Person
	if err := c.do(ctx, http.MethodGet, "/persons", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreatePerson(ctx context.Context, p Person) (*Person, error) {
	var out Person
	if err := c.do(ctx, http.MethodPost, "/persons", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetPerson(ctx context.Context, id int64) (*Person, error) {
	var out Person
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/persons/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeletePerson(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/persons/%d", id), nil, nil)
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	return c.doStatus(ctx, method, path, in, out, nil)
}

func (c *Client) doStatus(ctx context.Context, method, path string, in, out any, status *int) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if status != nil {
		*status = resp.StatusCode
	}

	if resp.StatusCode >= 300 {
		apiErr := &Error{Status: resp.StatusCode}
		var payload struct {
			Message string `json:"message"`
			Reason  string `json:"reason"`
		}
		if json.NewDecoder(resp.Body).Decode(&payload) == nil {
			apiErr.Message, apiErr.Reason = payload.Message, payload.Reason
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
