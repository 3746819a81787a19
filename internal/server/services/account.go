// Package services contains server-side business logic. This file implements
// AccountService, the session manager: signup, login, logout and the
// per-request session validity check that lets a stateless token be revoked.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/peoplebook/internal/common"
	"github.com/dmitrijs2005/peoplebook/internal/dbx"
	"github.com/dmitrijs2005/peoplebook/internal/logging"
	"github.com/dmitrijs2005/peoplebook/internal/server/auth"
	"github.com/dmitrijs2005/peoplebook/internal/server/metrics"
	"github.com/dmitrijs2005/peoplebook/internal/server/models"
	"github.com/dmitrijs2005/peoplebook/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// PasswordHasher is implemented by password.Hasher.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// TokenIssuer is implemented by auth.Codec.
type TokenIssuer interface {
	Issue(accountID int64, username, sessionID string) (string, auth.Claims, error)
}

// SignupResult tells a created account apart from an existing one. Both are
// successful outcomes.
type SignupResult int

const (
	SignupCreated SignupResult = iota + 1
	SignupAlreadyRegistered
)

func (r SignupResult) String() string {
	switch r {
	case SignupCreated:
		return "created"
	case SignupAlreadyRegistered:
		return "already_registered"
	default:
		return "unknown"
	}
}

// LoginResult is handed back to a client after a successful login.
type LoginResult struct {
	Token     string
	AccountID int64
	ExpiresAt time.Time
}

// DeleteResult describes what an account deletion removed.
type DeleteResult struct {
	Username       string
	DeletedPersons int64
}

// AccountService provides the account and session operations.
type AccountService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	hasher       PasswordHasher
	tokens       TokenIssuer
	metrics      *metrics.Metrics
	logger       logging.Logger
	newSessionID func() string
	now          func() time.Time
}

// NewAccountService wires the session manager. m may be nil.
func NewAccountService(db *sql.DB, rm repomanager.RepositoryManager, hasher PasswordHasher, tokens TokenIssuer, m *metrics.Metrics, l logging.Logger) *AccountService {
	return &AccountService{
		db:           db,
		repomanager:  rm,
		hasher:       hasher,
		tokens:       tokens,
		metrics:      m,
		logger:       l.With("module", "account_service"),
		newSessionID: uuid.NewString,
		now:          time.Now,
	}
}

// Signup registers username with password. An existing username is reported
// as SignupAlreadyRegistered with a nil error.
func (s *AccountService) Signup(ctx context.Context, username, password string) (SignupResult, error) {
	if err := validateCredentials(username, password); err != nil {
		return 0, err
	}

	repo := s.repomanager.Accounts(s.db)

	exists, err := repo.Exists(ctx, username)
	if err != nil {
		s.logger.Error(ctx, "signup lookup failed", "error", err)
		return 0, common.ErrorInternal
	}
	if exists {
		return SignupAlreadyRegistered, nil
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, common.ErrorValidation) {
			return 0, err
		}
		s.logger.Error(ctx, "password hashing failed", "error", err)
		return 0, common.ErrorInternal
	}

	account, err := repo.Create(ctx, &models.Account{Username: username, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return SignupAlreadyRegistered, nil
		}
		s.logger.Error(ctx, "account insert failed", "error", err)
		return 0, common.ErrorInternal
	}

	s.logger.Info(ctx, "account registered", "account_id", account.ID)
	return SignupCreated, nil
}

// Login checks the credentials, starts a new session for the account
// (superseding any previous one) and returns a token bound to it. Unknown
// usernames and wrong passwords both yield common.ErrorUnauthorized.
func (s *AccountService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	res, err := s.login(ctx, username, password)
	switch {
	case err == nil:
		s.metrics.Login("success")
	case errors.Is(err, common.ErrorUnauthorized):
		s.metrics.Login("failure")
	default:
		s.metrics.Login("error")
	}
	return res, err
}

func (s *AccountService) login(ctx context.Context, username, password string) (*LoginResult, error) {
	repo := s.repomanager.Accounts(s.db)

	account, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "login lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	if account.PasswordHash == "" {
		s.logger.Warn(ctx, "account has no password hash", "account_id", account.ID)
		return nil, common.ErrorUnauthorized
	}
	if !s.hasher.Verify(password, account.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}

	// The token is built from the identifier this call persisted, so a racing
	// login can supersede it but never hand this caller a mismatched token.
	sessionID := s.newSessionID()
	if err := repo.SetSessionID(ctx, account.ID, sessionID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "session persist failed", "account_id", account.ID, "error", err)
		return nil, common.ErrorInternal
	}

	token, claims, err := s.tokens.Issue(account.ID, account.Username, sessionID)
	if err != nil {
		s.logger.Error(ctx, "token issue failed", "account_id", account.ID, "error", err)
		return nil, common.ErrorInternal
	}

	if _, err := s.repomanager.LoginEvents(s.db).Append(ctx, account.ID, s.now()); err != nil {
		s.logger.Warn(ctx, "login event not recorded", "account_id", account.ID, "error", err)
	}

	s.logger.Info(ctx, "login succeeded", "account_id", account.ID)
	return &LoginResult{
		Token:     token,
		AccountID: account.ID,
		ExpiresAt: time.Unix(claims.ExpiresAt, 0).UTC(),
	}, nil
}

// Logout ends the account's session. Logging out twice, or logging out an
// account that no longer exists, is not an error.
func (s *AccountService) Logout(ctx context.Context, accountID int64) error {
	err := s.repomanager.Accounts(s.db).SetSessionID(ctx, accountID, "")
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		s.logger.Error(ctx, "logout failed", "account_id", accountID, "error", err)
		return common.ErrorInternal
	}
	s.logger.Info(ctx, "logged out", "account_id", accountID)
	return nil
}

// IsSessionValid reports whether claims still name the account's current
// session. It does not look at expiry. A store failure is returned as an
// error, never as false.
func (s *AccountService) IsSessionValid(ctx context.Context, claims auth.Claims) (bool, error) {
	if claims.SessionID == "" {
		return false, nil
	}

	account, err := s.repomanager.Accounts(s.db).GetByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("session lookup: %w", err)
	}

	if account.Username != claims.Subject || !account.HasSession() {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(account.SessionID), []byte(claims.SessionID)) == 1, nil
}

// Account returns the account with the given id.
func (s *AccountService) Account(ctx context.Context, accountID int64) (*models.Account, error) {
	account, err := s.repomanager.Accounts(s.db).GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "account lookup failed", "account_id", accountID, "error", err)
		return nil, common.ErrorInternal
	}
	return account, nil
}

// Update changes the username and/or password of an account; empty values
// keep the current ones. Renaming invalidates the current session, because
// the token subject no longer matches.
func (s *AccountService) Update(ctx context.Context, accountID int64, username, password string) (*models.Account, error) {
	if strings.TrimSpace(username) == "" && password == "" {
		return nil, fmt.Errorf("%w: nothing to update", common.ErrorValidation)
	}

	repo := s.repomanager.Accounts(s.db)
	account, err := s.Account(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if username != "" {
		if strings.TrimSpace(username) != username {
			return nil, fmt.Errorf("%w: username has surrounding spaces", common.ErrorValidation)
		}
		account.Username = username
	}
	if password != "" {
		hash, err := s.hasher.Hash(password)
		if err != nil {
			if errors.Is(err, common.ErrorValidation) {
				return nil, err
			}
			s.logger.Error(ctx, "password hashing failed", "error", err)
			return nil, common.ErrorInternal
		}
		account.PasswordHash = hash
	}

	if err := repo.Update(ctx, account); err != nil {
		switch {
		case errors.Is(err, common.ErrorAlreadyExists), errors.Is(err, common.ErrorNotFound):
			return nil, err
		default:
			s.logger.Error(ctx, "account update failed", "account_id", accountID, "error", err)
			return nil, common.ErrorInternal
		}
	}

	s.logger.Info(ctx, "account updated", "account_id", accountID)
	return account, nil
}

// Delete removes the account and all of its person records in one
// transaction. Tokens of the account stop validating once it is gone.
func (s *AccountService) Delete(ctx context.Context, accountID int64) (*DeleteResult, error) {
	result := &DeleteResult{}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := s.repomanager.Persons(tx).DeleteAll(ctx, accountID)
		if err != nil {
			return err
		}
		account, err := s.repomanager.Accounts(tx).Delete(ctx, accountID)
		if err != nil {
			return err
		}
		result.DeletedPersons = n
		result.Username = account.Username
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "account delete failed", "account_id", accountID, "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "account deleted", "account_id", accountID, "persons", result.DeletedPersons)
	return result, nil
}

// RecentLogins returns up to limit login events of the account, newest first.
func (s *AccountService) RecentLogins(ctx context.Context, accountID int64, limit int) ([]*models.LoginEvent, error) {
	switch {
	case limit <= 0:
		limit = 20
	case limit > 100:
		limit = 100
	}
	events, err := s.repomanager.LoginEvents(s.db).ListRecent(ctx, accountID, limit)
	if err != nil {
		s.logger.Error(ctx, "login history failed", "account_id", accountID, "error", err)
		return nil, common.ErrorInternal
	}
	return events, nil
}

func validateCredentials(username, password string) error {
	switch {
	case strings.TrimSpace(username) == "":
		return fmt.Errorf("%w: username is required", common.ErrorValidation)
	case strings.TrimSpace(username) != username:
		return fmt.Errorf("%w: username has surrounding spaces", common.ErrorValidation)
	case password == "":
		return fmt.Errorf("%w: password is required", common.ErrorValidation)
	}
	return nil
}
