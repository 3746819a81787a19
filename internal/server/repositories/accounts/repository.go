// Package accounts is the credential store: account rows holding the
// username, password hash and current session identifier.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/peoplebook/internal/server/models"
)

type Repository interface {
	// Create inserts a new account with an empty session identifier.
	// A taken username yields common.ErrorAlreadyExists.
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	Exists(ctx context.Context, username string) (bool, error)
	// SetSessionID overwrites the session identifier; "" clears it.
	SetSessionID(ctx context.Context, id int64, sessionID string) error
	// Update stores a new username and password hash.
	Update(ctx context.Context, account *models.Account) error
	Delete(ctx context.Context, id int64) (*models.Account, error)
}
