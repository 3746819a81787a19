// Package loginevents keeps the append-only login history of accounts.
package loginevents

import (
	"context"
	"time"

	"github.com/dmitrijs2005/peoplebook/internal/server/models"
)

type Repository interface {
	Append(ctx context.Context, accountID int64, at time.Time) (*models.LoginEvent, error)
	ListRecent(ctx context.Context, accountID int64, limit int) ([]*models.LoginEvent, error)
}
