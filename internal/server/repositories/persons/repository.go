// Package persons stores the contact records owned by accounts. Every query
// is scoped by the owning account id.
package persons

import (
	"context"

	"github.com/dmitrijs2005/peoplebook/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, person *models.Person) (*models.Person, error)
	Get(ctx context.Context, accountID, id int64) (*models.Person, error)
	List(ctx context.Context, accountID int64) ([]*models.Person, error)
	Update(ctx context.Context, person *models.Person) (*models.Person, error)
	Delete(ctx context.Context, accountID, id int64) error
	// DeleteAll removes every record of the account and returns how many went.
	DeleteAll(ctx context.Context, accountID int64) (int64, error)
}
