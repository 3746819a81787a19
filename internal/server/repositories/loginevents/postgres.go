package loginevents

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/dmitrijs2005/peoplebook/internal/dbx"
	"github.com/dmitrijs2005/peoplebook/internal/server/models"
	"github.com/oklog/ulid/v2"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append records a login at the given time. Event ids are ULIDs so they sort
// by login time.
func (r *PostgresRepository) Append(ctx context.Context, accountID int64, at time.Time) (*models.LoginEvent, error) {
	id, err := ulid.New(ulid.Timestamp(at), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("event id: %w", err)
	}

	query :=
		`INSERT INTO login_events (id, account_id, logged_in_at)
		 VALUES ($1, $2, $3)`

	ev := &models.LoginEvent{ID: id.String(), AccountID: accountID, LoggedInAt: at}
	if _, err := r.db.ExecContext(ctx, query, ev.ID, ev.AccountID, ev.LoggedInAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ev, nil
}

func (r *PostgresRepository) ListRecent(ctx context.Context, accountID int64, limit int) ([]*models.LoginEvent, error) {
	query :=
		`SELECT id, account_id, logged_in_at FROM login_events
		 WHERE account_id = $1
		 ORDER BY id DESC
		 LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.LoginEvent, 0, limit)
	for rows.Next() {
		ev := &models.LoginEvent{}
		if err := rows.Scan(&ev.ID, &ev.AccountID, &ev.LoggedInAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
