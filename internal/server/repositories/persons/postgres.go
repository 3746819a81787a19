package persons

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/peoplebook/internal/common"
	"github.com/dmitrijs2005/peoplebook/internal/dbx"
	"github.com/dmitrijs2005/peoplebook/internal/server/models"
)

const columns = `id, account_id, first_name, last_name, email, phone, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Person) (*models.Person, error) {
	query :=
		`INSERT INTO persons (account_id, first_name, last_name, email, phone)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING ` + columns

	row := r.db.QueryRowContext(ctx, query, p.AccountID, p.FirstName, p.LastName, p.Email, p.Phone)
	return scanPerson(row)
}

func (r *PostgresRepository) Get(ctx context.Context, accountID, id int64) (*models.Person, error) {
	query := `SELECT ` + columns + ` FROM persons WHERE id = $1 AND account_id = $2`

	return scanPerson(r.db.QueryRowContext(ctx, query, id, accountID))
}

func (r *PostgresRepository) List(ctx context.Context, accountID int64) ([]*models.Person, error) {
	query := `SELECT ` + columns + ` FROM persons WHERE account_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Person, 0)
	for rows.Next() {
		p := &models.Person{}
		if err := rows.Scan(&p.ID, &p.AccountID, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, p *models.Person) (*models.Person, error) {
	query :=
		`UPDATE persons
		 SET first_name = $1, last_name = $2, email = $3, phone = $4, updated_at = now()
		 WHERE id = $5 AND account_id = $6
		 RETURNING ` + columns

	row := r.db.QueryRowContext(ctx, query, p.FirstName, p.LastName, p.Email, p.Phone, p.ID, p.AccountID)
	return scanPerson(row)
}

func (r *PostgresRepository) Delete(ctx context.Context, accountID, id int64) error {
	query := `DELETE FROM persons WHERE id = $1 AND account_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, accountID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context, accountID int64) (int64, error) {
	query := `DELETE FROM persons WHERE account_id = $1`

	res, err := r.db.ExecContext(ctx, query, accountID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func scanPerson(row *sql.Row) (*models.Person, error) {
	p := &models.Person{}
	err := row.Scan(&p.ID, &p.AccountID, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}
