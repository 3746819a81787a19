package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/dmitrijs2005/peoplebook/internal/common"
	"github.com/dmitrijs2005/peoplebook/internal/logging"
	"github.com/dmitrijs2005/peoplebook/internal/server/models"
	"github.com/dmitrijs2005/peoplebook/internal/server/repositories/repomanager"
)

// PersonInput carries the client-editable fields of a person record.
type PersonInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

func (in PersonInput) validate() error {
	if strings.TrimSpace(in.FirstName) == "" {
		return fmt.Errorf("%w: first_name is required", common.ErrorValidation)
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return fmt.Errorf("%w: invalid email", common.ErrorValidation)
		}
	}
	return nil
}

// PersonService is plain CRUD over the person records of one account at a
// time. Records of other accounts behave as missing.
type PersonService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewPersonService(db *sql.DB, rm repomanager.RepositoryManager, l logging.Logger) *PersonService {
	return &PersonService{db: db, repomanager: rm, logger: l.With("module", "person_service")}
}

func (s *PersonService) Create(ctx context.Context, accountID int64, in PersonInput) (*models.Person, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := &models.Person{
		AccountID: accountID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.Phone,
	}
	created, err := s.repomanager.Persons(s.db).Create(ctx, p)
	if err != nil {
		return nil, s.internal(ctx, "person create failed", accountID, err)
	}
	return created, nil
}

func (s *PersonService) Get(ctx context.Context, accountID, id int64) (*models.Person, error) {
	p, err := s.repomanager.Persons(s.db).Get(ctx, accountID, id)
	if err != nil {
		return nil, s.mapErr(ctx, "person lookup failed", accountID, err)
	}
	return p, nil
}

func (s *PersonService) List(ctx context.Context, accountID int64) ([]*models.Person, error) {
	list, err := s.repomanager.Persons(s.db).List(ctx, accountID)
	if err != nil {
		return nil, s.internal(ctx, "person list failed", accountID, err)
	}
	return list, nil
}

func (s *PersonService) Update(ctx context.Context, accountID, id int64, in PersonInput) (*models.Person, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: id is required", common.ErrorValidation)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := &models.Person{
		ID:        id,
		AccountID: accountID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.Phone,
	}
	updated, err := s.repomanager.Persons(s.db).Update(ctx, p)
	if err != nil {
		return nil, s.mapErr(ctx, "person update failed", accountID, err)
	}
	return updated, nil
}

func (s *PersonService) Delete(ctx context.Context, accountID, id int64) error {
	if err := s.repomanager.Persons(s.db).Delete(ctx, accountID, id); err != nil {
		return s.mapErr(ctx, "person delete failed", accountID, err)
	}
	return nil
}

func (s *PersonService) mapErr(ctx context.Context, msg string, accountID int64, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	return s.internal(ctx, msg, accountID, err)
}

func (s *PersonService) internal(ctx context.Context, msg string, accountID int64, err error) error {
	s.logger.Error(ctx, msg, "account_id", accountID, "error", err)
	return common.ErrorInternal
}
