package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/peoplebook/internal/common"
	"github.com/dmitrijs2005/peoplebook/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPersonService(t *testing.T) (*PersonService, *memStore) {
	t.Helper()
	store := newMemStore()
	return NewPersonService(nil, fakeRepoManager{store}, logging.Nop()), store
}

func TestPersonService_CRUD(t *testing.T) {
	svc, _ := newPersonService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, PersonInput{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.AccountID)
	assert.NotZero(t, created.ID)

	got, err := svc.Get(ctx, 1, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lovelace", got.LastName)

	updated, err := svc.Update(ctx, 1, created.ID, PersonInput{FirstName: "Ada", LastName: "King", Phone: "+44 20"})
	require.NoError(t, err)
	assert.Equal(t, "King", updated.LastName)
	assert.Equal(t, "+44 20", updated.Phone)

	list, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, 1, created.ID))
	_, err = svc.Get(ctx, 1, created.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPersonService_OtherAccountsRecordsLookMissing(t *testing.T) {
	svc, _ := newPersonService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, 1, PersonInput{FirstName: "Ada"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, 2, p.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = svc.Update(ctx, 2, p.ID, PersonInput{FirstName: "Eve"})
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, 2, p.ID), common.ErrorNotFound)

	list, err := svc.List(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPersonService_Validation(t *testing.T) {
	svc, _ := newPersonService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, PersonInput{LastName: "NoFirst"})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = svc.Create(ctx, 1, PersonInput{FirstName: "A", Email: "not-an-email"})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = svc.Update(ctx, 1, 0, PersonInput{FirstName: "A"})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestPersonService_StoreFailureIsInternal(t *testing.T) {
	svc, store := newPersonService(t)
	store.failPersons = errBoom
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, PersonInput{FirstName: "Ada"})
	assert.ErrorIs(t, err, common.ErrorInternal)
	_, err = svc.List(ctx, 1)
	assert.ErrorIs(t, err, common.ErrorInternal)
	_, err = svc.Get(ctx, 1, 1)
	assert.ErrorIs(t, err, common.ErrorInternal)
}
