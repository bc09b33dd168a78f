package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "github.com/MonkeyElite/Production-Planner/internal/db"
	"github.com/MonkeyElite/Production-Planner/internal/domain"
)

func setupProductRepo(t *testing.T) *ProductRepo {
	t.Helper()
	writeDB, readDB := internaldb.OpenTestSQLite(t)
	return NewProductRepo(writeDB, readDB)
}

func newProduct(owner uuid.UUID, name string) *domain.Product {
	return &domain.Product{
		ID:       domain.NewID(),
		OwnerID:  owner,
		Name:     name,
		SKU:      "SKU-" + name,
		Quantity: 10,
	}
}

func TestProductRepo_CreateAndGet(t *testing.T) {
	repo := setupProductRepo(t)
	ctx := context.Background()
	owner := uuid.New()

	created, err := repo.Create(ctx, newProduct(owner, "widget"))
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "widget", created.Name)
	assert.Equal(t, owner, created.OwnerID)
	assert.Equal(t, int64(1), created.Version, "new rows start at version 1")
	assert.False(t, created.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "SKU-widget", got.SKU)
	assert.Equal(t, int64(10), got.Quantity)
}

func TestProductRepo_CrossOwnerReadsAsNotFound(t *testing.T) {
	repo := setupProductRepo(t)
	ctx := context.Background()

	ownerA := uuid.New()
	ownerB := uuid.New()

	created, err := repo.Create(ctx, newProduct(ownerA, "widget"))
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, ownerB, created.ID)
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)

	// The absent-id error is the same type with the same message.
	_, absentErr := repo.GetByID(ctx, ownerB, domain.NewID())
	var absentNotFound *domain.NotFoundError
	require.ErrorAs(t, absentErr, &absentNotFound)
	assert.Equal(t, absentNotFound.Error(), notFound.Error())
}

func TestProductRepo_DuplicateNamePerOwner(t *testing.T) {
	repo := setupProductRepo(t)
	ctx := context.Background()

	ownerA := uuid.New()
	ownerB := uuid.New()

	_, err := repo.Create(ctx, newProduct(ownerA, "widget"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, newProduct(ownerA, "widget"))
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)

	// Name uniqueness is per owner.
	_, err = repo.Create(ctx, newProduct(ownerB, "widget"))
	assert.NoError(t, err)
}

func TestProductRepo_UpdateCAS(t *testing.T) {
	repo := setupProductRepo(t)
	ctx := context.Background()
	owner := uuid.New()

	created, err := repo.Create(ctx, newProduct(owner, "widget"))
	require.NoError(t, err)

	created.Quantity = 25
	updated, err := repo.Update(ctx, created, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, int64(25), updated.Quantity)

	// Stale version loses.
	created.Quantity = 99
	_, err = repo.Update(ctx, created, 1)
	var stale *domain.PreconditionFailedError
	require.ErrorAs(t, err, &stale)

	// The failed attempt changed nothing.
	got, err := repo.GetByID(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(25), got.Quantity)
	assert.Equal(t, int64(2), got.Version)
}

func TestProductRepo_TwoWritersSameVersion(t *testing.T) {
	repo := setupProductRepo(t)
	ctx := context.Background()
	owner := uuid.New()

	created, err := repo.Create(ctx, newProduct(owner, "widget"))
	require.NoError(t, err)

	// Drive the row to version 7.
	p := created
	for range 6 {
		p.Quantity++
		p, err = repo.Update(ctx, p, p.Version)
		require.NoError(t, err)
	}
	require.Equal(t, int64(7), p.Version)

	// Two writers both read version 7; exactly one wins.
	first := *p
	second := *p
	first.Quantity = 100
	second.Quantity = 200

	winner, err := repo.Update(ctx, &first, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(8), winner.Version)

	_, err = repo.Update(ctx, &second, 7)
	var stale *domain.PreconditionFailedError
	require.ErrorAs(t, err, &stale)

	got, err := repo.GetByID(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.Quantity)
}

func TestProductRepo_UnconditionalUpdate(t *testing.T) {
	repo := setupProductRepo(t)
	ctx := context.Background()
	owner := uuid.New()

	created, err := repo.Create(ctx, newProduct(owner, "widget"))
	require.NoError(t, err)

	created.Quantity = 50
	updated, err := repo.Update(ctx, created, -1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version, "unconditional writes still advance the version")
	assert.Equal(t, int64(50), updated.Quantity)
}

func TestProductRepo_UpdateCrossOwnerIsNotFound(t *testing.T) {
	repo := setupProductRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, newProduct(uuid.New(), "widget"))
	require.NoError(t, err)

	foreign := *created
	foreign.OwnerID = uuid.New()
	_, err = repo.Update(ctx, &foreign, 1)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound, "never a precondition failure for another owner's row")
}

func TestProductRepo_ListPagination(t *testing.T) {
	repo := setupProductRepo(t)
	ctx := context.Background()
	owner := uuid.New()
	other := uuid.New()

	for i := range 5 {
		_, err := repo.Create(ctx, newProduct(owner, "widget-"+string(rune('a'+i))))
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, newProduct(other, "foreign"))
	require.NoError(t, err)

	page, total, err := repo.List(ctx, owner, domain.PageRequest{MaxResults: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total, "total counts only the caller's rows")
	assert.Len(t, page, 3)

	rest, _, err := repo.List(ctx, owner, domain.PageRequest{MaxResults: 3, PageToken: "3"})
	require.NoError(t, err)
	assert.Len(t, rest, 2)
}

func TestProductRepo_Delete(t *testing.T) {
	repo := setupProductRepo(t)
	ctx := context.Background()
	owner := uuid.New()

	created, err := repo.Create(ctx, newProduct(owner, "widget"))
	require.NoError(t, err)

	// Another owner cannot delete it.
	err = repo.Delete(ctx, uuid.New(), created.ID, -1)
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)

	require.NoError(t, repo.Delete(ctx, owner, created.ID, -1))

	_, err = repo.GetByID(ctx, owner, created.ID)
	assert.ErrorAs(t, err, &notFound)
}

func TestProductRepo_DeleteCAS(t *testing.T) {
	repo := setupProductRepo(t)
	ctx := context.Background()
	owner := uuid.New()

	created, err := repo.Create(ctx, newProduct(owner, "widget"))
	require.NoError(t, err)

	// A stale version must not delete the row.
	err = repo.Delete(ctx, owner, created.ID, 99)
	var stale *domain.PreconditionFailedError
	require.ErrorAs(t, err, &stale)

	got, err := repo.GetByID(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)

	// The current version deletes it.
	require.NoError(t, repo.Delete(ctx, owner, created.ID, 1))
	_, err = repo.GetByID(ctx, owner, created.ID)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
