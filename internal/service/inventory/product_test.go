package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MonkeyElite/Production-Planner/internal/config"
	internaldb "github.com/MonkeyElite/Production-Planner/internal/db"
	"github.com/MonkeyElite/Production-Planner/internal/db/repository"
	"github.com/MonkeyElite/Production-Planner/internal/domain"
	"github.com/MonkeyElite/Production-Planner/internal/service/security"
)

func setupServices(t *testing.T) (*ProductService, *LineService) {
	t.Helper()
	writeDB, readDB := internaldb.OpenTestSQLite(t)
	authz := security.NewAuthorizer(config.PolicyConfig{
		ReadScope:         "products.read",
		WriteRole:         "planner",
		StepUpAuthMethods: []string{"mfa", "otp", "hwk"},
	})
	return NewProductService(repository.NewProductRepo(writeDB, readDB), authz),
		NewLineService(repository.NewLineRepo(writeDB, readDB), authz)
}

func writer(owner uuid.UUID) domain.Principal {
	return domain.Principal{
		Subject: "writer",
		OwnerID: owner,
		Scopes:  []string{"products.read"},
		Roles:   []string{"planner"},
	}
}

func reader(owner uuid.UUID) domain.Principal {
	return domain.Principal{
		Subject: "reader",
		OwnerID: owner,
		Scopes:  []string{"products.read"},
	}
}

func TestProductService_CreateAndGet(t *testing.T) {
	products, _ := setupServices(t)
	ctx := context.Background()
	owner := uuid.New()

	created, err := products.Create(ctx, writer(owner), domain.CreateProductRequest{
		Name: "widget", SKU: "W-1", Quantity: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, owner, created.OwnerID)
	assert.Equal(t, int64(1), created.Version)

	got, err := products.Get(ctx, reader(owner), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "widget", got.Name)
}

func TestProductService_ReadScopeDoesNotGrantWrites(t *testing.T) {
	products, _ := setupServices(t)
	ctx := context.Background()

	_, err := products.Create(ctx, reader(uuid.New()), domain.CreateProductRequest{Name: "widget"})

	var denied *domain.AccessDeniedError
	assert.ErrorAs(t, err, &denied)
}

func TestProductService_AnonymousIsUnauthenticated(t *testing.T) {
	products, _ := setupServices(t)
	ctx := context.Background()

	_, err := products.Get(ctx, domain.Anonymous, domain.NewID())
	var unauthenticated *domain.UnauthenticatedError
	assert.ErrorAs(t, err, &unauthenticated)
}

func TestProductService_CrossOwnerGetIsNotFound(t *testing.T) {
	products, _ := setupServices(t)
	ctx := context.Background()

	created, err := products.Create(ctx, writer(uuid.New()), domain.CreateProductRequest{Name: "widget"})
	require.NoError(t, err)

	_, err = products.Get(ctx, reader(uuid.New()), created.ID)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestProductService_ListScopedToOwner(t *testing.T) {
	products, _ := setupServices(t)
	ctx := context.Background()
	owner := uuid.New()

	_, err := products.Create(ctx, writer(owner), domain.CreateProductRequest{Name: "mine"})
	require.NoError(t, err)
	_, err = products.Create(ctx, writer(uuid.New()), domain.CreateProductRequest{Name: "theirs"})
	require.NoError(t, err)

	got, total, err := products.List(ctx, reader(owner), domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, got, 1)
	assert.Equal(t, "mine", got[0].Name)
}

func TestProductService_NoOwnerClaimSeesNothing(t *testing.T) {
	products, _ := setupServices(t)
	ctx := context.Background()

	created, err := products.Create(ctx, writer(uuid.New()), domain.CreateProductRequest{Name: "widget"})
	require.NoError(t, err)

	// Valid token, read scope, but no resolvable owner identity.
	ownerless := domain.Principal{Subject: "u1", Scopes: []string{"products.read"}}

	_, err = products.Get(ctx, ownerless, created.ID)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	got, total, err := products.List(ctx, ownerless, domain.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, total)
}

func TestProductService_ConditionalUpdate(t *testing.T) {
	products, _ := setupServices(t)
	ctx := context.Background()
	owner := uuid.New()

	created, err := products.Create(ctx, writer(owner), domain.CreateProductRequest{Name: "widget"})
	require.NoError(t, err)

	v1 := created.Version
	updated, err := products.Update(ctx, writer(owner), created.ID, domain.UpdateProductRequest{
		Name: "widget", Quantity: 7, IfVersion: &v1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)

	// Replaying with the stale version fails without applying anything.
	_, err = products.Update(ctx, writer(owner), created.ID, domain.UpdateProductRequest{
		Name: "widget", Quantity: 99, IfVersion: &v1,
	})
	var stale *domain.PreconditionFailedError
	require.ErrorAs(t, err, &stale)

	got, err := products.Get(ctx, reader(owner), created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Quantity)
}

func TestProductService_UnconditionalUpdate(t *testing.T) {
	products, _ := setupServices(t)
	ctx := context.Background()
	owner := uuid.New()

	created, err := products.Create(ctx, writer(owner), domain.CreateProductRequest{Name: "widget"})
	require.NoError(t, err)

	updated, err := products.Update(ctx, writer(owner), created.ID, domain.UpdateProductRequest{
		Name: "widget", Quantity: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
}

func TestProductService_ValidationRejected(t *testing.T) {
	products, _ := setupServices(t)
	ctx := context.Background()

	_, err := products.Create(ctx, writer(uuid.New()), domain.CreateProductRequest{Name: ""})
	var invalid *domain.ValidationError
	assert.ErrorAs(t, err, &invalid)

	_, err = products.Create(ctx, writer(uuid.New()), domain.CreateProductRequest{Name: "x", Quantity: -1})
	assert.ErrorAs(t, err, &invalid)
}

func TestProductService_Delete(t *testing.T) {
	products, _ := setupServices(t)
	ctx := context.Background()
	owner := uuid.New()

	created, err := products.Create(ctx, writer(owner), domain.CreateProductRequest{Name: "widget"})
	require.NoError(t, err)

	// Readers cannot delete.
	err = products.Delete(ctx, reader(owner), created.ID, nil)
	var denied *domain.AccessDeniedError
	require.ErrorAs(t, err, &denied)

	require.NoError(t, products.Delete(ctx, writer(owner), created.ID, nil))

	_, err = products.Get(ctx, reader(owner), created.ID)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestProductService_ConditionalDelete(t *testing.T) {
	products, _ := setupServices(t)
	ctx := context.Background()
	owner := uuid.New()

	created, err := products.Create(ctx, writer(owner), domain.CreateProductRequest{Name: "widget"})
	require.NoError(t, err)

	// A stale version token must not delete anything.
	stale := int64(42)
	err = products.Delete(ctx, writer(owner), created.ID, &stale)
	var failed *domain.PreconditionFailedError
	require.ErrorAs(t, err, &failed)

	got, err := products.Get(ctx, reader(owner), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Version, got.Version)

	current := created.Version
	require.NoError(t, products.Delete(ctx, writer(owner), created.ID, &current))
}
