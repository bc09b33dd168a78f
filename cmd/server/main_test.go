package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MonkeyElite/Production-Planner/internal/config"
	internaldb "github.com/MonkeyElite/Production-Planner/internal/db"
	"github.com/MonkeyElite/Production-Planner/internal/db/repository"
	"github.com/MonkeyElite/Production-Planner/internal/domain"
	"github.com/MonkeyElite/Production-Planner/internal/middleware"
)

func TestSeedInventory_Idempotent(t *testing.T) {
	writeDB, readDB := internaldb.OpenTestSQLite(t)
	products := repository.NewProductRepo(writeDB, readDB)
	lines := repository.NewLineRepo(writeDB, readDB)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	require.NoError(t, seedInventory(ctx, products, lines, logger))
	require.NoError(t, seedInventory(ctx, products, lines, logger))

	tenantA := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	tenantB := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	_, totalA, err := products.List(ctx, tenantA, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), totalA)

	_, totalB, err := products.List(ctx, tenantB, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), totalB)

	lineList, _, err := lines.List(ctx, tenantA, domain.PageRequest{})
	require.NoError(t, err)
	require.Len(t, lineList, 1)

	line, err := lines.GetByID(ctx, tenantA, lineList[0].ID)
	require.NoError(t, err)
	assert.Len(t, line.ProductIDs, 1)
}

func TestBuildValidator_HS256Fallback(t *testing.T) {
	cfg := &config.Config{Auth: config.AuthConfig{JWTSecret: "dev-secret"}}

	v, err := buildValidator(context.Background(), cfg)
	require.NoError(t, err)
	_, ok := v.(*middleware.HS256Validator)
	assert.True(t, ok)
}

func TestBuildValidator_JWKSPreferred(t *testing.T) {
	cfg := &config.Config{Auth: config.AuthConfig{
		JWKSURL:   "https://issuer.test/jwks.json",
		IssuerURL: "https://issuer.test",
		Audience:  "planner-api",
	}}

	v, err := buildValidator(context.Background(), cfg)
	require.NoError(t, err)
	_, ok := v.(*middleware.OIDCValidator)
	assert.True(t, ok)
}
