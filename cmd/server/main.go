// Package main is the entry point for the planner backend server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/sync/errgroup"

	"github.com/MonkeyElite/Production-Planner/internal/api"
	"github.com/MonkeyElite/Production-Planner/internal/config"
	internaldb "github.com/MonkeyElite/Production-Planner/internal/db"
	"github.com/MonkeyElite/Production-Planner/internal/db/repository"
	"github.com/MonkeyElite/Production-Planner/internal/domain"
	"github.com/MonkeyElite/Production-Planner/internal/middleware"
	"github.com/MonkeyElite/Production-Planner/internal/service/inventory"
	"github.com/MonkeyElite/Production-Planner/internal/service/security"
)

// seedInventory populates two demo tenants so the multi-tenant isolation
// paths are exercisable out of the box. Idempotent: skips when any product
// rows already exist.
func seedInventory(ctx context.Context, products *repository.ProductRepo, lines *repository.LineRepo, logger *slog.Logger) error {
	tenantA := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	tenantB := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	existing, _, err := products.List(ctx, tenantA, domain.PageRequest{MaxResults: 1})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	widget, err := products.Create(ctx, &domain.Product{
		ID: domain.NewID(), OwnerID: tenantA, Name: "widget", SKU: "WID-001", Quantity: 100,
	})
	if err != nil {
		return err
	}
	if _, err := products.Create(ctx, &domain.Product{
		ID: domain.NewID(), OwnerID: tenantA, Name: "gadget", SKU: "GAD-001", Quantity: 25,
	}); err != nil {
		return err
	}
	if _, err := products.Create(ctx, &domain.Product{
		ID: domain.NewID(), OwnerID: tenantB, Name: "widget", SKU: "WID-B01", Quantity: 7,
	}); err != nil {
		return err
	}

	line, err := lines.Create(ctx, &domain.ProductionLine{
		ID: domain.NewID(), OwnerID: tenantA, Name: "assembly-1", Description: "Primary assembly line",
	})
	if err != nil {
		return err
	}
	if _, err := lines.AddProduct(ctx, tenantA, line.ID, widget.ID, -1); err != nil {
		return err
	}

	logger.Info("seeded demo inventory", "tenants", 2)
	return nil
}

// buildValidator picks the token validator from configuration: remote OIDC
// when an issuer or JWKS endpoint is configured, shared-secret HS256
// otherwise.
func buildValidator(ctx context.Context, cfg *config.Config) (middleware.TokenValidator, error) {
	auth := cfg.Auth
	if auth.JWKSURL != "" {
		return middleware.NewOIDCValidatorFromJWKS(ctx, auth.JWKSURL, auth.IssuerURL, auth.Audience, auth.AllowedIssuers, auth.AllowedAlgs, auth.ClockSkew), nil
	}
	if auth.IssuerURL != "" {
		return middleware.NewOIDCValidator(ctx, auth.IssuerURL, auth.Audience, auth.AllowedIssuers, auth.AllowedAlgs, auth.ClockSkew)
	}
	return middleware.NewHS256Validator(auth.JWTSecret, auth.Audience, auth.AllowedIssuers, auth.ClockSkew)
}

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Warn("could not load .env", "error", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	writeDB, readDB, err := internaldb.OpenSQLitePair(cfg.MetaDBPath, 4)
	if err != nil {
		return err
	}
	defer writeDB.Close()
	defer readDB.Close()

	// The store may still be coming up (shared volume, container ordering).
	// Retry with a hard ceiling; serving without it would answer every
	// request with a 500.
	if err := internaldb.WaitReady(ctx, writeDB, cfg.StartupRetryAttempts, cfg.StartupRetryBackoff, logger); err != nil {
		return err
	}

	if err := internaldb.RunMigrations(writeDB); err != nil {
		return err
	}

	// Mutations serialize on the single-connection write pool; reads fan out
	// over the read pool.
	productRepo := repository.NewProductRepo(writeDB, readDB)
	lineRepo := repository.NewLineRepo(writeDB, readDB)

	if err := seedInventory(ctx, productRepo, lineRepo, logger); err != nil {
		return err
	}

	authz := security.NewAuthorizer(cfg.Policy)
	handler := api.NewHandler(
		inventory.NewProductService(productRepo, authz),
		inventory.NewLineService(lineRepo, authz),
		logger,
	)

	validator, err := buildValidator(ctx, cfg)
	if err != nil {
		return err
	}

	router := api.NewRouter(handler, api.RouterOptions{
		Validator:  validator,
		OwnerClaim: cfg.Auth.OwnerClaim,
		StepUp: middleware.StepUpConfig{
			PathPrefixes:     cfg.Policy.StepUpPathPrefixes,
			AuthMethods:      cfg.Policy.StepUpAuthMethods,
			AuthContextClass: cfg.Policy.StepUpAuthContextClass,
		},
		RateLimit: middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		},
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:             logger,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", cfg.ListenAddr, "env", cfg.Env)
		var err error
		if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
			err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
