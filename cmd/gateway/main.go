// Package main is the entry point for the planner edge gateway.
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

	"golang.org/x/sync/errgroup"

	"github.com/MonkeyElite/Production-Planner/internal/config"
	"github.com/MonkeyElite/Production-Planner/internal/gateway"
	"github.com/MonkeyElite/Production-Planner/internal/middleware"
)

func main() {
	if err := run(); err != nil {
		slog.Error("gateway exited", "error", err)
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

	validator, err := buildValidator(ctx, cfg)
	if err != nil {
		return err
	}

	handler, err := gateway.New(gateway.Options{
		BackendURL: cfg.BackendURL,
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
		Logger: logger,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.GatewayListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("gateway listening", "addr", cfg.GatewayListenAddr, "backend", cfg.BackendURL)
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

// buildValidator mirrors the backend's selection so both tiers accept exactly
// the same credentials.
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
