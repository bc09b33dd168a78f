// Package middleware provides the HTTP authorization pipeline: bearer-token
// validation, claim extraction, step-up enforcement, rate limiting, and
// request correlation.
package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims holds the parsed claims from a validated bearer token.
type TokenClaims struct {
	Subject  string
	Issuer   string
	Audience []string
	Raw      map[string]interface{}
}

// TokenValidator validates a raw bearer credential and returns its claims.
// Implementations must reject unlisted signing algorithms, expired or
// not-yet-valid tokens (within the configured skew), wrong audiences, and
// issuers outside the allow-list.
type TokenValidator interface {
	Validate(ctx context.Context, tokenString string) (*TokenClaims, error)
}

// OIDCValidator validates tokens against a remote JWKS. The remote key set
// re-fetches on unknown key IDs, so overlapping keys during a rotation
// window are accepted without restarts.
type OIDCValidator struct {
	verifier       *oidc.IDTokenVerifier
	allowedIssuers map[string]bool
}

// HS256Validator validates tokens signed with a shared HS256 secret,
// intended for local development and tests.
type HS256Validator struct {
	secret         []byte
	audience       string
	allowedIssuers map[string]bool
	leeway         time.Duration
}

// NewOIDCValidator creates a validator from an OIDC issuer URL using
// .well-known discovery.
func NewOIDCValidator(ctx context.Context, issuerURL, audience string, allowedIssuers, algs []string, skew time.Duration) (*OIDCValidator, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc provider discovery: %w", err)
	}
	verifier := provider.Verifier(verifierConfig(audience, algs, skew))
	return &OIDCValidator{verifier: verifier, allowedIssuers: issuerSet(allowedIssuers, issuerURL)}, nil
}

// NewOIDCValidatorFromJWKS creates a validator from a JWKS URL (no OIDC discovery).
func NewOIDCValidatorFromJWKS(ctx context.Context, jwksURL, issuerURL, audience string, allowedIssuers, algs []string, skew time.Duration) *OIDCValidator {
	keySet := oidc.NewRemoteKeySet(ctx, jwksURL)
	verifier := oidc.NewVerifier(issuerURL, keySet, verifierConfig(audience, algs, skew))
	return &OIDCValidator{verifier: verifier, allowedIssuers: issuerSet(allowedIssuers, issuerURL)}
}

// verifierConfig builds the go-oidc verifier configuration. go-oidc exposes
// no leeway knob; shifting its clock back by the skew tolerates recently
// expired tokens the same way jwt.WithLeeway does on the HS256 path.
func verifierConfig(audience string, algs []string, skew time.Duration) *oidc.Config {
	cfg := &oidc.Config{
		ClientID:             audience,
		SupportedSigningAlgs: algs,
	}
	if skew > 0 {
		cfg.Now = func() time.Time { return time.Now().Add(-skew) }
	}
	return cfg
}

// NewHS256Validator creates a validator for local/dev HS256 tokens.
func NewHS256Validator(secret, audience string, allowedIssuers []string, leeway time.Duration) (*HS256Validator, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	return &HS256Validator{
		secret:         []byte(secret),
		audience:       audience,
		allowedIssuers: issuerSet(allowedIssuers, ""),
		leeway:         leeway,
	}, nil
}

func issuerSet(allowed []string, fallback string) map[string]bool {
	set := make(map[string]bool, len(allowed))
	for _, iss := range allowed {
		set[iss] = true
	}
	if len(set) == 0 && fallback != "" {
		set[fallback] = true
	}
	return set
}

// Validate verifies the token using the remote JWKS.
func (v *OIDCValidator) Validate(ctx context.Context, tokenString string) (*TokenClaims, error) {
	idToken, err := v.verifier.Verify(ctx, tokenString)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	// Check issuer against allowlist.
	if len(v.allowedIssuers) > 0 && !v.allowedIssuers[idToken.Issuer] {
		return nil, fmt.Errorf("issuer %q not in allowed list", idToken.Issuer)
	}

	var raw map[string]interface{}
	if err := idToken.Claims(&raw); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}

	return &TokenClaims{
		Subject:  idToken.Subject,
		Issuer:   idToken.Issuer,
		Audience: idToken.Audience,
		Raw:      raw,
	}, nil
}

// Validate verifies a token signed with HS256 and extracts claims.
func (v *HS256Validator) Validate(_ context.Context, tokenString string) (*TokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	tok, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method == nil || token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	raw, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("parse claims: unsupported claim type %T", tok.Claims)
	}

	claims := &TokenClaims{Raw: map[string]interface{}(raw)}
	if sub, ok := raw["sub"].(string); ok {
		claims.Subject = sub
	}
	if iss, ok := raw["iss"].(string); ok {
		claims.Issuer = iss
	}
	if len(v.allowedIssuers) > 0 && !v.allowedIssuers[claims.Issuer] {
		return nil, fmt.Errorf("issuer %q not in allowed list", claims.Issuer)
	}

	switch aud := raw["aud"].(type) {
	case string:
		claims.Audience = []string{aud}
	case []interface{}:
		for _, a := range aud {
			if s, ok := a.(string); ok {
				claims.Audience = append(claims.Audience, s)
			}
		}
	}

	return claims, nil
}
