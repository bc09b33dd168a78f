package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable the loader reads so tests are hermetic.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"META_DB_PATH", "LISTEN_ADDR", "GATEWAY_LISTEN_ADDR", "BACKEND_URL",
		"TLS_CERT_FILE", "TLS_KEY_FILE", "ALLOW_INSECURE_HTTP", "LOG_LEVEL", "ENV",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"STARTUP_RETRY_ATTEMPTS", "STARTUP_RETRY_BACKOFF",
		"CORS_ALLOWED_ORIGINS",
		"AUTH_ISSUER_URL", "AUTH_JWKS_URL", "JWT_SECRET", "AUTH_AUDIENCE",
		"AUTH_ALLOWED_ISSUERS", "AUTH_ALLOWED_ALGS", "AUTH_CLOCK_SKEW", "AUTH_OWNER_CLAIM",
		"POLICY_READ_SCOPE", "POLICY_WRITE_ROLE", "POLICY_WRITE_SCOPE",
		"POLICY_STEP_UP_PREFIXES", "POLICY_STEP_UP_AMR", "POLICY_STEP_UP_ACR",
		"POLICY_FILE",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "planner_meta.sqlite", cfg.MetaDBPath)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, ":8443", cfg.GatewayListenAddr)
	assert.Equal(t, "http://localhost:8080", cfg.BackendURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.InDelta(t, 100.0, cfg.RateLimitRPS, 0.001)
	assert.Equal(t, 200, cfg.RateLimitBurst)
	assert.Equal(t, 10, cfg.StartupRetryAttempts)
	assert.Equal(t, time.Second, cfg.StartupRetryBackoff)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)

	assert.Equal(t, 2*time.Minute, cfg.Auth.ClockSkew)
	assert.Equal(t, []string{"RS256", "ES256"}, cfg.Auth.AllowedAlgs)
	assert.Equal(t, "owner_id", cfg.Auth.OwnerClaim)

	assert.Equal(t, "products.read", cfg.Policy.ReadScope)
	assert.Equal(t, "planner", cfg.Policy.WriteRole)
	assert.Equal(t, []string{"/v1/products", "/v1/lines"}, cfg.Policy.StepUpPathPrefixes)
	assert.Equal(t, []string{"mfa", "otp", "hwk"}, cfg.Policy.StepUpAuthMethods)

	// Dev fallback secret is applied with a warning when no auth is configured.
	assert.NotEmpty(t, cfg.Auth.JWTSecret)
	assert.NotEmpty(t, cfg.Warnings)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("RATE_LIMIT_RPS", "5.5")
	t.Setenv("RATE_LIMIT_BURST", "20")
	t.Setenv("JWT_SECRET", "unit-test-secret")
	t.Setenv("AUTH_CLOCK_SKEW", "30s")
	t.Setenv("AUTH_ALLOWED_ALGS", "RS256")
	t.Setenv("POLICY_WRITE_ROLE", "supervisor")
	t.Setenv("POLICY_STEP_UP_AMR", "mfa, hwk")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.InDelta(t, 5.5, cfg.RateLimitRPS, 0.001)
	assert.Equal(t, 20, cfg.RateLimitBurst)
	assert.Equal(t, "unit-test-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 30*time.Second, cfg.Auth.ClockSkew)
	assert.Equal(t, []string{"RS256"}, cfg.Auth.AllowedAlgs)
	assert.Equal(t, "supervisor", cfg.Policy.WriteRole)
	assert.Equal(t, []string{"mfa", "hwk"}, cfg.Policy.StepUpAuthMethods)
}

func TestLoadFromEnv_PolicyFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "unit-test-secret")

	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
read_scope: inventory.read
write_role: foreman
step_up_path_prefixes:
  - /v1/lines
step_up_auth_context_class: urn:acr:strong
`), 0o600))
	t.Setenv("POLICY_FILE", path)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "inventory.read", cfg.Policy.ReadScope)
	assert.Equal(t, "foreman", cfg.Policy.WriteRole)
	assert.Equal(t, []string{"/v1/lines"}, cfg.Policy.StepUpPathPrefixes)
	assert.Equal(t, "urn:acr:strong", cfg.Policy.StepUpAuthContextClass)
	// Values absent from the file keep their defaults.
	assert.Equal(t, []string{"mfa", "otp", "hwk"}, cfg.Policy.StepUpAuthMethods)
}

func TestLoadFromEnv_PolicyFileMalformed(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "unit-test-secret")

	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("read_scope: [not: valid"), 0o600))
	t.Setenv("POLICY_FILE", path)

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse policy file")
}

func TestLoadFromEnv_TLSPairRequired(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "unit-test-secret")
	t.Setenv("TLS_CERT_FILE", "/tmp/cert.pem")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TLS_CERT_FILE and TLS_KEY_FILE")
}

func TestLoadFromEnv_ProductionHardening(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "prod-secret")

	// No OIDC configured: fatal in production.
	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OIDC must be configured in production")

	// OIDC configured but CORS wildcard remains: still fatal.
	t.Setenv("AUTH_JWKS_URL", "https://idp.example.com/jwks.json")
	_, err = LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CORS wildcard")

	// Tightened CORS but no TLS: still fatal.
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com")
	_, err = LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TLS_CERT_FILE")

	// Trusted TLS termination makes it pass.
	t.Setenv("ALLOW_INSECURE_HTTP", "true")
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestAuthConfig_RejectsNoneAlgorithm(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "unit-test-secret")
	t.Setenv("AUTH_ALLOWED_ALGS", "RS256,none")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"none"`)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(`
# comment
LISTEN_ADDR=:7070
QUOTED="with spaces"
MALFORMED LINE
`), 0o600))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, ":7070", os.Getenv("LISTEN_ADDR"))
	assert.Equal(t, "with spaces", os.Getenv("QUOTED"))
	os.Unsetenv("QUOTED")
}

func TestLoadDotEnv_MissingFileIsNotAnError(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}
