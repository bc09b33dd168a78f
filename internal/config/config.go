// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AuthConfig holds authentication and identity provider configuration.
type AuthConfig struct {
	// OIDC / JWKS configuration
	IssuerURL      string        // OIDC issuer URL for discovery
	JWKSURL        string        // Override JWKS URL (if no .well-known discovery)
	JWTSecret      string        // HS256 shared secret for local/dev JWT auth
	Audience       string        // Required JWT audience claim
	AllowedIssuers []string      // Accepted issuers (defaults to [IssuerURL])
	AllowedAlgs    []string      // Accepted signing algorithms (default RS256, ES256)
	ClockSkew      time.Duration // Leeway for exp/nbf checks (default 2m)

	// Claim names
	OwnerClaim string // Claim carrying the tenant/owner identity (default "owner_id")
}

// OIDCEnabled returns true when an external identity provider is configured.
func (a *AuthConfig) OIDCEnabled() bool {
	return a.IssuerURL != "" || a.JWKSURL != ""
}

// Validate checks that the auth configuration is internally consistent.
func (a *AuthConfig) Validate() error {
	if a.IssuerURL == "" && a.JWKSURL == "" && a.JWTSecret == "" {
		return fmt.Errorf("one of AUTH_ISSUER_URL, AUTH_JWKS_URL or JWT_SECRET must be set")
	}
	if a.IssuerURL != "" && a.Audience == "" {
		return fmt.Errorf("AUTH_AUDIENCE is required when AUTH_ISSUER_URL is set")
	}
	for _, alg := range a.AllowedAlgs {
		if strings.EqualFold(alg, "none") {
			return fmt.Errorf("signing algorithm \"none\" is never accepted")
		}
	}
	return nil
}

// PolicyConfig names the scopes, roles, and step-up requirements evaluated by
// the authorization pipeline. It is built once at startup and never mutated
// during request handling.
type PolicyConfig struct {
	ReadScope  string `yaml:"read_scope"`  // scope required by the read policy
	WriteRole  string `yaml:"write_role"`  // elevated role required by the write policy
	WriteScope string `yaml:"write_scope"` // optional scope additionally required for writes

	// Step-up gate: mutating requests under these path prefixes must carry
	// strong-authentication evidence.
	StepUpPathPrefixes []string `yaml:"step_up_path_prefixes"`
	// Accepted `amr` values, compared case-insensitively.
	StepUpAuthMethods []string `yaml:"step_up_auth_methods"`
	// Accepted `acr` value, sufficient on its own.
	StepUpAuthContextClass string `yaml:"step_up_auth_context_class"`
}

// Config holds the configuration for the planner server and gateway.
type Config struct {
	MetaDBPath        string // path to SQLite metadata file
	ListenAddr        string // HTTP listen address (default ":8080")
	GatewayListenAddr string // gateway HTTP listen address (default ":8443")
	BackendURL        string // URL the gateway proxies to (default http://localhost:8080)
	TLSCertFile       string // TLS certificate file path (optional)
	TLSKeyFile        string // TLS private key file path (optional)
	AllowInsecureHTTP bool   // allow non-TLS listener in production (for trusted TLS termination)
	LogLevel          string // log level: debug, info, warn, error (default "info")
	Env               string // environment: "development" (default) or "production"

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second per caller (default 100)
	RateLimitBurst int     // burst capacity per caller (default 200)

	// Startup reconciliation with a not-yet-ready metastore.
	StartupRetryAttempts int           // hard attempt ceiling (default 10)
	StartupRetryBackoff  time.Duration // fixed delay between attempts (default 1s)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// Auth holds identity provider and authentication configuration.
	Auth AuthConfig

	// Policy holds authorization policy names and step-up requirements.
	Policy PolicyConfig

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// LoadFromEnv loads configuration from environment variables, applying
// defaults and production-mode hardening checks.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		MetaDBPath:        os.Getenv("META_DB_PATH"),
		ListenAddr:        os.Getenv("LISTEN_ADDR"),
		GatewayListenAddr: os.Getenv("GATEWAY_LISTEN_ADDR"),
		BackendURL:        os.Getenv("BACKEND_URL"),
		TLSCertFile:       os.Getenv("TLS_CERT_FILE"),
		TLSKeyFile:        os.Getenv("TLS_KEY_FILE"),
		LogLevel:          os.Getenv("LOG_LEVEL"),
		Env:               os.Getenv("ENV"),
	}

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}

	// Startup retry
	if v := os.Getenv("STARTUP_RETRY_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.StartupRetryAttempts = n
		}
	}
	if v := os.Getenv("STARTUP_RETRY_BACKOFF"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.StartupRetryBackoff = d
		}
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}
	if strings.EqualFold(os.Getenv("ALLOW_INSECURE_HTTP"), "true") {
		cfg.AllowInsecureHTTP = true
	}

	// Auth config
	cfg.Auth = AuthConfig{
		IssuerURL:  os.Getenv("AUTH_ISSUER_URL"),
		JWKSURL:    os.Getenv("AUTH_JWKS_URL"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		Audience:   os.Getenv("AUTH_AUDIENCE"),
		OwnerClaim: os.Getenv("AUTH_OWNER_CLAIM"),
	}
	if v := os.Getenv("AUTH_ALLOWED_ISSUERS"); v != "" {
		cfg.Auth.AllowedIssuers = splitTrimmed(v)
	}
	if v := os.Getenv("AUTH_ALLOWED_ALGS"); v != "" {
		cfg.Auth.AllowedAlgs = splitTrimmed(v)
	}
	if v := os.Getenv("AUTH_CLOCK_SKEW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Auth.ClockSkew = d
		}
	}

	// Policy config: env first, optional YAML file overrides.
	cfg.Policy = PolicyConfig{
		ReadScope:              os.Getenv("POLICY_READ_SCOPE"),
		WriteRole:              os.Getenv("POLICY_WRITE_ROLE"),
		WriteScope:             os.Getenv("POLICY_WRITE_SCOPE"),
		StepUpAuthContextClass: os.Getenv("POLICY_STEP_UP_ACR"),
	}
	if v := os.Getenv("POLICY_STEP_UP_PREFIXES"); v != "" {
		cfg.Policy.StepUpPathPrefixes = splitTrimmed(v)
	}
	if v := os.Getenv("POLICY_STEP_UP_AMR"); v != "" {
		cfg.Policy.StepUpAuthMethods = splitTrimmed(v)
	}
	if path := os.Getenv("POLICY_FILE"); path != "" {
		if err := loadPolicyFile(path, &cfg.Policy); err != nil {
			return nil, err
		}
	}

	// Defaults
	if cfg.MetaDBPath == "" {
		cfg.MetaDBPath = "planner_meta.sqlite"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.GatewayListenAddr == "" {
		cfg.GatewayListenAddr = ":8443"
	}
	if cfg.BackendURL == "" {
		cfg.BackendURL = "http://localhost:8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 200
	}
	if cfg.StartupRetryAttempts == 0 {
		cfg.StartupRetryAttempts = 10
	}
	if cfg.StartupRetryBackoff == 0 {
		cfg.StartupRetryBackoff = time.Second
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.Auth.ClockSkew == 0 {
		cfg.Auth.ClockSkew = 2 * time.Minute
	}
	if len(cfg.Auth.AllowedAlgs) == 0 {
		cfg.Auth.AllowedAlgs = []string{"RS256", "ES256"}
	}
	if len(cfg.Auth.AllowedIssuers) == 0 && cfg.Auth.IssuerURL != "" {
		cfg.Auth.AllowedIssuers = []string{cfg.Auth.IssuerURL}
	}
	if cfg.Auth.OwnerClaim == "" {
		cfg.Auth.OwnerClaim = "owner_id"
	}
	if cfg.Policy.ReadScope == "" {
		cfg.Policy.ReadScope = "products.read"
	}
	if cfg.Policy.WriteRole == "" {
		cfg.Policy.WriteRole = "planner"
	}
	if len(cfg.Policy.StepUpPathPrefixes) == 0 {
		cfg.Policy.StepUpPathPrefixes = []string{"/v1/products", "/v1/lines"}
	}
	if len(cfg.Policy.StepUpAuthMethods) == 0 {
		cfg.Policy.StepUpAuthMethods = []string{"mfa", "otp", "hwk"}
	}

	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return nil, fmt.Errorf("both TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	if err := cfg.Auth.Validate(); err != nil {
		if cfg.IsProduction() {
			return nil, err
		}
		cfg.Auth.JWTSecret = "dev-secret-change-in-production"
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("auth not configured (%v), using insecure dev HS256 secret", err))
	}
	if !cfg.Auth.OIDCEnabled() {
		cfg.Warnings = append(cfg.Warnings, "OIDC is not configured, set AUTH_ISSUER_URL or AUTH_JWKS_URL")
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if !cfg.Auth.OIDCEnabled() {
			return nil, fmt.Errorf("OIDC must be configured in production (set AUTH_ISSUER_URL or AUTH_JWKS_URL)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
		if cfg.TLSCertFile == "" && !cfg.AllowInsecureHTTP {
			return nil, fmt.Errorf("TLS_CERT_FILE/TLS_KEY_FILE must be set in production unless ALLOW_INSECURE_HTTP=true")
		}
	}

	return cfg, nil
}

// loadPolicyFile merges a YAML policy file over the current policy values.
// Empty fields in the file keep their existing values.
func loadPolicyFile(path string, p *PolicyConfig) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-controlled
	if err != nil {
		return fmt.Errorf("read policy file %s: %w", path, err)
	}
	var file PolicyConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse policy file %s: %w", path, err)
	}
	if file.ReadScope != "" {
		p.ReadScope = file.ReadScope
	}
	if file.WriteRole != "" {
		p.WriteRole = file.WriteRole
	}
	if file.WriteScope != "" {
		p.WriteScope = file.WriteScope
	}
	if len(file.StepUpPathPrefixes) > 0 {
		p.StepUpPathPrefixes = file.StepUpPathPrefixes
	}
	if len(file.StepUpAuthMethods) > 0 {
		p.StepUpAuthMethods = file.StepUpAuthMethods
	}
	if file.StepUpAuthContextClass != "" {
		p.StepUpAuthContextClass = file.StepUpAuthContextClass
	}
	return nil
}

func splitTrimmed(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
