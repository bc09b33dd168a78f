// Package gateway implements the edge tier: it terminates client traffic,
// enforces authentication, step-up, and per-caller rate limits, and proxies
// surviving requests to the backend. The backend runs the same checks again;
// the two tiers share one middleware implementation so their decisions can
// never drift.
package gateway

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/MonkeyElite/Production-Planner/internal/middleware"
)

// Options configures the gateway pipeline.
type Options struct {
	BackendURL string
	Validator  middleware.TokenValidator
	OwnerClaim string
	StepUp     middleware.StepUpConfig
	RateLimit  middleware.RateLimitConfig
	Logger     *slog.Logger
}

// New builds the gateway handler: a reverse proxy behind the shared
// authorization pipeline. The health endpoint proxies through unauthenticated
// so load balancers can probe the whole chain.
func New(opts Options) (http.Handler, error) {
	backend, err := url.Parse(opts.BackendURL)
	if err != nil {
		return nil, err
	}

	proxy := httputil.NewSingleHostReverseProxy(backend)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		if opts.Logger != nil {
			opts.Logger.Error("backend unreachable",
				"error", err,
				"request_id", middleware.RequestIDFromContext(r.Context()))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"code":502,"message":"backend unavailable"}`))
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer(opts.Logger))

	r.Handle("/healthz", proxy)

	r.Group(func(r chi.Router) {
		// Rate limiting runs before authentication at the edge: anonymous
		// floods are shed per network origin without paying for signature
		// verification first.
		r.Use(middleware.RateLimiter(opts.RateLimit))
		r.Use(middleware.Authenticator(opts.Validator, opts.OwnerClaim, opts.Logger))
		r.Use(middleware.StepUp(opts.StepUp))
		r.Handle("/*", proxy)
	})

	return r, nil
}
