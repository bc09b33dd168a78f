// Package api exposes the inventory HTTP surface: product and production-line
// CRUD under /v1, plus an unauthenticated health endpoint.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/MonkeyElite/Production-Planner/internal/middleware"
	"github.com/MonkeyElite/Production-Planner/internal/service/inventory"
)

type Handler struct {
	products *inventory.ProductService
	lines    *inventory.LineService
	logger   *slog.Logger
}

func NewHandler(products *inventory.ProductService, lines *inventory.LineService, logger *slog.Logger) *Handler {
	return &Handler{products: products, lines: lines, logger: logger}
}

// RouterOptions configures the request pipeline wrapped around the handler.
type RouterOptions struct {
	Validator          middleware.TokenValidator
	OwnerClaim         string
	StepUp             middleware.StepUpConfig
	RateLimit          middleware.RateLimitConfig
	CORSAllowedOrigins []string
	Logger             *slog.Logger
}

// NewRouter assembles the full pipeline. Order matters: request id and
// recovery wrap everything; /healthz stays outside authentication and rate
// limiting; authenticated routes run validator → rate limiter → step-up gate
// before reaching a handler, so the limiter partitions by subject and the
// step-up gate sees a resolved principal.
func NewRouter(h *Handler, opts RouterOptions) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer(opts.Logger))
	r.Use(requestLogger(opts.Logger))

	if len(opts.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "If-Match", "X-Request-ID"},
			ExposedHeaders:   []string{"ETag", "X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", h.health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticator(opts.Validator, opts.OwnerClaim, opts.Logger))
		r.Use(middleware.RateLimiter(opts.RateLimit))
		r.Use(middleware.StepUp(opts.StepUp))

		r.Route("/v1", func(r chi.Router) {
			r.Route("/products", func(r chi.Router) {
				r.Get("/", h.listProducts)
				r.Post("/", h.createProduct)
				r.Get("/{productID}", h.getProduct)
				r.Put("/{productID}", h.updateProduct)
				r.Delete("/{productID}", h.deleteProduct)
			})

			r.Route("/lines", func(r chi.Router) {
				r.Get("/", h.listLines)
				r.Post("/", h.createLine)
				r.Get("/{lineID}", h.getLine)
				r.Put("/{lineID}", h.updateLine)
				r.Delete("/{lineID}", h.deleteLine)
				r.Post("/{lineID}/products", h.addLineProduct)
				r.Delete("/{lineID}/products/{productID}", h.removeLineProduct)
			})
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger logs one line per completed request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logger == nil {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.RequestIDFromContext(r.Context()),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
