package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/MonkeyElite/Production-Planner/internal/domain"
)

// Authenticator validates the Authorization bearer token and stores the
// derived Principal in the request context. Any validation failure (absent
// header, bad signature, expiry, wrong audience or issuer) short-circuits
// with a 401 challenge before any resource access; the failure detail is
// logged server-side and never returned to the caller.
func Authenticator(validator TokenValidator, ownerClaim string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				writeChallenge(w)
				return
			}

			claims, err := validator.Validate(r.Context(), strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				if logger != nil {
					logger.Debug("token validation failed",
						"error", err,
						"request_id", RequestIDFromContext(r.Context()))
				}
				writeChallenge(w)
				return
			}

			principal := PrincipalFromClaims(claims, ownerClaim)
			next.ServeHTTP(w, r.WithContext(domain.WithPrincipal(r.Context(), principal)))
		})
	}
}

// writeChallenge emits the 401 challenge response. The message is fixed so
// callers cannot distinguish why validation failed.
func writeChallenge(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="planner"`)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    http.StatusUnauthorized,
		"message": "unauthorized: provide a valid bearer token",
	})
}
