package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/MonkeyElite/Production-Planner/internal/domain"
)

// StepUpConfig declares which routes require strong-authentication evidence
// and which claim values satisfy it.
type StepUpConfig struct {
	// PathPrefixes under which mutating requests are protected.
	PathPrefixes []string
	// AuthMethods are accepted `amr` values (case-insensitive).
	AuthMethods []string
	// AuthContextClass is an `acr` value that satisfies the gate on its own.
	AuthContextClass string
}

// StepUpRequired reports whether a request needs step-up evidence: the
// method must be mutating and the path must fall under a protected prefix.
// Pure function of (method, path), no I/O.
func StepUpRequired(method, path string, prefixes []string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return false
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// StepUp enforces strong authentication for mutating requests under the
// configured prefixes. It must run after Authenticator and before any
// resource-specific policy check: it protects an entire route class
// regardless of resource ownership.
//
// Outcomes: request not applicable → pass through; principal missing or
// unauthenticated → 401 challenge (re-authentication, not a bare denial);
// authenticated but lacking evidence → 403 with reason "step_up_required"
// so clients can prompt for step-up instead of treating it as terminal.
func StepUp(cfg StepUpConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !StepUpRequired(r.Method, r.URL.Path, cfg.PathPrefixes) {
				next.ServeHTTP(w, r)
				return
			}

			principal, ok := domain.PrincipalFromContext(r.Context())
			if !ok || !principal.IsAuthenticated() {
				writeChallenge(w)
				return
			}

			if !satisfiesStepUp(principal, cfg) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"code":    http.StatusForbidden,
					"message": "step-up authentication required: re-authenticate with a strong method",
					"reason":  "step_up_required",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func satisfiesStepUp(p domain.Principal, cfg StepUpConfig) bool {
	if p.HasAnyAuthMethod(cfg.AuthMethods) {
		return true
	}
	return cfg.AuthContextClass != "" && p.AuthContextClass == cfg.AuthContextClass
}
