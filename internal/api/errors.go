package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MonkeyElite/Production-Planner/internal/domain"
	"github.com/MonkeyElite/Production-Planner/internal/middleware"
)

type errorBody struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError maps domain errors to HTTP responses. Unknown errors return a
// generic 500 carrying only the correlation id; the underlying error is
// logged server-side and never sent to the caller.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var (
		unauthenticated *domain.UnauthenticatedError
		stepUp          *domain.StepUpRequiredError
		accessDenied    *domain.AccessDeniedError
		notFound        *domain.NotFoundError
		validation      *domain.ValidationError
		conflict        *domain.ConflictError
		precondition    *domain.PreconditionFailedError
	)

	switch {
	case errors.As(err, &unauthenticated):
		// Fixed challenge: the caller never learns why validation failed.
		w.Header().Set("WWW-Authenticate", `Bearer realm="planner"`)
		writeJSON(w, http.StatusUnauthorized, errorBody{
			Code:    http.StatusUnauthorized,
			Message: "unauthorized: provide a valid bearer token",
		})
	case errors.As(err, &stepUp):
		writeJSON(w, http.StatusForbidden, errorBody{
			Code:    http.StatusForbidden,
			Message: "step-up authentication required: re-authenticate with a strong method",
			Reason:  "step_up_required",
		})
	case errors.As(err, &accessDenied):
		writeJSON(w, http.StatusForbidden, errorBody{
			Code:    http.StatusForbidden,
			Message: err.Error(),
		})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorBody{
			Code:    http.StatusNotFound,
			Message: err.Error(),
		})
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorBody{
			Code:    http.StatusBadRequest,
			Message: err.Error(),
		})
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, errorBody{
			Code:    http.StatusConflict,
			Message: err.Error(),
		})
	case errors.As(err, &precondition):
		writeJSON(w, http.StatusPreconditionFailed, errorBody{
			Code:    http.StatusPreconditionFailed,
			Message: err.Error(),
		})
	default:
		requestID := middleware.RequestIDFromContext(r.Context())
		if logger != nil {
			logger.Error("request failed",
				"error", err,
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", requestID,
			)
		}
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Code:      http.StatusInternalServerError,
			Message:   "internal server error",
			RequestID: requestID,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
