// Package httptransport is the thin HTTP layer over the administrator
// lifecycle. It delegates to the admin service without embedding business
// logic so transport concerns stay isolated; the directory itself is consumed
// as a library by callers, not exposed here.
package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"furgon/internal/platform/middleware"
	dErrors "furgon/pkg/domain-errors"
)

// NewRouter wires the authentication endpoints.
func NewRouter(h *AuthHandler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(logger))

	r.Post("/v1/sign-in", h.handleSignIn)
	r.Post("/v1/change-secret", h.handleChangeSecret)
	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError centralizes domain error translation to HTTP responses so every
// handler answers the same JSON envelope.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(dErrors.CodeOf(err)), map[string]string{
		"error": string(dErrors.CodeOf(err)),
	})
}

func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeUnknownActor:
		return http.StatusUnauthorized
	case dErrors.CodeAccountInactive, dErrors.CodeScopeViolation:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeDuplicateKey, dErrors.CodeImmutableKey:
		return http.StatusConflict
	case dErrors.CodeMalformedKey, dErrors.CodeKeyTooShort, dErrors.CodeCheckDigitMismatch,
		dErrors.CodeDanglingReference, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
