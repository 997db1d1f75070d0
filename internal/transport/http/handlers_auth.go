package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"furgon/internal/scope"
	dErrors "furgon/pkg/domain-errors"
)

// AuthService is the slice of the admin lifecycle the transport needs.
type AuthService interface {
	SignIn(ctx context.Context, email, secret string) (scope.Scope, error)
	ChangeSecret(ctx context.Context, email, currentSecret, newSecret string) error
}

type AuthHandler struct {
	auth AuthService
}

func NewAuthHandler(auth AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type signInRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

type signInResponse struct {
	ActorEmail    string `json:"actor_email"`
	IsSuperAdmin  bool   `json:"is_super_admin"`
	InstitutionID string `json:"institution_id,omitempty"`
}

func (h *AuthHandler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "malformed request body"))
		return
	}
	sc, err := h.auth.SignIn(r.Context(), req.Email, req.Secret)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, signInResponse{
		ActorEmail:    sc.ActorEmail,
		IsSuperAdmin:  sc.IsSuperAdmin,
		InstitutionID: sc.InstitutionID,
	})
}

type changeSecretRequest struct {
	Email         string `json:"email"`
	CurrentSecret string `json:"current_secret"`
	NewSecret     string `json:"new_secret"`
}

func (h *AuthHandler) handleChangeSecret(w http.ResponseWriter, r *http.Request) {
	var req changeSecretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "malformed request body"))
		return
	}
	if req.NewSecret == "" {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "new secret is required"))
		return
	}
	if err := h.auth.ChangeSecret(r.Context(), req.Email, req.CurrentSecret, req.NewSecret); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
