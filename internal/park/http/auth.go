package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/caremypark/caremypark/internal/park/service"
	"github.com/caremypark/caremypark/pkg/httpx"
	"github.com/caremypark/caremypark/pkg/slogx"
)

// AuthHandler handles registration, login and the 2FA endpoints.
type AuthHandler struct {
	AuthService *service.AuthService
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyTwoFactorRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type sessionResponse struct {
	Token             string     `json:"token,omitempty"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	TwoFactorRequired bool       `json:"two_factor_required,omitempty"`
}

// HandleRegister handles POST /api/register.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	user, err := h.AuthService.Register(ctx, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	log.Info("user registered", "user_id", user.ID)
	httpx.WriteJSON(w, http.StatusCreated, map[string]string{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    string(user.Role),
	})
}

// HandleLogin handles POST /api/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	result, err := h.AuthService.Login(ctx, req.Email, req.Password)
	if err != nil {
		log.Warn("login failed", "err", err)
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toSessionResponse(result))
}

// HandleVerifyTwoFactor handles POST /api/verify-2fa.
func (h *AuthHandler) HandleVerifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req verifyTwoFactorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	result, err := h.AuthService.VerifyTwoFactor(ctx, req.Email, req.Code)
	if err != nil {
		log.Warn("2fa verification failed", "err", err)
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toSessionResponse(result))
}

// HandleEnableTwoFactor handles POST /api/enable-2fa. Requires authn; the
// secret and provisioning URI are returned exactly once.
func (h *AuthHandler) HandleEnableTwoFactor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromCtx(ctx)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required.")
		return
	}

	enrollment, err := h.AuthService.EnableTwoFactor(ctx, userID)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	log.Info("2fa enabled", "user_id", userID)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"secret":           enrollment.Secret,
		"provisioning_uri": enrollment.ProvisioningURI,
	})
}

func toSessionResponse(result service.LoginResult) sessionResponse {
	if result.TwoFactorRequired {
		return sessionResponse{TwoFactorRequired: true}
	}
	exp := result.ExpiresAt
	return sessionResponse{Token: result.Token, ExpiresAt: &exp}
}
