package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/caremypark/caremypark/internal/park/service"
	"github.com/caremypark/caremypark/pkg/httpx"
)

// ErrorResponse is the JSON error envelope shared by every endpoint.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func writeError(w http.ResponseWriter, code int, errCode, desc string) {
	httpx.WriteJSON(w, code, ErrorResponse{Error: errCode, Description: desc})
}

// writeServiceError maps service-layer sentinels to HTTP responses. Anything
// unmapped is a 500 and gets logged; sentinel failures are the caller's fault
// and only warn-logged where handlers decide to.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())

	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required.")

	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password.")

	case errors.Is(err, service.ErrInvalidOTP):
		writeError(w, http.StatusUnauthorized, "invalid_otp", "Invalid one-time passcode.")

	case errors.Is(err, service.ErrOTPExhausted):
		writeError(w, http.StatusUnauthorized, "otp_exhausted", "Too many invalid passcodes. Log in again.")

	case errors.Is(err, service.ErrChallengeExpired):
		writeError(w, http.StatusUnauthorized, "challenge_expired", "Two-factor challenge expired. Log in again.")

	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "You are not allowed to do that.")

	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Resource not found.")

	case errors.Is(err, service.ErrAlreadyRegistered):
		writeError(w, http.StatusConflict, "already_registered", "Email is already registered.")

	case errors.Is(err, service.ErrTwoFactorAlreadyEnabled):
		writeError(w, http.StatusConflict, "two_factor_already_enabled", "Two-factor authentication is already enabled.")

	case errors.Is(err, service.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())

	case errors.Is(err, service.ErrConcurrentModification):
		writeError(w, http.StatusConflict, "concurrent_modification", "Report was modified concurrently. Re-read and retry.")

	default:
		log.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "Internal server error.")
	}
}
