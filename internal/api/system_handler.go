package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/radarip/radarip/internal/auth"
	"github.com/radarip/radarip/internal/validation"
)

// SystemHandler handles login and protocol discovery
type SystemHandler struct {
	*Dependencies
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(deps *Dependencies) *SystemHandler {
	return &SystemHandler{Dependencies: deps}
}

// Login handles POST /login
func (h *SystemHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[auth.LoginRequest](w, r)
	if !ok {
		return
	}

	if err := validation.Struct(req); err != nil {
		sendValidationError(w, r, err)
		return
	}

	resp, err := h.Auth.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.Logger.Warn("Login failed", slog.String("username", req.Username))
			sendError(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password", nil)
			return
		}
		sendError(w, r, http.StatusInternalServerError, "LOGIN_FAILED", "Could not issue token", err.Error())
		return
	}

	sendJSON(w, http.StatusOK, resp)
}

// ListProtocols handles GET /protocols
func (h *SystemHandler) ListProtocols(w http.ResponseWriter, r *http.Request) {
	protocols := h.Registry.ListProtocols()
	sendListResponse(w, protocols, len(protocols))
}

// sendValidationError reports field errors, or the bare message for other errors.
func sendValidationError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrs *validation.Errors
	if errors.As(err, &validationErrs) {
		sendError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Request validation failed", validationErrs.Errors)
		return
	}
	sendError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
}
