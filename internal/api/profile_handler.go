package api

import (
	"net/http"
)

// ProfileHandler exposes the configured network profiles
type ProfileHandler struct {
	*Dependencies
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(deps *Dependencies) *ProfileHandler {
	return &ProfileHandler{Dependencies: deps}
}

// List handles GET /profiles
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	sendListResponse(w, h.Profiles, len(h.Profiles))
}
