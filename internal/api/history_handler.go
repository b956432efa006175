package api

import (
	"log/slog"
	"net/http"
	"net/netip"
	"strconv"

	"github.com/radarip/radarip/internal/database"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// HistoryHandler serves stored scan runs
type HistoryHandler struct {
	*Dependencies
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(deps *Dependencies) *HistoryHandler {
	return &HistoryHandler{Dependencies: deps}
}

// List handles GET /history?limit=N or GET /history?ip=A.B.C.D
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.History == nil {
		sendError(w, r, http.StatusServiceUnavailable, "HISTORY_DISABLED", "Scan history requires a database", nil)
		return
	}

	var (
		runs []database.ScanRun
		err  error
	)

	if ipStr := r.URL.Query().Get("ip"); ipStr != "" {
		addr, parseErr := netip.ParseAddr(ipStr)
		if parseErr != nil || !addr.Is4() {
			sendError(w, r, http.StatusBadRequest, "INVALID_IP", "ip must be an IPv4 address", nil)
			return
		}
		runs, err = h.History.FindByIP(r.Context(), addr)
	} else {
		limit := defaultHistoryLimit
		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			parsed, convErr := strconv.Atoi(limitStr)
			if convErr != nil || parsed <= 0 {
				sendError(w, r, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer", nil)
				return
			}
			limit = min(parsed, maxHistoryLimit)
		}
		runs, err = h.History.ListScanRuns(r.Context(), limit)
	}

	if err != nil {
		h.Logger.Error("Failed to read scan history", slog.Any("error", err))
		sendError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "Could not read scan history", nil)
		return
	}

	sendListResponse(w, runs, len(runs))
}
