package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/radarip/radarip/internal/discovery"
	"github.com/radarip/radarip/internal/radar"
	"github.com/radarip/radarip/internal/validation"
)

// ScanHandler submits and reports MAC searches
type ScanHandler struct {
	*Dependencies
}

// NewScanHandler creates a new scan handler
func NewScanHandler(deps *Dependencies) *ScanHandler {
	return &ScanHandler{Dependencies: deps}
}

// Create handles POST /scans. The scan runs in the background; the response
// carries the job to poll.
func (h *ScanHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[radar.Request](w, r)
	if !ok {
		return
	}

	plan, err := h.Planner.Plan(req)
	if err != nil {
		h.sendPlanError(w, r, err)
		return
	}

	job, err := h.Scans.Submit(discovery.ScanRequest{
		TargetMAC: plan.TargetMAC,
		Range:     plan.Range,
		Profile:   plan.Profile,
		Scanner:   plan.Scanner,
	})
	switch {
	case errors.Is(err, discovery.ErrDuplicateScan):
		sendError(w, r, http.StatusConflict, "DUPLICATE_SCAN", err.Error(), nil)
		return
	case errors.Is(err, discovery.ErrQueueFull):
		sendError(w, r, http.StatusServiceUnavailable, "QUEUE_FULL", err.Error(), nil)
		return
	case err != nil:
		sendError(w, r, http.StatusInternalServerError, "SUBMIT_FAILED", "Could not queue scan", err.Error())
		return
	}

	h.Logger.Info("Scan submitted",
		slog.String("job_id", job.ID.String()),
		slog.String("target_mac", job.TargetMAC),
		slog.String("range", job.Range),
		slog.String("transport", plan.Transport),
	)

	w.Header().Set("Location", "/api/v1/scans/"+job.ID.String())
	sendJSON(w, http.StatusAccepted, job)
}

func (h *ScanHandler) sendPlanError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErrs *validation.Errors
		rangeErr       *discovery.InvalidRangeError
	)
	switch {
	case errors.As(err, &validationErrs):
		sendValidationError(w, r, err)
	case errors.As(err, &rangeErr):
		sendError(w, r, http.StatusBadRequest, "INVALID_RANGE", err.Error(), nil)
	case errors.Is(err, radar.ErrUnknownProfile):
		sendError(w, r, http.StatusBadRequest, "UNKNOWN_PROFILE", err.Error(), nil)
	default:
		// Credential and transport selection errors.
		sendError(w, r, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}
}

// Get handles GET /scans/{id}
func (h *ScanHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	job, found := h.Scans.Get(id)
	if !found {
		sendError(w, r, http.StatusNotFound, "NOT_FOUND", "Scan not found", nil)
		return
	}

	sendJSON(w, http.StatusOK, job)
}

// List handles GET /scans
func (h *ScanHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs := h.Scans.List()
	sendListResponse(w, jobs, len(jobs))
}
