package api

import (
	"context"
	"log/slog"
	"net/netip"

	"github.com/google/uuid"
	"github.com/radarip/radarip/internal/auth"
	"github.com/radarip/radarip/internal/config"
	"github.com/radarip/radarip/internal/database"
	"github.com/radarip/radarip/internal/discovery"
	"github.com/radarip/radarip/internal/probe"
	"github.com/radarip/radarip/internal/radar"
)

// Planner resolves scan requests. *radar.Planner implements it.
type Planner interface {
	Plan(req radar.Request) (*radar.Plan, error)
}

// ScanQueue runs scans in the background. *discovery.Worker implements it.
type ScanQueue interface {
	Submit(req discovery.ScanRequest) (discovery.Job, error)
	Get(id uuid.UUID) (discovery.Job, bool)
	List() []discovery.Job
}

// HistoryReader reads stored scan runs. *database.HistoryStore implements it.
type HistoryReader interface {
	ListScanRuns(ctx context.Context, limit int) ([]database.ScanRun, error)
	FindByIP(ctx context.Context, addr netip.Addr) ([]database.ScanRun, error)
}

// Dependencies holds common dependencies for API handlers
type Dependencies struct {
	Auth     *auth.Service
	Planner  Planner
	Scans    ScanQueue
	Profiles []config.Profile
	Registry *probe.Registry
	// History is nil when the database is disabled.
	History HistoryReader
	// Events streams job updates over websockets; nil disables the route.
	Events *discovery.Hub
	Logger *slog.Logger
}
