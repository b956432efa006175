package database

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/radarip/radarip/internal/discovery"
)

// ScanRun is one stored scan.
type ScanRun struct {
	ID          uuid.UUID `db:"id" json:"id"`
	TargetMAC   string    `db:"target_mac" json:"target_mac"`
	IPRange     string    `db:"ip_range" json:"range"`
	Profile     string    `db:"profile" json:"profile,omitempty"`
	Status      string    `db:"status" json:"status"`
	OutcomeKind string    `db:"outcome_kind" json:"kind"`
	FoundIP     string    `db:"found_ip" json:"found_ip,omitempty"`
	Error       string    `db:"error" json:"error,omitempty"`
	Diagnostic  string    `db:"diagnostic" json:"diagnostic,omitempty"`
	StartedAt   time.Time `db:"started_at" json:"started_at"`
	CompletedAt time.Time `db:"completed_at" json:"completed_at"`
}

// HistoryStore records finished scans. It implements discovery.Recorder.
type HistoryStore struct {
	pool *pgxpool.Pool
}

// NewHistoryStore creates a store over pool.
func NewHistoryStore(pool *pgxpool.Pool) *HistoryStore {
	return &HistoryStore{pool: pool}
}

// NewScanRun flattens a finished job into a row.
func NewScanRun(job discovery.Job) ScanRun {
	run := ScanRun{
		ID:        job.ID,
		TargetMAC: job.TargetMAC,
		IPRange:   job.Range,
		Profile:   job.Profile,
		Status:    string(job.Status),
		StartedAt: job.StartedAt,
	}
	if job.CompletedAt != nil {
		run.CompletedAt = *job.CompletedAt
	} else {
		run.CompletedAt = time.Now().UTC()
	}
	if job.Outcome != nil {
		run.OutcomeKind = job.Outcome.Kind
		run.FoundIP = job.Outcome.IP
		run.Error = job.Outcome.Message
		run.Diagnostic = job.Outcome.Diagnostic
	}
	return run
}

const insertScanRun = `
INSERT INTO scan_runs (id, target_mac, ip_range, profile, status, outcome_kind, found_ip, error, diagnostic, started_at, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO NOTHING`

// RecordScan stores a finished job.
func (s *HistoryStore) RecordScan(ctx context.Context, job discovery.Job) error {
	run := NewScanRun(job)

	foundIP, err := nullableInet(run.FoundIP)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, insertScanRun,
		run.ID, run.TargetMAC, run.IPRange, run.Profile, run.Status, run.OutcomeKind,
		foundIP, run.Error, run.Diagnostic, run.StartedAt, run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert scan run: %w", err)
	}
	return nil
}

const listScanRuns = `
SELECT id, target_mac, ip_range, profile, status, outcome_kind,
       COALESCE(host(found_ip), '') AS found_ip, error, diagnostic, started_at, completed_at
FROM scan_runs
ORDER BY started_at DESC
LIMIT $1`

// ListScanRuns returns the most recent runs first.
func (s *HistoryStore) ListScanRuns(ctx context.Context, limit int) ([]ScanRun, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, listScanRuns, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan runs: %w", err)
	}

	runs, err := pgx.CollectRows(rows, pgx.RowToStructByName[ScanRun])
	if err != nil {
		return nil, fmt.Errorf("failed to read scan runs: %w", err)
	}
	return runs, nil
}

// FindByIP returns the runs that located a device at addr.
func (s *HistoryStore) FindByIP(ctx context.Context, addr netip.Addr) ([]ScanRun, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, target_mac, ip_range, profile, status, outcome_kind,
       COALESCE(host(found_ip), '') AS found_ip, error, diagnostic, started_at, completed_at
FROM scan_runs
WHERE found_ip = $1
ORDER BY started_at DESC`, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan runs: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[ScanRun])
}
