package database

import (
	"context"
	"net/netip"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/radarip/radarip/internal/config"
	"github.com/radarip/radarip/internal/discovery"
)

func TestNewScanRun(t *testing.T) {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	completed := started.Add(3 * time.Second)

	job := discovery.Job{
		ID:          uuid.New(),
		TargetMAC:   "aa:bb:cc:dd:ee:ff",
		Range:       "10.8.0.0/24",
		Profile:     "HC",
		Status:      discovery.JobFailed,
		StartedAt:   started,
		CompletedAt: &completed,
		Outcome: &discovery.Outcome{
			Kind:       discovery.KindMacNotFound,
			Message:    "MAC address 'aa:bb:cc:dd:ee:ff' not found on any host in the scanned range",
			Diagnostic: "connection error to 10.8.0.1: refused",
		},
	}

	run := NewScanRun(job)
	if run.Status != "failed" || run.OutcomeKind != discovery.KindMacNotFound {
		t.Errorf("run = %+v", run)
	}
	if run.FoundIP != "" || run.Diagnostic == "" || run.Error == "" {
		t.Errorf("run = %+v", run)
	}
	if !run.CompletedAt.Equal(completed) || run.IPRange != "10.8.0.0/24" {
		t.Errorf("run = %+v", run)
	}
}

func TestNullableInet(t *testing.T) {
	if addr, err := nullableInet(""); addr != nil || err != nil {
		t.Errorf("nullableInet(\"\") = %v, %v", addr, err)
	}
	addr, err := nullableInet("10.8.0.4")
	if err != nil || addr.String() != "10.8.0.4" {
		t.Errorf("nullableInet() = %v, %v", addr, err)
	}
	if _, err := nullableInet("10.8.0"); err == nil {
		t.Error("expected error for malformed address")
	}
}

// TestHistoryStore_Postgres runs against a real database when one is configured.
func TestHistoryStore_Postgres(t *testing.T) {
	url := os.Getenv("RADAR_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("RADAR_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := Open(ctx, config.DatabaseConfig{Enabled: true, URL: url, MaxConns: 2})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer pool.Close()

	if err := RunMigrations(ctx, pool); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}

	store := NewHistoryStore(pool)
	completed := time.Now().UTC()
	job := discovery.Job{
		ID:          uuid.New(),
		TargetMAC:   "aa:bb:cc:dd:ee:ff",
		Range:       "10.8.0.0/24",
		Status:      discovery.JobFound,
		StartedAt:   completed.Add(-time.Second),
		CompletedAt: &completed,
		Outcome:     &discovery.Outcome{Kind: discovery.KindFound, IP: "10.8.0.4"},
	}

	if err := store.RecordScan(ctx, job); err != nil {
		t.Fatalf("RecordScan() error = %v", err)
	}
	// recording twice is harmless
	if err := store.RecordScan(ctx, job); err != nil {
		t.Fatalf("RecordScan(again) error = %v", err)
	}

	runs, err := store.ListScanRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListScanRuns() error = %v", err)
	}
	if len(runs) == 0 || runs[0].ID != job.ID || runs[0].FoundIP != "10.8.0.4" {
		t.Errorf("ListScanRuns() = %+v", runs)
	}

	byIP, err := store.FindByIP(ctx, netip.MustParseAddr("10.8.0.4"))
	if err != nil {
		t.Fatalf("FindByIP() error = %v", err)
	}
	found := false
	for _, r := range byIP {
		if r.ID == job.ID {
			found = true
		}
	}
	if !found {
		t.Errorf("FindByIP() did not return job %s", job.ID)
	}
}
