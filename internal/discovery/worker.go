package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/radarip/radarip/internal/probe"
)

// JobStatus is the lifecycle state of a submitted scan.
type JobStatus string

const (
	JobScanning JobStatus = "scanning"
	JobFound    JobStatus = "found"
	JobFailed   JobStatus = "failed"
)

// DefaultJobRetention is how many finished jobs a worker keeps in memory.
const DefaultJobRetention = 500

var (
	// ErrDuplicateScan is returned when the same MAC is already being searched for in the same range.
	ErrDuplicateScan = errors.New("a scan for this MAC and range is already running")
	// ErrQueueFull is returned when the worker cannot accept more requests.
	ErrQueueFull = errors.New("scan queue is full")
)

// Job is a snapshot of a submitted scan.
type Job struct {
	ID          uuid.UUID  `json:"id"`
	TargetMAC   string     `json:"target_mac"`
	Range       string     `json:"range"`
	Profile     string     `json:"profile,omitempty"`
	Status      JobStatus  `json:"status"`
	Outcome     *Outcome   `json:"outcome,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ScanRequest asks the worker to run scanner against one MAC and range.
type ScanRequest struct {
	TargetMAC string
	Range     string
	Profile   string
	Scanner   *Scanner
}

// Recorder persists finished jobs.
type Recorder interface {
	RecordScan(ctx context.Context, job Job) error
}

// Notifier is told about every job state change, in order. JobChanged is
// called with the worker's lock held and must not block. *Hub implements it.
type Notifier interface {
	JobChanged(job Job)
}

type queuedScan struct {
	id  uuid.UUID
	req ScanRequest
}

// Worker runs submitted scans asynchronously and keeps their state in memory.
type Worker struct {
	requests chan queuedScan
	recorder Recorder
	notifier Notifier
	logger   *slog.Logger

	// mu protects jobs and running
	mu   sync.RWMutex
	jobs map[uuid.UUID]*Job
	// running maps a MAC+range key to the job currently searching it
	running map[string]uuid.UUID
	// finished holds completed job IDs, oldest first
	finished []uuid.UUID
	retain   int

	wg sync.WaitGroup
}

// NewWorker creates a worker. recorder may be nil when history is disabled.
func NewWorker(bufferSize int, recorder Recorder, logger *slog.Logger) *Worker {
	if bufferSize <= 0 {
		bufferSize = 50 // default buffer size
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		requests: make(chan queuedScan, bufferSize),
		recorder: recorder,
		logger:   logger.With("component", "scan_worker"),
		jobs:     make(map[uuid.UUID]*Job),
		running:  make(map[string]uuid.UUID),
		retain:   DefaultJobRetention,
	}
}

// SetRetention bounds how many finished jobs are kept; the oldest are
// forgotten first. Values below 1 mean DefaultJobRetention. Call it before Run.
func (w *Worker) SetRetention(n int) {
	if n < 1 {
		n = DefaultJobRetention
	}
	w.retain = n
}

// SetNotifier registers n for job updates. Call it before Run.
func (w *Worker) SetNotifier(n Notifier) {
	w.notifier = n
}

func (w *Worker) notify(job Job) {
	if w.notifier != nil {
		w.notifier.JobChanged(job)
	}
}

func runningKey(mac, cidr string) string {
	return probe.NormalizeMAC(mac) + "|" + strings.TrimSpace(cidr)
}

// Submit registers a job and queues it. The job starts in JobScanning.
func (w *Worker) Submit(req ScanRequest) (Job, error) {
	if req.Scanner == nil {
		return Job{}, fmt.Errorf("scan request has no scanner")
	}

	key := runningKey(req.TargetMAC, req.Range)

	w.mu.Lock()
	if existing, ok := w.running[key]; ok {
		w.mu.Unlock()
		w.logger.Warn("Scan already running for this MAC and range, rejecting duplicate",
			slog.String("job_id", existing.String()),
			slog.String("target_mac", req.TargetMAC),
			slog.String("range", req.Range),
		)
		return Job{}, ErrDuplicateScan
	}

	job := &Job{
		ID:        uuid.New(),
		TargetMAC: req.TargetMAC,
		Range:     req.Range,
		Profile:   req.Profile,
		Status:    JobScanning,
		StartedAt: time.Now().UTC(),
	}

	select {
	case w.requests <- queuedScan{id: job.ID, req: req}:
	default:
		w.mu.Unlock()
		return Job{}, ErrQueueFull
	}

	w.jobs[job.ID] = job
	w.running[key] = job.ID
	snapshot := *job
	// execute needs mu to finish the job, so this always comes first
	w.notify(snapshot)
	w.mu.Unlock()

	return snapshot, nil
}

// Run consumes queued scans until ctx is done, then waits for in-flight jobs.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Scan worker starting")

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Scan worker shutting down",
				slog.String("reason", ctx.Err().Error()),
			)
			w.wg.Wait()
			return ctx.Err()

		case queued := <-w.requests:
			w.wg.Add(1)
			go func() {
				defer w.wg.Done()
				w.execute(ctx, queued)
			}()
		}
	}
}

// execute runs one scan and moves its job to a final state.
func (w *Worker) execute(ctx context.Context, queued queuedScan) {
	req := queued.req
	logger := w.logger.With(
		slog.String("job_id", queued.id.String()),
		slog.String("target_mac", req.TargetMAC),
		slog.String("range", req.Range),
	)
	logger.InfoContext(ctx, "Starting scan run")

	ip, err := req.Scanner.Scan(ctx, req.TargetMAC, req.Range)
	outcome := NewOutcome(ip, err)

	status := JobFound
	if !outcome.Found() {
		status = JobFailed
	}

	completedAt := time.Now().UTC()

	w.mu.Lock()
	job := w.jobs[queued.id]
	job.Status = status
	job.Outcome = &outcome
	job.CompletedAt = &completedAt
	delete(w.running, runningKey(req.TargetMAC, req.Range))
	snapshot := *job
	w.notify(snapshot)
	w.finished = append(w.finished, job.ID)
	w.prune()
	w.mu.Unlock()

	logger.InfoContext(ctx, "Scan run completed",
		slog.String("status", string(status)),
		slog.String("kind", outcome.Kind),
		slog.String("ip", outcome.IP),
	)

	if w.recorder == nil {
		return
	}
	// History is written even while shutting down.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := w.recorder.RecordScan(recordCtx, snapshot); err != nil {
		logger.ErrorContext(ctx, "Failed to record scan run",
			slog.String("error", err.Error()),
		)
	}
}

// prune forgets the oldest finished jobs beyond the retention limit. Jobs
// still scanning are never in finished. Callers hold mu.
func (w *Worker) prune() {
	excess := len(w.finished) - w.retain
	if excess <= 0 {
		return
	}
	for _, id := range w.finished[:excess] {
		delete(w.jobs, id)
	}
	w.finished = append(w.finished[:0:0], w.finished[excess:]...)
	w.logger.Debug("Pruned finished jobs", slog.Int("count", excess))
}

// Get returns a snapshot of the job with the given ID.
func (w *Worker) Get(id uuid.UUID) (Job, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	job, ok := w.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// List returns snapshots of all jobs, most recent first.
func (w *Worker) List() []Job {
	w.mu.RLock()
	jobs := make([]Job, 0, len(w.jobs))
	for _, job := range w.jobs {
		jobs = append(jobs, *job)
	}
	w.mu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].StartedAt.After(jobs[j].StartedAt)
	})
	return jobs
}
