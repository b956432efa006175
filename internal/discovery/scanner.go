package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/radarip/radarip/internal/probe"
)

// DefaultMaxConcurrent bounds the number of probes in flight per scan.
const DefaultMaxConcurrent = 50

// Prober inspects one host. *probe.Executor is the production implementation.
type Prober interface {
	Probe(ctx context.Context, ip string, cfg probe.ConnectionConfig) (probe.DeviceIdentity, error)
}

// Options tune a Scanner.
type Options struct {
	// MaxConcurrent is the admission cap; values below 1 mean DefaultMaxConcurrent.
	MaxConcurrent int
	// Deadline abandons the whole scan with *ScanTimeoutError; 0 disables it.
	Deadline time.Duration
	// CancelStrayProbes cancels probes still running when Scan returns.
	// By default they run to completion in the background.
	CancelStrayProbes bool
}

// Scanner sweeps a range for the host carrying a target MAC address.
type Scanner struct {
	prober        Prober
	config        probe.ConnectionConfig
	maxConcurrent int
	deadline      time.Duration
	cancelStray   bool
	logger        *slog.Logger
}

// NewScanner creates a scanner that probes every host with config.
func NewScanner(prober Prober, config probe.ConnectionConfig, opts Options, logger *slog.Logger) *Scanner {
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Scanner{
		prober:        prober,
		config:        config,
		maxConcurrent: opts.MaxConcurrent,
		deadline:      opts.Deadline,
		cancelStray:   opts.CancelStrayProbes,
		logger:        logger.With("component", "scanner"),
	}
}

// hostResult is what one unit of work reports back to the consumer.
type hostResult struct {
	matched bool
	err     error
}

// Scan probes every usable host of cidr and returns the first host, in
// enumeration order, whose interfaces carry targetMAC.
//
// Results are consumed in launch order, so the winner is deterministic even
// though probes finish in any order. Scan returns as soon as the consumed
// result is a match and does not wait for hosts launched after it.
//
// Errors: *InvalidRangeError before any probe is launched, *MacNotFoundError
// once every host reported no match, *ScanTimeoutError when the deadline or
// ctx expires first. Per-host failures never end the scan.
func (s *Scanner) Scan(ctx context.Context, targetMAC, cidr string) (string, error) {
	mac := probe.NormalizeMAC(targetMAC)

	hosts, err := ExpandCIDR(cidr)
	if err != nil {
		return "", err
	}

	logger := s.logger.With(
		slog.String("range", cidr),
		slog.String("target_mac", mac),
	)
	logger.InfoContext(ctx, "Scanning hosts",
		slog.Int("host_count", len(hosts)),
		slog.Int("max_concurrent", s.maxConcurrent),
	)

	scanCtx := ctx
	if s.deadline > 0 {
		var cancel context.CancelFunc
		scanCtx, cancel = context.WithTimeout(ctx, s.deadline)
		defer cancel()
	}

	// Probes are detached from the scan unless stray probes should be cancelled.
	probeCtx := context.WithoutCancel(scanCtx)
	if s.cancelStray {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithCancel(scanCtx)
		defer cancel()
	}

	// No host is admitted once Scan has returned, whatever probeCtx allows.
	launchCtx, stopLaunch := context.WithCancel(scanCtx)
	defer stopLaunch()

	results := s.launch(launchCtx, probeCtx, hosts, mac, logger)

	var firstErr error
	for i, resultCh := range results {
		select {
		case r := <-resultCh:
			if r.matched {
				logger.InfoContext(ctx, "Found target MAC", slog.String("ip", hosts[i]))
				return hosts[i], nil
			}
			if r.err != nil && firstErr == nil {
				firstErr = r.err
			}
		case <-scanCtx.Done():
			logger.WarnContext(ctx, "Scan abandoned before completion",
				slog.Int("hosts_observed", i),
				slog.String("reason", scanCtx.Err().Error()),
			)
			return "", s.timeoutError(ctx, scanCtx)
		}
	}

	notFound := &MacNotFoundError{MAC: targetMAC}
	if firstErr != nil {
		notFound.Diagnostic = firstErr.Error()
	}
	logger.InfoContext(ctx, "Target MAC not found", slog.String("diagnostic", notFound.Diagnostic))

	return "", notFound
}

// launch starts one unit of work per host, in host order, each admitted by the
// semaphore. Slot i of the returned slice receives exactly one result for
// hosts[i] unless launchCtx ends first; probes run under probeCtx.
func (s *Scanner) launch(launchCtx, probeCtx context.Context, hosts []string, mac string, logger *slog.Logger) []chan hostResult {
	results := make([]chan hostResult, len(hosts))
	for i := range results {
		results[i] = make(chan hostResult, 1)
	}

	sem := make(chan struct{}, s.maxConcurrent)

	go func() {
		for i, ip := range hosts {
			select {
			case sem <- struct{}{}:
			case <-launchCtx.Done():
				logger.Debug("Stopped launching probes", slog.Int("launched", i))
				return
			}
			// select picks at random when both are ready
			if launchCtx.Err() != nil {
				<-sem
				logger.Debug("Stopped launching probes", slog.Int("launched", i))
				return
			}

			go func() {
				defer func() { <-sem }()
				results[i] <- s.probeHost(probeCtx, ip, mac, logger)
			}()
		}
	}()

	return results
}

// probeHost runs one probe and converts every failure, panics included, into
// a "no match" carrying the error.
func (s *Scanner) probeHost(ctx context.Context, ip, mac string, logger *slog.Logger) (res hostResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Probe panicked", slog.String("ip", ip), slog.Any("panic", r))
			res = hostResult{err: fmt.Errorf("probe of %s panicked: %v", ip, r)}
		}
	}()

	identity, err := s.prober.Probe(ctx, ip, s.config)
	if err != nil {
		level := slog.LevelDebug
		if probe.KindOf(err) == probe.AuthenticationFailure {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "Probe failed",
			slog.String("ip", ip),
			slog.String("error", err.Error()),
		)
		return hostResult{err: err}
	}

	if identity.Has(mac) {
		return hostResult{matched: true}
	}

	logger.Debug("No match on host",
		slog.String("ip", ip),
		slog.Int("mac_count", len(identity.MACList)),
	)
	return hostResult{}
}

func (s *Scanner) timeoutError(parent, scanCtx context.Context) error {
	if parent.Err() == nil && s.deadline > 0 {
		return &ScanTimeoutError{After: s.deadline, Err: scanCtx.Err()}
	}
	return &ScanTimeoutError{Err: parent.Err()}
}

// Result is delivered by Start once a scan ends.
type Result struct {
	IP  string
	Err error
}

// Outcome converts the result for display.
func (r Result) Outcome() Outcome {
	return NewOutcome(r.IP, r.Err)
}

// Start runs Scan on its own goroutine and returns immediately. The channel
// receives exactly one Result.
func (s *Scanner) Start(ctx context.Context, targetMAC, cidr string) <-chan Result {
	done := make(chan Result, 1)
	go func() {
		ip, err := s.Scan(ctx, targetMAC, cidr)
		done <- Result{IP: ip, Err: err}
	}()
	return done
}
