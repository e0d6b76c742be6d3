// Package comparator implements the comparator service: a control
// loop that polls the platform for comparison jobs, loads the two
// artifacts each job references from the on-disk storage tree, runs
// the structural comparator over them, and posts the result back
// (spec §4.5).
package comparator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/trytouca/touca-go/pkg/touca/jsonenc"
	"github.com/trytouca/touca-go/pkg/touca/logx"
	"github.com/trytouca/touca-go/pkg/touca/testcase"
)

// platformClient is the subset of *platform.Platform the service loop
// depends on; *platform.Platform satisfies it directly. Expressed as
// an interface here so tests can drive the loop against a fake
// instead of a real HTTP round trip.
type platformClient interface {
	Handshake(ctx context.Context) error
	CmpJobs(ctx context.Context) ([]byte, error)
	CmpSubmit(ctx context.Context, url string, body []byte) error
}

// State is one stage of the service's Init -> Startup -> Running ->
// Terminated state machine.
type State uint8

const (
	StateInit State = iota
	StateStartup
	StateRunning
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateStartup:
		return "startup"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// ErrStartupFailed is returned when the startup stage exhausts its
// handshake attempts without success.
var ErrStartupFailed = errors.New("startup failed")

// ErrConsecutiveFailures is returned when the running stage aborts
// after exceeding its consecutive-failure limit.
var ErrConsecutiveFailures = errors.New("exceeded maximum consecutive failures")

// Config holds the comparator service's configuration surface (spec
// §6, "Service configuration").
type Config struct {
	APIURL          string
	ProjectDir      string
	StorageDir      string
	LogDir          string
	LogLevel        logx.Level
	MaxFailures     int
	PollingInterval time.Duration
	StartupInterval time.Duration
	StartupTimeout  time.Duration
}

// Service runs the control loop described in spec §4.5.
type Service struct {
	cfg      Config
	platform platformClient
	storage  *Storage
	log      *logx.Logger

	state State
}

// New constructs a Service ready to Run.
func New(cfg Config, p platformClient, log *logx.Logger) *Service {
	return &Service{
		cfg:      cfg,
		platform: p,
		storage:  NewStorage(cfg.StorageDir),
		log:      log,
		state:    StateInit,
	}
}

// State returns the service's current stage.
func (s *Service) State() State {
	return s.state
}

// Run drives the service through Startup and then Running until ctx is
// canceled or the running stage aborts on a consecutive-failure
// overrun. It returns the error that caused the loop to stop, or nil
// if ctx was canceled during the running stage; a cancellation during
// startup returns ctx's error.
func (s *Service) Run(ctx context.Context) error {
	s.state = StateStartup
	if err := s.startup(ctx); err != nil {
		s.state = StateTerminated
		return err
	}

	s.state = StateRunning
	err := s.running(ctx)
	s.state = StateTerminated
	return err
}

// startup performs up to ceil(startup_timeout/startup_interval)
// handshake attempts, sleeping startup_interval between failures.
func (s *Service) startup(ctx context.Context) error {
	attempts := int(math.Ceil(float64(s.cfg.StartupTimeout) / float64(s.cfg.StartupInterval)))
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := s.platform.Handshake(ctx)
		if err == nil {
			s.log.Info("comparator handshake succeeded", map[string]any{"attempt": attempt})
			return nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.StartupInterval):
		}
	}
	return fmt.Errorf("%w: after %d attempts: %v", ErrStartupFailed, attempts, lastErr)
}

// running repeatedly polls the job list and processes each job in
// order, enforcing the consecutive-failure guard (spec §4.5).
func (s *Service) running(ctx context.Context) error {
	consecutiveFailures := 0

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		body, err := s.platform.CmpJobs(ctx)
		if err != nil {
			s.log.Error("failed to fetch job list", map[string]any{"error": err.Error()})
			if err := sleepOrDone(ctx, s.cfg.PollingInterval); err != nil {
				return nil
			}
			continue
		}

		jobs, err := ParseJobs(body)
		if err != nil {
			s.log.Error("failed to parse job list", map[string]any{"error": err.Error()})
			if err := sleepOrDone(ctx, s.cfg.PollingInterval); err != nil {
				return nil
			}
			continue
		}

		if len(jobs) == 0 {
			if err := sleepOrDone(ctx, s.cfg.PollingInterval); err != nil {
				return nil
			}
			continue
		}

		limit := s.cfg.MaxFailures
		if len(jobs) < limit {
			limit = len(jobs)
		}

		for _, job := range jobs {
			if err := s.processJob(ctx, job); err != nil {
				consecutiveFailures++
				s.log.Warn("comparison job failed", map[string]any{"batch_id": job.BatchID, "error": err.Error(), "consecutive_failures": consecutiveFailures})
				if consecutiveFailures > limit {
					s.log.Error("exceeded maximum consecutive failures", map[string]any{"limit": limit})
					return ErrConsecutiveFailures
				}
				continue
			}
			consecutiveFailures = 0
		}
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// processJob implements one iteration of the per-job orchestration
// described in spec §4.5: load both artifacts (declaring the job
// orphaned if either is missing or malformed), post any unprocessed
// side's summary, run the comparator, and post its result.
func (s *Service) processJob(ctx context.Context, job Job) error {
	src, err := s.storage.Load(job.BatchID, job.SrcMessageID)
	if err != nil {
		s.log.Warn("comparison job is orphaned", map[string]any{"batch_id": job.BatchID, "side": "src", "error": err.Error()})
		return fmt.Errorf("loading src artifact: %w", err)
	}
	dst, err := s.storage.Load(job.BatchID, job.DstMessageID)
	if err != nil {
		s.log.Warn("comparison job is orphaned", map[string]any{"batch_id": job.BatchID, "side": "dst", "error": err.Error()})
		return fmt.Errorf("loading dst artifact: %w", err)
	}

	if !job.SrcProcessed {
		if err := s.postSummary(ctx, src); err != nil {
			return fmt.Errorf("posting src summary: %w", err)
		}
	}
	if !job.DstProcessed {
		if err := s.postSummary(ctx, dst); err != nil {
			return fmt.Errorf("posting dst summary: %w", err)
		}
	}

	result := compareTestCases(src, dst)
	body := jsonenc.Marshal(resultToNode(result))
	if err := s.platform.CmpSubmit(ctx, fmt.Sprintf("/comparison/%s/result", job.BatchID), body); err != nil {
		return fmt.Errorf("posting comparison result: %w", err)
	}
	return nil
}

// postSummary posts a per-message overview + JSON projection for one
// side of the job (spec §4.5, step 2).
func (s *Service) postSummary(ctx context.Context, tc *testcase.TestCase) error {
	body := jsonenc.Marshal(testCaseNode(tc))
	meta := tc.Metadata()
	return s.platform.CmpSubmit(ctx, fmt.Sprintf("/comparison/message/%s", meta.CaseSlug), body)
}
