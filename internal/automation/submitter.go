// Package automation holds the stand-ins for work done on external job
// platforms: submitting applications and scraping postings. Real browser
// automation can replace them behind the same interfaces.
package automation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/justsurfingit/jobflow/internal/metrics"
	"github.com/justsurfingit/jobflow/internal/models"
)

var (
	ErrUnsupportedPlatform = errors.New("platform is not supported for auto-apply")
	ErrPlatformBlocked     = errors.New("platform is rate-limit blocked")
)

// SubmitRequest carries everything a platform form needs. Platform is nil when
// the job was not found on a known platform.
type SubmitRequest struct {
	Application models.Application
	Job         models.Job
	Platform    *models.JobPlatform
	User        models.User
	Profile     *models.UserProfile
}

type Result struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	ExternalID string `json:"externalId,omitempty"`
}

// Submitter sends an application to the platform a job was posted on.
type Submitter interface {
	Submit(ctx context.Context, req SubmitRequest) (Result, error)
}

// platformLatency is how long each platform's form takes to go through.
var platformLatency = map[string]time.Duration{
	"linkedin":  2 * time.Second,
	"indeed":    1500 * time.Millisecond,
	"glassdoor": 30 * time.Second,
}

// StubSubmitter pretends to fill in the platform forms. Each platform is paced
// by its own token bucket, slower for platforms marked limited.
type StubSubmitter struct {
	simulateLatency bool
	now             func() time.Time
	log             *zap.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

type StubOption func(*StubSubmitter)

// WithoutLatency makes submissions complete immediately.
func WithoutLatency() StubOption {
	return func(s *StubSubmitter) { s.simulateLatency = false }
}

func NewStubSubmitter(log *zap.Logger, opts ...StubOption) *StubSubmitter {
	s := &StubSubmitter{
		simulateLatency: true,
		now:             time.Now,
		log:             log,
		limiters:        make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *StubSubmitter) limiter(name string, status models.RateLimitStatus) *rate.Limiter {
	key := name + "/" + string(status)

	s.mu.Lock()
	defer s.mu.Unlock()

	lim, ok := s.limiters[key]
	if !ok {
		if status == models.RateLimitLimited {
			lim = rate.NewLimiter(rate.Every(30*time.Second), 1)
		} else {
			lim = rate.NewLimiter(rate.Every(5*time.Second), 3)
		}
		s.limiters[key] = lim
	}
	return lim
}

func (s *StubSubmitter) Submit(ctx context.Context, req SubmitRequest) (Result, error) {
	if req.Platform == nil {
		return Result{}, fmt.Errorf("%w: job %s has no platform", ErrUnsupportedPlatform, req.Job.ID)
	}
	name := strings.ToLower(req.Platform.Name)
	latency, ok := platformLatency[name]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, req.Platform.Name)
	}
	if req.Platform.RateLimitStatus == models.RateLimitBlocked {
		return Result{}, fmt.Errorf("%w: %s", ErrPlatformBlocked, req.Platform.Name)
	}

	start := s.now()
	if err := s.limiter(name, req.Platform.RateLimitStatus).Wait(ctx); err != nil {
		metrics.RecordAutoApply(name, time.Since(start), false)
		return Result{}, fmt.Errorf("wait for %s rate limit: %w", req.Platform.Name, err)
	}

	if s.simulateLatency {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			metrics.RecordAutoApply(name, time.Since(start), false)
			return Result{}, fmt.Errorf("submit to %s: %w", req.Platform.Name, ctx.Err())
		case <-timer.C:
		}
	}

	metrics.RecordAutoApply(name, time.Since(start), true)
	s.log.Info("application submitted to platform",
		zap.String("platform", req.Platform.Name),
		zap.String("job_id", req.Job.ID),
		zap.String("application_id", req.Application.ID),
	)
	return Result{
		Success:    true,
		Message:    fmt.Sprintf("Successfully applied to %s job", req.Platform.Name),
		ExternalID: fmt.Sprintf("%s_%d", name, s.now().UnixMilli()),
	}, nil
}
