package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/justsurfingit/jobflow/internal/apperr"
	"github.com/justsurfingit/jobflow/internal/automation"
	"github.com/justsurfingit/jobflow/internal/dtos"
	"github.com/justsurfingit/jobflow/internal/metrics"
	"github.com/justsurfingit/jobflow/internal/models"
	"github.com/justsurfingit/jobflow/internal/store"
)

const (
	DefaultCoverLetter  = "Auto-generated cover letter based on profile"
	autoAppliedDetails  = "Auto-applied through JobFlow system"
	defaultSubmitWindow = 45 * time.Second
)

// ApplicationService owns the application lifecycle: auto-apply submission,
// raw creation, partial updates and the tracking log.
type ApplicationService struct {
	store     store.Store
	llm       *LLMService
	submitter automation.Submitter
	timeout   time.Duration
	log       *zap.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

type ApplicationOption func(*ApplicationService)

// WithLLM drafts cover letters for submissions that do not bring one.
func WithLLM(llm *LLMService) ApplicationOption {
	return func(s *ApplicationService) { s.llm = llm }
}

// WithSubmitter forwards every new auto-applied application to sub in the
// background, giving each dispatch at most timeout.
func WithSubmitter(sub automation.Submitter, timeout time.Duration) ApplicationOption {
	return func(s *ApplicationService) {
		s.submitter = sub
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

func NewApplicationService(s store.Store, log *zap.Logger, opts ...ApplicationOption) *ApplicationService {
	ctx, cancel := context.WithCancel(context.Background())
	svc := &ApplicationService{
		store:   s,
		timeout: defaultSubmitWindow,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Submit auto-applies userID to jobID. A second submission for the same pair
// fails with apperr.ErrDuplicateApplication.
func (s *ApplicationService) Submit(ctx context.Context, userID, jobID string, req dtos.ApplyRequest) (models.Application, error) {
	app, err := s.submit(ctx, userID, jobID, req)
	switch {
	case err == nil:
		metrics.RecordSubmission("created")
	case errors.Is(err, apperr.ErrDuplicateApplication):
		metrics.RecordSubmission("duplicate")
	default:
		metrics.RecordSubmission("error")
	}
	return app, err
}

func (s *ApplicationService) submit(ctx context.Context, userID, jobID string, req dtos.ApplyRequest) (models.Application, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return models.Application{}, err
	}
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return models.Application{}, err
	}
	var profile *models.UserProfile
	if req.ProfileID != "" {
		p, err := s.store.GetProfile(ctx, req.ProfileID)
		if err != nil {
			return models.Application{}, err
		}
		if p.UserID != userID {
			return models.Application{}, apperr.NotFound("profile", req.ProfileID)
		}
		profile = &p
	}

	// Checked before the cover letter is drafted. CreateApplicationIfAbsent
	// below still enforces uniqueness.
	existing, err := s.store.ListApplicationsByUser(ctx, userID)
	if err != nil {
		return models.Application{}, fmt.Errorf("list applications: %w", err)
	}
	for _, a := range existing {
		if a.JobID == jobID {
			return models.Application{}, apperr.DuplicateApplication(userID, jobID)
		}
	}

	coverLetter := s.coverLetter(ctx, req.CoverLetter, user, job, profile)
	data := map[string]any{"source": "auto-apply"}
	if profile != nil {
		data["profileId"] = profile.ID
	}

	details := autoAppliedDetails
	app, err := s.store.CreateApplicationIfAbsent(ctx, models.Application{
		UserID:          userID,
		JobID:           jobID,
		Status:          models.StatusPending,
		CoverLetter:     &coverLetter,
		IsAutoApplied:   true,
		ApplicationData: data,
	}, models.ApplicationTracking{
		Event:   models.EventApplied,
		Details: &details,
	})
	if err != nil {
		return models.Application{}, err
	}

	s.log.Info("application submitted",
		zap.String("application_id", app.ID),
		zap.String("user_id", userID),
		zap.String("job_id", jobID),
	)
	s.dispatch(app, job, user, profile)
	return app, nil
}

func (s *ApplicationService) coverLetter(ctx context.Context, given string, user models.User, job models.Job, profile *models.UserProfile) string {
	if given != "" {
		return given
	}
	if s.llm.Enabled() {
		letter, err := s.llm.GenerateCoverLetter(ctx, user, job, profile)
		if err == nil {
			return letter
		}
		s.log.Warn("cover letter generation failed, using default",
			zap.String("job_id", job.ID),
			zap.Error(err),
		)
	}
	return DefaultCoverLetter
}

// dispatch hands the application to the platform submitter in the background
// and records the outcome as a tracking event.
func (s *ApplicationService) dispatch(app models.Application, job models.Job, user models.User, profile *models.UserProfile) {
	if s.submitter == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
		defer cancel()

		req := automation.SubmitRequest{Application: app, Job: job, User: user, Profile: profile}
		if job.PlatformID != nil {
			p, err := s.store.GetPlatform(ctx, *job.PlatformID)
			if err == nil {
				req.Platform = &p
			} else if !apperr.IsNotFound(err) {
				s.log.Warn("load platform for submission", zap.String("job_id", job.ID), zap.Error(err))
			}
		}

		event, details := models.EventSubmitted, ""
		res, err := s.submitter.Submit(ctx, req)
		switch {
		case err != nil:
			event, details = models.EventSubmissionFailed, err.Error()
		case !res.Success:
			event, details = models.EventSubmissionFailed, res.Message
		default:
			details = res.Message
		}

		if err != nil {
			s.log.Warn("platform submission failed", zap.String("application_id", app.ID), zap.Error(err))
		}
		writeCtx, cancelWrite := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancelWrite()
		if _, err := s.store.CreateTracking(writeCtx, models.ApplicationTracking{
			ApplicationID: app.ID,
			Event:         event,
			Details:       &details,
		}); err != nil {
			s.log.Error("record submission outcome", zap.String("application_id", app.ID), zap.Error(err))
		}
	}()
}

// Close stops accepting dispatches and waits for in-flight ones. When ctx
// expires first the remaining dispatches are cancelled.
func (s *ApplicationService) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		return ctx.Err()
	}
}

// BatchResult is the outcome of one job in a batch submission. Exactly one of
// Application and Error is set.
type BatchResult struct {
	JobID       string              `json:"jobId"`
	Application *models.Application `json:"application,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// SubmitBatch submits to each job in turn. A failing job does not stop the
// batch; a cancelled ctx does.
func (s *ApplicationService) SubmitBatch(ctx context.Context, userID string, jobIDs []string, req dtos.ApplyRequest) ([]BatchResult, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	results := make([]BatchResult, 0, len(jobIDs))
	for _, jobID := range jobIDs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		app, err := s.Submit(ctx, userID, jobID, req)
		if err != nil {
			results = append(results, BatchResult{JobID: jobID, Error: apperr.Message(err)})
			continue
		}
		results = append(results, BatchResult{JobID: jobID, Application: &app})
	}
	return results, nil
}

// Create stores an application as given, without the duplicate check and
// without a tracking event.
func (s *ApplicationService) Create(ctx context.Context, req dtos.ApplicationCreationRequest) (models.Application, error) {
	if err := req.Validate(); err != nil {
		return models.Application{}, err
	}
	return s.store.CreateApplication(ctx, req.ToModel())
}

// Update applies a partial update. Any status may follow any other.
func (s *ApplicationService) Update(ctx context.Context, id string, upd dtos.ApplicationUpdate) (models.Application, error) {
	if err := upd.Validate(); err != nil {
		return models.Application{}, err
	}
	return s.store.UpdateApplication(ctx, id, func(a *models.Application) error {
		upd.ApplyTo(a)
		return nil
	})
}

func (s *ApplicationService) Delete(ctx context.Context, id string) (bool, error) {
	return s.store.DeleteApplication(ctx, id)
}

// Tracking lists an application's events, newest first.
func (s *ApplicationService) Tracking(ctx context.Context, id string) ([]models.ApplicationTracking, error) {
	if _, err := s.store.GetApplication(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListTracking(ctx, id)
}

// ApplyEmailUpdate moves an application to status because of a recruiter
// email. The first response time is kept.
func (s *ApplicationService) ApplyEmailUpdate(ctx context.Context, id string, status models.ApplicationStatus, summary string, at time.Time) (models.Application, error) {
	if !status.Valid() {
		return models.Application{}, apperr.Validation("invalid status %q", status)
	}
	app, err := s.store.UpdateApplication(ctx, id, func(a *models.Application) error {
		a.Status = status
		if a.ResponseAt == nil {
			responded := at
			a.ResponseAt = &responded
		}
		return nil
	})
	if err != nil {
		return models.Application{}, err
	}

	details := fmt.Sprintf("Status changed to %s. Summary: %s", status, summary)
	if _, err := s.store.CreateTracking(ctx, models.ApplicationTracking{
		ApplicationID: id,
		Event:         models.EventEmailUpdate,
		Details:       &details,
		Timestamp:     at,
	}); err != nil {
		return models.Application{}, fmt.Errorf("track email update %s: %w", id, err)
	}
	metrics.RecordEmailUpdate(string(status))
	return app, nil
}
