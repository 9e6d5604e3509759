package services

import (
	"context"
	"fmt"
	"time"

	"github.com/justsurfingit/jobflow/internal/apperr"
	"github.com/justsurfingit/jobflow/internal/dtos"
	"github.com/justsurfingit/jobflow/internal/models"
	"github.com/justsurfingit/jobflow/internal/store"
)

const (
	DefaultAnalyticsDays = 7
	MaxAnalyticsDays     = 365
)

// Clock supplies the current time and the location calendar days are cut in.
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return Clock{Now: time.Now, Location: loc}
}

// AnalyticsService is the read side: joined listings and dashboard figures.
type AnalyticsService struct {
	store store.Store
	clock Clock
}

func NewAnalyticsService(s store.Store, clock Clock) *AnalyticsService {
	return &AnalyticsService{store: s, clock: clock}
}

func (s *AnalyticsService) Jobs(ctx context.Context, filters dtos.JobFilters) ([]models.JobWithPlatform, error) {
	jobs, err := s.store.ListJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	platforms, err := s.store.ListPlatforms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list platforms: %w", err)
	}
	return FilterJobs(jobs, platforms, filters), nil
}

func (s *AnalyticsService) Job(ctx context.Context, id string) (models.JobWithPlatform, error) {
	j, err := s.store.GetJob(ctx, id)
	if err != nil {
		return models.JobWithPlatform{}, err
	}
	out := models.JobWithPlatform{Job: j}
	if j.PlatformID != nil {
		p, err := s.store.GetPlatform(ctx, *j.PlatformID)
		switch {
		case err == nil:
			out.Platform = &p
		case !apperr.IsNotFound(err):
			return models.JobWithPlatform{}, err
		}
	}
	return out, nil
}

func (s *AnalyticsService) Recommendations(ctx context.Context) ([]models.JobWithPlatform, error) {
	jobs, err := s.Jobs(ctx, dtos.JobFilters{})
	if err != nil {
		return nil, err
	}
	return Recommend(jobs), nil
}

func (s *AnalyticsService) Applications(ctx context.Context, userID string) ([]models.ApplicationWithJob, error) {
	apps, err := s.store.ListApplicationsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	jobs, err := s.store.ListJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	platforms, err := s.store.ListPlatforms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list platforms: %w", err)
	}
	return JoinApplications(apps, jobs, platforms), nil
}

func (s *AnalyticsService) RecentApplications(ctx context.Context, userID string) ([]models.ApplicationWithJob, error) {
	apps, err := s.Applications(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(apps) > RecentLimit {
		apps = apps[:RecentLimit]
	}
	return apps, nil
}

// Application returns one application with its job. An application whose job
// is gone is reported as not found.
func (s *AnalyticsService) Application(ctx context.Context, id string) (models.ApplicationWithJob, error) {
	a, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return models.ApplicationWithJob{}, err
	}
	j, err := s.Job(ctx, a.JobID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return models.ApplicationWithJob{}, apperr.NotFound("application", id)
		}
		return models.ApplicationWithJob{}, err
	}
	return models.ApplicationWithJob{Application: a, Job: j}, nil
}

func (s *AnalyticsService) DashboardStats(ctx context.Context, userID string) (models.DashboardStats, error) {
	apps, err := s.store.ListApplicationsByUser(ctx, userID)
	if err != nil {
		return models.DashboardStats{}, fmt.Errorf("list applications: %w", err)
	}
	jobs, err := s.store.ListJobs(ctx)
	if err != nil {
		return models.DashboardStats{}, fmt.Errorf("list jobs: %w", err)
	}
	return ComputeStats(apps, jobs, s.clock.Now(), s.clock.Location), nil
}

// ApplicationsByDate returns one bucket per day for the last days days.
func (s *AnalyticsService) ApplicationsByDate(ctx context.Context, userID string, days int) ([]models.DailyCount, error) {
	if days < 1 || days > MaxAnalyticsDays {
		return nil, apperr.Validation("days must be between 1 and %d", MaxAnalyticsDays)
	}
	apps, err := s.store.ListApplicationsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return BucketByDate(apps, days, s.clock.Now(), s.clock.Location), nil
}
