package services

import (
	"context"
	"fmt"
	"strings"
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

type JobService struct {
	store    store.Store
	llm      *LLMService
	scrapers []automation.Scraper
	now      func() time.Time
	log      *zap.Logger

	// ingestMu makes the URL check and the inserts of one ingestion atomic
	// with respect to other ingestions.
	ingestMu sync.Mutex
}

func NewJobService(s store.Store, llm *LLMService, scrapers []automation.Scraper, now func() time.Time, log *zap.Logger) *JobService {
	return &JobService{store: s, llm: llm, scrapers: scrapers, now: now, log: log}
}

func (s *JobService) CreateJob(ctx context.Context, req dtos.JobCreationRequest) (models.Job, error) {
	if err := req.Validate(); err != nil {
		return models.Job{}, err
	}
	if req.PlatformID != nil {
		if _, err := s.store.GetPlatform(ctx, *req.PlatformID); err != nil {
			return models.Job{}, err
		}
	}
	job, err := s.store.CreateJob(ctx, req.ToModel())
	if err != nil {
		return models.Job{}, fmt.Errorf("create job: %w", err)
	}
	s.log.Info("job created", zap.String("job_id", job.ID), zap.String("company", job.Company))
	return job, nil
}

// Extract turns a raw job posting into a create payload without storing it.
func (s *JobService) Extract(ctx context.Context, req dtos.JobExtractionRequest) (dtos.JobCreationRequest, error) {
	out, err := s.llm.ExtractJobDetails(ctx, req.RawHTML)
	if err != nil {
		return dtos.JobCreationRequest{}, err
	}
	if out.ExternalURL == nil && req.URL != "" {
		u := req.URL
		out.ExternalURL = &u
	}
	return out, nil
}

// IngestScraped stores the postings found on platform, skipping any whose
// external URL is already known, and marks the platform as synced. Postings
// are scored against userID's skills. It returns the jobs created.
func (s *JobService) IngestScraped(ctx context.Context, platform models.JobPlatform, userID string, scraped []automation.ScrapedJob) ([]models.Job, error) {
	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	existing, err := s.store.ListJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, j := range existing {
		if j.ExternalURL != nil {
			seen[*j.ExternalURL] = true
		}
	}

	var skills []string
	if userID != "" {
		if u, err := s.store.GetUser(ctx, userID); err == nil {
			skills = u.Skills
		} else if !apperr.IsNotFound(err) {
			return nil, err
		}
	}

	var created []models.Job
	for _, sj := range scraped {
		if sj.ExternalURL != "" && seen[sj.ExternalURL] {
			continue
		}
		job, err := s.store.CreateJob(ctx, scrapedToJob(sj, platform.ID, skills))
		if err != nil {
			return created, fmt.Errorf("store scraped job: %w", err)
		}
		seen[sj.ExternalURL] = true
		created = append(created, job)
	}

	now := s.now()
	if _, err := s.store.UpdatePlatform(ctx, platform.ID, func(p *models.JobPlatform) error {
		p.LastSyncAt = &now
		return nil
	}); err != nil {
		return created, err
	}
	metrics.RecordScraped(platform.Name, len(created))
	s.log.Info("scraped jobs ingested",
		zap.String("platform", platform.Name),
		zap.Int("found", len(scraped)),
		zap.Int("created", len(created)),
	)
	return created, nil
}

func scrapedToJob(sj automation.ScrapedJob, platformID string, skills []string) models.Job {
	j := models.Job{
		Title:           sj.Title,
		Company:         sj.Company,
		Salary:          sj.Salary,
		Requirements:    sj.Requirements,
		PlatformID:      &platformID,
		MatchPercentage: MatchScore(skills, sj.Requirements),
	}
	if sj.Location != "" {
		loc := sj.Location
		j.Location = &loc
	}
	if sj.Description != "" {
		d := sj.Description
		j.Description = &d
	}
	if sj.ExternalURL != "" {
		u := sj.ExternalURL
		j.ExternalURL = &u
	}
	if !sj.PostedAt.IsZero() {
		p := sj.PostedAt
		j.PostedAt = &p
	}
	return j
}

func (s *JobService) scraperFor(name string) automation.Scraper {
	for _, sc := range s.scrapers {
		if strings.EqualFold(sc.Platform(), name) {
			return sc
		}
	}
	return nil
}

// SyncPlatform scrapes one platform now and ingests the results.
func (s *JobService) SyncPlatform(ctx context.Context, platformID, userID string, terms []string, location string) ([]models.Job, error) {
	p, err := s.store.GetPlatform(ctx, platformID)
	if err != nil {
		return nil, err
	}
	if p.RateLimitStatus == models.RateLimitBlocked {
		return nil, apperr.Validation("platform %s is blocked", p.Name)
	}
	sc := s.scraperFor(p.Name)
	if sc == nil {
		return nil, apperr.Validation("no scraper for platform %s", p.Name)
	}
	found, err := sc.Scrape(ctx, terms, location)
	if err != nil {
		return nil, fmt.Errorf("scrape %s: %w", p.Name, err)
	}
	return s.IngestScraped(ctx, p, userID, found)
}

// SyncAll scrapes every connected, unblocked platform concurrently. A platform
// that fails is logged and skipped.
func (s *JobService) SyncAll(ctx context.Context, userID string, terms []string, location string) int {
	platforms, err := s.store.ListPlatforms(ctx)
	if err != nil {
		s.log.Error("list platforms for sync", zap.Error(err))
		return 0
	}
	byName := make(map[string]models.JobPlatform, len(platforms))
	var active []automation.Scraper
	for _, p := range platforms {
		if !p.IsConnected || p.RateLimitStatus == models.RateLimitBlocked {
			continue
		}
		if sc := s.scraperFor(p.Name); sc != nil {
			byName[sc.Platform()] = p
			active = append(active, sc)
		}
	}

	total := 0
	for _, res := range automation.ScrapeAll(ctx, active, terms, location, s.log) {
		if res.Err != nil {
			continue
		}
		created, err := s.IngestScraped(ctx, byName[res.Platform], userID, res.Jobs)
		if err != nil {
			s.log.Error("ingest scraped jobs", zap.String("platform", res.Platform), zap.Error(err))
		}
		total += len(created)
	}
	return total
}

func (s *JobService) DeleteJob(ctx context.Context, id string) (bool, error) {
	return s.store.DeleteJob(ctx, id)
}
