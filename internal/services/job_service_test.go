package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/justsurfingit/jobflow/internal/apperr"
	"github.com/justsurfingit/jobflow/internal/automation"
	"github.com/justsurfingit/jobflow/internal/dtos"
	"github.com/justsurfingit/jobflow/internal/models"
	"github.com/justsurfingit/jobflow/internal/store"
	"github.com/justsurfingit/jobflow/internal/store/memory"
)

func newJobService(t *testing.T, llm *LLMService) (*JobService, *memory.Store) {
	t.Helper()
	clock := func() time.Time { return testNow }
	s := memory.New(memory.WithClock(clock))
	require.NoError(t, store.Seed(context.Background(), s, testNow.Add(-48*time.Hour), false))
	return NewJobService(s, llm, automation.DefaultScrapers(clock), clock, zap.NewNop()), s
}

func platformNamed(t *testing.T, s *memory.Store, name string) models.JobPlatform {
	t.Helper()
	ps, err := s.ListPlatforms(context.Background())
	require.NoError(t, err)
	for _, p := range ps {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("platform %s not seeded", name)
	return models.JobPlatform{}
}

func TestCreateJobValidates(t *testing.T) {
	svc, s := newJobService(t, nil)
	ctx := context.Background()

	_, err := svc.CreateJob(ctx, dtos.JobCreationRequest{Title: "Engineer"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	missing := "nope"
	_, err = svc.CreateJob(ctx, dtos.JobCreationRequest{Title: "Engineer", Company: "Acme", PlatformID: &missing})
	assert.True(t, apperr.IsNotFound(err))

	li := platformNamed(t, s, "LinkedIn")
	job, err := svc.CreateJob(ctx, dtos.JobCreationRequest{Title: "Engineer", Company: "Acme", PlatformID: &li.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{}, job.Requirements)
	assert.Equal(t, testNow, job.CreatedAt)
}

func TestExtractRequiresLLM(t *testing.T) {
	svc, _ := newJobService(t, nil)
	_, err := svc.Extract(context.Background(), dtos.JobExtractionRequest{RawHTML: "<html/>"})
	assert.ErrorIs(t, err, ErrLLMDisabled)
}

func TestExtractKeepsSourceURL(t *testing.T) {
	llm, _ := newFakeLLM(`{"role_title":"React Developer","company_name":"Stripe"}`)
	svc, _ := newJobService(t, llm)

	req, err := svc.Extract(context.Background(), dtos.JobExtractionRequest{RawHTML: "<div/>", URL: "https://stripe.com/jobs/1"})
	require.NoError(t, err)
	assert.Equal(t, "React Developer", req.Title)
	require.NotNil(t, req.ExternalURL)
	assert.Equal(t, "https://stripe.com/jobs/1", *req.ExternalURL)
}

func TestIngestScrapedDedupesAndScores(t *testing.T) {
	svc, s := newJobService(t, nil)
	ctx := context.Background()
	u, err := s.CreateUser(ctx, models.User{Email: "a@b.c", Name: "A", Skills: []string{"react", "typescript"}})
	require.NoError(t, err)
	li := platformNamed(t, s, "LinkedIn")

	scraped := []automation.ScrapedJob{
		{Title: "Frontend", Company: "Tech Corp", ExternalURL: "https://x/1", Requirements: []string{"React", "TypeScript", "Go", "SQL"}},
		{Title: "Frontend", Company: "Tech Corp", ExternalURL: "https://x/1"},
	}
	created, err := svc.IngestScraped(ctx, li, u.ID, scraped)
	require.NoError(t, err)
	require.Len(t, created, 1)
	require.NotNil(t, created[0].MatchPercentage)
	assert.Equal(t, 50, *created[0].MatchPercentage)
	assert.Equal(t, li.ID, *created[0].PlatformID)

	created, err = svc.IngestScraped(ctx, li, u.ID, scraped[:1])
	require.NoError(t, err)
	assert.Empty(t, created)

	p, err := s.GetPlatform(ctx, li.ID)
	require.NoError(t, err)
	assert.Equal(t, testNow, *p.LastSyncAt)
}

func TestConcurrentIngestStoresPostingOnce(t *testing.T) {
	svc, s := newJobService(t, nil)
	ctx := context.Background()
	li := platformNamed(t, s, "LinkedIn")
	posting := []automation.ScrapedJob{{Title: "Frontend", Company: "Tech Corp", ExternalURL: "https://x/concurrent"}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.IngestScraped(ctx, li, "", posting)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	jobs, err := s.ListJobs(ctx)
	require.NoError(t, err)
	n := 0
	for _, j := range jobs {
		if j.ExternalURL != nil && *j.ExternalURL == "https://x/concurrent" {
			n++
		}
	}
	assert.Equal(t, 1, n)
}

func TestSyncAllSkipsBlockedPlatforms(t *testing.T) {
	svc, s := newJobService(t, nil)
	ctx := context.Background()
	li := platformNamed(t, s, "LinkedIn")

	assert.Equal(t, 1, svc.SyncAll(ctx, "", []string{"react"}, ""))
	assert.Equal(t, 0, svc.SyncAll(ctx, "", []string{"react"}, ""))

	_, err := s.UpdatePlatform(ctx, li.ID, func(p *models.JobPlatform) error {
		p.RateLimitStatus = models.RateLimitBlocked
		return nil
	})
	require.NoError(t, err)
	_, err = svc.SyncPlatform(ctx, li.ID, "", nil, "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestSyncPlatform(t *testing.T) {
	svc, s := newJobService(t, nil)
	ctx := context.Background()

	created, err := svc.SyncPlatform(ctx, platformNamed(t, s, "LinkedIn").ID, "", nil, "Remote")
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "Remote", *created[0].Location)
	assert.Nil(t, created[0].MatchPercentage)

	_, err = svc.SyncPlatform(ctx, "missing", "", nil, "")
	assert.True(t, apperr.IsNotFound(err))
}
