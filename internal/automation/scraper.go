package automation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ScrapedJob is one posting as found on a platform.
type ScrapedJob struct {
	Title        string
	Company      string
	Location     string
	Salary       *string
	Description  string
	Requirements []string
	ExternalURL  string
	PostedAt     time.Time
}

// Scraper searches one platform for postings.
type Scraper interface {
	Platform() string
	Scrape(ctx context.Context, terms []string, location string) ([]ScrapedJob, error)
}

// StubScraper returns canned postings.
type StubScraper struct {
	platform string
	results  func(terms []string, location string) []ScrapedJob
}

func NewStubScraper(platform string, results func(terms []string, location string) []ScrapedJob) *StubScraper {
	return &StubScraper{platform: platform, results: results}
}

func (s *StubScraper) Platform() string { return s.platform }

func (s *StubScraper) Scrape(ctx context.Context, terms []string, location string) ([]ScrapedJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.results == nil {
		return nil, nil
	}
	return s.results(terms, location), nil
}

// DefaultScrapers are the stand-ins for the three seeded platforms.
func DefaultScrapers(now func() time.Time) []Scraper {
	salary := "$120k-150k"
	linkedin := func(_ []string, location string) []ScrapedJob {
		if location == "" {
			location = "San Francisco, CA"
		}
		return []ScrapedJob{{
			Title:        "Frontend Developer",
			Company:      "Tech Corp",
			Location:     location,
			Salary:       &salary,
			Description:  "We are looking for a talented Frontend Developer...",
			Requirements: []string{"React", "TypeScript", "3+ years experience"},
			ExternalURL:  "https://linkedin.com/jobs/12345",
			PostedAt:     now(),
		}}
	}
	return []Scraper{
		NewStubScraper("LinkedIn", linkedin),
		NewStubScraper("Indeed", nil),
		NewStubScraper("Glassdoor", nil),
	}
}

// PlatformJobs is the outcome of scraping one platform.
type PlatformJobs struct {
	Platform string
	Jobs     []ScrapedJob
	Err      error
}

// ScrapeAll runs every scraper concurrently and waits for all of them. A
// failing platform is reported in its own entry and does not stop the others.
// Results keep the order of scrapers.
func ScrapeAll(ctx context.Context, scrapers []Scraper, terms []string, location string, log *zap.Logger) []PlatformJobs {
	out := make([]PlatformJobs, len(scrapers))
	var g errgroup.Group
	g.SetLimit(4)
	for i, sc := range scrapers {
		g.Go(func() error {
			jobs, err := sc.Scrape(ctx, terms, location)
			out[i] = PlatformJobs{Platform: sc.Platform(), Jobs: jobs}
			if err != nil {
				out[i].Err = fmt.Errorf("scrape %s: %w", sc.Platform(), err)
				log.Warn("scrape failed", zap.String("platform", sc.Platform()), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
