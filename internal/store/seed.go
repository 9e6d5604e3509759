package store

import (
	"context"
	"fmt"
	"time"

	"github.com/justsurfingit/jobflow/internal/models"
)

const day = 24 * time.Hour

// DefaultPlatformNames are the platforms every fresh store starts with.
var DefaultPlatformNames = []string{"LinkedIn", "Indeed", "Glassdoor"}

// Seed creates the default platforms when the store has none and, if
// withSamples is set and no user exists yet, the demo user with sample jobs and
// applications. It is safe to call on every start.
func Seed(ctx context.Context, s Store, now time.Time, withSamples bool) error {
	platforms, err := s.ListPlatforms(ctx)
	if err != nil {
		return fmt.Errorf("list platforms: %w", err)
	}
	if len(platforms) == 0 {
		platforms, err = seedPlatforms(ctx, s, now)
		if err != nil {
			return err
		}
	}

	if !withSamples {
		return nil
	}
	users, err := s.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	if len(users) > 0 {
		return nil
	}
	return seedSamples(ctx, s, now, platforms)
}

func seedPlatforms(ctx context.Context, s Store, now time.Time) ([]models.JobPlatform, error) {
	statuses := map[string]models.RateLimitStatus{
		"LinkedIn":  models.RateLimitNormal,
		"Indeed":    models.RateLimitNormal,
		"Glassdoor": models.RateLimitLimited,
	}
	out := make([]models.JobPlatform, 0, len(DefaultPlatformNames))
	for _, name := range DefaultPlatformNames {
		synced := now
		p, err := s.CreatePlatform(ctx, models.JobPlatform{
			Name:            name,
			IsConnected:     true,
			Credentials:     map[string]any{},
			RateLimitStatus: statuses[name],
			LastSyncAt:      &synced,
		})
		if err != nil {
			return nil, fmt.Errorf("seed platform %s: %w", name, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func seedSamples(ctx context.Context, s Store, now time.Time, platforms []models.JobPlatform) error {
	if len(platforms) < 3 {
		return fmt.Errorf("seed samples: need 3 platforms, have %d", len(platforms))
	}

	user, err := s.CreateUser(ctx, models.User{
		Email:             "sarah.j@email.com",
		Name:              "Sarah Johnson",
		Password:          "hashed_password",
		Resume:            ptr("Senior Frontend Developer with 5+ years experience..."),
		Skills:            []string{"React", "TypeScript", "Node.js", "GraphQL"},
		Experience:        ptr("5+ years"),
		Location:          ptr("San Francisco, CA"),
		TargetSalary:      ptr(150000),
		PreferredJobTypes: []string{"full-time", "remote"},
		LinkedinProfile:   ptr("https://linkedin.com/in/sarahjohnson"),
		GithubProfile:     ptr("https://github.com/sarahjohnson"),
		PortfolioURL:      ptr("https://sarahjohnson.dev"),
	})
	if err != nil {
		return fmt.Errorf("seed user: %w", err)
	}

	linkedin, indeed, glassdoor := platforms[0].ID, platforms[1].ID, platforms[2].ID
	sampleJobs := []models.Job{
		{
			Title:           "Senior Frontend Developer",
			Company:         "Microsoft",
			Location:        ptr("Seattle, WA"),
			Salary:          ptr("$140k-180k"),
			Description:     ptr("Join our team building the next generation of developer tools..."),
			Requirements:    []string{"React", "TypeScript", "5+ years experience"},
			Benefits:        []string{"Health insurance", "401k", "Remote work"},
			JobType:         ptr("full-time"),
			ExperienceLevel: ptr("senior"),
			PlatformID:      &linkedin,
			ExternalURL:     ptr("https://careers.microsoft.com/job123"),
			MatchPercentage: ptr(95),
			PostedAt:        ptr(now.Add(-2 * day)),
		},
		{
			Title:           "React Developer",
			Company:         "Stripe",
			Location:        ptr("San Francisco, CA"),
			Salary:          ptr("$140k-180k"),
			Description:     ptr("Help us build the future of online payments..."),
			Requirements:    []string{"React", "JavaScript", "Payment systems"},
			Benefits:        []string{"Equity", "Health insurance", "Flexible hours"},
			JobType:         ptr("full-time"),
			ExperienceLevel: ptr("mid"),
			PlatformID:      &indeed,
			ExternalURL:     ptr("https://stripe.com/jobs/react-dev"),
			MatchPercentage: ptr(95),
			PostedAt:        ptr(now),
		},
		{
			Title:           "Frontend Engineer",
			Company:         "Shopify",
			Location:        ptr("Remote"),
			Salary:          ptr("$120k-160k"),
			Description:     ptr("Build beautiful e-commerce experiences..."),
			Requirements:    []string{"React", "TypeScript", "E-commerce"},
			Benefits:        []string{"Remote work", "Health insurance", "Learning budget"},
			JobType:         ptr("full-time"),
			ExperienceLevel: ptr("mid"),
			PlatformID:      &indeed,
			ExternalURL:     ptr("https://shopify.com/careers/frontend"),
			MatchPercentage: ptr(92),
			PostedAt:        ptr(now),
		},
		{
			Title:           "iOS Developer",
			Company:         "Apple",
			Location:        ptr("Cupertino, CA"),
			Salary:          ptr("$160k-200k"),
			Description:     ptr("Work on iOS applications used by millions..."),
			Requirements:    []string{"Swift", "iOS", "UIKit"},
			Benefits:        []string{"Stock options", "Health insurance", "On-site gym"},
			JobType:         ptr("full-time"),
			ExperienceLevel: ptr("senior"),
			PlatformID:      &linkedin,
			ExternalURL:     ptr("https://jobs.apple.com/ios-dev"),
			MatchPercentage: ptr(85),
			PostedAt:        ptr(now.Add(-day)),
		},
		{
			Title:           "Full Stack Engineer",
			Company:         "Meta",
			Location:        ptr("Menlo Park, CA"),
			Salary:          ptr("$150k-190k"),
			Description:     ptr("Build products that connect billions of people..."),
			Requirements:    []string{"React", "Node.js", "GraphQL"},
			Benefits:        []string{"Stock options", "Health insurance", "Free meals"},
			JobType:         ptr("full-time"),
			ExperienceLevel: ptr("senior"),
			PlatformID:      &glassdoor,
			ExternalURL:     ptr("https://meta.com/careers/fullstack"),
			MatchPercentage: ptr(88),
			PostedAt:        ptr(now.Add(-7 * day)),
		},
		{
			Title:           "Software Engineer",
			Company:         "Airbnb",
			Location:        ptr("Austin, TX"),
			Salary:          ptr("$130k-170k"),
			Description:     ptr("Help people belong anywhere..."),
			Requirements:    []string{"JavaScript", "React", "Python"},
			Benefits:        []string{"Travel stipend", "Health insurance", "Flexible PTO"},
			JobType:         ptr("full-time"),
			ExperienceLevel: ptr("mid"),
			PlatformID:      &indeed,
			ExternalURL:     ptr("https://airbnb.com/careers/software-eng"),
			MatchPercentage: ptr(89),
			PostedAt:        ptr(now),
		},
	}

	jobs := make([]models.Job, 0, len(sampleJobs))
	for _, j := range sampleJobs {
		created, err := s.CreateJob(ctx, j)
		if err != nil {
			return fmt.Errorf("seed job %s: %w", j.Company, err)
		}
		jobs = append(jobs, created)
	}

	sampleApplications := []models.Application{
		{
			UserID:          user.ID,
			JobID:           jobs[0].ID,
			Status:          models.StatusInterview,
			AppliedAt:       ptr(now.Add(-2 * day)),
			ResponseAt:      ptr(now.Add(-day)),
			Notes:           ptr("Great interview, waiting for next round"),
			CoverLetter:     ptr("I am excited to apply for the Senior Frontend Developer position..."),
			IsAutoApplied:   true,
			ApplicationData: map[string]any{"source": "auto-apply"},
		},
		{
			UserID:          user.ID,
			JobID:           jobs[3].ID,
			Status:          models.StatusUnderReview,
			AppliedAt:       ptr(now.Add(-5 * day)),
			Notes:           ptr("Applied through auto-apply system"),
			CoverLetter:     ptr("I would love to contribute to iOS development at Apple..."),
			IsAutoApplied:   true,
			ApplicationData: map[string]any{"source": "auto-apply"},
		},
		{
			UserID:          user.ID,
			JobID:           jobs[4].ID,
			Status:          models.StatusRejected,
			AppliedAt:       ptr(now.Add(-7 * day)),
			ResponseAt:      ptr(now.Add(-5 * day)),
			Notes:           ptr("Not a good fit for current team needs"),
			CoverLetter:     ptr("I am interested in the Full Stack Engineer position..."),
			ApplicationData: map[string]any{"source": "manual"},
		},
	}
	for _, a := range sampleApplications {
		if _, err := s.CreateApplication(ctx, a); err != nil {
			return fmt.Errorf("seed application: %w", err)
		}
	}
	return nil
}

func ptr[T any](v T) *T { return &v }
