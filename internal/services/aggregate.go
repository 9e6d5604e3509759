package services

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/justsurfingit/jobflow/internal/dtos"
	"github.com/justsurfingit/jobflow/internal/models"
)

const (
	// RecommendThreshold is the match percentage a job must exceed to count as
	// a recommendation or a match.
	RecommendThreshold = 80
	RecommendLimit     = 10
	RecentLimit        = 5
	week               = 7 * 24 * time.Hour
	dateLayout         = "2006-01-02"
)

func indexPlatforms(platforms []models.JobPlatform) map[string]models.JobPlatform {
	byID := make(map[string]models.JobPlatform, len(platforms))
	for _, p := range platforms {
		byID[p.ID] = p
	}
	return byID
}

func withPlatform(j models.Job, platforms map[string]models.JobPlatform) models.JobWithPlatform {
	out := models.JobWithPlatform{Job: j}
	if j.PlatformID != nil {
		if p, ok := platforms[*j.PlatformID]; ok {
			out.Platform = &p
		}
	}
	return out
}

// FilterJobs joins every job with its platform and keeps those matching all
// set filters: platform id exact, location case-insensitive substring, job
// type exact.
func FilterJobs(jobs []models.Job, platforms []models.JobPlatform, f dtos.JobFilters) []models.JobWithPlatform {
	byID := indexPlatforms(platforms)
	location := strings.ToLower(f.Location)

	out := make([]models.JobWithPlatform, 0, len(jobs))
	for _, j := range jobs {
		if f.Platform != "" && (j.PlatformID == nil || *j.PlatformID != f.Platform) {
			continue
		}
		if location != "" && (j.Location == nil || !strings.Contains(strings.ToLower(*j.Location), location)) {
			continue
		}
		if f.JobType != "" && (j.JobType == nil || *j.JobType != f.JobType) {
			continue
		}
		out = append(out, withPlatform(j, byID))
	}
	return out
}

func isMatch(j models.Job) bool { return j.Match() > RecommendThreshold }

// Recommend returns at most RecommendLimit jobs above the threshold, best
// match first. Equal matches keep their input order.
func Recommend(jobs []models.JobWithPlatform) []models.JobWithPlatform {
	out := make([]models.JobWithPlatform, 0, len(jobs))
	for _, j := range jobs {
		if isMatch(j.Job) {
			out = append(out, j)
		}
	}
	slices.SortStableFunc(out, func(a, b models.JobWithPlatform) int {
		return b.Match() - a.Match()
	})
	if len(out) > RecommendLimit {
		out = out[:RecommendLimit]
	}
	return out
}

func appliedUnix(a models.Application) int64 {
	if a.AppliedAt == nil {
		return 0
	}
	return a.AppliedAt.UnixNano()
}

// JoinApplications attaches each application's job and platform and sorts the
// result newest appliedAt first, a missing appliedAt counting as the epoch.
// Applications whose job no longer exists are dropped.
func JoinApplications(apps []models.Application, jobs []models.Job, platforms []models.JobPlatform) []models.ApplicationWithJob {
	jobsByID := make(map[string]models.Job, len(jobs))
	for _, j := range jobs {
		jobsByID[j.ID] = j
	}
	byID := indexPlatforms(platforms)

	sorted := slices.Clone(apps)
	slices.SortStableFunc(sorted, func(a, b models.Application) int {
		x, y := appliedUnix(a), appliedUnix(b)
		switch {
		case x > y:
			return -1
		case x < y:
			return 1
		}
		return 0
	})

	out := make([]models.ApplicationWithJob, 0, len(sorted))
	for _, a := range sorted {
		j, ok := jobsByID[a.JobID]
		if !ok {
			continue
		}
		out = append(out, models.ApplicationWithJob{Application: a, Job: withPlatform(j, byID)})
	}
	return out
}

func within(t *time.Time, since time.Time) bool {
	return t != nil && !t.Before(since)
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// ComputeStats derives the dashboard counters for one user's applications.
// Job-based counters (matches, newMatchesToday) are global.
func ComputeStats(apps []models.Application, jobs []models.Job, now time.Time, loc *time.Location) models.DashboardStats {
	weekAgo := now.Add(-week)
	today := startOfDay(now, loc)

	var stats models.DashboardStats
	responses := 0
	stats.TotalApplications = len(apps)
	for _, a := range apps {
		switch a.Status {
		case models.StatusInterview:
			stats.Interviews++
			if within(a.ResponseAt, weekAgo) || within(a.AppliedAt, weekAgo) {
				stats.WeeklyInterviews++
			}
		case models.StatusPending, models.StatusUnderReview:
			stats.Pending++
		}
		if within(a.AppliedAt, weekAgo) {
			stats.WeeklyApplications++
		}
		if a.ResponseAt != nil {
			responses++
		}
	}
	if stats.TotalApplications > 0 {
		stats.ResponseRate = int(math.Round(float64(responses) / float64(stats.TotalApplications) * 100))
	}

	for _, j := range jobs {
		if !isMatch(j) {
			continue
		}
		stats.Matches++
		if !j.CreatedAt.Before(today) {
			stats.NewMatchesToday++
		}
	}
	return stats
}

// BucketByDate counts applications per calendar day for the days ending today,
// oldest first. It always returns exactly days entries.
func BucketByDate(apps []models.Application, days int, now time.Time, loc *time.Location) []models.DailyCount {
	counts := make(map[string]int, len(apps))
	for _, a := range apps {
		if a.AppliedAt != nil {
			counts[a.AppliedAt.In(loc).Format(dateLayout)]++
		}
	}

	today := startOfDay(now, loc)
	out := make([]models.DailyCount, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := today.AddDate(0, 0, -i).Format(dateLayout)
		out = append(out, models.DailyCount{Date: date, Count: counts[date]})
	}
	return out
}
