package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justsurfingit/jobflow/internal/dtos"
	"github.com/justsurfingit/jobflow/internal/models"
)

var testNow = time.Date(2026, 10, 14, 15, 30, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func job(id string, match int) models.Job {
	j := models.Job{ID: id, Title: "Engineer " + id, Company: "Co " + id, CreatedAt: testNow.Add(-48 * time.Hour)}
	if match >= 0 {
		j.MatchPercentage = ptr(match)
	}
	return j
}

func app(id, jobID string, status models.ApplicationStatus, appliedAgo time.Duration) models.Application {
	a := models.Application{ID: id, UserID: "u1", JobID: jobID, Status: status}
	if appliedAgo >= 0 {
		a.AppliedAt = ptr(testNow.Add(-appliedAgo))
	}
	return a
}

func TestFilterJobs(t *testing.T) {
	platforms := []models.JobPlatform{{ID: "p1", Name: "LinkedIn"}, {ID: "p2", Name: "Indeed"}}
	jobs := []models.Job{
		{ID: "1", Location: ptr("San Francisco, CA"), JobType: ptr("full-time"), PlatformID: ptr("p1")},
		{ID: "2", Location: ptr("Remote"), JobType: ptr("contract"), PlatformID: ptr("p2")},
		{ID: "3", Location: ptr("SAN JOSE"), JobType: ptr("full-time"), PlatformID: ptr("gone")},
		{ID: "4"},
	}

	all := FilterJobs(jobs, platforms, dtos.JobFilters{})
	require.Len(t, all, 4)
	require.NotNil(t, all[0].Platform)
	assert.Equal(t, "LinkedIn", all[0].Platform.Name)
	assert.Nil(t, all[2].Platform)
	assert.Nil(t, all[3].Platform)

	san := FilterJobs(jobs, platforms, dtos.JobFilters{Location: "san"})
	require.Len(t, san, 2)
	assert.Equal(t, "1", san[0].ID)
	assert.Equal(t, "3", san[1].ID)

	composed := FilterJobs(jobs, platforms, dtos.JobFilters{Location: "san", JobType: "full-time", Platform: "p1"})
	require.Len(t, composed, 1)
	assert.Equal(t, "1", composed[0].ID)

	assert.Empty(t, FilterJobs(jobs, platforms, dtos.JobFilters{JobType: "internship"}))
}

func TestRecommend(t *testing.T) {
	var jobs []models.JobWithPlatform
	for i, m := range []int{80, 95, 81, -1, 95, 90, 99, 85, 86, 87, 88, 89, 100, 20} {
		jobs = append(jobs, models.JobWithPlatform{Job: job(string(rune('a'+i)), m)})
	}

	got := Recommend(jobs)
	require.Len(t, got, RecommendLimit)

	for i, j := range got {
		assert.Greater(t, j.Match(), RecommendThreshold)
		if i > 0 {
			assert.GreaterOrEqual(t, got[i-1].Match(), j.Match())
		}
	}
	assert.Equal(t, 100, got[0].Match())
	// ties keep input order
	assert.Equal(t, "b", got[2].ID)
	assert.Equal(t, "e", got[3].ID)
}

func TestRecommendExcludesThreshold(t *testing.T) {
	got := Recommend([]models.JobWithPlatform{{Job: job("x", 80)}})
	assert.Empty(t, got)
}

func TestJoinApplicationsSortsAndDropsOrphans(t *testing.T) {
	jobs := []models.Job{job("j1", 90), job("j2", 50), job("j3", 70)}
	apps := []models.Application{
		app("old", "j1", models.StatusPending, 72*time.Hour),
		app("never", "j2", models.StatusPending, -1),
		app("new", "j2", models.StatusPending, time.Hour),
		app("orphan", "missing", models.StatusPending, 0),
		app("tie-a", "j3", models.StatusPending, 24*time.Hour),
		app("tie-b", "j1", models.StatusPending, 24*time.Hour),
	}

	got := JoinApplications(apps, jobs, nil)
	ids := make([]string, 0, len(got))
	for _, a := range got {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"new", "tie-a", "tie-b", "old", "never"}, ids)
	assert.Equal(t, "j2", got[0].Job.ID)
}

func TestComputeStats(t *testing.T) {
	jobs := []models.Job{job("j1", 95), job("j2", 80), job("j3", 90)}
	fresh := job("j4", 85)
	fresh.CreatedAt = time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	jobs = append(jobs, fresh)

	interview := app("a1", "j1", models.StatusInterview, 10*24*time.Hour)
	interview.ResponseAt = ptr(testNow.Add(-24 * time.Hour))
	staleInterview := app("a2", "j1", models.StatusInterview, 20*24*time.Hour)
	rejected := app("a3", "j2", models.StatusRejected, 2*24*time.Hour)
	rejected.ResponseAt = ptr(testNow)
	apps := []models.Application{
		interview,
		staleInterview,
		rejected,
		app("a4", "j3", models.StatusPending, time.Hour),
		app("a5", "j3", models.StatusUnderReview, 7*24*time.Hour),
		app("a6", "j3", models.StatusOffered, -1),
	}

	stats := ComputeStats(apps, jobs, testNow, time.UTC)
	assert.Equal(t, models.DashboardStats{
		TotalApplications:  6,
		Interviews:         2,
		Pending:            2,
		Matches:            3,
		WeeklyApplications: 3,
		WeeklyInterviews:   1,
		ResponseRate:       33,
		NewMatchesToday:    1,
	}, stats)
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil, nil, testNow, time.UTC)
	assert.Equal(t, 0, stats.ResponseRate)
	assert.Equal(t, 0, stats.TotalApplications)
}

func TestComputeStatsRoundsResponseRate(t *testing.T) {
	apps := make([]models.Application, 8)
	apps[0].ResponseAt = ptr(testNow)
	// 1/8 = 12.5% rounds half up
	assert.Equal(t, 13, ComputeStats(apps, nil, testNow, time.UTC).ResponseRate)
}

func TestBucketByDate(t *testing.T) {
	apps := []models.Application{
		app("a1", "j", models.StatusPending, 0),
		app("a2", "j", models.StatusPending, 15*time.Hour),
		app("a3", "j", models.StatusPending, 16*time.Hour),
		app("a4", "j", models.StatusPending, 6*24*time.Hour),
		app("a5", "j", models.StatusPending, 30*24*time.Hour),
		app("a6", "j", models.StatusPending, -1),
	}

	got := BucketByDate(apps, 7, testNow, time.UTC)
	require.Len(t, got, 7)
	assert.Equal(t, "2026-10-08", got[0].Date)
	assert.Equal(t, 1, got[0].Count)
	assert.Equal(t, "2026-10-13", got[5].Date)
	assert.Equal(t, 1, got[5].Count)
	assert.Equal(t, "2026-10-14", got[6].Date)
	assert.Equal(t, 2, got[6].Count)

	for i := 1; i < len(got); i++ {
		prev, _ := time.Parse(dateLayout, got[i-1].Date)
		cur, _ := time.Parse(dateLayout, got[i].Date)
		assert.Equal(t, 24*time.Hour, cur.Sub(prev))
	}
}

func TestBucketByDateUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 2026-10-14 15:30 UTC is already the 15th in Tokyo
	apps := []models.Application{app("a1", "j", models.StatusPending, 0)}

	got := BucketByDate(apps, 1, testNow, tokyo)
	require.Len(t, got, 1)
	assert.Equal(t, "2026-10-15", got[0].Date)
	assert.Equal(t, 1, got[0].Count)
}
