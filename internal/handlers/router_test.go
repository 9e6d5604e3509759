package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/justsurfingit/jobflow/internal/automation"
	"github.com/justsurfingit/jobflow/internal/models"
	"github.com/justsurfingit/jobflow/internal/services"
	"github.com/justsurfingit/jobflow/internal/store"
	"github.com/justsurfingit/jobflow/internal/store/memory"
)

var testNow = time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC)

type testAPI struct {
	router *gin.Engine
	store  *memory.Store
}

func newTestAPI(t *testing.T, withSamples bool) testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	now := func() time.Time { return testNow }
	s := memory.New(memory.WithClock(now))
	require.NoError(t, store.Seed(context.Background(), s, testNow, withSamples))

	log := zap.NewNop()
	users := services.NewUserService(s, log)
	svc := Services{
		Analytics:    services.NewAnalyticsService(s, services.Clock{Now: now, Location: time.UTC}),
		Applications: services.NewApplicationService(s, log),
		Jobs:         services.NewJobService(s, nil, automation.DefaultScrapers(now), now, log),
		Users:        users,
	}
	resolve := func(ctx context.Context) (string, error) {
		u, err := users.ResolveDemoUser(ctx, "sarah.j@email.com")
		return u.ID, err
	}
	r := NewRouter(RouterConfig{AllowedOrigins: []string{"*"}, ResolveUser: resolve}, svc, log)
	return testAPI{router: r, store: s}
}

func (a testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (a testAPI) jobByCompany(t *testing.T, company string) models.Job {
	t.Helper()
	jobs, err := a.store.ListJobs(context.Background())
	require.NoError(t, err)
	for _, j := range jobs {
		if j.Company == company {
			return j
		}
	}
	t.Fatalf("no job at %s", company)
	return models.Job{}
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t, false)
	w := api.do(t, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestUserRoutesWithoutUser(t *testing.T) {
	api := newTestAPI(t, false)
	for _, path := range []string{"/api/dashboard/stats", "/api/applications", "/api/applications/recent", "/api/profile", "/api/analytics/applications"} {
		w := api.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}

func TestDashboardStats(t *testing.T) {
	api := newTestAPI(t, true)
	w := api.do(t, http.MethodGet, "/api/dashboard/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	stats := decode[models.DashboardStats](t, w)
	assert.Equal(t, 3, stats.TotalApplications)
	assert.Equal(t, 1, stats.Interviews)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 6, stats.Matches)
	assert.Equal(t, 67, stats.ResponseRate)
}

func TestListJobsFilters(t *testing.T) {
	api := newTestAPI(t, true)

	w := api.do(t, http.MethodGet, "/api/jobs?location=san", "")
	require.Equal(t, http.StatusOK, w.Code)
	jobs := decode[[]models.JobWithPlatform](t, w)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Stripe", jobs[0].Company)
	require.NotNil(t, jobs[0].Platform)

	w = api.do(t, http.MethodGet, "/api/jobs/recommendations", "")
	require.Equal(t, http.StatusOK, w.Code)
	recs := decode[[]models.JobWithPlatform](t, w)
	require.Len(t, recs, 6)
	assert.Equal(t, 95, *recs[0].MatchPercentage)

	w = api.do(t, http.MethodGet, "/api/jobs/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApplyFlow(t *testing.T) {
	api := newTestAPI(t, true)
	stripe := api.jobByCompany(t, "Stripe")

	w := api.do(t, http.MethodPost, "/api/jobs/"+stripe.ID+"/apply", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[struct {
		Message     string             `json:"message"`
		Application models.Application `json:"application"`
	}](t, w)
	assert.Equal(t, "Application submitted successfully", resp.Message)
	assert.Equal(t, models.StatusPending, resp.Application.Status)
	assert.True(t, resp.Application.IsAutoApplied)

	w = api.do(t, http.MethodPost, "/api/jobs/"+stripe.ID+"/apply", `{"coverLetter":"again"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Already applied to this job", decode[map[string]string](t, w)["message"])

	w = api.do(t, http.MethodGet, "/api/applications/"+resp.Application.ID+"/tracking", "")
	require.Equal(t, http.StatusOK, w.Code)
	events := decode[[]models.ApplicationTracking](t, w)
	require.Len(t, events, 1)
	assert.Equal(t, "applied", events[0].Event)

	w = api.do(t, http.MethodGet, "/api/applications/recent", "")
	require.Equal(t, http.StatusOK, w.Code)
	recent := decode[[]models.ApplicationWithJob](t, w)
	require.Len(t, recent, 4)
	assert.Equal(t, resp.Application.ID, recent[0].ID)
	assert.Equal(t, "Stripe", recent[0].Job.Company)

	w = api.do(t, http.MethodPost, "/api/jobs/missing/apply", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApplyBatch(t *testing.T) {
	api := newTestAPI(t, true)
	shopify := api.jobByCompany(t, "Shopify")
	microsoft := api.jobByCompany(t, "Microsoft")

	w := api.do(t, http.MethodPost, "/api/jobs/apply-batch", `{"jobIds":["`+shopify.ID+`","`+microsoft.ID+`"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		Results []services.BatchResult `json:"results"`
	}](t, w)
	require.Len(t, resp.Results, 2)
	assert.NotNil(t, resp.Results[0].Application)
	// the sample data already applied to the Microsoft job
	assert.Equal(t, "Already applied to this job", resp.Results[1].Error)

	w = api.do(t, http.MethodPost, "/api/jobs/apply-batch", `{"jobIds":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateAndPatchApplication(t *testing.T) {
	api := newTestAPI(t, true)
	stripe := api.jobByCompany(t, "Stripe")

	w := api.do(t, http.MethodPost, "/api/applications", `{"userId":"u1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPost, "/api/applications", `{"userId":"u1","jobId":"`+stripe.ID+`","status":"pending"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[models.Application](t, w)
	assert.NotNil(t, created.AppliedAt)
	assert.Nil(t, created.ResponseAt)

	w = api.do(t, http.MethodPatch, "/api/applications/"+created.ID, `{"status":"interview","notes":"call on Friday"}`)
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[models.Application](t, w)
	assert.Equal(t, models.StatusInterview, updated.Status)
	assert.Equal(t, "call on Friday", *updated.Notes)
	assert.Equal(t, "u1", updated.UserID)

	w = api.do(t, http.MethodPatch, "/api/applications/"+created.ID, `{"status":"ghosted"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPatch, "/api/applications/missing", `{"status":"interview"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodGet, "/api/applications/"+created.ID+"/tracking", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]models.ApplicationTracking](t, w))

	w = api.do(t, http.MethodDelete, "/api/applications/"+created.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]bool](t, w)["deleted"])
	w = api.do(t, http.MethodDelete, "/api/applications/"+created.ID, "")
	assert.Equal(t, false, decode[map[string]bool](t, w)["deleted"])
}

func TestAnalyticsByDate(t *testing.T) {
	api := newTestAPI(t, true)

	w := api.do(t, http.MethodGet, "/api/analytics/applications", "")
	require.Equal(t, http.StatusOK, w.Code)
	series := decode[[]models.DailyCount](t, w)
	require.Len(t, series, 7)
	assert.Equal(t, "2026-10-14", series[6].Date)
	assert.Equal(t, 1, series[4].Count)

	w = api.do(t, http.MethodGet, "/api/analytics/applications?days=30", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.DailyCount](t, w), 30)

	for _, q := range []string{"0", "abc", "1000"} {
		w = api.do(t, http.MethodGet, "/api/analytics/applications?days="+q, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestProfileAndPlatforms(t *testing.T) {
	api := newTestAPI(t, true)

	w := api.do(t, http.MethodGet, "/api/profile", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.Equal(t, "Sarah Johnson", decode[models.User](t, w).Name)

	w = api.do(t, http.MethodPatch, "/api/profile", `{"location":null,"skills":["Go"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	u := decode[models.User](t, w)
	assert.Nil(t, u.Location)
	assert.Equal(t, []string{"Go"}, u.Skills)

	w = api.do(t, http.MethodGet, "/api/platforms", "")
	require.Equal(t, http.StatusOK, w.Code)
	platforms := decode[[]models.JobPlatform](t, w)
	require.Len(t, platforms, 3)

	w = api.do(t, http.MethodPatch, "/api/platforms/"+platforms[1].ID, `{"rateLimitStatus":"blocked"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RateLimitBlocked, decode[models.JobPlatform](t, w).RateLimitStatus)

	w = api.do(t, http.MethodPatch, "/api/platforms/missing", `{"isConnected":false}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodPost, "/api/platforms/"+platforms[0].ID+"/sync", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode[map[string]any](t, w)["created"])
}

func TestProfileTemplates(t *testing.T) {
	api := newTestAPI(t, true)

	w := api.do(t, http.MethodPost, "/api/profiles", `{"name":"Frontend","templateData":{"resume":"r1"},"isDefault":true}`)
	require.Equal(t, http.StatusCreated, w.Code)
	first := decode[models.UserProfile](t, w)

	w = api.do(t, http.MethodPost, "/api/profiles", `{"name":"Backend","templateData":{},"isDefault":true}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = api.do(t, http.MethodGet, "/api/profiles", "")
	require.Equal(t, http.StatusOK, w.Code)
	profiles := decode[[]models.UserProfile](t, w)
	require.Len(t, profiles, 2)
	assert.False(t, profiles[0].IsDefault)
	assert.True(t, profiles[1].IsDefault)

	w = api.do(t, http.MethodPatch, "/api/profiles/"+first.ID, `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodDelete, "/api/profiles/"+first.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]bool](t, w)["deleted"])
}

func TestExtractWithoutLLM(t *testing.T) {
	api := newTestAPI(t, false)
	w := api.do(t, http.MethodPost, "/api/jobs/extract", `{"rawHtml":"<div>job</div>"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = api.do(t, http.MethodPost, "/api/jobs/extract", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateJob(t *testing.T) {
	api := newTestAPI(t, false)
	w := api.do(t, http.MethodPost, "/api/jobs", `{"title":"Go Engineer","company":"Acme","matchPercentage":101}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPost, "/api/jobs", `{"title":"Go Engineer","company":"Acme"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	j := decode[models.Job](t, w)
	assert.Equal(t, []string{}, j.Requirements)
	assert.Contains(t, w.Body.String(), `"salary":null`)
}

func TestMetricsEndpoint(t *testing.T) {
	api := newTestAPI(t, false)
	api.do(t, http.MethodGet, "/api/health", "")
	w := api.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "jobflow_http_requests_total")
}

func TestStatusOf(t *testing.T) {
	status, msg := statusOf(assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", msg)
}
