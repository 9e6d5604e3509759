package handlers

import (
	"context"
	"net/http"
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/justsurfingit/jobflow/internal/metrics"
	"github.com/justsurfingit/jobflow/internal/services"
)

type RouterConfig struct {
	AllowedOrigins []string
	Scrape         ScrapeOptions
	// ResolveUser returns the id of the user every request acts as.
	ResolveUser func(context.Context) (string, error)
}

type Services struct {
	Analytics    *services.AnalyticsService
	Applications *services.ApplicationService
	Jobs         *services.JobService
	Users        *services.UserService
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func corsConfig(origins []string) cors.Config {
	config := cors.DefaultConfig()
	if len(origins) == 0 || slices.Contains(origins, "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", requestHeader}
	config.ExposeHeaders = []string{requestHeader}
	return config
}

func NewRouter(cfg RouterConfig, svc Services, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(metrics.Middleware(), RequestLogger(log), Recovery(log), cors.New(corsConfig(cfg.AllowedOrigins)))

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	jobs := &JobHandler{Analytics: svc.Analytics, Jobs: svc.Jobs, Applications: svc.Applications, Log: log}
	apps := &ApplicationHandler{Analytics: svc.Analytics, Applications: svc.Applications, Log: log}
	profile := &ProfileHandler{Users: svc.Users, Jobs: svc.Jobs, Scrape: cfg.Scrape, Log: log}

	api := r.Group("/api")
	{
		api.GET("/health", HealthCheck)

		api.GET("/jobs", jobs.ListJobs)
		api.GET("/jobs/recommendations", jobs.Recommendations)
		api.GET("/jobs/:jobId", jobs.GetJob)
		api.POST("/jobs", jobs.CreateJob)
		api.POST("/jobs/extract", jobs.ParseJob)

		api.POST("/applications", apps.Create)
		api.PATCH("/applications/:id", apps.Update)
		api.DELETE("/applications/:id", apps.Delete)
		api.GET("/applications/:id/tracking", apps.Tracking)

		api.GET("/platforms", profile.ListPlatforms)
		api.PATCH("/platforms/:id", profile.UpdatePlatform)
	}

	user := api.Group("", DemoUser(cfg.ResolveUser, log))
	{
		user.GET("/dashboard/stats", apps.Stats)
		user.GET("/analytics/applications", apps.ByDate)

		user.GET("/applications", apps.List)
		user.GET("/applications/recent", apps.Recent)
		user.GET("/applications/:id", apps.Get)

		user.POST("/jobs/:jobId/apply", jobs.Apply)
		user.POST("/jobs/apply-batch", jobs.ApplyBatch)

		user.GET("/profile", profile.GetProfile)
		user.PATCH("/profile", profile.UpdateProfile)
		user.GET("/profiles", profile.ListTemplates)
		user.POST("/profiles", profile.CreateTemplate)
		user.PATCH("/profiles/:id", profile.UpdateTemplate)
		user.DELETE("/profiles/:id", profile.DeleteTemplate)

		user.POST("/platforms/:id/sync", profile.SyncPlatform)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "route not found"})
	})
	return r
}
