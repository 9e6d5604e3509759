package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/justsurfingit/jobflow/internal/dtos"
	"github.com/justsurfingit/jobflow/internal/services"
)

type JobHandler struct {
	Analytics    *services.AnalyticsService
	Jobs         *services.JobService
	Applications *services.ApplicationService
	Log          *zap.Logger
}

// ListJobs is GET /api/jobs?platform&location&jobType
func (h *JobHandler) ListJobs(c *gin.Context) {
	var f dtos.JobFilters
	if err := c.ShouldBindQuery(&f); err != nil {
		badRequest(c, err)
		return
	}
	jobs, err := h.Analytics.Jobs(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *JobHandler) Recommendations(c *gin.Context) {
	jobs, err := h.Analytics.Recommendations(c.Request.Context())
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.Analytics.Job(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dtos.JobCreationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	job, err := h.Jobs.CreateJob(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

// ParseJob is POST /api/jobs/extract. It returns the extracted job without
// storing it.
func (h *JobHandler) ParseJob(c *gin.Context) {
	var req dtos.JobExtractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	job, err := h.Jobs.Extract(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": job})
}

// Apply is POST /api/jobs/:jobId/apply. The body is optional.
func (h *JobHandler) Apply(c *gin.Context) {
	var req dtos.ApplyRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	app, err := h.Applications.Submit(c.Request.Context(), userID(c), c.Param("jobId"), req)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Application submitted successfully", "application": app})
}

func (h *JobHandler) ApplyBatch(c *gin.Context) {
	var req dtos.BatchApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	results, err := h.Applications.SubmitBatch(c.Request.Context(), userID(c), req.JobIDs, dtos.ApplyRequest{
		CoverLetter: req.CoverLetter,
		ProfileID:   req.ProfileID,
	})
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
