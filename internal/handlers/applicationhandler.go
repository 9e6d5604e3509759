package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/justsurfingit/jobflow/internal/apperr"
	"github.com/justsurfingit/jobflow/internal/dtos"
	"github.com/justsurfingit/jobflow/internal/services"
)

type ApplicationHandler struct {
	Analytics    *services.AnalyticsService
	Applications *services.ApplicationService
	Log          *zap.Logger
}

func (h *ApplicationHandler) List(c *gin.Context) {
	apps, err := h.Analytics.Applications(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

func (h *ApplicationHandler) Recent(c *gin.Context) {
	apps, err := h.Analytics.RecentApplications(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

func (h *ApplicationHandler) Get(c *gin.Context) {
	app, err := h.Analytics.Application(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// Create is the raw POST /api/applications. It skips the duplicate check and
// records no tracking event.
func (h *ApplicationHandler) Create(c *gin.Context) {
	var req dtos.ApplicationCreationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	app, err := h.Applications.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

func (h *ApplicationHandler) Update(c *gin.Context) {
	var upd dtos.ApplicationUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, err)
		return
	}
	app, err := h.Applications.Update(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) Delete(c *gin.Context) {
	deleted, err := h.Applications.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (h *ApplicationHandler) Tracking(c *gin.Context) {
	events, err := h.Applications.Tracking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *ApplicationHandler) Stats(c *gin.Context) {
	stats, err := h.Analytics.DashboardStats(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ByDate is GET /api/analytics/applications?days=N
func (h *ApplicationHandler) ByDate(c *gin.Context) {
	days := services.DefaultAnalyticsDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, h.Log, apperr.Validation("days must be an integer, got %q", raw))
			return
		}
		days = n
	}
	series, err := h.Analytics.ApplicationsByDate(c.Request.Context(), userID(c), days)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, series)
}
