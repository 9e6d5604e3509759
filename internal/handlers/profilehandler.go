package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/justsurfingit/jobflow/internal/dtos"
	"github.com/justsurfingit/jobflow/internal/services"
)

// ScrapeOptions are the search parameters used by on-demand platform syncs.
type ScrapeOptions struct {
	Terms    []string
	Location string
}

type ProfileHandler struct {
	Users  *services.UserService
	Jobs   *services.JobService
	Scrape ScrapeOptions
	Log    *zap.Logger
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	u, err := h.Users.Get(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var upd dtos.UserUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, err)
		return
	}
	u, err := h.Users.Update(c.Request.Context(), userID(c), upd)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *ProfileHandler) ListTemplates(c *gin.Context) {
	profiles, err := h.Users.Profiles(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}

func (h *ProfileHandler) CreateTemplate(c *gin.Context) {
	var req dtos.ProfileCreationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.Users.CreateProfile(c.Request.Context(), userID(c), req)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *ProfileHandler) UpdateTemplate(c *gin.Context) {
	var upd dtos.ProfileUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.Users.UpdateProfile(c.Request.Context(), userID(c), c.Param("id"), upd)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) DeleteTemplate(c *gin.Context) {
	deleted, err := h.Users.DeleteProfile(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (h *ProfileHandler) ListPlatforms(c *gin.Context) {
	platforms, err := h.Users.Platforms(c.Request.Context())
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, platforms)
}

func (h *ProfileHandler) UpdatePlatform(c *gin.Context) {
	var upd dtos.PlatformUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.Users.UpdatePlatform(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// SyncPlatform is POST /api/platforms/:id/sync. New jobs are scored against
// the demo user's skills.
func (h *ProfileHandler) SyncPlatform(c *gin.Context) {
	created, err := h.Jobs.SyncPlatform(c.Request.Context(), c.Param("id"), userID(c), h.Scrape.Terms, h.Scrape.Location)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": len(created), "jobs": created})
}
