package dtos

import (
	"maps"
	"time"

	"github.com/justsurfingit/jobflow/internal/apperr"
	"github.com/justsurfingit/jobflow/internal/models"
)

// ApplyRequest is the body of POST /api/jobs/:jobId/apply. Both fields are optional.
type ApplyRequest struct {
	CoverLetter string `json:"coverLetter"`
	ProfileID   string `json:"profileId"`
}

type BatchApplyRequest struct {
	JobIDs      []string `json:"jobIds" binding:"required,min=1"`
	CoverLetter string   `json:"coverLetter"`
	ProfileID   string   `json:"profileId"`
}

// ApplicationCreationRequest is the raw create payload of POST /api/applications.
type ApplicationCreationRequest struct {
	UserID          string                   `json:"userId" binding:"required"`
	JobID           string                   `json:"jobId" binding:"required"`
	Status          models.ApplicationStatus `json:"status" binding:"required"`
	AppliedAt       *time.Time               `json:"appliedAt"`
	ResponseAt      *time.Time               `json:"responseAt"`
	Notes           *string                  `json:"notes"`
	CoverLetter     *string                  `json:"coverLetter"`
	IsAutoApplied   bool                     `json:"isAutoApplied"`
	ApplicationData map[string]any           `json:"applicationData"`
}

func (r ApplicationCreationRequest) Validate() error {
	if r.UserID == "" || r.JobID == "" {
		return apperr.Validation("userId and jobId are required")
	}
	if !r.Status.Valid() {
		return apperr.Validation("invalid status %q", r.Status)
	}
	return nil
}

func (r ApplicationCreationRequest) ToModel() models.Application {
	return models.Application{
		UserID:          r.UserID,
		JobID:           r.JobID,
		Status:          r.Status,
		AppliedAt:       r.AppliedAt,
		ResponseAt:      r.ResponseAt,
		Notes:           r.Notes,
		CoverLetter:     r.CoverLetter,
		IsAutoApplied:   r.IsAutoApplied,
		ApplicationData: r.ApplicationData,
	}
}

// ApplicationUpdate is a partial update. The user and job an application links
// are fixed at creation and cannot be patched.
type ApplicationUpdate struct {
	Status          *models.ApplicationStatus `json:"status"`
	AppliedAt       Nullable[time.Time]       `json:"appliedAt"`
	ResponseAt      Nullable[time.Time]       `json:"responseAt"`
	Notes           Nullable[string]          `json:"notes"`
	CoverLetter     Nullable[string]          `json:"coverLetter"`
	IsAutoApplied   *bool                     `json:"isAutoApplied"`
	ApplicationData Nullable[map[string]any]  `json:"applicationData"`
}

func (u ApplicationUpdate) Validate() error {
	if u.Status != nil && !u.Status.Valid() {
		return apperr.Validation("invalid status %q", *u.Status)
	}
	return nil
}

func (u ApplicationUpdate) ApplyTo(a *models.Application) {
	if u.Status != nil {
		a.Status = *u.Status
	}
	u.AppliedAt.Apply(&a.AppliedAt)
	u.ResponseAt.Apply(&a.ResponseAt)
	u.Notes.Apply(&a.Notes)
	u.CoverLetter.Apply(&a.CoverLetter)
	if u.IsAutoApplied != nil {
		a.IsAutoApplied = *u.IsAutoApplied
	}
	if u.ApplicationData.Set {
		if u.ApplicationData.Value == nil {
			a.ApplicationData = nil
		} else {
			a.ApplicationData = maps.Clone(*u.ApplicationData.Value)
		}
	}
}
