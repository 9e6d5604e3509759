package dtos

import (
	"time"

	"github.com/justsurfingit/jobflow/internal/apperr"
	"github.com/justsurfingit/jobflow/internal/models"
)

type JobExtractionRequest struct {
	RawHTML string `json:"rawHtml" binding:"required"`
	URL     string `json:"url"`
}

type JobCreationRequest struct {
	Title   string `json:"title" binding:"required"`
	Company string `json:"company" binding:"required"`

	// Optional Fields
	Location        *string    `json:"location"`
	Salary          *string    `json:"salary"`
	Description     *string    `json:"description"`
	Requirements    []string   `json:"requirements"`
	Benefits        []string   `json:"benefits"`
	JobType         *string    `json:"jobType"`
	ExperienceLevel *string    `json:"experienceLevel"`
	PlatformID      *string    `json:"platformId"`
	ExternalURL     *string    `json:"externalUrl"`
	MatchPercentage *int       `json:"matchPercentage" binding:"omitempty,min=0,max=100"`
	PostedAt        *time.Time `json:"postedAt"`
}

func (r JobCreationRequest) Validate() error {
	if r.Title == "" || r.Company == "" {
		return apperr.Validation("title and company are required")
	}
	if m := r.MatchPercentage; m != nil && (*m < 0 || *m > 100) {
		return apperr.Validation("matchPercentage must be between 0 and 100, got %d", *m)
	}
	return nil
}

func (r JobCreationRequest) ToModel() models.Job {
	return models.Job{
		Title:           r.Title,
		Company:         r.Company,
		Location:        r.Location,
		Salary:          r.Salary,
		Description:     r.Description,
		Requirements:    r.Requirements,
		Benefits:        r.Benefits,
		JobType:         r.JobType,
		ExperienceLevel: r.ExperienceLevel,
		PlatformID:      r.PlatformID,
		ExternalURL:     r.ExternalURL,
		MatchPercentage: r.MatchPercentage,
		PostedAt:        r.PostedAt,
	}
}

// JobFilters are the query parameters of GET /api/jobs. Empty means "any".
type JobFilters struct {
	Platform string `form:"platform"`
	Location string `form:"location"`
	JobType  string `form:"jobType"`
}
