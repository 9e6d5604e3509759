package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/justsurfingit/jobflow/internal/models"
)

func NewID() string { return uuid.NewString() }

func ensureID(id *string) {
	if *id == "" {
		*id = NewID()
	}
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func UserDefaults(u *models.User, now time.Time) {
	ensureID(&u.ID)
	u.CreatedAt = now
	u.Skills = emptyIfNil(u.Skills)
	u.PreferredJobTypes = emptyIfNil(u.PreferredJobTypes)
}

func PlatformDefaults(p *models.JobPlatform, now time.Time) {
	ensureID(&p.ID)
	p.CreatedAt = now
	if p.RateLimitStatus == "" {
		p.RateLimitStatus = models.RateLimitNormal
	}
}

func JobDefaults(j *models.Job, now time.Time) {
	ensureID(&j.ID)
	j.CreatedAt = now
	j.Requirements = emptyIfNil(j.Requirements)
	j.Benefits = emptyIfNil(j.Benefits)
}

func ApplicationDefaults(a *models.Application, now time.Time) {
	ensureID(&a.ID)
	a.CreatedAt = now
	if a.AppliedAt == nil {
		t := now
		a.AppliedAt = &t
	}
}

func TrackingDefaults(t *models.ApplicationTracking, now time.Time) {
	ensureID(&t.ID)
	if t.Timestamp.IsZero() {
		t.Timestamp = now
	}
}

func ProfileDefaults(p *models.UserProfile, now time.Time) {
	ensureID(&p.ID)
	p.CreatedAt = now
	if p.TemplateData == nil {
		p.TemplateData = map[string]any{}
	}
}
