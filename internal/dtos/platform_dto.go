package dtos

import (
	"maps"
	"time"

	"github.com/justsurfingit/jobflow/internal/apperr"
	"github.com/justsurfingit/jobflow/internal/models"
)

type PlatformUpdate struct {
	Name            *string                  `json:"name"`
	IsConnected     *bool                    `json:"isConnected"`
	Credentials     Nullable[map[string]any] `json:"credentials"`
	RateLimitStatus *models.RateLimitStatus  `json:"rateLimitStatus"`
	LastSyncAt      Nullable[time.Time]      `json:"lastSyncAt"`
}

func (u PlatformUpdate) Validate() error {
	if u.Name != nil && *u.Name == "" {
		return apperr.Validation("platform name cannot be empty")
	}
	if u.RateLimitStatus != nil && !u.RateLimitStatus.Valid() {
		return apperr.Validation("invalid rateLimitStatus %q", *u.RateLimitStatus)
	}
	return nil
}

func (u PlatformUpdate) ApplyTo(p *models.JobPlatform) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.IsConnected != nil {
		p.IsConnected = *u.IsConnected
	}
	if u.Credentials.Set {
		if u.Credentials.Value == nil {
			p.Credentials = nil
		} else {
			p.Credentials = maps.Clone(*u.Credentials.Value)
		}
	}
	if u.RateLimitStatus != nil {
		p.RateLimitStatus = *u.RateLimitStatus
	}
	u.LastSyncAt.Apply(&p.LastSyncAt)
}
