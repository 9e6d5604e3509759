package dtos

import (
	"maps"
	"slices"

	"github.com/justsurfingit/jobflow/internal/apperr"
	"github.com/justsurfingit/jobflow/internal/models"
)

// UserUpdate is the body of PATCH /api/profile. Passwords are not patchable.
type UserUpdate struct {
	Email             *string            `json:"email"`
	Name              *string            `json:"name"`
	Resume            Nullable[string]   `json:"resume"`
	Skills            Nullable[[]string] `json:"skills"`
	Experience        Nullable[string]   `json:"experience"`
	Location          Nullable[string]   `json:"location"`
	TargetSalary      Nullable[int]      `json:"targetSalary"`
	PreferredJobTypes Nullable[[]string] `json:"preferredJobTypes"`
	LinkedinProfile   Nullable[string]   `json:"linkedinProfile"`
	GithubProfile     Nullable[string]   `json:"githubProfile"`
	PortfolioURL      Nullable[string]   `json:"portfolioUrl"`
}

func (u UserUpdate) Validate() error {
	if u.Email != nil && *u.Email == "" {
		return apperr.Validation("email cannot be empty")
	}
	if u.Name != nil && *u.Name == "" {
		return apperr.Validation("name cannot be empty")
	}
	if s := u.TargetSalary.Value; s != nil && *s < 0 {
		return apperr.Validation("targetSalary cannot be negative")
	}
	return nil
}

func (u UserUpdate) ApplyTo(user *models.User) {
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.Name != nil {
		user.Name = *u.Name
	}
	u.Resume.Apply(&user.Resume)
	u.Experience.Apply(&user.Experience)
	u.Location.Apply(&user.Location)
	u.TargetSalary.Apply(&user.TargetSalary)
	u.LinkedinProfile.Apply(&user.LinkedinProfile)
	u.GithubProfile.Apply(&user.GithubProfile)
	u.PortfolioURL.Apply(&user.PortfolioURL)
	// list fields never become null
	if u.Skills.Set {
		user.Skills = listOrEmpty(u.Skills.Value)
	}
	if u.PreferredJobTypes.Set {
		user.PreferredJobTypes = listOrEmpty(u.PreferredJobTypes.Value)
	}
}

func listOrEmpty(v *[]string) []string {
	if v == nil || *v == nil {
		return []string{}
	}
	return slices.Clone(*v)
}

type ProfileCreationRequest struct {
	Name         string         `json:"name" binding:"required"`
	TemplateData map[string]any `json:"templateData" binding:"required"`
	IsDefault    bool           `json:"isDefault"`
}

func (r ProfileCreationRequest) ToModel(userID string) models.UserProfile {
	return models.UserProfile{
		UserID:       userID,
		Name:         r.Name,
		TemplateData: maps.Clone(r.TemplateData),
		IsDefault:    r.IsDefault,
	}
}

type ProfileUpdate struct {
	Name         *string         `json:"name"`
	TemplateData *map[string]any `json:"templateData"`
	IsDefault    *bool           `json:"isDefault"`
}

func (u ProfileUpdate) Validate() error {
	if u.Name != nil && *u.Name == "" {
		return apperr.Validation("profile name cannot be empty")
	}
	if u.TemplateData != nil && *u.TemplateData == nil {
		return apperr.Validation("templateData cannot be null")
	}
	return nil
}

func (u ProfileUpdate) ApplyTo(p *models.UserProfile) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.TemplateData != nil {
		p.TemplateData = maps.Clone(*u.TemplateData)
	}
	if u.IsDefault != nil {
		p.IsDefault = *u.IsDefault
	}
}
