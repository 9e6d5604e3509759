package dtos

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justsurfingit/jobflow/internal/apperr"
	"github.com/justsurfingit/jobflow/internal/models"
)

func TestNullableDistinguishesAbsentFromNull(t *testing.T) {
	var u ApplicationUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"notes": null, "coverLetter": "hi"}`), &u))

	assert.True(t, u.Notes.Set)
	assert.Nil(t, u.Notes.Value)
	assert.True(t, u.CoverLetter.Set)
	assert.Equal(t, "hi", *u.CoverLetter.Value)
	assert.False(t, u.ResponseAt.Set)
}

func TestApplicationUpdateApplyTo(t *testing.T) {
	responded := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	notes := "keep me?"
	app := models.Application{
		ID:         "a1",
		UserID:     "u1",
		JobID:      "j1",
		Status:     models.StatusPending,
		Notes:      &notes,
		ResponseAt: &responded,
	}

	var u ApplicationUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"status": "interview", "responseAt": null}`), &u))
	require.NoError(t, u.Validate())
	u.ApplyTo(&app)

	assert.Equal(t, models.StatusInterview, app.Status)
	assert.Nil(t, app.ResponseAt)
	require.NotNil(t, app.Notes)
	assert.Equal(t, "keep me?", *app.Notes)
	assert.Equal(t, "u1", app.UserID)
}

func TestApplicationUpdateRejectsUnknownStatus(t *testing.T) {
	s := models.ApplicationStatus("hired")
	err := ApplicationUpdate{Status: &s}.Validate()
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestApplicationCreationRequestValidate(t *testing.T) {
	ok := ApplicationCreationRequest{UserID: "u", JobID: "j", Status: models.StatusPending}
	assert.NoError(t, ok.Validate())

	missing := ApplicationCreationRequest{UserID: "u", Status: models.StatusPending}
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(missing.Validate()))

	bad := ApplicationCreationRequest{UserID: "u", JobID: "j", Status: "done"}
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(bad.Validate()))
}

func TestUserUpdateListsNeverNull(t *testing.T) {
	user := models.User{Skills: []string{"Go"}}

	var u UserUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"skills": null, "targetSalary": 120000}`), &u))
	u.ApplyTo(&user)

	assert.NotNil(t, user.Skills)
	assert.Empty(t, user.Skills)
	require.NotNil(t, user.TargetSalary)
	assert.Equal(t, 120000, *user.TargetSalary)
}

func TestPlatformUpdateValidate(t *testing.T) {
	blocked := models.RateLimitBlocked
	assert.NoError(t, PlatformUpdate{RateLimitStatus: &blocked}.Validate())

	weird := models.RateLimitStatus("throttled")
	assert.Error(t, PlatformUpdate{RateLimitStatus: &weird}.Validate())
}

func TestJobCreationRequestValidate(t *testing.T) {
	pct := 101
	err := JobCreationRequest{Title: "Dev", Company: "Acme", MatchPercentage: &pct}.Validate()
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Error(t, JobCreationRequest{Title: "Dev"}.Validate())
}
