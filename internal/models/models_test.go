package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplicationStatusValid(t *testing.T) {
	for _, s := range Statuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, ApplicationStatus("accepted").Valid())
	assert.False(t, ApplicationStatus("").Valid())

	assert.True(t, StatusRejected.Terminal())
	assert.True(t, StatusOffered.Terminal())
	assert.False(t, StatusInterview.Terminal())
}

func TestNullableFieldsSerializeAsNull(t *testing.T) {
	b, err := json.Marshal(Application{ID: "a1", Status: StatusPending})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	for _, key := range []string{"responseAt", "notes", "coverLetter", "appliedAt"} {
		v, ok := m[key]
		assert.True(t, ok, "%s must be present", key)
		assert.Nil(t, v, key)
	}
}

func TestUserPasswordNeverSerialized(t *testing.T) {
	b, err := json.Marshal(User{ID: "u1", Password: "secret"})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "secret")
	assert.NotContains(t, string(b), "password")
}

func TestJobWithPlatformFlattensJob(t *testing.T) {
	b, err := json.Marshal(JobWithPlatform{
		Job:      Job{ID: "j1", Title: "Go Engineer"},
		Platform: &JobPlatform{ID: "p1", Name: "LinkedIn"},
	})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "j1", m["id"])
	assert.Equal(t, "Go Engineer", m["title"])
	assert.Equal(t, "LinkedIn", m["platform"].(map[string]any)["name"])

	b, err = json.Marshal(JobWithPlatform{Job: Job{ID: "j2"}})
	require.NoError(t, err)
	assert.NotContains(t, string(b), `"platform"`)
}

func TestCloneDetachesCollections(t *testing.T) {
	j := Job{Requirements: []string{"Go"}}
	c := j.Clone()
	c.Requirements[0] = "Rust"
	assert.Equal(t, "Go", j.Requirements[0])

	a := Application{ApplicationData: map[string]any{"source": "manual"}}
	ac := a.Clone()
	ac.ApplicationData["source"] = "auto-apply"
	assert.Equal(t, "manual", a.ApplicationData["source"])
}
