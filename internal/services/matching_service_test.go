package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justsurfingit/jobflow/internal/models"
)

func appAt(id, company string, status models.ApplicationStatus) models.ApplicationWithJob {
	return models.ApplicationWithJob{
		Application: models.Application{ID: id, Status: status},
		Job:         models.JobWithPlatform{Job: models.Job{Company: company}},
	}
}

func TestMatchEmail(t *testing.T) {
	apps := []models.ApplicationWithJob{
		appAt("stripe", "Stripe", models.StatusPending),
		appAt("meta", "Meta", models.StatusRejected),
		appAt("ms", "Microsoft", models.StatusInterview),
		appAt("x", "X", models.StatusPending),
		appAt("wf", "Wells Fargo", models.StatusUnderReview),
	}

	cases := []struct {
		name    string
		subject string
		sender  string
		want    []string
	}{
		{"subject", "Update on your application to Stripe", "noreply@greenhouse.io", []string{"stripe"}},
		{"display name", "Next steps", "Microsoft Careers <talent@mail.example.com>", []string{"ms"}},
		{"domain", "Interview invite", "recruiting@stripe.com", []string{"stripe"}},
		{"compact domain", "Hello", "jobs@wellsfargo.com", []string{"wf"}},
		{"terminal ignored", "Meta application", "jobs@meta.com", nil},
		{"short names ignored", "X marks the spot", "x@x.com", nil},
		{"no match", "Weekly digest", "digest@news.com", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ids []string
			for _, a := range MatchEmail(tc.subject, tc.sender, apps) {
				ids = append(ids, a.ID)
			}
			assert.Equal(t, tc.want, ids)
		})
	}
}

func TestMatchScore(t *testing.T) {
	assert.Nil(t, MatchScore([]string{"Go"}, nil))
	assert.Nil(t, MatchScore(nil, []string{"Go"}))

	score := MatchScore([]string{"React", "typescript", "Node.js"}, []string{"React", "TypeScript", "3+ years experience"})
	require.NotNil(t, score)
	assert.Equal(t, 67, *score)

	score = MatchScore([]string{"Swift"}, []string{"React"})
	require.NotNil(t, score)
	assert.Equal(t, 0, *score)

	score = MatchScore([]string{"Swift"}, []string{"React", "", "  "})
	require.NotNil(t, score)
	assert.Equal(t, 0, *score)

	score = MatchScore([]string{"Go"}, []string{"Go", " "})
	require.NotNil(t, score)
	assert.Equal(t, 100, *score)

	assert.Nil(t, MatchScore([]string{"Go"}, []string{"", "\t"}))
}
