package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobportal/internal/model"
)

func TestPortalStats_CountsRolesAndPostings(t *testing.T) {
	accounts := newFakeAccountRepo()
	jobs := newFakeJobRepo()
	svc := NewStatsService(accounts, jobs, nil)
	ctx := context.Background()

	for _, username := range []string{"ravi", "meera"} {
		require.NoError(t, accounts.Create(ctx, &model.Account{
			Role: model.RoleCandidate, Username: username, Email: username + "@example.com",
		}))
	}
	require.NoError(t, accounts.Create(ctx, &model.Account{
		Role: model.RoleEmployer, Username: "acme", Email: "acme@example.com",
	}))
	require.NoError(t, jobs.Create(ctx, &model.JobPosting{Title: "Backend", Vacancies: 3}))
	require.NoError(t, jobs.Create(ctx, &model.JobPosting{Title: "Frontend", Vacancies: 2}))

	stats, err := svc.Portal(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalCandidates)
	assert.Equal(t, int64(1), stats.TotalEmployers)
	assert.Equal(t, int64(2), stats.TotalPostings)
	assert.Equal(t, int64(5), stats.TotalVacancies)
	assert.Empty(t, stats.WeeklyActivity, "no analytics store means no activity breakdown")
}
