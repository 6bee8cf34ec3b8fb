package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobportal/internal/model"
)

type applicationFixture struct {
	svc          *ApplicationService
	applications *fakeApplicationRepo
	jobs         *fakeJobRepo
	accounts     *fakeAccountRepo
}

func newApplicationFixture(t *testing.T) *applicationFixture {
	t.Helper()
	applications := newFakeApplicationRepo()
	jobs := newFakeJobRepo()
	accounts := newFakeAccountRepo()
	return &applicationFixture{
		svc:          NewApplicationService(applications, jobs, accounts, nil),
		applications: applications,
		jobs:         jobs,
		accounts:     accounts,
	}
}

func (f *applicationFixture) seed(t *testing.T) (candidate *model.Account, job *model.JobPosting) {
	t.Helper()
	ctx := context.Background()
	candidate = &model.Account{Role: model.RoleCandidate, Username: "ravi", Email: "ravi@example.com"}
	require.NoError(t, f.accounts.Create(ctx, candidate))

	employer := &model.Account{Role: model.RoleEmployer, Username: "acme", Email: "acme@example.com"}
	require.NoError(t, f.accounts.Create(ctx, employer))

	job = &model.JobPosting{EmployerID: employer.AccountID, Title: "Backend", Category: "Engineering"}
	require.NoError(t, f.jobs.Create(ctx, job))
	return candidate, job
}

func TestApply_StampsEmployerFromPosting(t *testing.T) {
	f := newApplicationFixture(t)
	ctx := context.Background()
	candidate, job := f.seed(t)

	app, err := f.svc.Apply(ctx, candidate.AccountID, &model.Application{JobID: job.JobID})
	require.NoError(t, err)
	require.NotEmpty(t, app.ApplicationID)
	assert.Equal(t, candidate.AccountID, app.CandidateID)
	assert.Equal(t, job.EmployerID, app.EmployerID)
}

func TestApply_SecondApplicationIsConflict(t *testing.T) {
	f := newApplicationFixture(t)
	ctx := context.Background()
	candidate, job := f.seed(t)

	_, err := f.svc.Apply(ctx, candidate.AccountID, &model.Application{JobID: job.JobID})
	require.NoError(t, err)

	_, err = f.svc.Apply(ctx, candidate.AccountID, &model.Application{JobID: job.JobID})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestApply_RequiresCandidateAndJob(t *testing.T) {
	f := newApplicationFixture(t)
	ctx := context.Background()
	candidate, job := f.seed(t)

	_, err := f.svc.Apply(ctx, "", &model.Application{JobID: job.JobID})
	assert.ErrorIs(t, err, ErrAuth)

	_, err = f.svc.Apply(ctx, candidate.AccountID, &model.Application{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Apply(ctx, "ghost", &model.Application{JobID: job.JobID})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Apply(ctx, candidate.AccountID, &model.Application{JobID: "no-such-job"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListForJob_OwnerOnly(t *testing.T) {
	f := newApplicationFixture(t)
	ctx := context.Background()
	candidate, job := f.seed(t)

	_, err := f.svc.Apply(ctx, candidate.AccountID, &model.Application{JobID: job.JobID})
	require.NoError(t, err)

	apps, err := f.svc.ListForJob(ctx, job.EmployerID, job.JobID)
	require.NoError(t, err)
	assert.Len(t, apps, 1)

	_, err = f.svc.ListForJob(ctx, "someone-else", job.JobID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestWithdraw_SubmitterOnly(t *testing.T) {
	f := newApplicationFixture(t)
	ctx := context.Background()
	candidate, job := f.seed(t)

	app, err := f.svc.Apply(ctx, candidate.AccountID, &model.Application{JobID: job.JobID})
	require.NoError(t, err)

	err = f.svc.Withdraw(ctx, "someone-else", app.ApplicationID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, f.svc.Withdraw(ctx, candidate.AccountID, app.ApplicationID))
	_, err = f.svc.Get(ctx, app.ApplicationID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWithdraw_ReopensTheSlot(t *testing.T) {
	f := newApplicationFixture(t)
	ctx := context.Background()
	candidate, job := f.seed(t)

	app, err := f.svc.Apply(ctx, candidate.AccountID, &model.Application{JobID: job.JobID})
	require.NoError(t, err)
	require.NoError(t, f.svc.Withdraw(ctx, candidate.AccountID, app.ApplicationID))

	_, err = f.svc.Apply(ctx, candidate.AccountID, &model.Application{JobID: job.JobID})
	require.NoError(t, err, "withdrawing must allow a fresh application")
}
