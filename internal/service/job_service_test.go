package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobportal/internal/model"
)

type jobFixture struct {
	svc       *JobService
	jobs      *fakeJobRepo
	accounts  *fakeAccountRepo
	publisher *fakePublisher
}

func newJobFixture(t *testing.T) *jobFixture {
	t.Helper()
	jobs := newFakeJobRepo()
	accounts := newFakeAccountRepo()
	publisher := &fakePublisher{}
	return &jobFixture{
		svc:       NewJobService(jobs, accounts, publisher, nil, nil),
		jobs:      jobs,
		accounts:  accounts,
		publisher: publisher,
	}
}

func (f *jobFixture) seedEmployer(t *testing.T, username string) *model.Account {
	t.Helper()
	acct := &model.Account{
		Role:     model.RoleEmployer,
		Username: username,
		Email:    username + "@example.com",
	}
	require.NoError(t, f.accounts.Create(context.Background(), acct))
	return acct
}

func validPosting() *model.JobPosting {
	return &model.JobPosting{
		Title:       "Backend Engineer",
		Category:    "Engineering",
		Type:        "full-time",
		Description: "Build services.",
		City:        "Pune",
		Vacancies:   2,
	}
}

func TestCreateJob_PublishesPostedEvent(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()
	employer := f.seedEmployer(t, "acme")

	job, err := f.svc.Create(ctx, employer.AccountID, validPosting())
	require.NoError(t, err)
	require.NotEmpty(t, job.JobID)
	assert.Equal(t, employer.AccountID, job.EmployerID)

	require.Len(t, f.publisher.events, 1)
	event := f.publisher.events[0]
	assert.Equal(t, job.JobID, event.JobID)
	assert.Equal(t, "Engineering", event.Category)
	assert.Equal(t, "Pune", event.City)
}

func TestCreateJob_SurvivesPublishFailure(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()
	employer := f.seedEmployer(t, "acme")
	f.publisher.fail = true

	job, err := f.svc.Create(ctx, employer.AccountID, validPosting())
	require.NoError(t, err, "a dead broker must not block the posting")

	stored, err := f.jobs.GetByID(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", stored.Title)
}

func TestCreateJob_RequiresKnownEmployer(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, "", validPosting())
	assert.ErrorIs(t, err, ErrAuth)

	_, err = f.svc.Create(ctx, "missing-employer", validPosting())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.publisher.events)
}

func TestCreateJob_ValidatesRequiredFields(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()
	employer := f.seedEmployer(t, "acme")

	job := validPosting()
	job.Title = ""
	_, err := f.svc.Create(ctx, employer.AccountID, job)
	assert.ErrorIs(t, err, ErrValidation)

	job = validPosting()
	job.Vacancies = -1
	_, err = f.svc.Create(ctx, employer.AccountID, job)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteJob_OwnerOnly(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()
	owner := f.seedEmployer(t, "acme")
	intruder := f.seedEmployer(t, "globex")

	job, err := f.svc.Create(ctx, owner.AccountID, validPosting())
	require.NoError(t, err)

	err = f.svc.Delete(ctx, intruder.AccountID, job.JobID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.jobs.GetByID(ctx, job.JobID)
	require.NoError(t, err, "posting must survive a non-owner delete")

	require.NoError(t, f.svc.Delete(ctx, owner.AccountID, job.JobID))
	_, err = f.jobs.GetByID(ctx, job.JobID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDeleteJob_UnknownJob(t *testing.T) {
	f := newJobFixture(t)
	owner := f.seedEmployer(t, "acme")

	err := f.svc.Delete(context.Background(), owner.AccountID, "no-such-job")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearch_UnavailableWithoutIndex(t *testing.T) {
	f := newJobFixture(t)

	_, err := f.svc.Search(context.Background(), "go", "", "", "")
	assert.ErrorIs(t, err, ErrValidation)
}
