package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobportal/internal/config"
	"jobportal/internal/encryption"
	"jobportal/internal/hashing"
	"jobportal/internal/model"
)

type accountFixture struct {
	svc      *AccountService
	accounts *fakeAccountRepo
	jobs     *fakeJobRepo
	hasher   *hashing.Hasher
	crypto   *encryption.Manager
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()
	accounts := newFakeAccountRepo()
	jobs := newFakeJobRepo()
	hasher := hashing.NewHasher()
	crypto := encryption.NewManager(&config.Config{}, nil)
	return &accountFixture{
		svc:      NewAccountService(accounts, jobs, hasher, crypto, nil),
		accounts: accounts,
		jobs:     jobs,
		hasher:   hasher,
		crypto:   crypto,
	}
}

func (f *accountFixture) seedAccount(t *testing.T, role model.Role, username, password string) *model.Account {
	t.Helper()
	hash, err := f.hasher.HashPassword(password)
	require.NoError(t, err)
	acct := &model.Account{
		Role:         role,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Profile:      map[string]string{"city": "Pune"},
	}
	require.NoError(t, f.accounts.Create(context.Background(), acct))
	return acct
}

func TestGetInfo_DecryptsPhone(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	enc, err := f.crypto.EncryptField(ctx, "+919812345678")
	require.NoError(t, err)

	acct := &model.Account{
		Role:       model.RoleCandidate,
		Username:   "ravi",
		Email:      "ravi@example.com",
		PhoneEnc:   enc.Value,
		PhoneDEK:   enc.DEK,
		PhoneKeyID: enc.KeyID,
	}
	require.NoError(t, f.accounts.Create(ctx, acct))

	info, err := f.svc.GetInfo(ctx, model.RoleCandidate, acct.AccountID)
	require.NoError(t, err)
	assert.Equal(t, "+919812345678", info.Phone)
	assert.Equal(t, "ravi", info.Username)
}

func TestUpdateProfile_MergesAndDropsEmptyValues(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	acct := f.seedAccount(t, model.RoleCandidate, "ravi", "Sup3r#pass")

	err := f.svc.UpdateProfile(ctx, model.RoleCandidate, acct.AccountID, map[string]string{
		"city":     "",
		"headline": "Backend engineer",
	})
	require.NoError(t, err)

	stored, err := f.accounts.GetByID(ctx, model.RoleCandidate, acct.AccountID)
	require.NoError(t, err)
	assert.Equal(t, "Pune", stored.Profile["city"], "empty value must not blank stored one")
	assert.Equal(t, "Backend engineer", stored.Profile["headline"])
}

func TestUpdateProfile_CategoryChange(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	acct := f.seedAccount(t, model.RoleCandidate, "ravi", "Sup3r#pass")

	err := f.svc.UpdateProfile(ctx, model.RoleCandidate, acct.AccountID, map[string]string{
		"category": "Design",
	})
	require.NoError(t, err)

	stored, err := f.accounts.GetByID(ctx, model.RoleCandidate, acct.AccountID)
	require.NoError(t, err)
	assert.Equal(t, "Design", stored.Category)
}

func TestUpdatePassword_RequiresPreviousAndConfirmation(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	acct := f.seedAccount(t, model.RoleCandidate, "ravi", "Sup3r#pass")

	err := f.svc.UpdatePassword(ctx, model.RoleCandidate, acct.AccountID,
		"Sup3r#pass", "N3w#Secret", "Different#1")
	assert.ErrorIs(t, err, ErrValidation)

	err = f.svc.UpdatePassword(ctx, model.RoleCandidate, acct.AccountID,
		"Wrong#pass1", "N3w#Secret", "N3w#Secret")
	assert.ErrorIs(t, err, ErrAuth)

	err = f.svc.UpdatePassword(ctx, model.RoleCandidate, acct.AccountID,
		"Sup3r#pass", "N3w#Secret", "N3w#Secret")
	require.NoError(t, err)

	stored, err := f.accounts.GetByID(ctx, model.RoleCandidate, acct.AccountID)
	require.NoError(t, err)
	assert.NoError(t, f.hasher.ComparePassword(stored.PasswordHash, "N3w#Secret"))
}

func TestDeleteProfile_EmployerCascadesJobs(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	employer := f.seedAccount(t, model.RoleEmployer, "acme", "Sup3r#pass")
	other := f.seedAccount(t, model.RoleEmployer, "globex", "Sup3r#pass")

	require.NoError(t, f.jobs.Create(ctx, &model.JobPosting{EmployerID: employer.AccountID, Title: "Backend"}))
	require.NoError(t, f.jobs.Create(ctx, &model.JobPosting{EmployerID: employer.AccountID, Title: "Frontend"}))
	require.NoError(t, f.jobs.Create(ctx, &model.JobPosting{EmployerID: other.AccountID, Title: "Designer"}))

	deleted, err := f.svc.DeleteProfile(ctx, model.RoleEmployer, employer.AccountID)
	require.NoError(t, err)
	assert.Len(t, deleted, 2)

	_, err = f.accounts.GetByID(ctx, model.RoleEmployer, employer.AccountID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	remaining, err := f.jobs.ListByEmployer(ctx, other.AccountID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1, "other employers' postings must survive")
}

func TestDeleteProfile_CandidateHasNoCascade(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	candidate := f.seedAccount(t, model.RoleCandidate, "ravi", "Sup3r#pass")

	deleted, err := f.svc.DeleteProfile(ctx, model.RoleCandidate, candidate.AccountID)
	require.NoError(t, err)
	assert.Empty(t, deleted)
}
