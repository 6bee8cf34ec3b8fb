package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"jobportal/internal/analytics"
	"jobportal/internal/encryption"
	"jobportal/internal/hashing"
	"jobportal/internal/model"
	"jobportal/internal/util"
)

// AccountInfo is the outward view of an account, with the phone number
// decrypted.
type AccountInfo struct {
	AccountID string            `json:"account_id"`
	Role      model.Role        `json:"role"`
	Username  string            `json:"username"`
	Email     string            `json:"email"`
	Phone     string            `json:"phone"`
	Category  string            `json:"category,omitempty"`
	Profile   map[string]string `json:"profile"`
}

// AccountService handles profile reads and updates for signed-in accounts.
type AccountService struct {
	accounts model.AccountRepository
	jobs     model.JobRepository
	hasher   *hashing.Hasher
	crypto   *encryption.Manager
	recorder *analytics.Recorder
}

func NewAccountService(
	accounts model.AccountRepository,
	jobs model.JobRepository,
	hasher *hashing.Hasher,
	crypto *encryption.Manager,
	recorder *analytics.Recorder,
) *AccountService {
	return &AccountService{
		accounts: accounts,
		jobs:     jobs,
		hasher:   hasher,
		crypto:   crypto,
		recorder: recorder,
	}
}

func (s *AccountService) get(ctx context.Context, role model.Role, accountID string) (*model.Account, error) {
	acct, err := s.accounts.GetByID(ctx, role, accountID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w: account", ErrNotFound)
		}
		return nil, err
	}
	return acct, nil
}

// GetInfo returns the account with the stored phone number decrypted. A
// decryption failure degrades to an empty phone rather than failing the read.
func (s *AccountService) GetInfo(ctx context.Context, role model.Role, accountID string) (*AccountInfo, error) {
	acct, err := s.get(ctx, role, accountID)
	if err != nil {
		return nil, err
	}

	info := &AccountInfo{
		AccountID: acct.AccountID,
		Role:      acct.Role,
		Username:  acct.Username,
		Email:     acct.Email,
		Category:  acct.Category,
		Profile:   acct.Profile,
	}
	if len(acct.PhoneEnc) > 0 {
		phone, err := s.crypto.DecryptField(ctx, &encryption.Encrypted{
			Value: acct.PhoneEnc,
			DEK:   acct.PhoneDEK,
			KeyID: acct.PhoneKeyID,
		})
		if err != nil {
			util.Error("phone decryption failed",
				zap.String("account_id", acct.AccountID),
				zap.Error(err))
		} else {
			info.Phone = phone
		}
	}
	return info, nil
}

// UpdateProfile merges the supplied attributes into the stored profile.
// Empty values are dropped so they never blank out stored ones. A category
// change moves the account's match-table membership.
func (s *AccountService) UpdateProfile(ctx context.Context, role model.Role, accountID string, updates map[string]string) error {
	acct, err := s.get(ctx, role, accountID)
	if err != nil {
		return err
	}

	merged := make(map[string]string, len(updates))
	var category string
	var categorySet bool
	for k, v := range updates {
		v = util.SanitizeInput(v)
		if v == "" {
			continue
		}
		if k == "category" {
			category = v
			categorySet = true
			continue
		}
		merged[k] = v
	}

	if len(merged) > 0 {
		if err := s.accounts.UpdateProfile(ctx, acct, merged); err != nil {
			return err
		}
	}
	if categorySet && category != acct.Category {
		if err := s.accounts.UpdateCategory(ctx, acct, category); err != nil {
			return err
		}
	}
	return nil
}

// UpdatePassword is the authenticated change path: the previous password must
// match and the confirmation must equal the new password.
func (s *AccountService) UpdatePassword(ctx context.Context, role model.Role, accountID, previous, next, confirm string) error {
	if next != confirm {
		return fmt.Errorf("%w: password confirmation does not match", ErrValidation)
	}
	if err := ValidatePassword(next); err != nil {
		return err
	}

	acct, err := s.get(ctx, role, accountID)
	if err != nil {
		return err
	}

	if err := s.hasher.ComparePassword(acct.PasswordHash, previous); err != nil {
		if errors.Is(err, hashing.ErrMismatch) {
			return fmt.Errorf("%w: current password is incorrect", ErrAuth)
		}
		return err
	}

	hash, err := s.hasher.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.accounts.UpdatePasswordHash(ctx, acct, hash)
}

// DeleteProfile removes the account. Employer deletion cascades to every
// posting the employer owns; the returned IDs let the caller clean up
// derived stores.
func (s *AccountService) DeleteProfile(ctx context.Context, role model.Role, accountID string) ([]string, error) {
	acct, err := s.get(ctx, role, accountID)
	if err != nil {
		return nil, err
	}

	var deletedJobs []string
	if role == model.RoleEmployer {
		deletedJobs, err = s.jobs.DeleteByEmployer(ctx, accountID)
		if err != nil {
			return nil, fmt.Errorf("cascade job delete: %w", err)
		}
	}

	if err := s.accounts.Delete(ctx, acct); err != nil {
		return deletedJobs, err
	}

	s.recorder.Record(ctx, analytics.EventAccountDeleted, string(role), accountID)
	util.Info("profile deleted",
		zap.String("role", string(role)),
		zap.String("account_id", accountID),
		zap.Int("cascaded_jobs", len(deletedJobs)))
	return deletedJobs, nil
}
