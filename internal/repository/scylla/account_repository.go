package scylla

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobportal/internal/bucketing"
	"jobportal/internal/model"
	"jobportal/internal/util"
)

// AccountRepository stores accounts partitioned by (role, bucket). Username
// and email uniqueness is enforced through LWT inserts into lookup tables;
// the username claim runs first so a double collision reports the username.
type AccountRepository struct {
	client  *ScyllaClient
	buckets *bucketing.Manager
}

func NewAccountRepository(client *ScyllaClient, buckets *bucketing.Manager, logger *zap.Logger) *AccountRepository {
	return &AccountRepository{
		client:  client,
		buckets: buckets,
	}
}

func (r *AccountRepository) Create(ctx context.Context, acct *model.Account) error {
	if acct.AccountID == "" {
		acct.AccountID = uuid.New().String()
	}
	acct.Bucket = int(r.buckets.AccountBucket(acct.AccountID))
	acct.CreatedAt = time.Now().UTC()

	applied, err := r.claim(ctx, r.client.Prepared.ClaimUsername, string(acct.Role), acct.Username, acct.Bucket, acct.AccountID)
	if err != nil {
		return fmt.Errorf("claim username: %w", err)
	}
	if !applied {
		return model.ErrUsernameTaken
	}

	applied, err = r.claim(ctx, r.client.Prepared.ClaimEmail, string(acct.Role), acct.Email, acct.Bucket, acct.AccountID)
	if err != nil {
		r.release(ctx, r.client.Prepared.ReleaseUsername, string(acct.Role), acct.Username)
		return fmt.Errorf("claim email: %w", err)
	}
	if !applied {
		r.release(ctx, r.client.Prepared.ReleaseUsername, string(acct.Role), acct.Username)
		return model.ErrEmailTaken
	}

	err = r.client.Prepared.CreateAccount.Bind(
		string(acct.Role), acct.Bucket, acct.AccountID, acct.Username, acct.Email,
		acct.PasswordHash, acct.PhoneEnc, acct.PhoneDEK, acct.PhoneKeyID,
		acct.Category, acct.Profile, acct.CreatedAt, acct.UpdatedAt,
	).WithContext(ctx).Exec()
	if err != nil {
		r.release(ctx, r.client.Prepared.ReleaseUsername, string(acct.Role), acct.Username)
		r.release(ctx, r.client.Prepared.ReleaseEmail, string(acct.Role), acct.Email)
		util.Error("failed to create account",
			zap.String("role", string(acct.Role)),
			zap.String("account_id", acct.AccountID),
			zap.Error(err))
		return fmt.Errorf("failed to create account: %w", err)
	}

	if acct.Role == model.RoleCandidate && acct.Category != "" {
		if err := r.addCategoryMember(ctx, acct); err != nil {
			util.Warn("failed to register candidate category",
				zap.String("account_id", acct.AccountID),
				zap.Error(err))
		}
	}

	if err := r.client.Prepared.IncrRoleCount.Bind(string(acct.Role)).WithContext(ctx).Exec(); err != nil {
		util.Warn("failed to bump role count", zap.Error(err))
	}

	util.Info("account created",
		zap.String("role", string(acct.Role)),
		zap.String("account_id", acct.AccountID),
		zap.String("username", acct.Username))
	return nil
}

func (r *AccountRepository) claim(ctx context.Context, q *gocql.Query, role, key string, bucket int, accountID string) (bool, error) {
	prev := make(map[string]interface{})
	return q.Bind(role, key, bucket, accountID).WithContext(ctx).MapScanCAS(prev)
}

func (r *AccountRepository) release(ctx context.Context, q *gocql.Query, role, key string) {
	if err := q.Bind(role, key).WithContext(ctx).Exec(); err != nil {
		util.Warn("failed to release uniqueness claim",
			zap.String("role", role),
			zap.Error(err))
	}
}

func (r *AccountRepository) addCategoryMember(ctx context.Context, acct *model.Account) error {
	return r.client.Prepared.AddCategoryMember.Bind(
		strings.ToLower(acct.Category), acct.AccountID, acct.Username, acct.Email,
	).WithContext(ctx).Exec()
}

func (r *AccountRepository) GetByID(ctx context.Context, role model.Role, accountID string) (*model.Account, error) {
	bucket := int(r.buckets.AccountBucket(accountID))
	return r.scanAccount(ctx, role, bucket, accountID)
}

func (r *AccountRepository) scanAccount(ctx context.Context, role model.Role, bucket int, accountID string) (*model.Account, error) {
	acct := &model.Account{}
	var roleStr string
	err := r.client.ScanWithRetry(
		r.client.Prepared.GetAccount.Bind(string(role), bucket, accountID).WithContext(ctx),
		&roleStr, &acct.Bucket, &acct.AccountID, &acct.Username, &acct.Email,
		&acct.PasswordHash, &acct.PhoneEnc, &acct.PhoneDEK, &acct.PhoneKeyID,
		&acct.Category, &acct.Profile, &acct.CreatedAt, &acct.UpdatedAt,
	)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	acct.Role = model.Role(roleStr)
	return acct, nil
}

func (r *AccountRepository) lookup(ctx context.Context, q *gocql.Query, role model.Role, key string) (*model.Account, error) {
	var bucket int
	var accountID string
	err := r.client.ScanWithRetry(q.Bind(string(role), key).WithContext(ctx), &bucket, &accountID)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("account lookup failed: %w", err)
	}
	return r.scanAccount(ctx, role, bucket, accountID)
}

func (r *AccountRepository) GetByUsername(ctx context.Context, role model.Role, username string) (*model.Account, error) {
	return r.lookup(ctx, r.client.Prepared.GetAccountByUsername, role, username)
}

func (r *AccountRepository) GetByEmail(ctx context.Context, role model.Role, email string) (*model.Account, error) {
	return r.lookup(ctx, r.client.Prepared.GetAccountByEmail, role, email)
}

// UpdateProfile merges the supplied keys into the stored profile map. Keys
// absent from the argument keep their stored values.
func (r *AccountRepository) UpdateProfile(ctx context.Context, acct *model.Account, profile map[string]string) error {
	now := time.Now().UTC()
	err := r.client.Prepared.UpdateProfile.Bind(
		profile, now, string(acct.Role), acct.Bucket, acct.AccountID,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if acct.Profile == nil {
		acct.Profile = make(map[string]string, len(profile))
	}
	for k, v := range profile {
		acct.Profile[k] = v
	}
	acct.UpdatedAt = &now
	return nil
}

// UpdateCategory replaces a candidate's category and moves the membership row
// in the match lookup table.
func (r *AccountRepository) UpdateCategory(ctx context.Context, acct *model.Account, category string) error {
	now := time.Now().UTC()
	err := r.client.Prepared.UpdateCategory.Bind(
		category, now, string(acct.Role), acct.Bucket, acct.AccountID,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}

	if acct.Role == model.RoleCandidate {
		if acct.Category != "" {
			if err := r.client.Prepared.RemoveCategoryMember.Bind(
				strings.ToLower(acct.Category), acct.AccountID,
			).WithContext(ctx).Exec(); err != nil {
				util.Warn("failed to remove stale category membership",
					zap.String("account_id", acct.AccountID),
					zap.Error(err))
			}
		}
		acct.Category = category
		if category != "" {
			if err := r.addCategoryMember(ctx, acct); err != nil {
				return fmt.Errorf("failed to register category membership: %w", err)
			}
		}
	} else {
		acct.Category = category
	}
	acct.UpdatedAt = &now
	return nil
}

func (r *AccountRepository) UpdatePasswordHash(ctx context.Context, acct *model.Account, hash string) error {
	now := time.Now().UTC()
	err := r.client.Prepared.UpdatePasswordHash.Bind(
		hash, now, string(acct.Role), acct.Bucket, acct.AccountID,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	acct.PasswordHash = hash
	acct.UpdatedAt = &now
	return nil
}

// Delete removes the account row, both uniqueness claims, and the category
// membership.
func (r *AccountRepository) Delete(ctx context.Context, acct *model.Account) error {
	err := r.client.Prepared.DeleteAccount.Bind(
		string(acct.Role), acct.Bucket, acct.AccountID,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	r.release(ctx, r.client.Prepared.ReleaseUsername, string(acct.Role), acct.Username)
	r.release(ctx, r.client.Prepared.ReleaseEmail, string(acct.Role), acct.Email)

	if acct.Role == model.RoleCandidate && acct.Category != "" {
		if err := r.client.Prepared.RemoveCategoryMember.Bind(
			strings.ToLower(acct.Category), acct.AccountID,
		).WithContext(ctx).Exec(); err != nil {
			util.Warn("failed to remove category membership",
				zap.String("account_id", acct.AccountID),
				zap.Error(err))
		}
	}

	if err := r.client.Prepared.DecrRoleCount.Bind(string(acct.Role)).WithContext(ctx).Exec(); err != nil {
		util.Warn("failed to drop role count", zap.Error(err))
	}

	util.Info("account deleted",
		zap.String("role", string(acct.Role)),
		zap.String("account_id", acct.AccountID))
	return nil
}

// FindCandidatesByCategory returns the contacts registered under the
// lowercased category.
func (r *AccountRepository) FindCandidatesByCategory(ctx context.Context, category string) ([]*model.CandidateContact, error) {
	iter := r.client.Prepared.ListCategoryMembers.Bind(
		strings.ToLower(category),
	).WithContext(ctx).Iter()

	var contacts []*model.CandidateContact
	var accountID, username, email string
	for iter.Scan(&accountID, &username, &email) {
		contacts = append(contacts, &model.CandidateContact{
			AccountID: accountID,
			Username:  username,
			Email:     email,
		})
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to list candidates by category: %w", err)
	}
	return contacts, nil
}

func (r *AccountRepository) CountByRole(ctx context.Context, role model.Role) (int64, error) {
	var total int64
	err := r.client.Prepared.GetRoleCount.Bind(string(role)).WithContext(ctx).Scan(&total)
	if err != nil {
		if err == gocql.ErrNotFound {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return total, nil
}
