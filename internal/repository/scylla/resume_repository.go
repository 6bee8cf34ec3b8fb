package scylla

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"jobportal/internal/model"
)

type ResumeRepository struct {
	client *ScyllaClient
}

func NewResumeRepository(client *ScyllaClient, logger *zap.Logger) *ResumeRepository {
	return &ResumeRepository{client: client}
}

func (r *ResumeRepository) Get(ctx context.Context, candidateID string) (*model.Resume, error) {
	resume := &model.Resume{}
	err := r.client.ScanWithRetry(
		r.client.Prepared.GetResume.Bind(candidateID).WithContext(ctx),
		&resume.CandidateID, &resume.Headline, &resume.Education,
		&resume.ITSkills, &resume.Projects, &resume.CareerProfile,
		&resume.ProfileSummary, &resume.PersonalDetails, &resume.UpdatedAt,
	)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}
	return resume, nil
}

// Upsert writes the full resume row. Merge semantics live in the service,
// which reads the stored row first and fills unset sections.
func (r *ResumeRepository) Upsert(ctx context.Context, resume *model.Resume) error {
	resume.UpdatedAt = time.Now().UTC()
	err := r.client.Prepared.UpsertResume.Bind(
		resume.CandidateID, resume.Headline, resume.Education,
		resume.ITSkills, resume.Projects, resume.CareerProfile,
		resume.ProfileSummary, resume.PersonalDetails, resume.UpdatedAt,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("failed to upsert resume: %w", err)
	}
	return nil
}
