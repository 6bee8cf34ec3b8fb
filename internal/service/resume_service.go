package service

import (
	"context"
	"errors"
	"fmt"

	"jobportal/internal/model"
	"jobportal/internal/util"
)

// ResumeService stores candidate resumes with merge-on-update semantics:
// sections absent from an update keep their stored values.
type ResumeService struct {
	resumes  model.ResumeRepository
	accounts model.AccountRepository
}

func NewResumeService(resumes model.ResumeRepository, accounts model.AccountRepository) *ResumeService {
	return &ResumeService{resumes: resumes, accounts: accounts}
}

func (s *ResumeService) Get(ctx context.Context, candidateID string) (*model.Resume, error) {
	if candidateID == "" {
		return nil, fmt.Errorf("%w: missing candidate", ErrAuth)
	}
	resume, err := s.resumes.Get(ctx, candidateID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			// An account with no stored resume reads as an empty one.
			return &model.Resume{CandidateID: candidateID}, nil
		}
		return nil, err
	}
	return resume, nil
}

// Update merges the supplied sections into the stored resume. Nil slices and
// empty strings leave the stored section untouched.
func (s *ResumeService) Update(ctx context.Context, candidateID string, update *model.Resume) (*model.Resume, error) {
	if candidateID == "" {
		return nil, fmt.Errorf("%w: missing candidate", ErrAuth)
	}
	if _, err := s.accounts.GetByID(ctx, model.RoleCandidate, candidateID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w: candidate", ErrNotFound)
		}
		return nil, err
	}

	stored, err := s.Get(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	if v := util.SanitizeInput(update.Headline); v != "" {
		stored.Headline = v
	}
	if update.Education != nil {
		stored.Education = update.Education
	}
	if update.ITSkills != nil {
		stored.ITSkills = update.ITSkills
	}
	if update.Projects != nil {
		stored.Projects = update.Projects
	}
	if v := util.SanitizeInput(update.ProfileSummary); v != "" {
		stored.ProfileSummary = v
	}
	if len(update.CareerProfile) > 0 {
		if stored.CareerProfile == nil {
			stored.CareerProfile = make(map[string]string, len(update.CareerProfile))
		}
		for k, v := range update.CareerProfile {
			stored.CareerProfile[k] = util.SanitizeInput(v)
		}
	}
	if len(update.PersonalDetails) > 0 {
		if stored.PersonalDetails == nil {
			stored.PersonalDetails = make(map[string]string, len(update.PersonalDetails))
		}
		for k, v := range update.PersonalDetails {
			stored.PersonalDetails[k] = util.SanitizeInput(v)
		}
	}

	if err := s.resumes.Upsert(ctx, stored); err != nil {
		return nil, err
	}
	return stored, nil
}
