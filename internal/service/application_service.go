package service

import (
	"context"
	"errors"
	"fmt"

	"jobportal/internal/analytics"
	"jobportal/internal/model"
	"jobportal/internal/util"
)

// ApplicationService handles candidate applications to postings. One
// application per candidate per posting.
type ApplicationService struct {
	applications model.ApplicationRepository
	jobs         model.JobRepository
	accounts     model.AccountRepository
	recorder     *analytics.Recorder
}

func NewApplicationService(
	applications model.ApplicationRepository,
	jobs model.JobRepository,
	accounts model.AccountRepository,
	recorder *analytics.Recorder,
) *ApplicationService {
	return &ApplicationService{
		applications: applications,
		jobs:         jobs,
		accounts:     accounts,
		recorder:     recorder,
	}
}

// Apply submits an application. Both the candidate and the posting must
// exist, and a second application to the same posting is rejected.
func (s *ApplicationService) Apply(ctx context.Context, candidateID string, app *model.Application) (*model.Application, error) {
	if candidateID == "" {
		return nil, fmt.Errorf("%w: missing candidate", ErrAuth)
	}
	if app.JobID == "" {
		return nil, fmt.Errorf("%w: job_id is required", ErrValidation)
	}

	if _, err := s.accounts.GetByID(ctx, model.RoleCandidate, candidateID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w: candidate", ErrNotFound)
		}
		return nil, err
	}
	job, err := s.jobs.GetByID(ctx, app.JobID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w: job", ErrNotFound)
		}
		return nil, err
	}

	app.CandidateID = candidateID
	app.EmployerID = job.EmployerID
	app.CoverNote = util.SanitizeInput(app.CoverNote)

	if err := s.applications.Create(ctx, app); err != nil {
		if errors.Is(err, model.ErrAlreadyApplied) {
			return nil, fmt.Errorf("%w: already applied to this posting", ErrConflict)
		}
		return nil, err
	}

	s.recorder.Record(ctx, analytics.EventApplication, string(model.RoleCandidate), app.ApplicationID)
	return app, nil
}

func (s *ApplicationService) Get(ctx context.Context, applicationID string) (*model.Application, error) {
	app, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w: application", ErrNotFound)
		}
		return nil, err
	}
	return app, nil
}

// ListForJob returns a posting's applications; only the owning employer may
// read them.
func (s *ApplicationService) ListForJob(ctx context.Context, employerID, jobID string) ([]*model.Application, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w: job", ErrNotFound)
		}
		return nil, err
	}
	if job.EmployerID != employerID {
		return nil, fmt.Errorf("%w: not the posting owner", ErrForbidden)
	}
	return s.applications.ListByJob(ctx, jobID)
}

func (s *ApplicationService) ListForCandidate(ctx context.Context, candidateID string) ([]*model.Application, error) {
	if candidateID == "" {
		return nil, fmt.Errorf("%w: missing candidate", ErrAuth)
	}
	return s.applications.ListByCandidate(ctx, candidateID)
}

// Withdraw deletes an application; only its submitter may withdraw it.
func (s *ApplicationService) Withdraw(ctx context.Context, candidateID, applicationID string) error {
	app, err := s.Get(ctx, applicationID)
	if err != nil {
		return err
	}
	if app.CandidateID != candidateID {
		return fmt.Errorf("%w: not the application owner", ErrForbidden)
	}
	return s.applications.Delete(ctx, applicationID)
}
