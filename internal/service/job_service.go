package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"jobportal/internal/analytics"
	"jobportal/internal/model"
	"jobportal/internal/search"
	"jobportal/internal/util"
)

// JobService owns the posting lifecycle. Creation is store-first: the insert
// must succeed, the change event and the search index write are best-effort
// side channels.
type JobService struct {
	jobs      model.JobRepository
	accounts  model.AccountRepository
	publisher model.JobEventPublisher
	index     *search.JobIndex
	recorder  *analytics.Recorder
}

func NewJobService(
	jobs model.JobRepository,
	accounts model.AccountRepository,
	publisher model.JobEventPublisher,
	index *search.JobIndex,
	recorder *analytics.Recorder,
) *JobService {
	return &JobService{
		jobs:      jobs,
		accounts:  accounts,
		publisher: publisher,
		index:     index,
		recorder:  recorder,
	}
}

func (s *JobService) validate(job *model.JobPosting) error {
	if err := requireFields(map[string]string{
		"title":       job.Title,
		"category":    job.Category,
		"type":        job.Type,
		"description": job.Description,
	}); err != nil {
		return err
	}
	if job.Vacancies < 0 {
		return fmt.Errorf("%w: vacancies cannot be negative", ErrValidation)
	}
	return nil
}

// Create persists the posting, then publishes the insert-change event the
// match notifier consumes and mirrors the document into the search index.
// The posting stands even when both side channels fail.
func (s *JobService) Create(ctx context.Context, employerID string, job *model.JobPosting) (*model.JobPosting, error) {
	if employerID == "" {
		return nil, fmt.Errorf("%w: missing employer", ErrAuth)
	}
	if _, err := s.accounts.GetByID(ctx, model.RoleEmployer, employerID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w: employer", ErrNotFound)
		}
		return nil, err
	}

	job.EmployerID = employerID
	job.Title = util.SanitizeInput(job.Title)
	job.Category = util.SanitizeInput(job.Category)
	if err := s.validate(job); err != nil {
		return nil, err
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	event := &model.JobPostedEvent{
		JobID:         job.JobID,
		Title:         job.Title,
		Category:      job.Category,
		Type:          job.Type,
		OfferedSalary: job.OfferedSalary,
		City:          job.City,
		Experience:    job.Experience,
		PostedAt:      job.CreatedAt,
	}
	if err := s.publisher.PublishJobPosted(ctx, event); err != nil {
		util.Error("job posted event publish failed",
			zap.String("job_id", job.JobID),
			zap.Error(err))
	}

	if s.index != nil {
		if err := s.index.Index(ctx, job); err != nil {
			util.Warn("job index write failed",
				zap.String("job_id", job.JobID),
				zap.Error(err))
		}
	}

	s.recorder.Record(ctx, analytics.EventJobPosted, string(model.RoleEmployer), job.JobID)
	return job, nil
}

func (s *JobService) Get(ctx context.Context, jobID string) (*model.JobPosting, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w: job", ErrNotFound)
		}
		return nil, err
	}
	return job, nil
}

func (s *JobService) Latest(ctx context.Context, limit int) ([]*model.JobPosting, error) {
	return s.jobs.ListRecent(ctx, limit)
}

func (s *JobService) ListByEmployer(ctx context.Context, employerID string) ([]*model.JobPosting, error) {
	if employerID == "" {
		return nil, fmt.Errorf("%w: missing employer", ErrAuth)
	}
	return s.jobs.ListByEmployer(ctx, employerID)
}

// Delete removes a posting. Only its owner may delete it.
func (s *JobService) Delete(ctx context.Context, employerID, jobID string) error {
	job, err := s.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if job.EmployerID != employerID {
		return fmt.Errorf("%w: not the posting owner", ErrForbidden)
	}

	if err := s.jobs.Delete(ctx, jobID); err != nil {
		return err
	}

	if s.index != nil {
		if err := s.index.Remove(ctx, jobID); err != nil {
			util.Warn("job index removal failed",
				zap.String("job_id", jobID),
				zap.Error(err))
		}
	}

	s.recorder.Record(ctx, analytics.EventJobDeleted, string(model.RoleEmployer), jobID)
	return nil
}

// RemoveFromIndex drops search documents for postings already deleted from
// the store, used by the employer delete cascade.
func (s *JobService) RemoveFromIndex(ctx context.Context, jobIDs []string) {
	if s.index == nil {
		return
	}
	for _, id := range jobIDs {
		if err := s.index.Remove(ctx, id); err != nil {
			util.Warn("job index removal failed",
				zap.String("job_id", id),
				zap.Error(err))
		}
	}
}

func (s *JobService) Categories(ctx context.Context) ([]string, error) {
	return s.jobs.Categories(ctx)
}

// Search runs a keyword query against the search index and hydrates the hits
// from the store.
func (s *JobService) Search(ctx context.Context, keyword, category, city, limitStr string) ([]*model.JobPosting, error) {
	if s.index == nil {
		return nil, fmt.Errorf("%w: search is not available", ErrValidation)
	}

	limit := 20
	if limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n <= 0 || n > 100 {
			return nil, fmt.Errorf("%w: invalid limit", ErrValidation)
		}
		limit = n
	}

	ids, err := s.index.SearchIDs(ctx, keyword, category, city, limit)
	if err != nil {
		return nil, err
	}

	jobs := make([]*model.JobPosting, 0, len(ids))
	for _, id := range ids {
		job, err := s.jobs.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				continue
			}
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Stats aggregates the dashboard totals.
type JobStats struct {
	TotalPostings  int64 `json:"total_postings"`
	TotalVacancies int64 `json:"total_vacancies"`
}

func (s *JobService) Stats(ctx context.Context) (*JobStats, error) {
	postings, err := s.jobs.Count(ctx)
	if err != nil {
		return nil, err
	}
	vacancies, err := s.jobs.SumVacancies(ctx)
	if err != nil {
		return nil, err
	}
	return &JobStats{TotalPostings: postings, TotalVacancies: vacancies}, nil
}
