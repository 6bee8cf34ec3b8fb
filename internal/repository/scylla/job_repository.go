package scylla

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobportal/internal/model"
	"jobportal/internal/util"
)

// JobRepository stores postings keyed by job ID, with per-employer and
// per-day listing tables and a counter row for the dashboard totals.
type JobRepository struct {
	client *ScyllaClient
}

func NewJobRepository(client *ScyllaClient, logger *zap.Logger) *JobRepository {
	return &JobRepository{client: client}
}

func dayOf(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func (r *JobRepository) Create(ctx context.Context, job *model.JobPosting) error {
	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	job.CreatedAt = time.Now().UTC()

	batch := r.client.Batch(gocql.LoggedBatch)
	batch.Query(r.client.Prepared.CreateJob.Statement(),
		job.JobID, job.EmployerID, job.Title, job.Category, job.Type,
		job.OfferedSalary, job.Experience, job.Qualification, job.Country,
		job.City, job.Location, job.Description, job.Requirements,
		job.Responsibilities, job.StartDate, job.EndDate, job.Vacancies,
		job.Questions, job.CreatedAt)
	batch.Query(r.client.Prepared.AddJobToEmployer.Statement(),
		job.EmployerID, job.CreatedAt, job.JobID, job.Title, job.Category, job.Vacancies)
	batch.Query(r.client.Prepared.AddJobToDay.Statement(),
		dayOf(job.CreatedAt), job.CreatedAt, job.JobID)

	if err := r.client.ExecuteBatch(batch.WithContext(ctx)); err != nil {
		util.Error("failed to create job posting",
			zap.String("job_id", job.JobID),
			zap.String("employer_id", job.EmployerID),
			zap.Error(err))
		return fmt.Errorf("failed to create job posting: %w", err)
	}

	if err := r.client.Prepared.AddJobCategory.Bind(job.Category).WithContext(ctx).Exec(); err != nil {
		util.Warn("failed to record job category", zap.Error(err))
	}
	if err := r.client.Prepared.IncrJobStats.Bind(int64(job.Vacancies)).WithContext(ctx).Exec(); err != nil {
		util.Warn("failed to bump job stats", zap.Error(err))
	}

	util.Info("job posting created",
		zap.String("job_id", job.JobID),
		zap.String("category", job.Category))
	return nil
}

func (r *JobRepository) GetByID(ctx context.Context, jobID string) (*model.JobPosting, error) {
	job := &model.JobPosting{}
	err := r.client.ScanWithRetry(
		r.client.Prepared.GetJob.Bind(jobID).WithContext(ctx),
		&job.JobID, &job.EmployerID, &job.Title, &job.Category, &job.Type,
		&job.OfferedSalary, &job.Experience, &job.Qualification, &job.Country,
		&job.City, &job.Location, &job.Description, &job.Requirements,
		&job.Responsibilities, &job.StartDate, &job.EndDate, &job.Vacancies,
		&job.Questions, &job.CreatedAt,
	)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job posting: %w", err)
	}
	return job, nil
}

// ListRecent walks day partitions backwards from today until the limit is
// met or a week has been covered.
func (r *JobRepository) ListRecent(ctx context.Context, limit int) ([]*model.JobPosting, error) {
	if limit <= 0 {
		limit = 20
	}

	var jobs []*model.JobPosting
	day := time.Now().UTC()
	for d := 0; d < 7 && len(jobs) < limit; d++ {
		iter := r.client.Prepared.ListJobsByDay.Bind(
			dayOf(day), limit-len(jobs),
		).WithContext(ctx).Iter()

		var jobID string
		var ids []string
		for iter.Scan(&jobID) {
			ids = append(ids, jobID)
		}
		if err := iter.Close(); err != nil {
			return nil, fmt.Errorf("failed to list recent jobs: %w", err)
		}

		for _, id := range ids {
			job, err := r.GetByID(ctx, id)
			if err != nil {
				if err == model.ErrNotFound {
					continue
				}
				return nil, err
			}
			jobs = append(jobs, job)
		}
		day = day.AddDate(0, 0, -1)
	}
	return jobs, nil
}

func (r *JobRepository) ListByEmployer(ctx context.Context, employerID string) ([]*model.JobPosting, error) {
	iter := r.client.Prepared.ListJobsByOwner.Bind(employerID).WithContext(ctx).Iter()

	var ids []string
	var jobID string
	for iter.Scan(&jobID) {
		ids = append(ids, jobID)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to list employer jobs: %w", err)
	}

	jobs := make([]*model.JobPosting, 0, len(ids))
	for _, id := range ids {
		job, err := r.GetByID(ctx, id)
		if err != nil {
			if err == model.ErrNotFound {
				continue
			}
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (r *JobRepository) Delete(ctx context.Context, jobID string) error {
	job, err := r.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	return r.deleteJob(ctx, job)
}

func (r *JobRepository) deleteJob(ctx context.Context, job *model.JobPosting) error {
	batch := r.client.Batch(gocql.LoggedBatch)
	batch.Query(r.client.Prepared.DeleteJob.Statement(), job.JobID)
	batch.Query(r.client.Prepared.RemoveJobFromOwner.Statement(),
		job.EmployerID, job.CreatedAt, job.JobID)
	batch.Query(r.client.Prepared.RemoveJobFromDay.Statement(),
		dayOf(job.CreatedAt), job.CreatedAt, job.JobID)

	if err := r.client.ExecuteBatch(batch.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to delete job posting: %w", err)
	}

	if err := r.client.Prepared.DecrJobStats.Bind(int64(job.Vacancies)).WithContext(ctx).Exec(); err != nil {
		util.Warn("failed to drop job stats", zap.Error(err))
	}

	util.Info("job posting deleted", zap.String("job_id", job.JobID))
	return nil
}

// DeleteByEmployer removes every posting the employer owns and returns the
// deleted IDs so callers can clean up derived stores.
func (r *JobRepository) DeleteByEmployer(ctx context.Context, employerID string) ([]string, error) {
	jobs, err := r.ListByEmployer(ctx, employerID)
	if err != nil {
		return nil, err
	}

	deleted := make([]string, 0, len(jobs))
	for _, job := range jobs {
		if err := r.deleteJob(ctx, job); err != nil {
			return deleted, err
		}
		deleted = append(deleted, job.JobID)
	}
	return deleted, nil
}

func (r *JobRepository) Categories(ctx context.Context) ([]string, error) {
	iter := r.client.Prepared.ListJobCategories.WithContext(ctx).Iter()

	var categories []string
	var category string
	for iter.Scan(&category) {
		categories = append(categories, category)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to list job categories: %w", err)
	}
	return categories, nil
}

func (r *JobRepository) Count(ctx context.Context) (int64, error) {
	postings, _, err := r.stats(ctx)
	return postings, err
}

func (r *JobRepository) SumVacancies(ctx context.Context) (int64, error) {
	_, vacancies, err := r.stats(ctx)
	return vacancies, err
}

func (r *JobRepository) stats(ctx context.Context) (int64, int64, error) {
	var postings, vacancies int64
	err := r.client.Prepared.GetJobStats.WithContext(ctx).Scan(&postings, &vacancies)
	if err != nil {
		if err == gocql.ErrNotFound {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("failed to read job stats: %w", err)
	}
	return postings, vacancies, nil
}
