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

// ApplicationRepository stores submitted applications. A per-(job, candidate)
// claim table enforces one application per candidate per posting.
type ApplicationRepository struct {
	client *ScyllaClient
}

func NewApplicationRepository(client *ScyllaClient, logger *zap.Logger) *ApplicationRepository {
	return &ApplicationRepository{client: client}
}

func (r *ApplicationRepository) Create(ctx context.Context, app *model.Application) error {
	if app.ApplicationID == "" {
		app.ApplicationID = uuid.New().String()
	}
	app.CreatedAt = time.Now().UTC()

	prev := make(map[string]interface{})
	applied, err := r.client.Prepared.ClaimApplication.Bind(
		app.JobID, app.CandidateID, app.ApplicationID,
	).WithContext(ctx).MapScanCAS(prev)
	if err != nil {
		return fmt.Errorf("claim application: %w", err)
	}
	if !applied {
		return model.ErrAlreadyApplied
	}

	batch := r.client.Batch(gocql.LoggedBatch)
	batch.Query(r.client.Prepared.CreateApplication.Statement(),
		app.ApplicationID, app.JobID, app.CandidateID, app.EmployerID,
		app.ResumeRef, app.VideoRefs, app.CoverNote, app.CreatedAt)
	batch.Query(r.client.Prepared.AddApplicationToJob.Statement(),
		app.JobID, app.CreatedAt, app.ApplicationID, app.CandidateID)
	batch.Query(r.client.Prepared.AddApplicationToOwner.Statement(),
		app.CandidateID, app.CreatedAt, app.ApplicationID, app.JobID)

	if err := r.client.ExecuteBatch(batch.WithContext(ctx)); err != nil {
		if relErr := r.client.Prepared.ReleaseApplicationClaim.Bind(
			app.JobID, app.CandidateID,
		).WithContext(ctx).Exec(); relErr != nil {
			util.Warn("failed to release application claim", zap.Error(relErr))
		}
		util.Error("failed to create application",
			zap.String("application_id", app.ApplicationID),
			zap.Error(err))
		return fmt.Errorf("failed to create application: %w", err)
	}

	util.Info("application submitted",
		zap.String("application_id", app.ApplicationID),
		zap.String("job_id", app.JobID))
	return nil
}

func (r *ApplicationRepository) GetByID(ctx context.Context, applicationID string) (*model.Application, error) {
	app := &model.Application{}
	err := r.client.ScanWithRetry(
		r.client.Prepared.GetApplication.Bind(applicationID).WithContext(ctx),
		&app.ApplicationID, &app.JobID, &app.CandidateID, &app.EmployerID,
		&app.ResumeRef, &app.VideoRefs, &app.CoverNote, &app.CreatedAt,
	)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return app, nil
}

func (r *ApplicationRepository) Exists(ctx context.Context, jobID, candidateID string) (bool, error) {
	var applicationID string
	err := r.client.Prepared.ApplicationExists.Bind(jobID, candidateID).WithContext(ctx).Scan(&applicationID)
	if err == gocql.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check application: %w", err)
	}
	return true, nil
}

func (r *ApplicationRepository) listByIndex(ctx context.Context, q *gocql.Query, key string) ([]*model.Application, error) {
	iter := q.Bind(key).WithContext(ctx).Iter()

	var ids []string
	var applicationID string
	for iter.Scan(&applicationID) {
		ids = append(ids, applicationID)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	apps := make([]*model.Application, 0, len(ids))
	for _, id := range ids {
		app, err := r.GetByID(ctx, id)
		if err != nil {
			if err == model.ErrNotFound {
				continue
			}
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, nil
}

func (r *ApplicationRepository) ListByJob(ctx context.Context, jobID string) ([]*model.Application, error) {
	return r.listByIndex(ctx, r.client.Prepared.ListApplicationsByJob, jobID)
}

func (r *ApplicationRepository) ListByCandidate(ctx context.Context, candidateID string) ([]*model.Application, error) {
	return r.listByIndex(ctx, r.client.Prepared.ListApplicationsByCandidate, candidateID)
}

func (r *ApplicationRepository) Delete(ctx context.Context, applicationID string) error {
	app, err := r.GetByID(ctx, applicationID)
	if err != nil {
		return err
	}

	batch := r.client.Batch(gocql.LoggedBatch)
	batch.Query(r.client.Prepared.DeleteApplication.Statement(), app.ApplicationID)
	batch.Query(r.client.Prepared.RemoveApplicationFromJob.Statement(),
		app.JobID, app.CreatedAt, app.ApplicationID)
	batch.Query(r.client.Prepared.RemoveApplicationFromOwner.Statement(),
		app.CandidateID, app.CreatedAt, app.ApplicationID)
	batch.Query(r.client.Prepared.ReleaseApplicationClaim.Statement(),
		app.JobID, app.CandidateID)

	if err := r.client.ExecuteBatch(batch.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	return nil
}
