package scylla

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"jobportal/internal/config"
	"jobportal/internal/util"
)

// PreparedStatements holds every statement the repositories execute.
type PreparedStatements struct {
	// accounts
	CreateAccount         *gocql.Query
	ClaimUsername         *gocql.Query
	ClaimEmail            *gocql.Query
	GetAccount            *gocql.Query
	GetAccountByUsername  *gocql.Query
	GetAccountByEmail     *gocql.Query
	UpdateProfile         *gocql.Query
	UpdateCategory        *gocql.Query
	UpdatePasswordHash    *gocql.Query
	DeleteAccount         *gocql.Query
	ReleaseUsername       *gocql.Query
	ReleaseEmail          *gocql.Query
	AddCategoryMember     *gocql.Query
	RemoveCategoryMember  *gocql.Query
	ListCategoryMembers   *gocql.Query
	IncrRoleCount         *gocql.Query
	DecrRoleCount         *gocql.Query
	GetRoleCount          *gocql.Query

	// jobs
	CreateJob        *gocql.Query
	AddJobToEmployer *gocql.Query
	AddJobToDay      *gocql.Query
	GetJob           *gocql.Query
	ListJobsByDay    *gocql.Query
	ListJobsByOwner  *gocql.Query
	DeleteJob        *gocql.Query
	RemoveJobFromOwner *gocql.Query
	RemoveJobFromDay *gocql.Query
	AddJobCategory   *gocql.Query
	ListJobCategories *gocql.Query
	IncrJobStats     *gocql.Query
	DecrJobStats     *gocql.Query
	GetJobStats      *gocql.Query

	// applications
	CreateApplication     *gocql.Query
	ClaimApplication      *gocql.Query
	AddApplicationToJob   *gocql.Query
	AddApplicationToOwner *gocql.Query
	GetApplication        *gocql.Query
	ApplicationExists     *gocql.Query
	ListApplicationsByJob *gocql.Query
	ListApplicationsByCandidate *gocql.Query
	DeleteApplication     *gocql.Query
	RemoveApplicationFromJob    *gocql.Query
	RemoveApplicationFromOwner  *gocql.Query
	ReleaseApplicationClaim     *gocql.Query

	// resumes
	GetResume    *gocql.Query
	UpsertResume *gocql.Query
}

type ScyllaClient struct {
	Session      *gocql.Session
	config       *config.ScyllaConfig
	Prepared     *PreparedStatements
	prepareMutex sync.RWMutex
	isPrepared   bool
}

func NewScyllaClient(cfg *config.Config, logger *zap.Logger) (*ScyllaClient, error) {
	scyllaConfig := cfg.Scylla

	cluster := gocql.NewCluster(scyllaConfig.Nodes...)
	cluster.Keyspace = scyllaConfig.Keyspace
	cluster.Consistency = gocql.LocalQuorum
	cluster.Timeout = 10 * time.Second
	cluster.ConnectTimeout = 10 * time.Second
	cluster.NumConns = 4
	cluster.SocketKeepalive = 30 * time.Second
	cluster.MaxPreparedStmts = 1000
	cluster.PageSize = 1000
	cluster.RetryPolicy = &gocql.ExponentialBackoffRetryPolicy{
		Min:        time.Second,
		Max:        10 * time.Second,
		NumRetries: 3,
	}

	if scyllaConfig.Username != "" && scyllaConfig.Password != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: scyllaConfig.Username,
			Password: scyllaConfig.Password,
		}
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create scylla session: %w", err)
	}

	client := &ScyllaClient{
		Session: session,
		config:  &scyllaConfig,
	}

	if err := client.prepareStatements(); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	util.Info("ScyllaDB client initialized with prepared statements",
		zap.Strings("nodes", scyllaConfig.Nodes),
		zap.String("keyspace", scyllaConfig.Keyspace))

	return client, nil
}

func (s *ScyllaClient) prepareStatements() error {
	s.prepareMutex.Lock()
	defer s.prepareMutex.Unlock()

	if s.isPrepared {
		return nil
	}

	p := &PreparedStatements{}

	p.CreateAccount = s.Session.Query(`
        INSERT INTO accounts (
            role, bucket, account_id, username, email, password_hash,
            phone_enc, phone_dek, phone_key_id, category, profile,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	// LWT claims back the per-role uniqueness of username and email.
	p.ClaimUsername = s.Session.Query(`
        INSERT INTO accounts_by_username (role, username, bucket, account_id)
        VALUES (?, ?, ?, ?) IF NOT EXISTS`)

	p.ClaimEmail = s.Session.Query(`
        INSERT INTO accounts_by_email (role, email, bucket, account_id)
        VALUES (?, ?, ?, ?) IF NOT EXISTS`)

	p.GetAccount = s.Session.Query(`
        SELECT role, bucket, account_id, username, email, password_hash,
            phone_enc, phone_dek, phone_key_id, category, profile,
            created_at, updated_at
        FROM accounts WHERE role = ? AND bucket = ? AND account_id = ?`)

	p.GetAccountByUsername = s.Session.Query(`
        SELECT bucket, account_id FROM accounts_by_username
        WHERE role = ? AND username = ?`)

	p.GetAccountByEmail = s.Session.Query(`
        SELECT bucket, account_id FROM accounts_by_email
        WHERE role = ? AND email = ?`)

	p.UpdateProfile = s.Session.Query(`
        UPDATE accounts SET profile = profile + ?, updated_at = ?
        WHERE role = ? AND bucket = ? AND account_id = ?`)

	p.UpdateCategory = s.Session.Query(`
        UPDATE accounts SET category = ?, updated_at = ?
        WHERE role = ? AND bucket = ? AND account_id = ?`)

	p.UpdatePasswordHash = s.Session.Query(`
        UPDATE accounts SET password_hash = ?, updated_at = ?
        WHERE role = ? AND bucket = ? AND account_id = ?`)

	p.DeleteAccount = s.Session.Query(`
        DELETE FROM accounts WHERE role = ? AND bucket = ? AND account_id = ?`)

	p.ReleaseUsername = s.Session.Query(`
        DELETE FROM accounts_by_username WHERE role = ? AND username = ?`)

	p.ReleaseEmail = s.Session.Query(`
        DELETE FROM accounts_by_email WHERE role = ? AND email = ?`)

	// category is stored lowercased so match lookups are case-insensitive
	p.AddCategoryMember = s.Session.Query(`
        INSERT INTO candidates_by_category (category, account_id, username, email)
        VALUES (?, ?, ?, ?)`)

	p.RemoveCategoryMember = s.Session.Query(`
        DELETE FROM candidates_by_category WHERE category = ? AND account_id = ?`)

	p.ListCategoryMembers = s.Session.Query(`
        SELECT account_id, username, email FROM candidates_by_category
        WHERE category = ?`)

	p.IncrRoleCount = s.Session.Query(`
        UPDATE account_counts SET total = total + 1 WHERE role = ?`)

	p.DecrRoleCount = s.Session.Query(`
        UPDATE account_counts SET total = total - 1 WHERE role = ?`)

	p.GetRoleCount = s.Session.Query(`
        SELECT total FROM account_counts WHERE role = ?`)

	p.CreateJob = s.Session.Query(`
        INSERT INTO jobs (
            job_id, employer_id, title, category, type, offered_salary,
            experience, qualification, country, city, location, description,
            requirements, responsibilities, start_date, end_date, vacancies,
            questions, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	p.AddJobToEmployer = s.Session.Query(`
        INSERT INTO jobs_by_employer (employer_id, created_at, job_id, title, category, vacancies)
        VALUES (?, ?, ?, ?, ?, ?)`)

	p.AddJobToDay = s.Session.Query(`
        INSERT INTO jobs_by_day (day, created_at, job_id)
        VALUES (?, ?, ?)`)

	p.GetJob = s.Session.Query(`
        SELECT job_id, employer_id, title, category, type, offered_salary,
            experience, qualification, country, city, location, description,
            requirements, responsibilities, start_date, end_date, vacancies,
            questions, created_at
        FROM jobs WHERE job_id = ?`)

	p.ListJobsByDay = s.Session.Query(`
        SELECT job_id FROM jobs_by_day WHERE day = ? LIMIT ?`)

	p.ListJobsByOwner = s.Session.Query(`
        SELECT job_id FROM jobs_by_employer WHERE employer_id = ?`)

	p.DeleteJob = s.Session.Query(`
        DELETE FROM jobs WHERE job_id = ?`)

	p.RemoveJobFromOwner = s.Session.Query(`
        DELETE FROM jobs_by_employer WHERE employer_id = ? AND created_at = ? AND job_id = ?`)

	p.RemoveJobFromDay = s.Session.Query(`
        DELETE FROM jobs_by_day WHERE day = ? AND created_at = ? AND job_id = ?`)

	p.AddJobCategory = s.Session.Query(`
        INSERT INTO job_categories (category) VALUES (?)`)

	p.ListJobCategories = s.Session.Query(`
        SELECT category FROM job_categories`)

	p.IncrJobStats = s.Session.Query(`
        UPDATE job_stats SET postings = postings + 1, vacancies = vacancies + ?
        WHERE id = 0`)

	p.DecrJobStats = s.Session.Query(`
        UPDATE job_stats SET postings = postings - 1, vacancies = vacancies - ?
        WHERE id = 0`)

	p.GetJobStats = s.Session.Query(`
        SELECT postings, vacancies FROM job_stats WHERE id = 0`)

	p.CreateApplication = s.Session.Query(`
        INSERT INTO applications (
            application_id, job_id, candidate_id, employer_id,
            resume_ref, video_refs, cover_note, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	p.ClaimApplication = s.Session.Query(`
        INSERT INTO applications_by_job_candidate (job_id, candidate_id, application_id)
        VALUES (?, ?, ?) IF NOT EXISTS`)

	p.AddApplicationToJob = s.Session.Query(`
        INSERT INTO applications_by_job (job_id, created_at, application_id, candidate_id)
        VALUES (?, ?, ?, ?)`)

	p.AddApplicationToOwner = s.Session.Query(`
        INSERT INTO applications_by_candidate (candidate_id, created_at, application_id, job_id)
        VALUES (?, ?, ?, ?)`)

	p.GetApplication = s.Session.Query(`
        SELECT application_id, job_id, candidate_id, employer_id,
            resume_ref, video_refs, cover_note, created_at
        FROM applications WHERE application_id = ?`)

	p.ApplicationExists = s.Session.Query(`
        SELECT application_id FROM applications_by_job_candidate
        WHERE job_id = ? AND candidate_id = ?`)

	p.ListApplicationsByJob = s.Session.Query(`
        SELECT application_id FROM applications_by_job WHERE job_id = ?`)

	p.ListApplicationsByCandidate = s.Session.Query(`
        SELECT application_id FROM applications_by_candidate WHERE candidate_id = ?`)

	p.DeleteApplication = s.Session.Query(`
        DELETE FROM applications WHERE application_id = ?`)

	p.RemoveApplicationFromJob = s.Session.Query(`
        DELETE FROM applications_by_job WHERE job_id = ? AND created_at = ? AND application_id = ?`)

	p.RemoveApplicationFromOwner = s.Session.Query(`
        DELETE FROM applications_by_candidate WHERE candidate_id = ? AND created_at = ? AND application_id = ?`)

	p.ReleaseApplicationClaim = s.Session.Query(`
        DELETE FROM applications_by_job_candidate WHERE job_id = ? AND candidate_id = ?`)

	p.GetResume = s.Session.Query(`
        SELECT candidate_id, headline, education, it_skills, projects,
            career_profile, profile_summary, personal_details, updated_at
        FROM resumes WHERE candidate_id = ?`)

	p.UpsertResume = s.Session.Query(`
        INSERT INTO resumes (
            candidate_id, headline, education, it_skills, projects,
            career_profile, profile_summary, personal_details, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	s.Prepared = p
	s.isPrepared = true

	util.Info("ScyllaDB prepared statements created successfully")
	return nil
}

func (s *ScyllaClient) Close() {
	if s.Session != nil {
		s.Session.Close()
		util.Info("ScyllaDB client closed")
	}
}

func (s *ScyllaClient) Query(stmt string, values ...interface{}) *gocql.Query {
	return s.Session.Query(stmt, values...)
}

func (s *ScyllaClient) Batch(typ gocql.BatchType) *gocql.Batch {
	return s.Session.NewBatch(typ)
}

func (s *ScyllaClient) ExecuteBatch(batch *gocql.Batch) error {
	return s.Session.ExecuteBatch(batch)
}

func (s *ScyllaClient) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var clusterName string
	err := s.Session.Query(`SELECT cluster_name FROM system.local`).WithContext(ctx).Scan(&clusterName)
	if err != nil {
		return fmt.Errorf("scylla health check failed: %w", err)
	}

	util.Debug("ScyllaDB health check passed", zap.String("cluster_name", clusterName))
	return nil
}

func (s *ScyllaClient) ExecuteWithRetry(query *gocql.Query, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := query.Exec(); err != nil {
			lastErr = err
			if i < maxRetries {
				time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
				continue
			}
		} else {
			return nil
		}
	}
	return lastErr
}

func (s *ScyllaClient) ScanWithRetry(query *gocql.Query, dest ...interface{}) error {
	var lastErr error
	for i := 0; i < 3; i++ {
		if err := query.Scan(dest...); err != nil {
			lastErr = err
			if i < 2 {
				time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
				continue
			}
		} else {
			return nil
		}
	}
	return lastErr
}
