package model

import (
	"context"
	"time"
)

// Role identifies which credential namespace an account lives in. Username
// and email uniqueness is enforced per role.
type Role string

const (
	RoleCandidate Role = "candidate"
	RoleEmployer  Role = "employer"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCandidate, RoleEmployer, RoleAdmin:
		return true
	}
	return false
}

// -------------------- ACCOUNT MODEL --------------------

// Account is a candidate, employer, or admin record. Free-form profile
// attributes live in Profile and are merged on update: a key is only
// overwritten when the caller supplies a non-empty value.
type Account struct {
	Bucket       int               `json:"-" db:"bucket"`
	AccountID    string            `json:"account_id" db:"account_id"` // UUID
	Role         Role              `json:"role" db:"role"`
	Username     string            `json:"username" db:"username"`
	Email        string            `json:"email" db:"email"`
	PasswordHash string            `json:"-" db:"password_hash"`
	PhoneEnc     []byte            `json:"-" db:"phone_enc"` // envelope-encrypted
	PhoneDEK     string            `json:"-" db:"phone_dek"`
	PhoneKeyID   string            `json:"-" db:"phone_key_id"`
	Category     string            `json:"category" db:"category"` // candidate job category, free text
	Profile      map[string]string `json:"profile" db:"profile"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt    *time.Time        `json:"updated_at" db:"updated_at"`
}

// -------------------- OTP LEDGER --------------------

// OtpRecord is the live one-time code for an email-scoped flow. At most one
// record exists per (flow, email); a new request overwrites the prior one.
type OtpRecord struct {
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the record can no longer be matched. The boundary
// is inclusive: a record whose expiry equals now is already dead.
func (r *OtpRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// OtpFlow separates signup verification codes from password-reset codes so
// that one cannot be replayed against the other.
type OtpFlow string

const (
	OtpFlowSignup OtpFlow = "signup"
	OtpFlowReset  OtpFlow = "reset"
)

// -------------------- JOB MODEL --------------------

type JobPosting struct {
	JobID            string    `json:"job_id" db:"job_id"` // UUID
	EmployerID       string    `json:"employer_id" db:"employer_id"`
	Title            string    `json:"title" db:"title"`
	Category         string    `json:"category" db:"category"`
	Type             string    `json:"type" db:"type"` // full-time, part-time, internship
	OfferedSalary    string    `json:"offered_salary" db:"offered_salary"`
	Experience       string    `json:"experience" db:"experience"`
	Qualification    string    `json:"qualification" db:"qualification"`
	Country          string    `json:"country" db:"country"`
	City             string    `json:"city" db:"city"`
	Location         string    `json:"location" db:"location"`
	Description      string    `json:"description" db:"description"`
	Requirements     string    `json:"requirements" db:"requirements"`
	Responsibilities string    `json:"responsibilities" db:"responsibilities"`
	StartDate        string    `json:"start_date" db:"start_date"`
	EndDate          string    `json:"end_date" db:"end_date"`
	Vacancies        int       `json:"vacancies" db:"vacancies"`
	Questions        []string  `json:"questions" db:"questions"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// JobPostedEvent is the insert-change event published when a posting is
// created. The match notifier consumes it; the payload carries everything the
// alert mail needs so the handler never has to read the posting back.
type JobPostedEvent struct {
	JobID         string    `json:"job_id"`
	Title         string    `json:"title"`
	Category      string    `json:"category"`
	Type          string    `json:"type"`
	OfferedSalary string    `json:"offered_salary"`
	City          string    `json:"city"`
	Experience    string    `json:"experience"`
	PostedAt      time.Time `json:"posted_at"`
}

// CandidateContact is the projection the match notifier fans out to.
type CandidateContact struct {
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
}

// -------------------- APPLICATION MODEL --------------------

type Application struct {
	ApplicationID string    `json:"application_id" db:"application_id"` // UUID
	JobID         string    `json:"job_id" db:"job_id"`
	CandidateID   string    `json:"candidate_id" db:"candidate_id"`
	EmployerID    string    `json:"employer_id" db:"employer_id"`
	ResumeRef     string    `json:"resume_ref" db:"resume_ref"` // stored file reference
	VideoRefs     []string  `json:"video_refs" db:"video_refs"`
	CoverNote     string    `json:"cover_note" db:"cover_note"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// -------------------- RESUME MODEL --------------------

// Resume holds a candidate's resume sections. Every section is free-form and
// merged on update like account profiles.
type Resume struct {
	CandidateID     string            `json:"candidate_id" db:"candidate_id"`
	Headline        string            `json:"headline" db:"headline"`
	Education       []string          `json:"education" db:"education"`
	ITSkills        []string          `json:"it_skills" db:"it_skills"`
	Projects        []string          `json:"projects" db:"projects"`
	CareerProfile   map[string]string `json:"career_profile" db:"career_profile"`
	ProfileSummary  string            `json:"profile_summary" db:"profile_summary"`
	PersonalDetails map[string]string `json:"personal_details" db:"personal_details"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
}

// -------------------- REPOSITORY INTERFACES --------------------

// AccountRepository is the credential store. Username and email are unique
// per role; Create claims both atomically (username first) and reports which
// one collided.
type AccountRepository interface {
	Create(ctx context.Context, acct *Account) error
	GetByID(ctx context.Context, role Role, accountID string) (*Account, error)
	GetByUsername(ctx context.Context, role Role, username string) (*Account, error)
	GetByEmail(ctx context.Context, role Role, email string) (*Account, error)
	UpdateProfile(ctx context.Context, acct *Account, profile map[string]string) error
	UpdateCategory(ctx context.Context, acct *Account, category string) error
	UpdatePasswordHash(ctx context.Context, acct *Account, hash string) error
	Delete(ctx context.Context, acct *Account) error
	FindCandidatesByCategory(ctx context.Context, category string) ([]*CandidateContact, error)
	CountByRole(ctx context.Context, role Role) (int64, error)
}

// OtpLedger is the self-expiring one-time-code store keyed by email.
type OtpLedger interface {
	Upsert(ctx context.Context, flow OtpFlow, rec *OtpRecord) error
	Find(ctx context.Context, flow OtpFlow, email string) (*OtpRecord, error)
	Delete(ctx context.Context, flow OtpFlow, email string) error
	// SetCooldown marks an email as recently served; the marker expires
	// passively. It is advisory only.
	SetCooldown(ctx context.Context, flow OtpFlow, email string) error
	InCooldown(ctx context.Context, flow OtpFlow, email string) (bool, error)
	IncrementAttempts(ctx context.Context, flow OtpFlow, email string) (int, error)
	ResetAttempts(ctx context.Context, flow OtpFlow, email string) error
}

type JobRepository interface {
	Create(ctx context.Context, job *JobPosting) error
	GetByID(ctx context.Context, jobID string) (*JobPosting, error)
	ListRecent(ctx context.Context, limit int) ([]*JobPosting, error)
	ListByEmployer(ctx context.Context, employerID string) ([]*JobPosting, error)
	Delete(ctx context.Context, jobID string) error
	DeleteByEmployer(ctx context.Context, employerID string) ([]string, error)
	Categories(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int64, error)
	SumVacancies(ctx context.Context) (int64, error)
}

type ApplicationRepository interface {
	Create(ctx context.Context, app *Application) error
	GetByID(ctx context.Context, applicationID string) (*Application, error)
	Exists(ctx context.Context, jobID, candidateID string) (bool, error)
	ListByJob(ctx context.Context, jobID string) ([]*Application, error)
	ListByCandidate(ctx context.Context, candidateID string) ([]*Application, error)
	Delete(ctx context.Context, applicationID string) error
}

type ResumeRepository interface {
	Get(ctx context.Context, candidateID string) (*Resume, error)
	Upsert(ctx context.Context, resume *Resume) error
}

// -------------------- NOTIFIER --------------------

// Mailer sends transactional email through the outbound relay. Callers decide
// whether a send failure is fatal: it is for OTP issuance, it is not for
// match fan-out.
type Mailer interface {
	Send(ctx context.Context, to, subject, textBody, htmlBody string) error
}

// JobEventPublisher pushes insert-change events for new postings.
type JobEventPublisher interface {
	PublishJobPosted(ctx context.Context, event *JobPostedEvent) error
}
