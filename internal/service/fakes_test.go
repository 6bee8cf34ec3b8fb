package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"jobportal/internal/model"
)

// fakeAccountRepo is an in-memory AccountRepository keyed the same way the
// real store is: per-role username and email uniqueness, category membership
// kept lowercased.
type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*model.Account // role/id
	nextID   int
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*model.Account)}
}

func (f *fakeAccountRepo) key(role model.Role, id string) string {
	return string(role) + "/" + id
}

func (f *fakeAccountRepo) Create(ctx context.Context, acct *model.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.Role != acct.Role {
			continue
		}
		if a.Username == acct.Username {
			return model.ErrUsernameTaken
		}
		if a.Email == acct.Email {
			return model.ErrEmailTaken
		}
	}
	if acct.AccountID == "" {
		f.nextID++
		acct.AccountID = fmt.Sprintf("acct-%d", f.nextID)
	}
	cp := *acct
	f.accounts[f.key(acct.Role, acct.AccountID)] = &cp
	return nil
}

func (f *fakeAccountRepo) GetByID(ctx context.Context, role model.Role, accountID string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.accounts[f.key(role, accountID)]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, model.ErrNotFound
}

func (f *fakeAccountRepo) GetByUsername(ctx context.Context, role model.Role, username string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.Role == role && a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (f *fakeAccountRepo) GetByEmail(ctx context.Context, role model.Role, email string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.Role == role && a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (f *fakeAccountRepo) UpdateProfile(ctx context.Context, acct *model.Account, profile map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.accounts[f.key(acct.Role, acct.AccountID)]
	if !ok {
		return model.ErrNotFound
	}
	if stored.Profile == nil {
		stored.Profile = make(map[string]string)
	}
	for k, v := range profile {
		stored.Profile[k] = v
	}
	return nil
}

func (f *fakeAccountRepo) UpdateCategory(ctx context.Context, acct *model.Account, category string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.accounts[f.key(acct.Role, acct.AccountID)]
	if !ok {
		return model.ErrNotFound
	}
	stored.Category = category
	return nil
}

func (f *fakeAccountRepo) UpdatePasswordHash(ctx context.Context, acct *model.Account, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.accounts[f.key(acct.Role, acct.AccountID)]
	if !ok {
		return model.ErrNotFound
	}
	stored.PasswordHash = hash
	acct.PasswordHash = hash
	return nil
}

func (f *fakeAccountRepo) Delete(ctx context.Context, acct *model.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := f.key(acct.Role, acct.AccountID)
	if _, ok := f.accounts[key]; !ok {
		return model.ErrNotFound
	}
	delete(f.accounts, key)
	return nil
}

func (f *fakeAccountRepo) FindCandidatesByCategory(ctx context.Context, category string) ([]*model.CandidateContact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var contacts []*model.CandidateContact
	for _, a := range f.accounts {
		if a.Role == model.RoleCandidate && strings.EqualFold(a.Category, category) {
			contacts = append(contacts, &model.CandidateContact{
				AccountID: a.AccountID,
				Username:  a.Username,
				Email:     a.Email,
			})
		}
	}
	return contacts, nil
}

func (f *fakeAccountRepo) CountByRole(ctx context.Context, role model.Role) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, a := range f.accounts {
		if a.Role == role {
			n++
		}
	}
	return n, nil
}

// fakeOtpLedger keeps records, cooldowns, and attempt counters in maps.
type fakeOtpLedger struct {
	mu        sync.Mutex
	records   map[string]*model.OtpRecord
	cooldowns map[string]bool
	attempts  map[string]int
}

func newFakeOtpLedger() *fakeOtpLedger {
	return &fakeOtpLedger{
		records:   make(map[string]*model.OtpRecord),
		cooldowns: make(map[string]bool),
		attempts:  make(map[string]int),
	}
}

func ledgerKey(flow model.OtpFlow, email string) string {
	return string(flow) + ":" + email
}

func (f *fakeOtpLedger) Upsert(ctx context.Context, flow model.OtpFlow, rec *model.OtpRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *rec
	f.records[ledgerKey(flow, rec.Email)] = &cp
	return nil
}

func (f *fakeOtpLedger) Find(ctx context.Context, flow model.OtpFlow, email string) (*model.OtpRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.records[ledgerKey(flow, email)]; ok {
		cp := *rec
		return &cp, nil
	}
	return nil, model.ErrNotFound
}

func (f *fakeOtpLedger) Delete(ctx context.Context, flow model.OtpFlow, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, ledgerKey(flow, email))
	return nil
}

func (f *fakeOtpLedger) SetCooldown(ctx context.Context, flow model.OtpFlow, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cooldowns[ledgerKey(flow, email)] = true
	return nil
}

func (f *fakeOtpLedger) InCooldown(ctx context.Context, flow model.OtpFlow, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cooldowns[ledgerKey(flow, email)], nil
}

func (f *fakeOtpLedger) clearCooldown(flow model.OtpFlow, email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.cooldowns, ledgerKey(flow, email))
}

func (f *fakeOtpLedger) IncrementAttempts(ctx context.Context, flow model.OtpFlow, email string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[ledgerKey(flow, email)]++
	return f.attempts[ledgerKey(flow, email)], nil
}

func (f *fakeOtpLedger) ResetAttempts(ctx context.Context, flow model.OtpFlow, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.attempts, ledgerKey(flow, email))
	return nil
}

type sentMail struct {
	To      string
	Subject string
	Text    string
}

// fakeMailer records sends; failTo addresses reject with an error.
type fakeMailer struct {
	mu     sync.Mutex
	sent   []sentMail
	failTo map[string]bool
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{failTo: make(map[string]bool)}
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, textBody, htmlBody string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTo[to] {
		return fmt.Errorf("smtp rejected %s", to)
	}
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Text: textBody})
	return nil
}

func (f *fakeMailer) sentTo(to string) []sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMail
	for _, m := range f.sent {
		if m.To == to {
			out = append(out, m)
		}
	}
	return out
}

// fakeJobRepo implements the small slice of JobRepository the account and
// job service tests exercise.
type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*model.JobPosting
	next int
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[string]*model.JobPosting)}
}

func (f *fakeJobRepo) Create(ctx context.Context, job *model.JobPosting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if job.JobID == "" {
		f.next++
		job.JobID = fmt.Sprintf("job-%d", f.next)
	}
	cp := *job
	f.jobs[job.JobID] = &cp
	return nil
}

func (f *fakeJobRepo) GetByID(ctx context.Context, jobID string) (*model.JobPosting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if j, ok := f.jobs[jobID]; ok {
		cp := *j
		return &cp, nil
	}
	return nil, model.ErrNotFound
}

func (f *fakeJobRepo) ListRecent(ctx context.Context, limit int) ([]*model.JobPosting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.JobPosting
	for _, j := range f.jobs {
		cp := *j
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeJobRepo) ListByEmployer(ctx context.Context, employerID string) ([]*model.JobPosting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.JobPosting
	for _, j := range f.jobs {
		if j.EmployerID == employerID {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeJobRepo) Delete(ctx context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.jobs[jobID]; !ok {
		return model.ErrNotFound
	}
	delete(f.jobs, jobID)
	return nil
}

func (f *fakeJobRepo) DeleteByEmployer(ctx context.Context, employerID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted []string
	for id, j := range f.jobs {
		if j.EmployerID == employerID {
			delete(f.jobs, id)
			deleted = append(deleted, id)
		}
	}
	return deleted, nil
}

func (f *fakeJobRepo) Categories(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, j := range f.jobs {
		if !seen[j.Category] {
			seen[j.Category] = true
			out = append(out, j.Category)
		}
	}
	return out, nil
}

func (f *fakeJobRepo) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.jobs)), nil
}

func (f *fakeJobRepo) SumVacancies(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum int64
	for _, j := range f.jobs {
		sum += int64(j.Vacancies)
	}
	return sum, nil
}

// fakePublisher records published events; fail makes every publish error.
type fakePublisher struct {
	mu     sync.Mutex
	events []*model.JobPostedEvent
	fail   bool
}

func (f *fakePublisher) PublishJobPosted(ctx context.Context, event *model.JobPostedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("broker unavailable")
	}
	f.events = append(f.events, event)
	return nil
}

// fakeApplicationRepo enforces one application per candidate per posting.
type fakeApplicationRepo struct {
	mu   sync.Mutex
	apps map[string]*model.Application
	next int
}

func newFakeApplicationRepo() *fakeApplicationRepo {
	return &fakeApplicationRepo{apps: make(map[string]*model.Application)}
}

func (f *fakeApplicationRepo) Create(ctx context.Context, app *model.Application) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.apps {
		if a.JobID == app.JobID && a.CandidateID == app.CandidateID {
			return model.ErrAlreadyApplied
		}
	}
	if app.ApplicationID == "" {
		f.next++
		app.ApplicationID = fmt.Sprintf("app-%d", f.next)
	}
	cp := *app
	f.apps[app.ApplicationID] = &cp
	return nil
}

func (f *fakeApplicationRepo) GetByID(ctx context.Context, applicationID string) (*model.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.apps[applicationID]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, model.ErrNotFound
}

func (f *fakeApplicationRepo) Exists(ctx context.Context, jobID, candidateID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.apps {
		if a.JobID == jobID && a.CandidateID == candidateID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeApplicationRepo) ListByJob(ctx context.Context, jobID string) ([]*model.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Application
	for _, a := range f.apps {
		if a.JobID == jobID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeApplicationRepo) ListByCandidate(ctx context.Context, candidateID string) ([]*model.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Application
	for _, a := range f.apps {
		if a.CandidateID == candidateID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeApplicationRepo) Delete(ctx context.Context, applicationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.apps[applicationID]; !ok {
		return model.ErrNotFound
	}
	delete(f.apps, applicationID)
	return nil
}

type fakeResumeRepo struct {
	mu      sync.Mutex
	resumes map[string]*model.Resume
}

func newFakeResumeRepo() *fakeResumeRepo {
	return &fakeResumeRepo{resumes: make(map[string]*model.Resume)}
}

func (f *fakeResumeRepo) Get(ctx context.Context, candidateID string) (*model.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.resumes[candidateID]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, model.ErrNotFound
}

func (f *fakeResumeRepo) Upsert(ctx context.Context, resume *model.Resume) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *resume
	f.resumes[resume.CandidateID] = &cp
	return nil
}
