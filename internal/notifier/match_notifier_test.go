package notifier

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobportal/internal/config"
	"jobportal/internal/model"
)

// candidateDirectory backs FindCandidatesByCategory with a fixed contact
// list; the other repository methods are never exercised here.
type candidateDirectory struct {
	model.AccountRepository
	byCategory map[string][]*model.CandidateContact
}

func (d *candidateDirectory) FindCandidatesByCategory(ctx context.Context, category string) ([]*model.CandidateContact, error) {
	return d.byCategory[strings.ToLower(category)], nil
}

type recordingMailer struct {
	mu     sync.Mutex
	sent   []string
	failTo map[string]bool
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, textBody, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTo[to] {
		return fmt.Errorf("relay rejected %s", to)
	}
	m.sent = append(m.sent, to)
	return nil
}

func newTestNotifier(byCategory map[string][]*model.CandidateContact, m *recordingMailer) *MatchNotifier {
	return NewMatchNotifier(nil, &candidateDirectory{byCategory: byCategory}, m, nil, &config.Config{})
}

func TestHandleJobPosted_MailsEveryMatch(t *testing.T) {
	m := &recordingMailer{}
	n := newTestNotifier(map[string][]*model.CandidateContact{
		"engineering": {
			{AccountID: "c1", Username: "ravi", Email: "ravi@example.com"},
			{AccountID: "c2", Username: "meera", Email: "meera@example.com"},
		},
	}, m)

	err := n.HandleJobPosted(context.Background(), &model.JobPostedEvent{
		JobID:    "job-1",
		Title:    "Backend Engineer",
		Category: "Engineering",
		City:     "Pune",
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ravi@example.com", "meera@example.com"}, m.sent)
}

func TestHandleJobPosted_CategoryMatchIgnoresCase(t *testing.T) {
	m := &recordingMailer{}
	n := newTestNotifier(map[string][]*model.CandidateContact{
		"design": {{AccountID: "c1", Username: "ravi", Email: "ravi@example.com"}},
	}, m)

	err := n.HandleJobPosted(context.Background(), &model.JobPostedEvent{
		JobID:    "job-1",
		Title:    "Product Designer",
		Category: "DESIGN",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ravi@example.com"}, m.sent)
}

func TestHandleJobPosted_ZeroMatchesIsNoOp(t *testing.T) {
	m := &recordingMailer{}
	n := newTestNotifier(map[string][]*model.CandidateContact{}, m)

	err := n.HandleJobPosted(context.Background(), &model.JobPostedEvent{
		JobID:    "job-1",
		Category: "Engineering",
	})
	require.NoError(t, err)
	assert.Empty(t, m.sent)
}

func TestHandleJobPosted_SendFailureSkipsOnlyThatRecipient(t *testing.T) {
	m := &recordingMailer{failTo: map[string]bool{"down@example.com": true}}
	n := newTestNotifier(map[string][]*model.CandidateContact{
		"engineering": {
			{AccountID: "c1", Username: "ravi", Email: "ravi@example.com"},
			{AccountID: "c2", Username: "down", Email: "down@example.com"},
			{AccountID: "c3", Username: "meera", Email: "meera@example.com"},
		},
	}, m)

	err := n.HandleJobPosted(context.Background(), &model.JobPostedEvent{
		JobID:    "job-1",
		Title:    "Backend Engineer",
		Category: "Engineering",
	})
	require.NoError(t, err, "one dead mailbox must not fail the fan-out")
	assert.ElementsMatch(t, []string{"ravi@example.com", "meera@example.com"}, m.sent)
}
