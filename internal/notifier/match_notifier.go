package notifier

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jobportal/internal/analytics"
	"jobportal/internal/client"
	"jobportal/internal/config"
	"jobportal/internal/mailer"
	"jobportal/internal/model"
	"jobportal/internal/util"
)

// MatchNotifier consumes posting insert events and mails every candidate
// whose registered category matches the posting's, case-insensitively. It is
// started once at startup and stopped through Close; the consume loop
// tolerates stream errors and individual send failures without ever taking
// down the host process.
type MatchNotifier struct {
	consumer  *client.KafkaConsumer
	accounts  model.AccountRepository
	mailer    model.Mailer
	recorder  *analytics.Recorder
	portalURL string
	maxFanout int
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

func NewMatchNotifier(
	consumer *client.KafkaConsumer,
	accounts model.AccountRepository,
	m model.Mailer,
	recorder *analytics.Recorder,
	cfg *config.Config,
) *MatchNotifier {
	return &MatchNotifier{
		consumer:  consumer,
		accounts:  accounts,
		mailer:    m,
		recorder:  recorder,
		portalURL: cfg.SMTP.PortalURL,
		maxFanout: 16,
		done:      make(chan struct{}),
	}
}

// Start launches the consume loop. It returns immediately.
func (n *MatchNotifier) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel

	go func() {
		defer close(n.done)
		util.Info("match notifier started")
		for {
			msg, err := n.consumer.ConsumeMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				util.Error("job event stream read failed", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}

			event := &model.JobPostedEvent{}
			if err := json.Unmarshal(msg.Value, event); err != nil {
				util.Error("malformed job event dropped",
					zap.String("key", string(msg.Key)),
					zap.Error(err))
				continue
			}

			if err := n.HandleJobPosted(ctx, event); err != nil {
				util.Error("job event handling failed",
					zap.String("job_id", event.JobID),
					zap.Error(err))
			}
		}
	}()
}

// HandleJobPosted fans the alert out to every matching candidate. A send
// failure is logged and skipped; the remaining recipients still get their
// mail. Zero matches is a no-op.
func (n *MatchNotifier) HandleJobPosted(ctx context.Context, event *model.JobPostedEvent) error {
	contacts, err := n.accounts.FindCandidatesByCategory(ctx, event.Category)
	if err != nil {
		return err
	}
	if len(contacts) == 0 {
		util.Debug("no candidates match posting category",
			zap.String("job_id", event.JobID),
			zap.String("category", event.Category))
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.maxFanout)
	for _, contact := range contacts {
		contact := contact
		g.Go(func() error {
			subject := mailer.JobMatchSubject(event.Title)
			text, html := mailer.JobMatchBodies(
				contact.Username, event.Title, event.Category, event.City, n.portalURL)
			if err := n.mailer.Send(gctx, contact.Email, subject, text, html); err != nil {
				util.Error("match mail send failed",
					zap.String("job_id", event.JobID),
					zap.String("account_id", contact.AccountID),
					zap.Error(err))
				n.recorder.Record(gctx, analytics.EventMatchMailFailed, string(model.RoleCandidate), contact.AccountID)
				return nil
			}
			n.recorder.Record(gctx, analytics.EventMatchMailSent, string(model.RoleCandidate), contact.AccountID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	util.Info("match fan-out complete",
		zap.String("job_id", event.JobID),
		zap.Int("recipients", len(contacts)))
	return nil
}

// Close stops the consume loop and waits for it to drain.
func (n *MatchNotifier) Close() {
	n.closeOnce.Do(func() {
		if n.cancel != nil {
			n.cancel()
		}
		select {
		case <-n.done:
		case <-time.After(5 * time.Second):
			util.Warn("match notifier did not stop in time")
		}
		util.Info("match notifier stopped")
	})
}
