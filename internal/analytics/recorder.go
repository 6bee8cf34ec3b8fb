package analytics

import (
	"context"
	"fmt"
	"time"

	"jobportal/internal/client"
	"jobportal/internal/util"
)

// Event types recorded to the analytics store.
const (
	EventSignupVerified  = "signup_verified"
	EventLogin           = "login"
	EventPasswordReset   = "password_reset"
	EventJobPosted       = "job_posted"
	EventJobDeleted      = "job_deleted"
	EventApplication     = "application_submitted"
	EventMatchMailSent   = "match_mail_sent"
	EventMatchMailFailed = "match_mail_failed"
	EventAccountDeleted  = "account_deleted"
)

// Recorder writes portal events to ClickHouse. Writes are best-effort: the
// portal never fails a request because the analytics store is down.
type Recorder struct {
	ch *client.ClickHouseClient
}

func NewRecorder(ch *client.ClickHouseClient) *Recorder {
	return &Recorder{ch: ch}
}

// EnsureSchema creates the events table if it does not exist.
func (r *Recorder) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS portal_events (
			event_time DateTime DEFAULT now(),
			event_type LowCardinality(String),
			role       LowCardinality(String),
			entity_id  String
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(event_time)
		ORDER BY (event_type, event_time)
		TTL event_time + INTERVAL 180 DAY`
	if err := r.ch.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create portal_events table: %w", err)
	}
	return nil
}

// Record inserts one event. Errors are logged, never returned. A nil
// recorder is a no-op so callers never have to branch on whether analytics
// is wired.
func (r *Recorder) Record(ctx context.Context, eventType, role, entityID string) {
	if r == nil || r.ch == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	err := r.ch.Exec(ctx,
		"INSERT INTO portal_events (event_type, role, entity_id) VALUES (?, ?, ?)",
		eventType, role, entityID)
	if err != nil {
		util.Warn("analytics write failed",
			util.String("event_type", eventType),
			util.ErrorField(err))
	}
}

// EventCount holds one row of the activity summary.
type EventCount struct {
	EventType string `json:"event_type"`
	Count     uint64 `json:"count"`
}

// CountsSince aggregates events newer than the cutoff, for the admin
// dashboard.
func (r *Recorder) CountsSince(ctx context.Context, since time.Time) ([]EventCount, error) {
	rows, err := r.ch.QueryRows(ctx,
		"SELECT event_type, count() FROM portal_events WHERE event_time >= ? GROUP BY event_type ORDER BY event_type",
		since)
	if err != nil {
		return nil, fmt.Errorf("query event counts: %w", err)
	}
	defer rows.Close()

	var counts []EventCount
	for rows.Next() {
		var ec EventCount
		if err := rows.Scan(&ec.EventType, &ec.Count); err != nil {
			return nil, fmt.Errorf("scan event count: %w", err)
		}
		counts = append(counts, ec)
	}
	return counts, rows.Err()
}
