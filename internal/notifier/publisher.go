package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"jobportal/internal/client"
	"jobportal/internal/config"
	"jobportal/internal/model"
)

// JobEventProducer publishes posting insert events to the job topic, keyed
// by job ID so replays of the same posting land on the same partition.
type JobEventProducer struct {
	producer *client.KafkaProducer
	topic    string
}

func NewJobEventProducer(p *client.KafkaProducer, cfg *config.Config) *JobEventProducer {
	return &JobEventProducer{
		producer: p,
		topic:    cfg.Kafka.JobTopic,
	}
}

func (p *JobEventProducer) PublishJobPosted(ctx context.Context, event *model.JobPostedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal job event: %w", err)
	}
	if err := p.producer.ProduceMessage(ctx, p.topic, []byte(event.JobID), payload); err != nil {
		return fmt.Errorf("publish job event: %w", err)
	}
	return nil
}
