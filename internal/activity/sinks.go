// internal/activity/sinks.go
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "company-matching/internal/common/errors"
)

// Event is one activity record produced by a matching run.
type Event struct {
	Kind       string                 `json:"kind"`
	Payload    map[string]interface{} `json:"payload"`
	OccurredAt time.Time              `json:"occurredAt"`
}

// Sink delivers events to one destination.
type Sink interface {
	Name() string
	Publish(ctx context.Context, event Event) error
}

// ActivityStore persists activity rows.
type ActivityStore interface {
	InsertActivity(ctx context.Context, kind string, payload map[string]interface{}, at time.Time) error
}

// PostgresSink appends events to the activity_log table.
type PostgresSink struct {
	store ActivityStore
}

func NewPostgresSink(store ActivityStore) *PostgresSink {
	return &PostgresSink{store: store}
}

func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) Publish(ctx context.Context, event Event) error {
	return s.store.InsertActivity(ctx, event.Kind, event.Payload, event.OccurredAt)
}

// TopicPublisher publishes a JSON document to a notification topic.
type TopicPublisher interface {
	PublishJSON(ctx context.Context, topicARN, eventType string, payload interface{}) (string, error)
}

// SNSSink fans events out to downstream subscribers through an SNS topic.
type SNSSink struct {
	publisher TopicPublisher
	topicARN  string
}

func NewSNSSink(publisher TopicPublisher, topicARN string) *SNSSink {
	return &SNSSink{publisher: publisher, topicARN: topicARN}
}

func (s *SNSSink) Name() string { return "sns" }

func (s *SNSSink) Publish(ctx context.Context, event Event) error {
	if _, err := s.publisher.PublishJSON(ctx, s.topicARN, event.Kind, event); err != nil {
		return apperrors.NewActivityPublishFailedError(s.Name(), err)
	}
	return nil
}

// SubjectPublisher is satisfied by messaging.NATSClient.
type SubjectPublisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes events on a NATS subject for live consumers.
type NATSSink struct {
	publisher SubjectPublisher
	subject   string
}

func NewNATSSink(publisher SubjectPublisher, subject string) *NATSSink {
	return &NATSSink{publisher: publisher, subject: subject}
}

func (s *NATSSink) Name() string { return "nats" }

func (s *NATSSink) Publish(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := s.publisher.Publish(s.subject, data); err != nil {
		return apperrors.NewActivityPublishFailedError(s.Name(), err)
	}
	return nil
}
