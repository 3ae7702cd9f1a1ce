package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/folio-labs/portfolio-api/internal/contact"
	"github.com/segmentio/kafka-go"
)

// KafkaConfig enables publishing submission events when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

// EventSubmitted is the event type published for every new submission.
const EventSubmitted = "contact.submitted"

// SubmittedEvent is the JSON payload written to Kafka. It carries no network
// address or client identifier.
type SubmittedEvent struct {
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes submission events keyed by submission id.
type KafkaNotifier struct {
	topic  string
	writer messageWriter
}

func NewKafkaNotifier(cfg KafkaConfig) *KafkaNotifier {
	if cfg.Topic == "" {
		cfg.Topic = "contact-submissions"
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &KafkaNotifier{topic: cfg.Topic, writer: w}
}

func (k *KafkaNotifier) Name() string { return "kafka" }

func (k *KafkaNotifier) Notify(ctx context.Context, s contact.Submission) error {
	b, err := json.Marshal(SubmittedEvent{
		Type:      EventSubmitted,
		ID:        s.ID,
		Name:      s.Name,
		Email:     s.Email,
		Message:   s.Message,
		CreatedAt: s.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := kafka.Message{
		Key:     []byte(s.ID),
		Value:   b,
		Headers: []kafka.Header{{Key: "type", Value: []byte(EventSubmitted)}},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", k.topic, err)
	}
	return nil
}

func (k *KafkaNotifier) Close() error { return k.writer.Close() }
