package kafka

import (
	"context"
	"log/slog"

	"github.com/resqnow/evac-routing-service/internal/config"
	kafkago "github.com/segmentio/kafka-go"
)

const subjectHeader = "subject"

// Broadcast publishes alert notifications to the broadcast topic. It
// implements routing.BroadcastPublisher.
type Broadcast struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewBroadcast creates a producer for the configured broadcast topic.
func NewBroadcast(cfg *config.Config, logger *slog.Logger) *Broadcast {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.BroadcastTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Broadcast{writer: w, logger: logger}
}

// Publish sends one notification message. The subject travels as a message
// header so downstream consumers can render it without parsing the body.
func (b *Broadcast) Publish(ctx context.Context, subject, message string) error {
	msg := kafkago.Message{
		Value: []byte(message),
		Headers: []kafkago.Header{
			{Key: subjectHeader, Value: []byte(subject)},
		},
	}
	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		return err
	}
	b.logger.Debug("published broadcast notification", "subject", subject)
	return nil
}

func (b *Broadcast) Close() error {
	return b.writer.Close()
}
