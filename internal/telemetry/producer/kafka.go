package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	auditdomain "github.com/Lorenzzoczn/Aumigo/internal/audit/domain"
)

// messageWriter is the subset of *kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer implements Producer using segmentio/kafka-go.
type KafkaProducer struct {
	writer messageWriter
	topic  string
}

var _ Producer = (*KafkaProducer)(nil)

// NewKafkaProducer creates a Kafka producer that writes audit entries to the given topic.
// It returns nil when brokers or topic is empty, which disables the stream. Call Close when shutting down.
func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaProducer{writer: writer, topic: topic}
}

// Emit serializes the entry as JSON and writes it keyed by actor, so one actor's entries stay ordered.
func (p *KafkaProducer) Emit(ctx context.Context, entry *auditdomain.AuditLog) error {
	if p == nil || p.writer == nil || entry == nil {
		return nil
	}
	payload, err := json.Marshal(NewEvent(entry))
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	msg := kafka.Message{Value: payload, Time: entry.CreatedAt}
	if entry.ActorID != "" {
		msg.Key = []byte(entry.ActorID)
	}
	return p.writer.WriteMessages(writeCtx, msg)
}

// Close closes the Kafka writer. Safe to call multiple times.
func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	err := p.writer.Close()
	p.writer = nil
	return err
}
