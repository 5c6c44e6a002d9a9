package producer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	auditdomain "github.com/Lorenzzoczn/Aumigo/internal/audit/domain"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed int
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed++
	return nil
}

func TestNewKafkaProducer_Disabled(t *testing.T) {
	if p := NewKafkaProducer(nil, "aumigo-audit"); p != nil {
		t.Error("no brokers: want nil producer")
	}
	if p := NewKafkaProducer([]string{"localhost:9092"}, ""); p != nil {
		t.Error("no topic: want nil producer")
	}
	var p *KafkaProducer
	if err := p.Emit(context.Background(), &auditdomain.AuditLog{}); err != nil {
		t.Errorf("nil producer Emit: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("nil producer Close: %v", err)
	}
}

func TestKafkaProducer_Emit(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaProducer{writer: w, topic: "aumigo-audit"}
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := &auditdomain.AuditLog{
		ID: "a1", ActorID: "master-1", Action: "role_changed", Resource: "identity",
		TargetID: "user-1", Outcome: auditdomain.OutcomeSuccess, IP: "10.0.0.1", CreatedAt: created,
	}
	if err := p.Emit(context.Background(), entry); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "master-1" {
		t.Errorf("key = %q, want actor id", msg.Key)
	}
	var ev Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Action != "role_changed" || ev.Outcome != "success" || ev.TargetID != "user-1" || !ev.CreatedAt.Equal(created) {
		t.Errorf("event = %+v", ev)
	}
}

func TestKafkaProducer_EmitAnonymousHasNoKey(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaProducer{writer: w}
	if err := p.Emit(context.Background(), &auditdomain.AuditLog{ID: "a1", Action: "bootstrap", Outcome: auditdomain.OutcomeDenied}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if w.msgs[0].Key != nil {
		t.Errorf("key = %q, want nil", w.msgs[0].Key)
	}
}

func TestKafkaProducer_EmitErrorAndClose(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := &KafkaProducer{writer: w}
	if err := p.Emit(context.Background(), &auditdomain.AuditLog{ID: "a1"}); err == nil {
		t.Error("Emit: want writer error")
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if w.closed != 1 {
		t.Errorf("writer closed %d times, want 1", w.closed)
	}
}
