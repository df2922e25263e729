package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"live-quiz-service/internal/domain"
)

type fakeChannel struct {
	exchange string
	key      string
	msgs     []amqp.Publishing
	err      error
	closed   bool
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.exchange = exchange
	c.key = key
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestPublishSessionEndedSendsSummary(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch, "live.events", "live_session_ended")

	ended := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	summary := domain.LiveSessionSummary{
		SessionID:        "s1",
		ClassID:          "class-1",
		QuestionCount:    3,
		ResponseCount:    5,
		ParticipantCount: 2,
		EndedAt:          &ended,
	}
	if err := p.PublishSessionEnded(context.Background(), summary); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(ch.msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(ch.msgs))
	}
	if ch.exchange != "live.events" || ch.key != "live_session_ended" {
		t.Fatalf("unexpected route %q/%q", ch.exchange, ch.key)
	}
	msg := ch.msgs[0]
	if msg.Type != SessionEndedType || msg.MessageId != "s1" || msg.ContentType != "application/json" {
		t.Fatalf("unexpected message headers %+v", msg)
	}
	var got domain.LiveSessionSummary
	if err := json.Unmarshal(msg.Body, &got); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if got.SessionID != "s1" || got.ResponseCount != 5 || got.ParticipantCount != 2 {
		t.Fatalf("unexpected body %+v", got)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !ch.closed {
		t.Fatalf("expected channel closed")
	}
}

func TestPublishSessionEndedReturnsChannelError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := newPublisher(ch, "", "live_session_ended")

	if err := p.PublishSessionEnded(context.Background(), domain.LiveSessionSummary{SessionID: "s1"}); err == nil {
		t.Fatalf("expected publish error")
	}
}
