package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"live-quiz-service/internal/domain"
)

const SessionEndedType = "live_session.ended"

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends session-ended summaries to RabbitMQ for downstream analytics.
type Publisher struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	ch       channel
	exchange string
	queue    string
}

// NewPublisher connects and declares the durable queue, plus a fanout exchange bound to it when exchange is set.
func NewPublisher(url, exchange, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}
	if exchange != "" {
		if err := ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to declare exchange: %w", err)
		}
		if err := ch.QueueBind(queue, "", exchange, false, nil); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to bind queue: %w", err)
		}
	}

	p := newPublisher(ch, exchange, queue)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, exchange, queue string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange, queue: queue}
}

func (p *Publisher) PublishSessionEnded(ctx context.Context, summary domain.LiveSessionSummary) error {
	body, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(
		ctx,
		p.exchange,
		p.queue,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         SessionEndedType,
			MessageId:    summary.SessionID,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
