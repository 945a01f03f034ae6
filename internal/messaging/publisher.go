package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const authEventsExchange = "auth.events"

// AuthEvent is the audit record published for auth activity. Routing
// keys: user.login, user.signup, user.logout, webhook.rejected.
type AuthEvent struct {
	Type       string `json:"type"`
	Username   string `json:"username,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	RemoteAddr string `json:"remote_addr,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}

// Publisher publishes auth audit events to a RabbitMQ topic exchange.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewPublisher connects to RabbitMQ and declares the audit exchange.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	p := &Publisher{conn: conn, channel: ch}
	if err := p.setup(); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// NewPublisherWithRetry keeps dialing until the broker accepts the
// connection or ctx expires.
func NewPublisherWithRetry(ctx context.Context, url string) (*Publisher, error) {
	backoff := time.Second
	for {
		p, err := NewPublisher(url)
		if err == nil {
			return p, nil
		}

		slog.Warn("rabbitmq not ready, retrying",
			slog.String("error", err.Error()),
			slog.Duration("backoff", backoff))

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("rabbitmq connect: %w", ctx.Err())
		case <-time.After(backoff):
		}
		if backoff < 10*time.Second {
			backoff *= 2
		}
	}
}

func (p *Publisher) setup() error {
	if err := p.channel.ExchangeDeclare(
		authEventsExchange, // name
		"topic",            // type
		true,               // durable
		false,              // auto-deleted
		false,              // internal
		false,              // no-wait
		nil,                // arguments
	); err != nil {
		return fmt.Errorf("failed to declare auth events exchange: %w", err)
	}
	return nil
}

// Publish emits an audit event under routingKey. Callers treat failures
// as best-effort: audit publishing never blocks an auth response.
func (p *Publisher) Publish(ctx context.Context, routingKey string, event *AuthEvent) error {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal auth event: %w", err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		authEventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish auth event: %w", err)
	}

	slog.Debug("published auth event",
		slog.String("type", event.Type),
		slog.String("routing_key", routingKey))
	return nil
}

// IsClosed reports whether the underlying connection is gone.
func (p *Publisher) IsClosed() bool {
	return p.conn == nil || p.conn.IsClosed()
}

func (p *Publisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
