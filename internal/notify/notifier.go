package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// MissedQuestion describes a customer question the assistant failed to
// answer. Staff-facing consumers turn these into follow-up emails.
type MissedQuestion struct {
	ConversationID string    `json:"conversationId,omitempty"`
	Question       string    `json:"question"`
	Reason         string    `json:"reason"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// Notifier publishes missed-question events. Implementations are
// best-effort: callers log publish errors and move on.
type Notifier interface {
	NotifyMissed(ctx context.Context, event MissedQuestion) error
}

const defaultRoutingKey = "reven.missed"

// AMQPNotifier publishes missed-question events to a RabbitMQ exchange.
// A nil *AMQPNotifier is a valid no-op notifier, so wiring stays simple
// when the broker is not configured.
type AMQPNotifier struct {
	url      string
	exchange string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPNotifier returns a notifier for the given broker URL and
// exchange, or nil when url is empty.
func NewAMQPNotifier(url, exchange string) *AMQPNotifier {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}
	exchange = strings.TrimSpace(exchange)
	if exchange == "" {
		exchange = "reven.notifications"
	}
	return &AMQPNotifier{url: url, exchange: exchange}
}

// NotifyMissed publishes one event as a persistent JSON message.
func (n *AMQPNotifier) NotifyMissed(ctx context.Context, event MissedQuestion) error {
	if n == nil {
		return nil
	}
	ch, err := n.channel()
	if err != nil {
		return fmt.Errorf("notify channel: %w", err)
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("notify encode: %w", err)
	}
	err = ch.PublishWithContext(ctx, n.exchange, defaultRoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Body:         body,
	})
	if err != nil {
		n.reset()
		return fmt.Errorf("notify publish: %w", err)
	}
	return nil
}

// Close releases the broker connection.
func (n *AMQPNotifier) Close() error {
	if n == nil {
		return nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ch != nil {
		_ = n.ch.Close()
		n.ch = nil
	}
	if n.conn != nil {
		err := n.conn.Close()
		n.conn = nil
		return err
	}
	return nil
}

func (n *AMQPNotifier) channel() (*amqp.Channel, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ch != nil {
		return n.ch, nil
	}
	conn, err := amqp.Dial(n.url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(n.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	n.conn = conn
	n.ch = ch
	return ch, nil
}

func (n *AMQPNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ch != nil {
		_ = n.ch.Close()
		n.ch = nil
	}
	if n.conn != nil {
		_ = n.conn.Close()
		n.conn = nil
	}
}
