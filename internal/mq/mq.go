package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"dinehub/internal/domain"
)

const (
	EventsExchange        = "orders.events"        // topic, key tenant.<id>.<kind>
	NotificationsExchange = "notifications.fanout" // fanout, offline consumers
	DLX                   = "dlx"
)

type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func Dial(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Client{conn: conn, ch: ch}, nil
}

func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// DeclareAll sets up the exchange topology. Idempotent; every process
// declares on startup.
func (c *Client) DeclareAll() error {
	if c == nil || c.ch == nil {
		return fmt.Errorf("nil channel")
	}
	if err := c.ch.ExchangeDeclare(EventsExchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}
	if err := c.ch.ExchangeDeclare(NotificationsExchange, "fanout", true, false, false, false, nil); err != nil {
		return err
	}
	if err := c.ch.ExchangeDeclare(DLX, "direct", true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := c.ch.QueueDeclare("notifications.q", true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    DLX,
		"x-dead-letter-routing-key": "dlq",
	}); err != nil {
		return err
	}
	if _, err := c.ch.QueueDeclare("dlq", true, false, false, false, nil); err != nil {
		return err
	}
	if err := c.ch.QueueBind("notifications.q", "", NotificationsExchange, false, nil); err != nil {
		return err
	}
	return nil
}

// PublishEnvelope writes one durable event message. The routing key embeds
// the tenant so downstream bindings can stay tenant-scoped.
func (c *Client) PublishEnvelope(ctx context.Context, env domain.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("tenant.%s.%s", env.TenantID, env.Event)
	pub := amqp.Publishing{
		DeliveryMode:  amqp.Persistent,
		ContentType:   "application/json",
		MessageId:     uuid.NewString(),
		CorrelationId: env.TenantID,
		Timestamp:     time.Now().UTC(),
		Headers:       amqp.Table{"x-source": "dinehub"},
		Body:          body,
	}
	if err := c.ch.PublishWithContext(ctx, EventsExchange, key, false, false, pub); err != nil {
		return err
	}
	return c.ch.PublishWithContext(ctx, NotificationsExchange, "", false, false, pub)
}

func (c *Client) Consume(queue, consumer string, prefetch int) (<-chan amqp.Delivery, error) {
	if err := c.ch.Qos(prefetch, 0, false); err != nil {
		return nil, err
	}
	return c.ch.Consume(queue, consumer, false, false, false, false, nil)
}
