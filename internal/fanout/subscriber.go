package fanout

import (
	"context"
	"encoding/json"

	"dinehub/internal/domain"
	"dinehub/internal/logger"
	"dinehub/internal/mq"
)

// Subscriber drains the durable notifications queue. Downstream consumers
// (dashboards, export jobs) hang their own queues off the fanout exchange;
// this one exists so deliveries are observable and the queue never grows
// unbounded in a single-process deployment.
type Subscriber struct {
	client *mq.Client
	lg     *logger.Logger
}

func NewSubscriber(client *mq.Client, lg *logger.Logger) *Subscriber {
	return &Subscriber{client: client, lg: lg}
}

func (s *Subscriber) Run(ctx context.Context) error {
	deliveries, err := s.client.Consume("notifications.q", "dinehub-subscriber", 10)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			var env domain.Envelope
			if err := json.Unmarshal(d.Body, &env); err != nil {
				s.lg.Warn("malformed_event", map[string]any{"error": err.Error()})
				_ = d.Nack(false, false) // dead-letter, not requeue
				continue
			}
			s.lg.Debug("event_delivered", map[string]any{
				"event": env.Event, "tenant_id": env.TenantID,
			})
			_ = d.Ack(false)
		}
	}
}
