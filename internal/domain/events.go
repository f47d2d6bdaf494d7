package domain

import (
	"encoding/json"
	"time"
)

type EventKind string

const (
	EventOrderCreated        EventKind = "order.created"
	EventOrderUpdated        EventKind = "order.updated"
	EventOrderStatusChanged  EventKind = "order.status_changed"
	EventOrderDeleted        EventKind = "order.deleted"
	EventKOTCreated          EventKind = "kot.created"
	EventKOTAcknowledged     EventKind = "kot.acknowledged"
	EventKOTStatusChanged    EventKind = "kot.status_changed"
	EventKOTVoided           EventKind = "kot.voided"
	EventTableUpdated        EventKind = "table.updated"
	EventNotificationCreated EventKind = "notification.created"
)

// Event is the closed set of things the fan-out router delivers. Every event
// carries its tenant scope and the actor that triggered it (used for
// self-notification suppression); kinds are dispatched on the type, the
// string discriminator only appears on the wire.
type Event interface {
	Kind() EventKind
	Tenant() string
	Actor() string
}

// EventMeta is embedded by every concrete event.
type EventMeta struct {
	TenantID   string    `json:"tenantId"`
	ActorID    string    `json:"actorId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

func (m EventMeta) Tenant() string { return m.TenantID }
func (m EventMeta) Actor() string  { return m.ActorID }

type OrderCreatedEvent struct {
	EventMeta
	Order OrderView `json:"order"`
}

func (OrderCreatedEvent) Kind() EventKind { return EventOrderCreated }

type OrderUpdatedEvent struct {
	EventMeta
	Order OrderView `json:"order"`
}

func (OrderUpdatedEvent) Kind() EventKind { return EventOrderUpdated }

type OrderStatusChangedEvent struct {
	EventMeta
	OrderID     string  `json:"orderId"`
	OrderNumber string  `json:"orderNumber"`
	OldStatus   string  `json:"oldStatus"`
	NewStatus   string  `json:"newStatus"`
	Reason      string  `json:"reason,omitempty"`
	WaiterID    *string `json:"waiterId,omitempty"`
}

func (OrderStatusChangedEvent) Kind() EventKind { return EventOrderStatusChanged }

type OrderDeletedEvent struct {
	EventMeta
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	Reason      string `json:"reason"`
}

func (OrderDeletedEvent) Kind() EventKind { return EventOrderDeleted }

type KOTCreatedEvent struct {
	EventMeta
	Ticket TicketView `json:"ticket"`
}

func (KOTCreatedEvent) Kind() EventKind { return EventKOTCreated }

type KOTAcknowledgedEvent struct {
	EventMeta
	TicketID    string `json:"ticketId"`
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	Station     string `json:"station"`
}

func (KOTAcknowledgedEvent) Kind() EventKind { return EventKOTAcknowledged }

type KOTStatusChangedEvent struct {
	EventMeta
	TicketID    string `json:"ticketId"`
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	Station     string `json:"station"`
	OldStatus   string `json:"oldStatus"`
	NewStatus   string `json:"newStatus"`
}

func (KOTStatusChangedEvent) Kind() EventKind { return EventKOTStatusChanged }

// KOTVoidedEvent withdraws a ticket the kitchen never picked up, after an
// item edit replaced its lines.
type KOTVoidedEvent struct {
	EventMeta
	TicketID    string `json:"ticketId"`
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	Station     string `json:"station"`
}

func (KOTVoidedEvent) Kind() EventKind { return EventKOTVoided }

type TableUpdatedEvent struct {
	EventMeta
	Table TableView `json:"table"`
}

func (TableUpdatedEvent) Kind() EventKind { return EventTableUpdated }

type NotificationCreatedEvent struct {
	EventMeta
	UserID       *string          `json:"userId,omitempty"`
	Notification NotificationView `json:"notification"`
}

func (NotificationCreatedEvent) Kind() EventKind { return EventNotificationCreated }

// Envelope is the wire frame for websocket and AMQP delivery. The payload is
// the event struct itself; the kind travels as a string for client dispatch.
type Envelope struct {
	Event      string          `json:"event"`
	TenantID   string          `json:"tenantId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// Encode maps an event to its wire envelope.
func Encode(ev Event) (Envelope, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return Envelope{}, err
	}
	at := time.Now().UTC()
	if m, ok := metaOf(ev); ok && !m.OccurredAt.IsZero() {
		at = m.OccurredAt
	}
	return Envelope{
		Event:      string(ev.Kind()),
		TenantID:   ev.Tenant(),
		OccurredAt: at,
		Payload:    payload,
	}, nil
}

func metaOf(ev Event) (EventMeta, bool) {
	switch e := ev.(type) {
	case OrderCreatedEvent:
		return e.EventMeta, true
	case OrderUpdatedEvent:
		return e.EventMeta, true
	case OrderStatusChangedEvent:
		return e.EventMeta, true
	case OrderDeletedEvent:
		return e.EventMeta, true
	case KOTCreatedEvent:
		return e.EventMeta, true
	case KOTAcknowledgedEvent:
		return e.EventMeta, true
	case KOTStatusChangedEvent:
		return e.EventMeta, true
	case KOTVoidedEvent:
		return e.EventMeta, true
	case TableUpdatedEvent:
		return e.EventMeta, true
	case NotificationCreatedEvent:
		return e.EventMeta, true
	}
	return EventMeta{}, false
}
