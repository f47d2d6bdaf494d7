package fanout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dinehub/internal/domain"
	"dinehub/internal/logger"
	"dinehub/internal/repository"
	"dinehub/internal/ws"
)

// Publisher is what the services see: hand over an event and move on.
type Publisher interface {
	Publish(ev domain.Event)
}

// Bus is the durable side of delivery (AMQP in production).
type Bus interface {
	PublishEnvelope(ctx context.Context, env domain.Envelope) error
}

// Broadcaster is the live side (the websocket hub).
type Broadcaster interface {
	Broadcast(group string, env domain.Envelope)
}

// Router fans a domain event out to live subscribers, the durable bus and
// the notification table. Publish enqueues and returns immediately: the
// state transition that produced the event has already committed and must
// not wait on delivery.
type Router struct {
	notifications repository.Notifications
	bus           Bus
	hub           Broadcaster
	lg            *logger.Logger
	queue         chan domain.Event
	done          chan struct{}
}

func NewRouter(notifications repository.Notifications, bus Bus, hub Broadcaster, lg *logger.Logger, queueSize int) *Router {
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &Router{
		notifications: notifications,
		bus:           bus,
		hub:           hub,
		lg:            lg,
		queue:         make(chan domain.Event, queueSize),
		done:          make(chan struct{}),
	}
}

// Publish never blocks the caller. A full queue drops the live delivery and
// logs it; the state change itself is already durable in Postgres.
func (r *Router) Publish(ev domain.Event) {
	select {
	case r.queue <- ev:
	default:
		r.lg.Error("fanout_queue_full", fmt.Errorf("dropping %s", ev.Kind()),
			map[string]any{"tenant_id": ev.Tenant()})
	}
}

// Run drains the queue until ctx is cancelled, then flushes what is left.
func (r *Router) Run(ctx context.Context) error {
	defer close(r.done)
	for {
		select {
		case ev := <-r.queue:
			r.dispatch(ctx, ev)
		case <-ctx.Done():
			for {
				select {
				case ev := <-r.queue:
					r.dispatch(context.Background(), ev)
				default:
					return nil
				}
			}
		}
	}
}

func (r *Router) dispatch(ctx context.Context, ev domain.Event) {
	env, err := domain.Encode(ev)
	if err != nil {
		r.lg.Error("event_encode_failed", err, map[string]any{"kind": string(ev.Kind())})
		return
	}

	// Live fan-out, scoped to the event's tenant. Group keys embed the
	// tenant id, so cross-tenant delivery is structurally impossible.
	for _, group := range groupsFor(ev) {
		r.hub.Broadcast(group, env)
	}

	// Durable bus. Failures are logged, never surfaced.
	if r.bus != nil {
		pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := r.bus.PublishEnvelope(pubCtx, env); err != nil {
			r.lg.Error("bus_publish_failed", err, map[string]any{
				"kind": string(ev.Kind()), "tenant_id": ev.Tenant(),
			})
		}
		cancel()
	}

	// Durable notification record for offline recipients.
	r.notify(ctx, ev)
}

// groupsFor maps an event kind to the hub groups that care about it.
func groupsFor(ev domain.Event) []string {
	tenant := ev.Tenant()
	switch e := ev.(type) {
	case domain.OrderCreatedEvent, domain.OrderUpdatedEvent,
		domain.OrderStatusChangedEvent, domain.OrderDeletedEvent:
		return []string{ws.OrdersGroup(tenant)}
	case domain.KOTCreatedEvent:
		return []string{ws.KitchenGroup(tenant, ""), ws.KitchenGroup(tenant, e.Ticket.Station), ws.OrdersGroup(tenant)}
	case domain.KOTAcknowledgedEvent:
		return []string{ws.KitchenGroup(tenant, ""), ws.KitchenGroup(tenant, e.Station), ws.OrdersGroup(tenant)}
	case domain.KOTStatusChangedEvent:
		return []string{ws.KitchenGroup(tenant, ""), ws.KitchenGroup(tenant, e.Station), ws.OrdersGroup(tenant)}
	case domain.KOTVoidedEvent:
		return []string{ws.KitchenGroup(tenant, ""), ws.KitchenGroup(tenant, e.Station), ws.OrdersGroup(tenant)}
	case domain.TableUpdatedEvent:
		return []string{ws.OrdersGroup(tenant)}
	case domain.NotificationCreatedEvent:
		if e.UserID != nil {
			return []string{ws.NotifyGroup(tenant, *e.UserID)}
		}
		return []string{ws.OrdersGroup(tenant)}
	default:
		return nil
	}
}

// notify writes the durable record and pushes the toast. A personal
// notification whose recipient is the actor who caused the event is
// suppressed; the event broadcast above already reached their sessions.
func (r *Router) notify(ctx context.Context, ev domain.Event) {
	n, ok := notificationFor(ev)
	if !ok {
		return
	}
	if n.UserID != nil && *n.UserID == ev.Actor() {
		return
	}
	if err := r.notifications.Create(ctx, n); err != nil {
		r.lg.Error("notification_persist_failed", err, map[string]any{
			"kind": string(ev.Kind()), "tenant_id": ev.Tenant(),
		})
		return
	}
	toast := domain.NotificationCreatedEvent{
		EventMeta:    domain.EventMeta{TenantID: n.TenantID, ActorID: ev.Actor(), OccurredAt: n.CreatedAt},
		UserID:       n.UserID,
		Notification: n.View(),
	}
	if env, err := domain.Encode(toast); err == nil {
		for _, group := range groupsFor(toast) {
			r.hub.Broadcast(group, env)
		}
	}
}

// notificationFor maps an event to its durable record, the offline fallback
// for recipients not connected when it fired. Every kind leaves one except
// NotificationCreated itself, which is already the record's own toast.
func notificationFor(ev domain.Event) (*domain.Notification, bool) {
	now := time.Now().UTC()
	base := domain.Notification{
		ID:        uuid.NewString(),
		TenantID:  ev.Tenant(),
		Category:  string(ev.Kind()),
		CreatedAt: now,
	}
	switch e := ev.(type) {
	case domain.OrderCreatedEvent:
		base.Title = "New order"
		base.Message = fmt.Sprintf("Order %s created", e.Order.Number)
		base.ReferenceID = &e.Order.ID
		return &base, true
	case domain.OrderStatusChangedEvent:
		base.Title = "Order " + e.NewStatus
		base.Message = fmt.Sprintf("Order %s moved from %s to %s", e.OrderNumber, e.OldStatus, e.NewStatus)
		base.ReferenceID = &e.OrderID
		// Ready orders page the waiter personally; everything else stays
		// tenant-wide.
		if e.NewStatus == string(domain.OrderReady) && e.WaiterID != nil {
			base.UserID = e.WaiterID
		}
		return &base, true
	case domain.OrderDeletedEvent:
		base.Title = "Order removed"
		base.Message = fmt.Sprintf("Order %s was cancelled: %s", e.OrderNumber, e.Reason)
		base.ReferenceID = &e.OrderID
		return &base, true
	case domain.KOTCreatedEvent:
		base.Title = "Kitchen ticket"
		base.Message = fmt.Sprintf("Ticket %s for order %s sent to %s", e.Ticket.TicketNumber, e.Ticket.OrderNumber, e.Ticket.Station)
		base.ReferenceID = &e.Ticket.ID
		return &base, true
	case domain.KOTAcknowledgedEvent:
		base.Title = "Kitchen acknowledged"
		base.Message = fmt.Sprintf("Order %s acknowledged by %s", e.OrderNumber, e.Station)
		base.ReferenceID = &e.TicketID
		return &base, true
	case domain.OrderUpdatedEvent:
		base.Title = "Order updated"
		base.Message = fmt.Sprintf("Order %s items changed, new total %.2f", e.Order.Number, e.Order.TotalAmount)
		base.ReferenceID = &e.Order.ID
		return &base, true
	case domain.KOTStatusChangedEvent:
		base.Title = "Kitchen " + e.NewStatus
		base.Message = fmt.Sprintf("Ticket %s (%s) moved to %s", e.OrderNumber, e.Station, e.NewStatus)
		base.ReferenceID = &e.TicketID
		return &base, true
	case domain.KOTVoidedEvent:
		base.Title = "Kitchen ticket withdrawn"
		base.Message = fmt.Sprintf("Ticket for order %s (%s) was withdrawn after an item change", e.OrderNumber, e.Station)
		base.ReferenceID = &e.TicketID
		return &base, true
	case domain.TableUpdatedEvent:
		base.Title = "Table " + e.Table.Status
		base.Message = fmt.Sprintf("Table %s is now %s", e.Table.Number, e.Table.Status)
		base.ReferenceID = &e.Table.ID
		return &base, true
	default:
		return nil, false
	}
}

// Done reports when Run has finished flushing after cancellation.
func (r *Router) Done() <-chan struct{} { return r.done }
