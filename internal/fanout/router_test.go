package fanout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinehub/internal/domain"
	"dinehub/internal/logger"
	"dinehub/internal/ws"
)

type fakeNotifications struct {
	mu    sync.Mutex
	rows  []domain.Notification
	fail  error
	calls int
}

func (f *fakeNotifications) Create(_ context.Context, n *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail != nil {
		return f.fail
	}
	f.rows = append(f.rows, *n)
	return nil
}

func (f *fakeNotifications) List(_ context.Context, tenantID, userID string, _ bool) ([]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Notification
	for _, n := range f.rows {
		if n.TenantID != tenantID {
			continue
		}
		if n.UserID == nil || *n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, tenantID, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id && f.rows[i].TenantID == tenantID {
			f.rows[i].Read = true
			return nil
		}
	}
	return domain.NotFoundf("notification %s", id)
}

func (f *fakeNotifications) stored() []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Notification(nil), f.rows...)
}

type fakeBus struct {
	mu   sync.Mutex
	sent []domain.Envelope
	fail error
}

func (f *fakeBus) PublishEnvelope(_ context.Context, env domain.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, env)
	return nil
}

func (f *fakeBus) published() []domain.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Envelope(nil), f.sent...)
}

type fakeHub struct {
	mu   sync.Mutex
	sent map[string][]domain.Envelope
}

func newFakeHub() *fakeHub { return &fakeHub{sent: map[string][]domain.Envelope{}} }

func (f *fakeHub) Broadcast(group string, env domain.Envelope) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[group] = append(f.sent[group], env)
}

func (f *fakeHub) group(name string) []domain.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Envelope(nil), f.sent[name]...)
}

func newRouterEnv() (*Router, *fakeNotifications, *fakeBus, *fakeHub) {
	notes := &fakeNotifications{}
	bus := &fakeBus{}
	hub := newFakeHub()
	r := NewRouter(notes, bus, hub, logger.New("test"), 16)
	return r, notes, bus, hub
}

// runAndDrain runs the router long enough to process the published events.
func runAndDrain(t *testing.T, r *Router, publish func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = r.Run(ctx) }()
	publish()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("router did not flush after cancel")
	}
}

func orderCreated(tenant, actor, number string) domain.OrderCreatedEvent {
	return domain.OrderCreatedEvent{
		EventMeta: domain.EventMeta{TenantID: tenant, ActorID: actor, OccurredAt: time.Now().UTC()},
		Order:     domain.OrderView{ID: "ord-1", Number: number},
	}
}

func TestDispatchReachesHubBusAndTable(t *testing.T) {
	r, notes, bus, hub := newRouterEnv()

	runAndDrain(t, r, func() {
		r.Publish(orderCreated("t1", "u1", "ORD_20260829_001"))
	})

	got := hub.group(ws.OrdersGroup("t1"))
	require.NotEmpty(t, got)
	assert.Equal(t, "order.created", got[0].Event)
	assert.Equal(t, "t1", got[0].TenantID)

	sent := bus.published()
	require.NotEmpty(t, sent)
	assert.Equal(t, "order.created", sent[0].Event)

	rows := notes.stored()
	require.Len(t, rows, 1)
	assert.Equal(t, "t1", rows[0].TenantID)
	assert.Nil(t, rows[0].UserID, "order created is tenant-wide")
	assert.Contains(t, rows[0].Message, "ORD_20260829_001")
}

func TestReadyOrderPagesTheWaiterPersonally(t *testing.T) {
	r, notes, _, hub := newRouterEnv()
	waiter := "waiter-1"

	runAndDrain(t, r, func() {
		r.Publish(domain.OrderStatusChangedEvent{
			EventMeta:   domain.EventMeta{TenantID: "t1", ActorID: "kitchen", OccurredAt: time.Now().UTC()},
			OrderID:     "ord-1",
			OrderNumber: "ORD_20260829_001",
			OldStatus:   string(domain.OrderPreparing),
			NewStatus:   string(domain.OrderReady),
			WaiterID:    &waiter,
		})
	})

	rows := notes.stored()
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].UserID)
	assert.Equal(t, waiter, *rows[0].UserID)

	toasts := hub.group(ws.NotifyGroup("t1", waiter))
	require.NotEmpty(t, toasts, "personal toast lands on the waiter's channel")
	assert.Equal(t, "notification.created", toasts[0].Event)
}

func TestActorDoesNotGetPagedForOwnAction(t *testing.T) {
	r, notes, _, hub := newRouterEnv()
	waiter := "waiter-1"

	runAndDrain(t, r, func() {
		r.Publish(domain.OrderStatusChangedEvent{
			EventMeta:   domain.EventMeta{TenantID: "t1", ActorID: waiter, OccurredAt: time.Now().UTC()},
			OrderID:     "ord-1",
			OrderNumber: "ORD_20260829_001",
			OldStatus:   string(domain.OrderPreparing),
			NewStatus:   string(domain.OrderReady),
			WaiterID:    &waiter,
		})
	})

	assert.Empty(t, notes.stored(), "recipient == actor suppresses the notification")
	assert.Empty(t, hub.group(ws.NotifyGroup("t1", waiter)))
	assert.NotEmpty(t, hub.group(ws.OrdersGroup("t1")), "the status event itself still fans out")
}

func TestTicketEventsReachStationAndBoard(t *testing.T) {
	r, _, _, hub := newRouterEnv()

	runAndDrain(t, r, func() {
		r.Publish(domain.KOTCreatedEvent{
			EventMeta: domain.EventMeta{TenantID: "t1", ActorID: "u1", OccurredAt: time.Now().UTC()},
			Ticket:    domain.TicketView{ID: "kot-1", TicketNumber: "ORD_20260829_001-K1", OrderNumber: "ORD_20260829_001", Station: "grill"},
		})
	})

	assert.NotEmpty(t, hub.group(ws.KitchenGroup("t1", "grill")))
	assert.NotEmpty(t, hub.group(ws.KitchenGroup("t1", "")))
	assert.NotEmpty(t, hub.group(ws.OrdersGroup("t1")))
	assert.Empty(t, hub.group(ws.KitchenGroup("t1", "fry")))
	assert.Empty(t, hub.group(ws.KitchenGroup("t2", "grill")))
}

func TestEveryEventKindLeavesADurableRecord(t *testing.T) {
	r, notes, _, _ := newRouterEnv()
	meta := domain.EventMeta{TenantID: "t1", ActorID: "u1", OccurredAt: time.Now().UTC()}

	events := []domain.Event{
		domain.OrderCreatedEvent{EventMeta: meta, Order: domain.OrderView{ID: "o1", Number: "N1"}},
		domain.OrderUpdatedEvent{EventMeta: meta, Order: domain.OrderView{ID: "o1", Number: "N1"}},
		domain.OrderStatusChangedEvent{EventMeta: meta, OrderID: "o1", OrderNumber: "N1", OldStatus: "pending", NewStatus: "confirmed"},
		domain.OrderDeletedEvent{EventMeta: meta, OrderID: "o1", OrderNumber: "N1", Reason: "dup"},
		domain.KOTCreatedEvent{EventMeta: meta, Ticket: domain.TicketView{ID: "k1", OrderNumber: "N1", TicketNumber: "N1-K1", Station: "grill"}},
		domain.KOTAcknowledgedEvent{EventMeta: meta, TicketID: "k1", OrderID: "o1", OrderNumber: "N1", Station: "grill"},
		domain.KOTStatusChangedEvent{EventMeta: meta, TicketID: "k1", OrderID: "o1", OrderNumber: "N1", Station: "grill", OldStatus: "acknowledged", NewStatus: "preparing"},
		domain.KOTVoidedEvent{EventMeta: meta, TicketID: "k1", OrderID: "o1", OrderNumber: "N1", Station: "grill"},
		domain.TableUpdatedEvent{EventMeta: meta, Table: domain.TableView{ID: "T5", Number: "5", Status: "occupied"}},
	}

	runAndDrain(t, r, func() {
		for _, ev := range events {
			r.Publish(ev)
		}
	})

	rows := notes.stored()
	require.Len(t, rows, len(events))
	categories := map[string]bool{}
	for _, row := range rows {
		categories[row.Category] = true
	}
	for _, ev := range events {
		assert.True(t, categories[string(ev.Kind())], "no durable record for %s", ev.Kind())
	}
}

func TestDeliveryFailuresDoNotStopTheOthers(t *testing.T) {
	r, notes, bus, hub := newRouterEnv()
	bus.fail = errors.New("broker down")
	notes.fail = errors.New("db down")

	runAndDrain(t, r, func() {
		r.Publish(orderCreated("t1", "u1", "ORD_20260829_002"))
	})

	assert.NotEmpty(t, hub.group(ws.OrdersGroup("t1")), "live fan-out survives bus and db failures")
	assert.Equal(t, 1, notes.calls)
	assert.Empty(t, notes.stored())
}

func TestPublishNeverBlocksWhenQueueIsFull(t *testing.T) {
	notes := &fakeNotifications{}
	r := NewRouter(notes, &fakeBus{}, newFakeHub(), logger.New("test"), 1)

	// No Run loop draining; the second publish must drop, not hang.
	done := make(chan struct{})
	go func() {
		r.Publish(orderCreated("t1", "u1", "ORD_1"))
		r.Publish(orderCreated("t1", "u1", "ORD_2"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full queue")
	}
}

func TestFlushOnShutdown(t *testing.T) {
	r, notes, _, _ := newRouterEnv()

	// Events enqueued before Run starts are flushed by the post-cancel drain.
	for i := 0; i < 5; i++ {
		r.Publish(orderCreated("t1", "u1", "ORD_X"))
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, r.Run(ctx))

	assert.Len(t, notes.stored(), 5)
}
