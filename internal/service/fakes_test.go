package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"dinehub/internal/domain"
	"dinehub/internal/repository"
)

// In-memory repositories implementing the same contracts as the Postgres
// ones: version CAS on orders, from-status guard on tickets, single active
// order per table.

type fakeOrders struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: map[string]*domain.Order{}}
}

func cloneOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	return &cp
}

func (f *fakeOrders) Create(_ context.Context, o *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[o.ID] = cloneOrder(o)
	return nil
}

func (f *fakeOrders) Get(_ context.Context, tenantID, id string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.TenantID != tenantID || o.DeletedAt != nil {
		return nil, domain.NotFoundf("order %s", id)
	}
	return cloneOrder(o), nil
}

func (f *fakeOrders) List(_ context.Context, tenantID string, statuses []domain.OrderStatus) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Order
	for _, o := range f.orders {
		if o.TenantID != tenantID || o.DeletedAt != nil {
			continue
		}
		if len(statuses) > 0 {
			match := false
			for _, s := range statuses {
				if o.Status == s {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, *cloneOrder(o))
	}
	return out, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, tenantID, id string, version int64, to domain.OrderStatus, reason, _ string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.TenantID != tenantID || o.DeletedAt != nil {
		return nil, domain.NotFoundf("order %s", id)
	}
	if o.Version != version {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrConcurrencyConflict)
	}
	o.Status = to
	if reason != "" {
		o.CancelReason = reason
	}
	o.Version++
	o.UpdatedAt = time.Now().UTC()
	return cloneOrder(o), nil
}

func (f *fakeOrders) ReplaceItems(_ context.Context, o *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.orders[o.ID]
	if !ok || cur.TenantID != o.TenantID || cur.DeletedAt != nil {
		return domain.NotFoundf("order %s", o.ID)
	}
	if cur.Version != o.Version {
		return fmt.Errorf("order %s: %w", o.ID, domain.ErrConcurrencyConflict)
	}
	cur.Items = append([]domain.OrderItem(nil), o.Items...)
	cur.SubTotal, cur.DiscountAmount, cur.TaxAmount = o.SubTotal, o.DiscountAmount, o.TaxAmount
	cur.DeliveryCharge, cur.TotalAmount = o.DeliveryCharge, o.TotalAmount
	cur.Version++
	o.Version++
	return nil
}

func (f *fakeOrders) SoftDelete(_ context.Context, tenantID, id string, version int64, reason, _ string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.TenantID != tenantID || o.DeletedAt != nil {
		return nil, domain.NotFoundf("order %s", id)
	}
	if o.Version != version {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrConcurrencyConflict)
	}
	now := time.Now().UTC()
	o.Status = domain.OrderCancelled
	o.CancelReason = reason
	o.DeletedAt = &now
	o.Version++
	return cloneOrder(o), nil
}

type fakeTickets struct {
	mu         sync.Mutex
	tickets    map[string]*domain.KitchenTicket
	failCreate error
}

func newFakeTickets() *fakeTickets {
	return &fakeTickets{tickets: map[string]*domain.KitchenTicket{}}
}

func cloneTicket(t *domain.KitchenTicket) *domain.KitchenTicket {
	cp := *t
	cp.Items = append([]domain.KOTItem(nil), t.Items...)
	return &cp
}

func (f *fakeTickets) CreateBatch(_ context.Context, tickets []domain.KitchenTicket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return f.failCreate
	}
	for i := range tickets {
		f.tickets[tickets[i].ID] = cloneTicket(&tickets[i])
	}
	return nil
}

func (f *fakeTickets) Get(_ context.Context, tenantID, id string) (*domain.KitchenTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[id]
	if !ok || t.TenantID != tenantID {
		return nil, domain.NotFoundf("kitchen ticket %s", id)
	}
	return cloneTicket(t), nil
}

func (f *fakeTickets) ListActive(_ context.Context, tenantID string) ([]domain.KitchenTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.KitchenTicket
	for _, t := range f.tickets {
		if t.TenantID == tenantID && t.Active() {
			out = append(out, *cloneTicket(t))
		}
	}
	return out, nil
}

func (f *fakeTickets) ListByOrder(_ context.Context, tenantID, orderID string) ([]domain.KitchenTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.KitchenTicket
	for _, t := range f.tickets {
		if t.TenantID == tenantID && t.OrderID == orderID {
			out = append(out, *cloneTicket(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TicketNumber < out[j].TicketNumber })
	return out, nil
}

func (f *fakeTickets) Void(_ context.Context, tenantID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[id]
	if !ok || t.TenantID != tenantID {
		return domain.NotFoundf("kitchen ticket %s", id)
	}
	if t.Status != domain.KOTSent {
		return domain.InvalidTransitionf("ticket %s is already in the kitchen", id)
	}
	delete(f.tickets, id)
	return nil
}

func (f *fakeTickets) UpdateStatus(_ context.Context, tenantID, id string, from, to domain.KOTStatus, at time.Time, assignee *string) (*domain.KitchenTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[id]
	if !ok || t.TenantID != tenantID {
		return nil, domain.NotFoundf("kitchen ticket %s", id)
	}
	if t.Status != from {
		return nil, domain.InvalidTransitionf("ticket %s is no longer %s", id, from)
	}
	t.Status = to
	switch to {
	case domain.KOTAcknowledged:
		t.AcknowledgedAt = &at
	case domain.KOTReady:
		t.CompletedAt = &at
	}
	if assignee != nil {
		t.AssignedTo = assignee
	}
	return cloneTicket(t), nil
}

type fakeTables struct {
	mu     sync.Mutex
	tables map[string]*domain.RestaurantTable
}

func newFakeTables(tables ...domain.RestaurantTable) *fakeTables {
	f := &fakeTables{tables: map[string]*domain.RestaurantTable{}}
	for i := range tables {
		cp := tables[i]
		f.tables[cp.ID] = &cp
	}
	return f
}

func (f *fakeTables) Get(_ context.Context, tenantID, id string) (*domain.RestaurantTable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tables[id]
	if !ok || t.TenantID != tenantID {
		return nil, domain.NotFoundf("table %s", id)
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTables) List(_ context.Context, tenantID string) ([]domain.RestaurantTable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.RestaurantTable
	for _, t := range f.tables {
		if t.TenantID == tenantID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTables) Bind(_ context.Context, tenantID, tableID, orderID string) (*domain.RestaurantTable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tables[tableID]
	if !ok || t.TenantID != tenantID {
		return nil, domain.NotFoundf("table %s", tableID)
	}
	if t.CurrentOrderID != nil && *t.CurrentOrderID != orderID {
		return nil, domain.Conflictf("table %s already has order %s", tableID, *t.CurrentOrderID)
	}
	t.Status = domain.TableOccupied
	t.CurrentOrderID = &orderID
	cp := *t
	return &cp, nil
}

func (f *fakeTables) Free(_ context.Context, tenantID, tableID string) (*domain.RestaurantTable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tables[tableID]
	if !ok || t.TenantID != tenantID {
		return nil, domain.NotFoundf("table %s", tableID)
	}
	t.Status = domain.TableAvailable
	t.CurrentOrderID = nil
	cp := *t
	return &cp, nil
}

func (f *fakeTables) SetStatus(_ context.Context, tenantID, tableID string, status domain.TableStatus) (*domain.RestaurantTable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tables[tableID]
	if !ok || t.TenantID != tenantID {
		return nil, domain.NotFoundf("table %s", tableID)
	}
	t.Status = status
	cp := *t
	return &cp, nil
}

type fakeMenu struct {
	items map[string]repository.MenuItemRef
}

func (f *fakeMenu) Lookup(_ context.Context, _, menuItemID string) (*repository.MenuItemRef, error) {
	m, ok := f.items[menuItemID]
	if !ok {
		return nil, domain.NotFoundf("menu item %s", menuItemID)
	}
	return &m, nil
}

type fakeSeq struct {
	mu sync.Mutex
	n  map[string]int64
}

func (f *fakeSeq) Next(_ context.Context, tenantID string, _ time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.n == nil {
		f.n = map[string]int64{}
	}
	f.n[tenantID]++
	return f.n[tenantID], nil
}

type fakePub struct {
	mu     sync.Mutex
	events []domain.Event
}

func (f *fakePub) Publish(ev domain.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakePub) Events() []domain.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Event(nil), f.events...)
}

func (f *fakePub) Kinds() []domain.EventKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	kinds := make([]domain.EventKind, 0, len(f.events))
	for _, ev := range f.events {
		kinds = append(kinds, ev.Kind())
	}
	return kinds
}
