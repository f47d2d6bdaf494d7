package repository

import (
	"context"
	"time"

	"dinehub/internal/domain"
)

// Orders persists the order aggregate. Every mutation is compare-and-swapped
// on the version the caller read; a stale version yields
// domain.ErrConcurrencyConflict.
type Orders interface {
	Create(ctx context.Context, o *domain.Order) error
	Get(ctx context.Context, tenantID, id string) (*domain.Order, error)
	List(ctx context.Context, tenantID string, statuses []domain.OrderStatus) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, tenantID, id string, version int64, to domain.OrderStatus, reason, changedBy string) (*domain.Order, error)
	ReplaceItems(ctx context.Context, o *domain.Order) error
	SoftDelete(ctx context.Context, tenantID, id string, version int64, reason, changedBy string) (*domain.Order, error)
}

// Tickets persists kitchen tickets. Status moves are guarded on the expected
// current status; tickets never regress, so a from-status guard is enough to
// serialize racing kitchen displays.
type Tickets interface {
	CreateBatch(ctx context.Context, tickets []domain.KitchenTicket) error
	Get(ctx context.Context, tenantID, id string) (*domain.KitchenTicket, error)
	ListActive(ctx context.Context, tenantID string) ([]domain.KitchenTicket, error)
	ListByOrder(ctx context.Context, tenantID, orderID string) ([]domain.KitchenTicket, error)
	UpdateStatus(ctx context.Context, tenantID, id string, from, to domain.KOTStatus, at time.Time, assignee *string) (*domain.KitchenTicket, error)
	Void(ctx context.Context, tenantID, id string) error
}

// Tables tracks occupancy. Bind and Free are the only order-coupled
// mutations; SetStatus is the manual override.
type Tables interface {
	Get(ctx context.Context, tenantID, id string) (*domain.RestaurantTable, error)
	List(ctx context.Context, tenantID string) ([]domain.RestaurantTable, error)
	Bind(ctx context.Context, tenantID, tableID, orderID string) (*domain.RestaurantTable, error)
	Free(ctx context.Context, tenantID, tableID string) (*domain.RestaurantTable, error)
	SetStatus(ctx context.Context, tenantID, tableID string, status domain.TableStatus) (*domain.RestaurantTable, error)
}

// Notifications stores the durable fan-out records.
type Notifications interface {
	Create(ctx context.Context, n *domain.Notification) error
	List(ctx context.Context, tenantID, userID string, unreadOnly bool) ([]domain.Notification, error)
	MarkRead(ctx context.Context, tenantID, userID, id string) error
}

// Sequencer hands out the tenant-scoped daily order sequence.
type Sequencer interface {
	Next(ctx context.Context, tenantID string, day time.Time) (int64, error)
}

// MenuItems is the read-side boundary to the menu catalog (an external
// collaborator): order creation only needs availability, price and station.
type MenuItems interface {
	Lookup(ctx context.Context, tenantID, menuItemID string) (*MenuItemRef, error)
}

type MenuItemRef struct {
	ID        string
	Name      string
	Price     float64
	Station   string
	Available bool
}
