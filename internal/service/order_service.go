package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"dinehub/internal/domain"
	"dinehub/internal/fanout"
	"dinehub/internal/logger"
	"dinehub/internal/repository"
)

type CreateOrderItemInput struct {
	MenuItemID string `json:"menuItemId"`
	Quantity   int    `json:"quantity"`
	Notes      string `json:"notes,omitempty"`
}

type CreateOrderInput struct {
	Type       string                 `json:"type"`
	TableID    *string                `json:"tableId,omitempty"`
	CustomerID *string                `json:"customerId,omitempty"`
	WaiterID   *string                `json:"waiterId,omitempty"`
	Items      []CreateOrderItemInput `json:"items"`
}

type UpdateItemsInput struct {
	Version int64                  `json:"version"`
	Items   []CreateOrderItemInput `json:"items"`
}

type OrderServiceInterface interface {
	Create(ctx context.Context, tc domain.TenantContext, in CreateOrderInput) (*domain.Order, error)
	Get(ctx context.Context, tc domain.TenantContext, id string) (*domain.Order, error)
	List(ctx context.Context, tc domain.TenantContext, statuses []domain.OrderStatus) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, tc domain.TenantContext, id string, target domain.OrderStatus, version int64) (*domain.Order, error)
	Cancel(ctx context.Context, tc domain.TenantContext, id, reason string) (*domain.Order, error)
	Delete(ctx context.Context, tc domain.TenantContext, id, reason string) error
	UpdateItems(ctx context.Context, tc domain.TenantContext, id string, in UpdateItemsInput) (*domain.Order, error)
}

// OrderService is the aggregate root's operation surface. All writes go
// through the repository's version CAS; a stale caller gets the conflict
// back and re-reads, the service never merges on their behalf.
type OrderService struct {
	orders  repository.Orders
	menu    repository.MenuItems
	seq     repository.Sequencer
	pricing PricingResolver
	kots    KOTServiceInterface
	tables  TableServiceInterface
	pub     fanout.Publisher
	lg      *logger.Logger
	now     func() time.Time
}

func NewOrderService(
	orders repository.Orders,
	menu repository.MenuItems,
	seq repository.Sequencer,
	pricing PricingResolver,
	kots KOTServiceInterface,
	tables TableServiceInterface,
	pub fanout.Publisher,
	lg *logger.Logger,
) *OrderService {
	return &OrderService{
		orders:  orders,
		menu:    menu,
		seq:     seq,
		pricing: pricing,
		kots:    kots,
		tables:  tables,
		pub:     pub,
		lg:      lg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *OrderService) Create(ctx context.Context, tc domain.TenantContext, in CreateOrderInput) (*domain.Order, error) {
	orderType := domain.OrderType(in.Type)
	if !orderType.Known() {
		return nil, domain.Validationf("unknown order type %q", in.Type)
	}
	if len(in.Items) == 0 {
		return nil, domain.Validationf("at least one item is required")
	}
	if orderType == domain.OrderDineIn && (in.TableID == nil || *in.TableID == "") {
		return nil, domain.Validationf("dine-in orders require a table")
	}

	now := s.now()
	orderID := uuid.NewString()
	items, err := s.resolveItems(ctx, tc, orderID, in.Items, nil)
	if err != nil {
		return nil, err
	}

	pricing, err := s.pricing.For(ctx, tc.TenantID, orderType)
	if err != nil {
		return nil, fmt.Errorf("resolve pricing: %w", err)
	}

	seq, err := s.seq.Next(ctx, tc.TenantID, now)
	if err != nil {
		return nil, fmt.Errorf("order sequence: %w", err)
	}

	o := &domain.Order{
		ID:            orderID,
		TenantID:      tc.TenantID,
		RestaurantID:  tc.RestaurantID,
		Number:        fmt.Sprintf("ORD_%s_%03d", now.Format("20060102"), seq),
		Type:          orderType,
		Status:        domain.OrderPending,
		TableID:       in.TableID,
		CustomerID:    in.CustomerID,
		WaiterID:      in.WaiterID,
		Items:         items,
		PaymentStatus: domain.PaymentUnpaid,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	o.RecomputeTotals(pricing)

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}

	if orderType == domain.OrderDineIn {
		if _, err := s.tables.Bind(ctx, tc, *in.TableID, o.ID); err != nil {
			// Compensate: the order row exists but the table was taken
			// between validation and bind.
			if _, delErr := s.orders.SoftDelete(ctx, tc.TenantID, o.ID, o.Version, "table bind failed", tc.UserID); delErr != nil {
				s.lg.Error("bind_compensation_failed", delErr, map[string]any{"order_id": o.ID})
			}
			return nil, err
		}
	}

	if _, err := s.kots.MaterializeForOrder(ctx, tc, o); err != nil {
		// Compensate like the bind failure above: an order the kitchen never
		// heard of must not linger, nor keep its table.
		s.lg.Error("kot_materialize_failed", err, map[string]any{"order_id": o.ID})
		if _, delErr := s.orders.SoftDelete(ctx, tc.TenantID, o.ID, o.Version, "kot materialization failed", tc.UserID); delErr != nil {
			s.lg.Error("materialize_compensation_failed", delErr, map[string]any{"order_id": o.ID})
		}
		s.freeTable(ctx, tc, o)
		return nil, fmt.Errorf("materialize kitchen tickets: %w", err)
	}

	s.pub.Publish(domain.OrderCreatedEvent{
		EventMeta: domain.EventMeta{TenantID: tc.TenantID, ActorID: tc.UserID, OccurredAt: now},
		Order:     o.View(),
	})
	s.lg.Info("order_created", map[string]any{
		"order_id": o.ID, "number": o.Number, "tenant_id": tc.TenantID, "total": o.TotalAmount,
	})
	return o, nil
}

func (s *OrderService) Get(ctx context.Context, tc domain.TenantContext, id string) (*domain.Order, error) {
	return s.orders.Get(ctx, tc.TenantID, id)
}

func (s *OrderService) List(ctx context.Context, tc domain.TenantContext, statuses []domain.OrderStatus) ([]domain.Order, error) {
	return s.orders.List(ctx, tc.TenantID, statuses)
}

func (s *OrderService) UpdateStatus(ctx context.Context, tc domain.TenantContext, id string, target domain.OrderStatus, version int64) (*domain.Order, error) {
	if !target.Known() {
		return nil, domain.Validationf("unknown order status %q", target)
	}
	o, err := s.orders.Get(ctx, tc.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransition(target) {
		return nil, domain.InvalidTransitionf("order %s cannot move from %s to %s", o.Number, o.Status, target)
	}
	// Callers that read the order supply the version they saw; otherwise
	// the one just loaded is used, which still fences racing writers.
	if version == 0 {
		version = o.Version
	}

	updated, err := s.orders.UpdateStatus(ctx, tc.TenantID, id, version, target, "", tc.UserID)
	if err != nil {
		return nil, err
	}
	s.applyTransitionEffects(ctx, tc, updated, o.Status, target, "")
	return updated, nil
}

func (s *OrderService) Cancel(ctx context.Context, tc domain.TenantContext, id, reason string) (*domain.Order, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, domain.Validationf("cancellation reason is required")
	}
	o, err := s.orders.Get(ctx, tc.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransition(domain.OrderCancelled) {
		return nil, domain.InvalidTransitionf("order %s is %s and cannot be cancelled", o.Number, o.Status)
	}
	updated, err := s.orders.UpdateStatus(ctx, tc.TenantID, id, o.Version, domain.OrderCancelled, reason, tc.UserID)
	if err != nil {
		return nil, err
	}
	s.applyTransitionEffects(ctx, tc, updated, o.Status, domain.OrderCancelled, reason)
	return updated, nil
}

// Delete tombstones the order. It is cancellation plus a soft-delete flag,
// run through the same legality checks, never a data-layer shortcut.
func (s *OrderService) Delete(ctx context.Context, tc domain.TenantContext, id, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return domain.Validationf("a reason is required to delete an order")
	}
	o, err := s.orders.Get(ctx, tc.TenantID, id)
	if err != nil {
		return err
	}
	if o.Status == domain.OrderCompleted {
		return domain.InvalidTransitionf("completed order %s cannot be deleted", o.Number)
	}
	wasCancelled := o.Status == domain.OrderCancelled

	deleted, err := s.orders.SoftDelete(ctx, tc.TenantID, id, o.Version, reason, tc.UserID)
	if err != nil {
		return err
	}
	if !wasCancelled {
		s.freeTable(ctx, tc, deleted)
	}
	s.pub.Publish(domain.OrderDeletedEvent{
		EventMeta:   domain.EventMeta{TenantID: tc.TenantID, ActorID: tc.UserID, OccurredAt: s.now()},
		OrderID:     deleted.ID,
		OrderNumber: deleted.Number,
		Reason:      reason,
	})
	s.lg.Info("order_deleted", map[string]any{"order_id": id, "reason": reason, "tenant_id": tc.TenantID})
	return nil
}

func (s *OrderService) UpdateItems(ctx context.Context, tc domain.TenantContext, id string, in UpdateItemsInput) (*domain.Order, error) {
	if len(in.Items) == 0 {
		return nil, domain.Validationf("at least one item is required")
	}
	o, err := s.orders.Get(ctx, tc.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !o.ItemsEditable() {
		return nil, domain.InvalidStatef("items of a %s order cannot be edited", o.Status)
	}
	if in.Version != 0 {
		o.Version = in.Version
	}

	// Existing menu items keep their line identity and snapshot price; only
	// genuinely new lines get fresh ids priced at today's menu. Keeping the
	// id is what lets the kitchen tell an item it is already cooking from
	// one it has never seen.
	existing := make(map[string]domain.OrderItem, len(o.Items))
	for i := range o.Items {
		existing[o.Items[i].MenuItemID] = o.Items[i]
	}
	items, err := s.resolveItems(ctx, tc, o.ID, in.Items, existing)
	if err != nil {
		return nil, err
	}
	o.Items = items

	pricing, err := s.pricing.For(ctx, tc.TenantID, o.Type)
	if err != nil {
		return nil, fmt.Errorf("resolve pricing: %w", err)
	}
	o.RecomputeTotals(pricing)

	if err := s.orders.ReplaceItems(ctx, o); err != nil {
		return nil, err
	}

	// The kitchen cooks from tickets, not from order rows: re-derive them so
	// the edit actually reaches the stations.
	if _, err := s.kots.RematerializeForOrder(ctx, tc, o); err != nil {
		s.lg.Error("kot_rematerialize_failed", err, map[string]any{"order_id": o.ID})
		return nil, fmt.Errorf("rematerialize kitchen tickets: %w", err)
	}

	s.pub.Publish(domain.OrderUpdatedEvent{
		EventMeta: domain.EventMeta{TenantID: tc.TenantID, ActorID: tc.UserID, OccurredAt: s.now()},
		Order:     o.View(),
	})
	return o, nil
}

func (s *OrderService) resolveItems(ctx context.Context, tc domain.TenantContext, orderID string, inputs []CreateOrderItemInput, snapshot map[string]domain.OrderItem) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, 0, len(inputs))
	for _, in := range inputs {
		if in.Quantity <= 0 {
			return nil, domain.Validationf("item %s has non-positive quantity", in.MenuItemID)
		}
		ref, err := s.menu.Lookup(ctx, tc.TenantID, in.MenuItemID)
		if err != nil {
			return nil, domain.Validationf("menu item %s cannot be resolved", in.MenuItemID)
		}
		if !ref.Available {
			return nil, domain.Validationf("menu item %s is not available", ref.Name)
		}
		itemID := uuid.NewString()
		price := ref.Price
		if prev, ok := snapshot[in.MenuItemID]; ok {
			itemID = prev.ID
			price = prev.UnitPrice
		}
		items = append(items, domain.OrderItem{
			ID:         itemID,
			OrderID:    orderID,
			MenuItemID: ref.ID,
			Name:       ref.Name,
			Station:    ref.Station,
			Quantity:   in.Quantity,
			UnitPrice:  price,
			Notes:      in.Notes,
			PrepStatus: domain.KOTNotSent,
		})
	}
	return items, nil
}

// applyTransitionEffects runs the side effects a committed transition owes:
// freeing the table on the terminal states, payment bookkeeping on
// completion, and the status-changed event that downstream collaborators
// (billing, inventory) key off.
func (s *OrderService) applyTransitionEffects(ctx context.Context, tc domain.TenantContext, o *domain.Order, from, to domain.OrderStatus, reason string) {
	if to == domain.OrderCompleted || to == domain.OrderCancelled {
		s.freeTable(ctx, tc, o)
	}
	s.pub.Publish(domain.OrderStatusChangedEvent{
		EventMeta:   domain.EventMeta{TenantID: tc.TenantID, ActorID: tc.UserID, OccurredAt: s.now()},
		OrderID:     o.ID,
		OrderNumber: o.Number,
		OldStatus:   string(from),
		NewStatus:   string(to),
		Reason:      reason,
		WaiterID:    o.WaiterID,
	})
	s.lg.Info("order_status_changed", map[string]any{
		"order_id": o.ID, "from": string(from), "to": string(to), "tenant_id": tc.TenantID,
	})
}

func (s *OrderService) freeTable(ctx context.Context, tc domain.TenantContext, o *domain.Order) {
	if o.Type != domain.OrderDineIn || o.TableID == nil {
		return
	}
	if _, err := s.tables.Free(ctx, tc, *o.TableID); err != nil {
		s.lg.Error("table_free_failed", err, map[string]any{"table_id": *o.TableID, "order_id": o.ID})
	}
}
