package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dinehub/internal/domain"
	"dinehub/internal/fanout"
	"dinehub/internal/logger"
	"dinehub/internal/repository"
)

type KOTServiceInterface interface {
	MaterializeForOrder(ctx context.Context, tc domain.TenantContext, o *domain.Order) ([]domain.KitchenTicket, error)
	RematerializeForOrder(ctx context.Context, tc domain.TenantContext, o *domain.Order) ([]domain.KitchenTicket, error)
	Acknowledge(ctx context.Context, tc domain.TenantContext, ticketID string) (*domain.KitchenTicket, error)
	StartPreparing(ctx context.Context, tc domain.TenantContext, ticketID string) (*domain.KitchenTicket, error)
	MarkReady(ctx context.Context, tc domain.TenantContext, ticketID string) (*domain.KitchenTicket, error)
	ListActive(ctx context.Context, tc domain.TenantContext) ([]domain.KitchenTicket, error)
	Policy() domain.PriorityPolicy
}

// KOTService owns ticket materialization and the forward-only ticket state
// machine. When the last sibling reaches ready it advances the parent order
// through the orders repository directly, so the dependency only points one
// way.
type KOTService struct {
	tickets repository.Tickets
	orders  repository.Orders
	pub     fanout.Publisher
	policy  domain.PriorityPolicy
	lg      *logger.Logger
	now     func() time.Time
}

func NewKOTService(tickets repository.Tickets, orders repository.Orders, pub fanout.Publisher, policy domain.PriorityPolicy, lg *logger.Logger) *KOTService {
	return &KOTService{
		tickets: tickets,
		orders:  orders,
		pub:     pub,
		policy:  policy,
		lg:      lg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *KOTService) Policy() domain.PriorityPolicy { return s.policy }

// MaterializeForOrder partitions the order's items by station into tickets.
// Tickets are born sent: writing them is the transmission to the kitchen.
func (s *KOTService) MaterializeForOrder(ctx context.Context, tc domain.TenantContext, o *domain.Order) ([]domain.KitchenTicket, error) {
	return s.materialize(ctx, tc, o, o.Items, 0)
}

// RematerializeForOrder brings the kitchen back in sync after an item edit.
// Tickets the kitchen has not acknowledged are voided and their items return
// to the pool; items already cooking stay on their tickets; everything else
// goes out on fresh tickets.
func (s *KOTService) RematerializeForOrder(ctx context.Context, tc domain.TenantContext, o *domain.Order) ([]domain.KitchenTicket, error) {
	existing, err := s.tickets.ListByOrder(ctx, tc.TenantID, o.ID)
	if err != nil {
		return nil, err
	}

	inKitchen := make(map[string]struct{})
	for i := range existing {
		t := &existing[i]
		if t.Status == domain.KOTSent {
			if err := s.tickets.Void(ctx, tc.TenantID, t.ID); err != nil {
				return nil, err
			}
			s.pub.Publish(domain.KOTVoidedEvent{
				EventMeta:   domain.EventMeta{TenantID: tc.TenantID, ActorID: tc.UserID, OccurredAt: s.now()},
				TicketID:    t.ID,
				OrderID:     t.OrderID,
				OrderNumber: t.OrderNumber,
				Station:     t.Station,
			})
			continue
		}
		for _, it := range t.Items {
			inKitchen[it.OrderItemID] = struct{}{}
		}
	}

	var resend []domain.OrderItem
	for _, it := range o.Items {
		if _, cooking := inKitchen[it.ID]; !cooking {
			resend = append(resend, it)
		}
	}
	if len(resend) == 0 {
		return nil, nil
	}
	return s.materialize(ctx, tc, o, resend, len(existing))
}

func (s *KOTService) materialize(ctx context.Context, tc domain.TenantContext, o *domain.Order, orderItems []domain.OrderItem, seqOffset int) ([]domain.KitchenTicket, error) {
	byStation := make(map[string][]domain.KOTItem)
	var stations []string
	for i := range orderItems {
		it := &orderItems[i]
		station := it.Station
		if station == "" {
			station = "kitchen"
		}
		if _, seen := byStation[station]; !seen {
			stations = append(stations, station)
		}
		byStation[station] = append(byStation[station], domain.KOTItem{
			ID:          uuid.NewString(),
			OrderItemID: it.ID,
			Name:        it.Name,
			Quantity:    it.Quantity,
			Notes:       it.Notes,
		})
	}

	now := s.now()
	tickets := make([]domain.KitchenTicket, 0, len(stations))
	for i, station := range stations {
		t := domain.KitchenTicket{
			ID:           uuid.NewString(),
			TenantID:     tc.TenantID,
			OrderID:      o.ID,
			OrderNumber:  o.Number,
			TicketNumber: fmt.Sprintf("%s-K%d", o.Number, seqOffset+i+1),
			Station:      station,
			Status:       domain.KOTSent,
			Items:        byStation[station],
			SentAt:       now,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		for j := range t.Items {
			t.Items[j].TicketID = t.ID
		}
		tickets = append(tickets, t)
	}

	if err := s.tickets.CreateBatch(ctx, tickets); err != nil {
		return nil, err
	}
	for i := range tickets {
		s.pub.Publish(domain.KOTCreatedEvent{
			EventMeta: domain.EventMeta{TenantID: tc.TenantID, ActorID: tc.UserID, OccurredAt: now},
			Ticket:    tickets[i].View(now, s.policy),
		})
	}
	return tickets, nil
}

func (s *KOTService) Acknowledge(ctx context.Context, tc domain.TenantContext, ticketID string) (*domain.KitchenTicket, error) {
	t, err := s.transition(ctx, tc, ticketID, domain.KOTSent, domain.KOTAcknowledged)
	if err != nil {
		return nil, err
	}
	s.pub.Publish(domain.KOTAcknowledgedEvent{
		EventMeta:   domain.EventMeta{TenantID: tc.TenantID, ActorID: tc.UserID, OccurredAt: s.now()},
		TicketID:    t.ID,
		OrderID:     t.OrderID,
		OrderNumber: t.OrderNumber,
		Station:     t.Station,
	})
	return t, nil
}

func (s *KOTService) StartPreparing(ctx context.Context, tc domain.TenantContext, ticketID string) (*domain.KitchenTicket, error) {
	t, err := s.transition(ctx, tc, ticketID, domain.KOTAcknowledged, domain.KOTPreparing)
	if err != nil {
		return nil, err
	}
	s.publishStatusChanged(tc, t, domain.KOTAcknowledged, domain.KOTPreparing)
	return t, nil
}

func (s *KOTService) MarkReady(ctx context.Context, tc domain.TenantContext, ticketID string) (*domain.KitchenTicket, error) {
	t, err := s.transition(ctx, tc, ticketID, domain.KOTPreparing, domain.KOTReady)
	if err != nil {
		return nil, err
	}
	s.publishStatusChanged(tc, t, domain.KOTPreparing, domain.KOTReady)

	// Reduce sibling statuses back to the order-level readiness signal.
	siblings, err := s.tickets.ListByOrder(ctx, tc.TenantID, t.OrderID)
	if err != nil {
		s.lg.Error("sibling_check_failed", err, map[string]any{"order_id": t.OrderID})
		return t, nil
	}
	if domain.AllReady(siblings) {
		s.advanceOrderReady(ctx, tc, t.OrderID)
	}
	return t, nil
}

func (s *KOTService) ListActive(ctx context.Context, tc domain.TenantContext) ([]domain.KitchenTicket, error) {
	return s.tickets.ListActive(ctx, tc.TenantID)
}

// transition applies one forward step, validating against the state machine
// before touching storage so a skipped step reports cleanly.
func (s *KOTService) transition(ctx context.Context, tc domain.TenantContext, ticketID string, from, to domain.KOTStatus) (*domain.KitchenTicket, error) {
	t, err := s.tickets.Get(ctx, tc.TenantID, ticketID)
	if err != nil {
		return nil, err
	}
	if t.Status != from || !t.Status.CanTransition(to) {
		return nil, domain.InvalidTransitionf("ticket %s is %s, cannot move to %s", ticketID, t.Status, to)
	}
	var assignee *string
	if to == domain.KOTAcknowledged && tc.UserID != "" {
		assignee = &tc.UserID
	}
	return s.tickets.UpdateStatus(ctx, tc.TenantID, ticketID, from, to, s.now(), assignee)
}

// advanceOrderReady auto-moves the parent to ready, subject to the order's
// own transition rules. Losing a concurrent race here is fine: whoever won
// has already moved the order somewhere ready cannot follow.
func (s *KOTService) advanceOrderReady(ctx context.Context, tc domain.TenantContext, orderID string) {
	o, err := s.orders.Get(ctx, tc.TenantID, orderID)
	if err != nil {
		s.lg.Error("kitchen_ready_order_load_failed", err, map[string]any{"order_id": orderID})
		return
	}
	if !o.Status.CanTransition(domain.OrderReady) {
		s.lg.Debug("kitchen_ready_skipped", map[string]any{"order_id": orderID, "status": string(o.Status)})
		return
	}
	old := o.Status
	updated, err := s.orders.UpdateStatus(ctx, tc.TenantID, orderID, o.Version, domain.OrderReady, "", "kitchen")
	if err != nil {
		if errors.Is(err, domain.ErrConcurrencyConflict) {
			s.lg.Debug("kitchen_ready_lost_race", map[string]any{"order_id": orderID})
			return
		}
		s.lg.Error("kitchen_ready_advance_failed", err, map[string]any{"order_id": orderID})
		return
	}
	s.pub.Publish(domain.OrderStatusChangedEvent{
		EventMeta:   domain.EventMeta{TenantID: tc.TenantID, ActorID: tc.UserID, OccurredAt: s.now()},
		OrderID:     updated.ID,
		OrderNumber: updated.Number,
		OldStatus:   string(old),
		NewStatus:   string(domain.OrderReady),
		WaiterID:    updated.WaiterID,
	})
}

func (s *KOTService) publishStatusChanged(tc domain.TenantContext, t *domain.KitchenTicket, from, to domain.KOTStatus) {
	s.pub.Publish(domain.KOTStatusChangedEvent{
		EventMeta:   domain.EventMeta{TenantID: tc.TenantID, ActorID: tc.UserID, OccurredAt: s.now()},
		TicketID:    t.ID,
		OrderID:     t.OrderID,
		OrderNumber: t.OrderNumber,
		Station:     t.Station,
		OldStatus:   string(from),
		NewStatus:   string(to),
	})
}
