package domain

import (
	"time"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderServed    OrderStatus = "served"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

type OrderType string

const (
	OrderDineIn   OrderType = "dine_in"
	OrderTakeAway OrderType = "take_away"
	OrderDelivery OrderType = "delivery"
	OrderOnline   OrderType = "online"
)

type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

// orderFlow is the forward chain pending -> confirmed -> preparing -> ready
// -> served -> completed. Cancelled is reachable from any non-terminal state.
var orderFlow = map[OrderStatus]OrderStatus{
	OrderPending:   OrderConfirmed,
	OrderConfirmed: OrderPreparing,
	OrderPreparing: OrderReady,
	OrderReady:     OrderServed,
	OrderServed:    OrderCompleted,
}

func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// CanTransition reports whether an order may move from -> to. Only the
// single next step of the chain is legal; skipping states (pending ->
// served) or moving backward is not.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	if s.Terminal() {
		return false
	}
	if to == OrderCancelled {
		return true
	}
	return orderFlow[s] == to
}

func (s OrderStatus) Known() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderPreparing, OrderReady, OrderServed, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

func (t OrderType) Known() bool {
	switch t {
	case OrderDineIn, OrderTakeAway, OrderDelivery, OrderOnline:
		return true
	}
	return false
}

type OrderItem struct {
	ID          string
	OrderID     string
	MenuItemID  string
	Name        string
	Station     string
	Quantity    int
	UnitPrice   float64 // snapshot at order time, never re-read from the menu
	Notes       string
	PrepStatus  KOTStatus
	LineTotal   float64
}

// Order is the aggregate root. Items are owned exclusively by the order;
// Version backs optimistic concurrency on every write.
type Order struct {
	ID             string
	TenantID       string
	RestaurantID   string
	Number         string
	Type           OrderType
	Status         OrderStatus
	TableID        *string
	CustomerID     *string
	WaiterID       *string
	Items          []OrderItem
	SubTotal       float64
	DiscountAmount float64
	TaxAmount      float64
	DeliveryCharge float64
	TotalAmount    float64
	PaidAmount     float64
	PaymentStatus  PaymentStatus
	CancelReason   string
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// Pricing carries the rates the external pricing/discount collaborator
// resolved for this order. The aggregate only applies them.
type Pricing struct {
	DiscountRate   float64 // fraction of subtotal, e.g. 0.10
	TaxRate        float64 // applied to the discounted subtotal
	DeliveryCharge float64
}

// RecomputeTotals derives every monetary field from the line items and the
// pricing inputs. It is the only place totals are written; calling it twice
// with the same inputs yields the same result.
func (o *Order) RecomputeTotals(p Pricing) {
	sub := 0.0
	for i := range o.Items {
		o.Items[i].LineTotal = float64(o.Items[i].Quantity) * o.Items[i].UnitPrice
		sub += o.Items[i].LineTotal
	}
	o.SubTotal = sub
	o.DiscountAmount = sub * p.DiscountRate
	o.TaxAmount = (sub - o.DiscountAmount) * p.TaxRate
	o.DeliveryCharge = p.DeliveryCharge
	o.TotalAmount = o.SubTotal - o.DiscountAmount + o.TaxAmount + o.DeliveryCharge
}

// ItemsEditable reports whether line items may still be changed.
func (o *Order) ItemsEditable() bool {
	return o.Status == OrderPending || o.Status == OrderConfirmed
}
