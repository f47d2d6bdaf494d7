package domain

import "time"

// Wire views shared by the HTTP responses, the websocket frames and the
// AMQP payloads. Fields are camelCase per the public API contract.

type OrderItemView struct {
	ID         string  `json:"id"`
	MenuItemID string  `json:"menuItemId"`
	Name       string  `json:"name"`
	Station    string  `json:"station,omitempty"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
	LineTotal  float64 `json:"lineTotal"`
	Notes      string  `json:"notes,omitempty"`
	PrepStatus string  `json:"prepStatus"`
}

type OrderView struct {
	ID             string          `json:"id"`
	Number         string          `json:"number"`
	Type           string          `json:"type"`
	Status         string          `json:"status"`
	TableID        *string         `json:"tableId,omitempty"`
	CustomerID     *string         `json:"customerId,omitempty"`
	WaiterID       *string         `json:"waiterId,omitempty"`
	Items          []OrderItemView `json:"items"`
	SubTotal       float64         `json:"subTotal"`
	DiscountAmount float64         `json:"discountAmount"`
	TaxAmount      float64         `json:"taxAmount"`
	DeliveryCharge float64         `json:"deliveryCharge"`
	TotalAmount    float64         `json:"totalAmount"`
	PaidAmount     float64         `json:"paidAmount"`
	PaymentStatus  string          `json:"paymentStatus"`
	Version        int64           `json:"version"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

type KOTItemView struct {
	ID          string `json:"id"`
	OrderItemID string `json:"orderItemId"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	Notes       string `json:"notes,omitempty"`
}

type TicketView struct {
	ID             string        `json:"id"`
	OrderID        string        `json:"orderId"`
	OrderNumber    string        `json:"orderNumber"`
	TicketNumber   string        `json:"ticketNumber"`
	Station        string        `json:"station"`
	Status         string        `json:"status"`
	Priority       string        `json:"priority"`
	AssignedTo     *string       `json:"assignedTo,omitempty"`
	Items          []KOTItemView `json:"items"`
	SentAt         time.Time     `json:"sentAt"`
	AcknowledgedAt *time.Time    `json:"acknowledgedAt,omitempty"`
	CompletedAt    *time.Time    `json:"completedAt,omitempty"`
}

type TableView struct {
	ID             string  `json:"id"`
	Number         string  `json:"number"`
	Capacity       int     `json:"capacity"`
	Status         string  `json:"status"`
	CurrentOrderID *string `json:"currentOrderId,omitempty"`
}

type NotificationView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Category    string    `json:"category"`
	ReferenceID *string   `json:"referenceId,omitempty"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (o *Order) View() OrderView {
	items := make([]OrderItemView, 0, len(o.Items))
	for i := range o.Items {
		it := &o.Items[i]
		items = append(items, OrderItemView{
			ID:         it.ID,
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Station:    it.Station,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			LineTotal:  it.LineTotal,
			Notes:      it.Notes,
			PrepStatus: string(it.PrepStatus),
		})
	}
	return OrderView{
		ID:             o.ID,
		Number:         o.Number,
		Type:           string(o.Type),
		Status:         string(o.Status),
		TableID:        o.TableID,
		CustomerID:     o.CustomerID,
		WaiterID:       o.WaiterID,
		Items:          items,
		SubTotal:       o.SubTotal,
		DiscountAmount: o.DiscountAmount,
		TaxAmount:      o.TaxAmount,
		DeliveryCharge: o.DeliveryCharge,
		TotalAmount:    o.TotalAmount,
		PaidAmount:     o.PaidAmount,
		PaymentStatus:  string(o.PaymentStatus),
		Version:        o.Version,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

// View renders the ticket with its priority derived at call time.
func (t *KitchenTicket) View(now time.Time, p PriorityPolicy) TicketView {
	items := make([]KOTItemView, 0, len(t.Items))
	for i := range t.Items {
		it := &t.Items[i]
		items = append(items, KOTItemView{
			ID:          it.ID,
			OrderItemID: it.OrderItemID,
			Name:        it.Name,
			Quantity:    it.Quantity,
			Notes:       it.Notes,
		})
	}
	return TicketView{
		ID:             t.ID,
		OrderID:        t.OrderID,
		OrderNumber:    t.OrderNumber,
		TicketNumber:   t.TicketNumber,
		Station:        t.Station,
		Status:         string(t.Status),
		Priority:       string(t.Priority(now, p)),
		AssignedTo:     t.AssignedTo,
		Items:          items,
		SentAt:         t.SentAt,
		AcknowledgedAt: t.AcknowledgedAt,
		CompletedAt:    t.CompletedAt,
	}
}

func (t *RestaurantTable) View() TableView {
	return TableView{
		ID:             t.ID,
		Number:         t.Number,
		Capacity:       t.Capacity,
		Status:         string(t.Status),
		CurrentOrderID: t.CurrentOrderID,
	}
}

func (n *Notification) View() NotificationView {
	return NotificationView{
		ID:          n.ID,
		Title:       n.Title,
		Message:     n.Message,
		Category:    n.Category,
		ReferenceID: n.ReferenceID,
		Read:        n.Read,
		CreatedAt:   n.CreatedAt,
	}
}
