package domain

import "time"

type KOTStatus string

const (
	KOTNotSent      KOTStatus = "not_sent"
	KOTSent         KOTStatus = "sent"
	KOTAcknowledged KOTStatus = "acknowledged"
	KOTPreparing    KOTStatus = "preparing"
	KOTReady        KOTStatus = "ready"
)

var kotOrder = map[KOTStatus]int{
	KOTNotSent:      0,
	KOTSent:         1,
	KOTAcknowledged: 2,
	KOTPreparing:    3,
	KOTReady:        4,
}

// CanTransition permits exactly one step forward. Tickets never regress and
// have no cancel state; a cancelled order simply orphans them.
func (s KOTStatus) CanTransition(to KOTStatus) bool {
	cur, ok := kotOrder[s]
	if !ok {
		return false
	}
	next, ok := kotOrder[to]
	if !ok {
		return false
	}
	return next == cur+1
}

type KOTPriority string

const (
	PriorityLow    KOTPriority = "low"
	PriorityMedium KOTPriority = "medium"
	PriorityHigh   KOTPriority = "high"
	PriorityUrgent KOTPriority = "urgent"
)

// PriorityPolicy holds the waiting-time thresholds a ticket climbs through.
// The thresholds come from configuration, not constants.
type PriorityPolicy struct {
	Medium time.Duration
	High   time.Duration
	Urgent time.Duration
}

func DefaultPriorityPolicy() PriorityPolicy {
	return PriorityPolicy{
		Medium: 10 * time.Minute,
		High:   20 * time.Minute,
		Urgent: 30 * time.Minute,
	}
}

type KOTItem struct {
	ID          string
	TicketID    string
	OrderItemID string
	Name        string
	Quantity    int
	Notes       string
}

type KitchenTicket struct {
	ID             string
	TenantID       string
	OrderID        string
	OrderNumber    string
	TicketNumber   string
	Station        string
	Status         KOTStatus
	AssignedTo     *string
	Items          []KOTItem
	SentAt         time.Time
	AcknowledgedAt *time.Time
	CompletedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// Priority is derived from how long the ticket has been waiting since it was
// sent. Computed on every read so it can never go stale.
func (t *KitchenTicket) Priority(now time.Time, p PriorityPolicy) KOTPriority {
	if t.Status == KOTReady {
		return PriorityLow
	}
	waited := now.Sub(t.SentAt)
	switch {
	case waited >= p.Urgent:
		return PriorityUrgent
	case waited >= p.High:
		return PriorityHigh
	case waited >= p.Medium:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func (t *KitchenTicket) Active() bool {
	return t.Status == KOTSent || t.Status == KOTAcknowledged || t.Status == KOTPreparing
}

// AllReady reports whether every ticket in the slice has reached ready.
// An order with no tickets is never considered kitchen-ready.
func AllReady(tickets []KitchenTicket) bool {
	if len(tickets) == 0 {
		return false
	}
	for i := range tickets {
		if tickets[i].Status != KOTReady {
			return false
		}
	}
	return true
}
