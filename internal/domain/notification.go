package domain

import "time"

// Notification is the durable fallback for recipients that are offline when
// an event fires. Only the read flag is ever mutated after creation.
type Notification struct {
	ID          string
	TenantID    string
	UserID      *string // nil means tenant-wide
	Title       string
	Message     string
	Category    string // mirrors the event kind
	ReferenceID *string
	Read        bool
	CreatedAt   time.Time
	DeletedAt   *time.Time
}
