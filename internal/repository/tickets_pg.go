package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"dinehub/internal/db"
	"dinehub/internal/domain"
)

type TicketsPG struct {
	conn *db.Conn
}

func NewTicketsPG(conn *db.Conn) *TicketsPG { return &TicketsPG{conn: conn} }

const ticketCols = `id, tenant_id, order_id, order_number, ticket_number, station, status,
assigned_to, sent_at, acknowledged_at, completed_at, created_at, updated_at`

func (r *TicketsPG) CreateBatch(ctx context.Context, tickets []domain.KitchenTicket) error {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for i := range tickets {
		t := &tickets[i]
		_, err := tx.Exec(ctx, `
INSERT INTO kitchen_tickets (`+ticketCols+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
			t.ID, t.TenantID, t.OrderID, t.OrderNumber, t.TicketNumber, t.Station, t.Status,
			t.AssignedTo, t.SentAt, t.AcknowledgedAt, t.CompletedAt, t.CreatedAt, t.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert ticket: %w", err)
		}
		for j := range t.Items {
			it := &t.Items[j]
			if _, err := tx.Exec(ctx, `
INSERT INTO kitchen_ticket_items (id, tenant_id, ticket_id, order_item_id, name, quantity, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
				it.ID, t.TenantID, t.ID, it.OrderItemID, it.Name, it.Quantity, it.Notes); err != nil {
				return fmt.Errorf("insert ticket item: %w", err)
			}
		}
	}
	return tx.Commit(ctx)
}

func (r *TicketsPG) Get(ctx context.Context, tenantID, id string) (*domain.KitchenTicket, error) {
	row := r.conn.QueryRow(ctx, `
SELECT `+ticketCols+` FROM kitchen_tickets
WHERE tenant_id=$1 AND id=$2 AND deleted_at IS NULL`, tenantID, id)
	t, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundf("kitchen ticket %s", id)
		}
		return nil, err
	}
	if err := r.loadItems(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TicketsPG) ListActive(ctx context.Context, tenantID string) ([]domain.KitchenTicket, error) {
	return r.list(ctx, `
SELECT `+ticketCols+` FROM kitchen_tickets
WHERE tenant_id=$1 AND status IN ('sent','acknowledged','preparing') AND deleted_at IS NULL
ORDER BY sent_at`, tenantID)
}

func (r *TicketsPG) ListByOrder(ctx context.Context, tenantID, orderID string) ([]domain.KitchenTicket, error) {
	return r.list(ctx, `
SELECT `+ticketCols+` FROM kitchen_tickets
WHERE tenant_id=$1 AND order_id=$2 AND deleted_at IS NULL
ORDER BY ticket_number`, tenantID, orderID)
}

// UpdateStatus flips a ticket from -> to in one guarded statement. A racing
// display that lost sees zero rows and gets the transition error; the state
// it observed is simply no longer current.
func (r *TicketsPG) UpdateStatus(ctx context.Context, tenantID, id string, from, to domain.KOTStatus, at time.Time, assignee *string) (*domain.KitchenTicket, error) {
	var col string
	switch to {
	case domain.KOTAcknowledged:
		col = "acknowledged_at"
	case domain.KOTReady:
		col = "completed_at"
	}

	q := `UPDATE kitchen_tickets SET status=$1, updated_at=now()`
	args := []any{to}
	if col != "" {
		q += fmt.Sprintf(`, %s=$%d`, col, len(args)+1)
		args = append(args, at)
	}
	if assignee != nil {
		q += fmt.Sprintf(`, assigned_to=$%d`, len(args)+1)
		args = append(args, *assignee)
	}
	q += fmt.Sprintf(` WHERE tenant_id=$%d AND id=$%d AND status=$%d AND deleted_at IS NULL`,
		len(args)+1, len(args)+2, len(args)+3)
	args = append(args, tenantID, id, from)

	tag, err := r.conn.Exec(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		// Disambiguate: missing ticket vs a ticket that already moved on.
		if _, err := r.Get(ctx, tenantID, id); err != nil {
			return nil, err
		}
		return nil, domain.InvalidTransitionf("ticket %s is no longer %s", id, from)
	}
	return r.Get(ctx, tenantID, id)
}

// Void withdraws a ticket the kitchen has not picked up yet. The status
// guard means a ticket acknowledged concurrently stays alive.
func (r *TicketsPG) Void(ctx context.Context, tenantID, id string) error {
	tag, err := r.conn.Exec(ctx, `
UPDATE kitchen_tickets SET deleted_at=now(), updated_at=now()
WHERE tenant_id=$1 AND id=$2 AND status=$3 AND deleted_at IS NULL`, tenantID, id, domain.KOTSent)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.Get(ctx, tenantID, id); err != nil {
			return err
		}
		return domain.InvalidTransitionf("ticket %s is already in the kitchen", id)
	}
	return nil
}

func (r *TicketsPG) list(ctx context.Context, q string, args ...any) ([]domain.KitchenTicket, error) {
	rows, err := r.conn.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.KitchenTicket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.loadItems(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *TicketsPG) loadItems(ctx context.Context, t *domain.KitchenTicket) error {
	rows, err := r.conn.Query(ctx, `
SELECT id, ticket_id, order_item_id, name, quantity, notes
FROM kitchen_ticket_items WHERE tenant_id=$1 AND ticket_id=$2 ORDER BY id`, t.TenantID, t.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	t.Items = t.Items[:0]
	for rows.Next() {
		var it domain.KOTItem
		if err := rows.Scan(&it.ID, &it.TicketID, &it.OrderItemID, &it.Name, &it.Quantity, &it.Notes); err != nil {
			return err
		}
		t.Items = append(t.Items, it)
	}
	return rows.Err()
}

func scanTicket(row rowScanner) (*domain.KitchenTicket, error) {
	var t domain.KitchenTicket
	err := row.Scan(&t.ID, &t.TenantID, &t.OrderID, &t.OrderNumber, &t.TicketNumber, &t.Station,
		&t.Status, &t.AssignedTo, &t.SentAt, &t.AcknowledgedAt, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
