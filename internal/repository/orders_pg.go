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

type OrdersPG struct {
	conn *db.Conn
}

func NewOrdersPG(conn *db.Conn) *OrdersPG { return &OrdersPG{conn: conn} }

const orderCols = `id, tenant_id, restaurant_id, number, type, status, table_id, customer_id,
waiter_id, sub_total, discount_amount, tax_amount, delivery_charge, total_amount, paid_amount,
payment_status, cancel_reason, version, created_at, updated_at`

func (r *OrdersPG) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
INSERT INTO orders (`+orderCols+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		o.ID, o.TenantID, o.RestaurantID, o.Number, o.Type, o.Status, o.TableID, o.CustomerID,
		o.WaiterID, o.SubTotal, o.DiscountAmount, o.TaxAmount, o.DeliveryCharge, o.TotalAmount,
		o.PaidAmount, o.PaymentStatus, o.CancelReason, o.Version, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	if err := insertItems(ctx, tx, o); err != nil {
		return err
	}
	if err := appendStatusLog(ctx, tx, o.TenantID, o.ID, string(o.Status), "", ""); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *OrdersPG) Get(ctx context.Context, tenantID, id string) (*domain.Order, error) {
	row := r.conn.QueryRow(ctx, `
SELECT `+orderCols+` FROM orders
WHERE tenant_id=$1 AND id=$2 AND deleted_at IS NULL`, tenantID, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundf("order %s", id)
		}
		return nil, err
	}
	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrdersPG) List(ctx context.Context, tenantID string, statuses []domain.OrderStatus) ([]domain.Order, error) {
	q := `SELECT ` + orderCols + ` FROM orders WHERE tenant_id=$1 AND deleted_at IS NULL`
	args := []any{tenantID}
	if len(statuses) > 0 {
		ss := make([]string, 0, len(statuses))
		for _, s := range statuses {
			ss = append(ss, string(s))
		}
		q += ` AND status = ANY($2)`
		args = append(args, ss)
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.conn.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
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

// UpdateStatus is the compare-and-swap write: the version the caller read
// must still be current or the update hits zero rows and the caller gets a
// concurrency conflict. The status log row rides in the same transaction.
func (r *OrdersPG) UpdateStatus(ctx context.Context, tenantID, id string, version int64, to domain.OrderStatus, reason, changedBy string) (*domain.Order, error) {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
UPDATE orders SET status=$1, cancel_reason=CASE WHEN $2='' THEN cancel_reason ELSE $2 END,
       version=version+1, updated_at=now()
WHERE tenant_id=$3 AND id=$4 AND version=$5 AND deleted_at IS NULL`,
		to, reason, tenantID, id, version)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, r.staleOrMissing(ctx, tenantID, id)
	}
	if err := appendStatusLog(ctx, tx, tenantID, id, string(to), changedBy, reason); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.Get(ctx, tenantID, id)
}

// ReplaceItems swaps the full item set and rewrites the recomputed totals,
// CAS-guarded on o.Version. On success o.Version is bumped in place.
func (r *OrdersPG) ReplaceItems(ctx context.Context, o *domain.Order) error {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
UPDATE orders SET sub_total=$1, discount_amount=$2, tax_amount=$3, delivery_charge=$4,
       total_amount=$5, version=version+1, updated_at=now()
WHERE tenant_id=$6 AND id=$7 AND version=$8 AND deleted_at IS NULL`,
		o.SubTotal, o.DiscountAmount, o.TaxAmount, o.DeliveryCharge, o.TotalAmount,
		o.TenantID, o.ID, o.Version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.staleOrMissing(ctx, o.TenantID, o.ID)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1 AND tenant_id=$2`, o.ID, o.TenantID); err != nil {
		return err
	}
	if err := insertItems(ctx, tx, o); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	o.Version++
	return nil
}

// SoftDelete tombstones the order. It shares the CAS guard with UpdateStatus
// so a delete racing a status change loses like any other stale writer.
func (r *OrdersPG) SoftDelete(ctx context.Context, tenantID, id string, version int64, reason, changedBy string) (*domain.Order, error) {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
UPDATE orders SET status=$1, cancel_reason=$2, deleted_at=now(), version=version+1, updated_at=now()
WHERE tenant_id=$3 AND id=$4 AND version=$5 AND deleted_at IS NULL`,
		domain.OrderCancelled, reason, tenantID, id, version)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, r.staleOrMissing(ctx, tenantID, id)
	}
	if err := appendStatusLog(ctx, tx, tenantID, id, string(domain.OrderCancelled), changedBy, reason); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	row := r.conn.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// staleOrMissing disambiguates a zero-row CAS: the order either does not
// exist in this tenant or someone else committed first.
func (r *OrdersPG) staleOrMissing(ctx context.Context, tenantID, id string) error {
	var exists bool
	err := r.conn.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM orders WHERE tenant_id=$1 AND id=$2 AND deleted_at IS NULL)`,
		tenantID, id).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return domain.NotFoundf("order %s", id)
	}
	return fmt.Errorf("order %s: %w", id, domain.ErrConcurrencyConflict)
}

func (r *OrdersPG) loadItems(ctx context.Context, o *domain.Order) error {
	rows, err := r.conn.Query(ctx, `
SELECT id, order_id, menu_item_id, name, station, quantity, unit_price, line_total, notes, prep_status
FROM order_items WHERE tenant_id=$1 AND order_id=$2 ORDER BY id`, o.TenantID, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	o.Items = o.Items[:0]
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Name, &it.Station,
			&it.Quantity, &it.UnitPrice, &it.LineTotal, &it.Notes, &it.PrepStatus); err != nil {
			return err
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

func insertItems(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	for i := range o.Items {
		it := &o.Items[i]
		if _, err := tx.Exec(ctx, `
INSERT INTO order_items (id, tenant_id, order_id, menu_item_id, name, station, quantity,
       unit_price, line_total, notes, prep_status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now(),now())`,
			it.ID, o.TenantID, o.ID, it.MenuItemID, it.Name, it.Station, it.Quantity,
			it.UnitPrice, it.LineTotal, it.Notes, it.PrepStatus); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func appendStatusLog(ctx context.Context, tx pgx.Tx, tenantID, orderID, status, changedBy, notes string) error {
	_, err := tx.Exec(ctx, `
INSERT INTO order_status_log (tenant_id, order_id, status, changed_by, changed_at, notes)
VALUES ($1,$2,$3,$4,now(),$5)`, tenantID, orderID, status, changedBy, notes)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	var createdAt, updatedAt time.Time
	err := row.Scan(&o.ID, &o.TenantID, &o.RestaurantID, &o.Number, &o.Type, &o.Status,
		&o.TableID, &o.CustomerID, &o.WaiterID, &o.SubTotal, &o.DiscountAmount, &o.TaxAmount,
		&o.DeliveryCharge, &o.TotalAmount, &o.PaidAmount, &o.PaymentStatus, &o.CancelReason,
		&o.Version, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	o.CreatedAt = createdAt
	o.UpdatedAt = updatedAt
	return &o, nil
}
