package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"dinehub/internal/db"
	"dinehub/internal/domain"
)

type TablesPG struct {
	conn *db.Conn
}

func NewTablesPG(conn *db.Conn) *TablesPG { return &TablesPG{conn: conn} }

const tableCols = `id, tenant_id, restaurant_id, number, capacity, status, current_order_id, created_at, updated_at`

func (r *TablesPG) Get(ctx context.Context, tenantID, id string) (*domain.RestaurantTable, error) {
	row := r.conn.QueryRow(ctx, `
SELECT `+tableCols+` FROM restaurant_tables
WHERE tenant_id=$1 AND id=$2 AND deleted_at IS NULL`, tenantID, id)
	return scanTable(row, id)
}

func (r *TablesPG) List(ctx context.Context, tenantID string) ([]domain.RestaurantTable, error) {
	rows, err := r.conn.Query(ctx, `
SELECT `+tableCols+` FROM restaurant_tables
WHERE tenant_id=$1 AND deleted_at IS NULL ORDER BY number`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RestaurantTable
	for rows.Next() {
		t, err := scanTable(rows, "")
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Bind takes the row lock first so two dine-in orders racing for the same
// table serialize here rather than both seeing it free. Re-binding the same
// order is a no-op.
func (r *TablesPG) Bind(ctx context.Context, tenantID, tableID, orderID string) (*domain.RestaurantTable, error) {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current *string
	err = tx.QueryRow(ctx, `
SELECT current_order_id FROM restaurant_tables
WHERE tenant_id=$1 AND id=$2 AND deleted_at IS NULL FOR UPDATE`, tenantID, tableID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundf("table %s", tableID)
		}
		return nil, err
	}
	if current != nil && *current != orderID {
		return nil, domain.Conflictf("table %s already has order %s", tableID, *current)
	}
	if current == nil {
		if _, err := tx.Exec(ctx, `
UPDATE restaurant_tables SET status=$1, current_order_id=$2, updated_at=now()
WHERE tenant_id=$3 AND id=$4`, domain.TableOccupied, orderID, tenantID, tableID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.Get(ctx, tenantID, tableID)
}

// Free is idempotent: clearing an already-free table changes nothing.
func (r *TablesPG) Free(ctx context.Context, tenantID, tableID string) (*domain.RestaurantTable, error) {
	_, err := r.conn.Exec(ctx, `
UPDATE restaurant_tables SET status=$1, current_order_id=NULL, updated_at=now()
WHERE tenant_id=$2 AND id=$3 AND deleted_at IS NULL`, domain.TableAvailable, tenantID, tableID)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, tenantID, tableID)
}

func (r *TablesPG) SetStatus(ctx context.Context, tenantID, tableID string, status domain.TableStatus) (*domain.RestaurantTable, error) {
	tag, err := r.conn.Exec(ctx, `
UPDATE restaurant_tables SET status=$1, updated_at=now()
WHERE tenant_id=$2 AND id=$3 AND deleted_at IS NULL`, status, tenantID, tableID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.NotFoundf("table %s", tableID)
	}
	return r.Get(ctx, tenantID, tableID)
}

func scanTable(row rowScanner, id string) (*domain.RestaurantTable, error) {
	var t domain.RestaurantTable
	err := row.Scan(&t.ID, &t.TenantID, &t.RestaurantID, &t.Number, &t.Capacity, &t.Status,
		&t.CurrentOrderID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundf("table %s", id)
		}
		return nil, err
	}
	return &t, nil
}
