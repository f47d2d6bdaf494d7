package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"dinehub/internal/db"
	"dinehub/internal/domain"
)

// MenuPG is the read-only view into the menu catalog the order aggregate
// needs. The catalog itself is owned elsewhere.
type MenuPG struct {
	conn *db.Conn
}

func NewMenuPG(conn *db.Conn) *MenuPG { return &MenuPG{conn: conn} }

func (r *MenuPG) Lookup(ctx context.Context, tenantID, menuItemID string) (*MenuItemRef, error) {
	var m MenuItemRef
	err := r.conn.QueryRow(ctx, `
SELECT id, name, price, station, available FROM menu_items
WHERE tenant_id=$1 AND id=$2 AND deleted_at IS NULL`, tenantID, menuItemID).
		Scan(&m.ID, &m.Name, &m.Price, &m.Station, &m.Available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundf("menu item %s", menuItemID)
		}
		return nil, err
	}
	return &m, nil
}
