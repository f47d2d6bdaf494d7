package repository

import (
	"context"

	"dinehub/internal/db"
	"dinehub/internal/domain"
)

type NotificationsPG struct {
	conn *db.Conn
}

func NewNotificationsPG(conn *db.Conn) *NotificationsPG { return &NotificationsPG{conn: conn} }

func (r *NotificationsPG) Create(ctx context.Context, n *domain.Notification) error {
	_, err := r.conn.Exec(ctx, `
INSERT INTO notifications (id, tenant_id, user_id, title, message, category, reference_id, read, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		n.ID, n.TenantID, n.UserID, n.Title, n.Message, n.Category, n.ReferenceID, n.Read, n.CreatedAt)
	return err
}

// List returns the caller's personal notifications plus tenant-wide ones.
func (r *NotificationsPG) List(ctx context.Context, tenantID, userID string, unreadOnly bool) ([]domain.Notification, error) {
	q := `
SELECT id, tenant_id, user_id, title, message, category, reference_id, read, created_at
FROM notifications
WHERE tenant_id=$1 AND (user_id IS NULL OR user_id=$2) AND deleted_at IS NULL`
	if unreadOnly {
		q += ` AND read=false`
	}
	q += ` ORDER BY created_at DESC LIMIT 200`

	rows, err := r.conn.Query(ctx, q, tenantID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.TenantID, &n.UserID, &n.Title, &n.Message, &n.Category,
			&n.ReferenceID, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NotificationsPG) MarkRead(ctx context.Context, tenantID, userID, id string) error {
	tag, err := r.conn.Exec(ctx, `
UPDATE notifications SET read=true
WHERE tenant_id=$1 AND id=$2 AND (user_id IS NULL OR user_id=$3) AND deleted_at IS NULL`,
		tenantID, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("notification %s", id)
	}
	return nil
}
