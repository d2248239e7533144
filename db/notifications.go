package db

import (
	"context"
	"time"

	"github.com/lib/pq"
)

// Notification (Уведомление поставщику). Только добавление и отметка
// о прочтении, обратной операции нет.
type Notification struct {
	ID        int       `db:"notification_id" json:"id"`
	VendorID  int       `db:"vendor_id" json:"vendorId"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
	IsRead    bool      `db:"is_read" json:"isRead"`
}

func (s *Storage) CreateNotification(ctx context.Context, n *Notification) error {
	query := `
        INSERT INTO notification (vendor_id, title, message)
        VALUES ($1, $2, $3)
        RETURNING notification_id, timestamp, is_read`
	return s.db.QueryRowContext(ctx, query, n.VendorID, n.Title, n.Message).
		Scan(&n.ID, &n.Timestamp, &n.IsRead)
}

func (s *Storage) ListNotificationsForVendor(ctx context.Context, vendorID int) ([]Notification, error) {
	notifications := []Notification{}
	query := `SELECT * FROM notification WHERE vendor_id=$1 ORDER BY timestamp DESC, notification_id DESC`
	err := s.db.SelectContext(ctx, &notifications, query, vendorID)
	return notifications, err
}

func (s *Storage) CountUnreadNotifications(ctx context.Context, vendorID int) (int, error) {
	var count int
	query := `SELECT COUNT(1) FROM notification WHERE vendor_id=$1 AND is_read=FALSE`
	err := s.db.GetContext(ctx, &count, query, vendorID)
	return count, err
}

func (s *Storage) MarkAllNotificationsRead(ctx context.Context, vendorID int) error {
	query := `UPDATE notification SET is_read=TRUE WHERE vendor_id=$1`
	_, err := s.db.ExecContext(ctx, query, vendorID)
	return err
}

func (s *Storage) MarkNotificationsRead(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE notification SET is_read=TRUE WHERE notification_id = ANY($1)`
	_, err := s.db.ExecContext(ctx, query, pq.Array(ids))
	return err
}
