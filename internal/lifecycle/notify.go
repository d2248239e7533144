package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"tendermgmt/db"
)

// Notifier ведёт журнал уведомлений поставщиков: добавление и отметка
// о прочтении. Операции чтения адресуются по email поставщика.
type Notifier struct {
	store Storage
}

func NewNotifier(store Storage) *Notifier {
	return &Notifier{store: store}
}

func (n *Notifier) Notify(ctx context.Context, vendorID int, title, message string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: notification title is required", ErrValidation)
	}
	notification := &db.Notification{
		VendorID: vendorID,
		Title:    title,
		Message:  message,
	}
	if err := n.store.CreateNotification(ctx, notification); err != nil {
		return storageFail(err)
	}
	return nil
}

func (n *Notifier) vendorByEmail(ctx context.Context, email string) (*db.Vendor, error) {
	v, err := n.store.GetVendorByEmail(ctx, email)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: vendor %s", ErrNotFound, email)
		}
		return nil, storageFail(err)
	}
	return v, nil
}

// ListForVendor возвращает уведомления поставщика, новые первыми.
func (n *Notifier) ListForVendor(ctx context.Context, email string) ([]db.Notification, error) {
	v, err := n.vendorByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	notifications, err := n.store.ListNotificationsForVendor(ctx, v.ID)
	if err != nil {
		return nil, storageFail(err)
	}
	return notifications, nil
}

func (n *Notifier) UnreadCount(ctx context.Context, email string) (int, error) {
	v, err := n.vendorByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	count, err := n.store.CountUnreadNotifications(ctx, v.ID)
	if err != nil {
		return 0, storageFail(err)
	}
	return count, nil
}

// MarkAllRead идемпотентна: повторный вызов не ошибка.
func (n *Notifier) MarkAllRead(ctx context.Context, email string) error {
	v, err := n.vendorByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := n.store.MarkAllNotificationsRead(ctx, v.ID); err != nil {
		return storageFail(err)
	}
	return nil
}

func (n *Notifier) MarkRead(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	if err := n.store.MarkNotificationsRead(ctx, ids); err != nil {
		return storageFail(err)
	}
	return nil
}
