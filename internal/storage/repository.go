package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("storage: not found")

type Store interface {
	SavePrefs(ctx context.Context, prefs BoardPrefs) error
	LoadPrefs(ctx context.Context) (BoardPrefs, error)

	InsertNotification(ctx context.Context, in Notification) error
	ListNotifications(ctx context.Context, limit int) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	UnreadNotificationCount(ctx context.Context) (int, error)
}
