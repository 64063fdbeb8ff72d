package storage

import "time"

// BoardPrefs is the persisted board configuration. It is the only
// durable state the client owns; everything else is rebuilt from the
// providers.
type BoardPrefs struct {
	Sources     []string
	WindowHours int
	MinSeverity int
	SortKey     string
	SortDir     string
	GroupByDay  bool
	UpdatedAt   time.Time
}

// Notification mirrors a push-delivered record so unread counts and
// the inbox survive restarts. Rows are idempotent on ID because the
// stream may deliver duplicates.
type Notification struct {
	ID        string
	Kind      string
	Message   string
	EventID   string
	CreatedAt time.Time
	ReadAt    *time.Time
}
