package model

import (
	"errors"
	"strings"
	"time"
)

const (
	NotifyTimelineEvent = "timeline_event"
	NotifyReminderFired = "reminder_fired"
	NotifyTaskDue       = "task_due"
	NotifyEventStart    = "event_start"
)

// Notification is a push-delivered refresh hint. The payload is never
// treated as authoritative state; consumers re-fetch from the provider.
type Notification struct {
	ID        string            `json:"id"`
	Kind      string            `json:"type"`
	Message   string            `json:"message"`
	EventID   string            `json:"event_id,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	ReadAt    *time.Time        `json:"read_at,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (n Notification) Validate() error {
	if strings.TrimSpace(n.ID) == "" {
		return errors.New("model: notification id is required")
	}
	if strings.TrimSpace(n.Kind) == "" {
		return errors.New("model: notification type is required")
	}
	return nil
}

// KnownKind reports whether the notification kind is one the engine
// reacts to. Unknown kinds are ignored rather than guessed at.
func (n Notification) KnownKind() bool {
	switch n.Kind {
	case NotifyTimelineEvent, NotifyReminderFired, NotifyTaskDue, NotifyEventStart:
		return true
	default:
		return false
	}
}
