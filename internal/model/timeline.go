package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidEntryKind = errors.New("model: invalid timeline entry kind")

type EntryKind string

const (
	EntryKindComment      EntryKind = "comment"
	EntryKindSystem       EntryKind = "system"
	EntryKindStatusChange EntryKind = "status_change"
)

func (k EntryKind) IsValid() bool {
	switch k {
	case EntryKindComment, EntryKindSystem, EntryKindStatusChange:
		return true
	default:
		return false
	}
}

// TimelineEntry is one append-only log record attached to a parent
// entity. IDs are issued by the server and order lexicographically
// within a parent, which is what makes cursor pagination and diff-merge
// work without timestamps.
type TimelineEntry struct {
	ID        string            `json:"id"`
	ParentID  string            `json:"event_id"`
	AuthorID  string            `json:"user_id"`
	Kind      EntryKind         `json:"type"`
	Body      string            `json:"content"`
	Metadata  map[string]string `json:"meta,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (e TimelineEntry) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("model: entry id is required")
	}
	if strings.TrimSpace(e.ParentID) == "" {
		return errors.New("model: entry event_id is required")
	}
	if !e.Kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidEntryKind, e.Kind)
	}
	return nil
}

// SystemLabel classifies a non-comment entry for display, using
// metadata sub-kind discrimination before the kind itself.
func (e TimelineEntry) SystemLabel() string {
	if e.Metadata["kind"] == "event_start" {
		return "event started"
	}
	if e.Metadata["reminder_id"] != "" {
		return "reminder sent"
	}
	switch e.Kind {
	case EntryKindStatusChange:
		return "status changed"
	case EntryKindSystem:
		return "system"
	default:
		return "comment"
	}
}
