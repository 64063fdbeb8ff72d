package update

import (
	"time"

	"github.com/sandeepkv93/agendad/internal/model"
	"github.com/sandeepkv93/agendad/internal/push"
	"github.com/sandeepkv93/agendad/internal/query"
	"github.com/sandeepkv93/agendad/internal/storage"
)

type UpcomingMsg struct {
	Spec model.FilterSpec
	Snap query.Snapshot
	Err  error
}

type TimelineInitialMsg struct {
	ParentID string
	Gen      int
	Entries  []model.TimelineEntry
	Err      error
}

type TimelineMoreMsg struct {
	ParentID string
	Entries  []model.TimelineEntry
	Err      error
}

type TimelineRefreshMsg struct {
	ParentID string
	Entries  []model.TimelineEntry
	Err      error
}

type CommentAddedMsg struct {
	ParentID string
	Entry    model.TimelineEntry
	Err      error
}

type CommentEditedMsg struct {
	ParentID string
	Entry    model.TimelineEntry
	Err      error
}

type CommentDeletedMsg struct {
	ParentID string
	EntryID  string
	Err      error
}

type PushMsg struct {
	Notification model.Notification
}

type ConnMsg struct {
	State push.ConnState
}

type TickMsg time.Time

type PrefsLoadedMsg struct {
	Prefs storage.BoardPrefs
	Err   error
}

type UnreadCountMsg struct {
	Count int
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}
