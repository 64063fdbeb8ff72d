package update

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/agendad/internal/model"
	"github.com/sandeepkv93/agendad/internal/push"
	"github.com/sandeepkv93/agendad/internal/query"
	"github.com/sandeepkv93/agendad/internal/storage"
)

const requestTimeout = 15 * time.Second

func fetchUpcomingCmd(agg *query.Aggregator, spec model.FilterSpec) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		snap, err := agg.Fetch(ctx, spec)
		return UpcomingMsg{Spec: spec, Snap: snap, Err: err}
	}
}

func loadTimelineCmd(api TimelineAPI, parentID string, gen int, pageSize int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		entries, err := api.Timeline(ctx, parentID, pageSize, "")
		return TimelineInitialMsg{ParentID: parentID, Gen: gen, Entries: entries, Err: err}
	}
}

func loadMoreCmd(api TimelineAPI, parentID, beforeID string, pageSize int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		entries, err := api.Timeline(ctx, parentID, pageSize, beforeID)
		return TimelineMoreMsg{ParentID: parentID, Entries: entries, Err: err}
	}
}

func refreshTimelineCmd(api TimelineAPI, parentID string, pageSize int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		entries, err := api.Timeline(ctx, parentID, pageSize, "")
		return TimelineRefreshMsg{ParentID: parentID, Entries: entries, Err: err}
	}
}

func addCommentCmd(api TimelineAPI, parentID, body string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		entry, err := api.AddComment(ctx, parentID, body)
		return CommentAddedMsg{ParentID: parentID, Entry: entry, Err: err}
	}
}

func editCommentCmd(api TimelineAPI, parentID, entryID, body string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		entry, err := api.EditComment(ctx, entryID, body)
		return CommentEditedMsg{ParentID: parentID, Entry: entry, Err: err}
	}
}

func deleteCommentCmd(api TimelineAPI, parentID, entryID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := api.DeleteComment(ctx, entryID)
		return CommentDeletedMsg{ParentID: parentID, EntryID: entryID, Err: err}
	}
}

func waitPushCmd(ch <-chan model.Notification) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return PushMsg{Notification: n}
	}
}

func waitConnCmd(ch <-chan push.ConnState) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		state, ok := <-ch
		if !ok {
			return nil
		}
		return ConnMsg{State: state}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func loadPrefsCmd(store storage.Store) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		prefs, err := store.LoadPrefs(ctx)
		return PrefsLoadedMsg{Prefs: prefs, Err: err}
	}
}

func savePrefsCmd(store storage.Store, prefs storage.BoardPrefs) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := store.SavePrefs(ctx, prefs); err != nil {
			return SetStatusMsg{Text: "error: saving preferences: " + err.Error(), IsError: true}
		}
		return nil
	}
}

// recordNotificationCmd mirrors a push record into the local inbox and
// reports the refreshed unread count. Duplicate deliveries collapse on
// the id.
func recordNotificationCmd(store storage.Store, n model.Notification) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		row := storage.Notification{
			ID:        n.ID,
			Kind:      n.Kind,
			Message:   n.Message,
			EventID:   n.EventID,
			CreatedAt: n.CreatedAt,
			ReadAt:    n.ReadAt,
		}
		if err := store.InsertNotification(ctx, row); err != nil {
			return SetStatusMsg{Text: "error: recording notification: " + err.Error(), IsError: true}
		}
		count, err := store.UnreadNotificationCount(ctx)
		if err != nil {
			return SetStatusMsg{Text: "error: counting notifications: " + err.Error(), IsError: true}
		}
		return UnreadCountMsg{Count: count}
	}
}
