package update

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/agendad/internal/commands"
	"github.com/sandeepkv93/agendad/internal/model"
	"github.com/sandeepkv93/agendad/internal/push"
	"github.com/sandeepkv93/agendad/internal/storage"
	"github.com/sandeepkv93/agendad/internal/timeline"
	"github.com/sandeepkv93/agendad/internal/view"
)

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd()}
	if cmd := loadPrefsCmd(m.store); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if m.aggregator != nil {
		cmds = append(cmds, fetchUpcomingCmd(m.aggregator, m.Filter))
	}
	if cmd := waitPushCmd(m.pushEvents); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if cmd := waitConnCmd(m.pushStates); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(typed)

	case UpcomingMsg:
		m.spinnerActive = false
		if typed.Err != nil {
			m.LastError = typed.Err
			m.Status = StatusBar{Text: fmt.Sprintf("error: fetch failed: %v", typed.Err), IsError: true}
		} else {
			m.Status = StatusBar{Text: "board updated", IsError: false}
		}
		// Cached items (including last-known-good after a failure)
		// drive the projection either way.
		m.reproject()
		return m, nil

	case TimelineInitialMsg:
		sync := m.syncFor(typed.ParentID)
		if typed.Err != nil {
			sync.FailInitial(typed.Gen)
			m.Status = StatusBar{Text: fmt.Sprintf("error: timeline load failed: %v", typed.Err), IsError: true}
		} else if sync.ApplyInitial(typed.Gen, typed.Entries, m.pageSize) {
			m.refreshTimelineViewport()
		}
		return m, m.drainPendingRefresh(sync)

	case TimelineMoreMsg:
		sync := m.syncFor(typed.ParentID)
		if typed.Err != nil {
			sync.FailMore()
			m.Status = StatusBar{Text: fmt.Sprintf("error: older entries failed: %v", typed.Err), IsError: true}
		} else {
			sync.ApplyMore(typed.Entries, m.pageSize)
			m.refreshTimelineViewport()
		}
		return m, m.drainPendingRefresh(sync)

	case TimelineRefreshMsg:
		if typed.Err != nil {
			// Refresh hints are best-effort; held entries stay valid.
			m.Status = StatusBar{Text: fmt.Sprintf("error: refresh failed: %v", typed.Err), IsError: true}
			return m, nil
		}
		sync := m.syncFor(typed.ParentID)
		if added := sync.ApplyRefresh(typed.Entries); added > 0 && typed.ParentID == m.ActiveParent {
			m.refreshTimelineViewport()
			m.Status = StatusBar{Text: fmt.Sprintf("%d new entries", added), IsError: false}
		}
		return m, nil

	case CommentAddedMsg:
		if typed.Err != nil {
			m.Status = StatusBar{Text: fmt.Sprintf("error: comment failed: %v", typed.Err), IsError: true}
			return m, nil
		}
		m.syncFor(typed.ParentID).ApplyAdd(typed.Entry)
		m.commentInput.SetValue("")
		m.refreshTimelineViewport()
		m.Status = StatusBar{Text: "comment added", IsError: false}
		return m, nil

	case CommentEditedMsg:
		if typed.Err != nil {
			m.Status = StatusBar{Text: fmt.Sprintf("error: edit failed: %v", typed.Err), IsError: true}
			return m, nil
		}
		m.syncFor(typed.ParentID).ApplyEdit(typed.Entry)
		m.commentInput.SetValue("")
		m.refreshTimelineViewport()
		m.Status = StatusBar{Text: "comment updated", IsError: false}
		return m, nil

	case CommentDeletedMsg:
		if typed.Err != nil {
			// The optimistic removal stands; the caller may retry or
			// reload explicitly.
			m.Status = StatusBar{Text: fmt.Sprintf("error: delete failed: %v", typed.Err), IsError: true}
			return m, nil
		}
		m.Status = StatusBar{Text: "comment deleted", IsError: false}
		return m, nil

	case PushMsg:
		return m.handlePush(typed.Notification)

	case ConnMsg:
		m.Connected = typed.State == push.StateConnected
		if !m.Connected {
			m.Status = StatusBar{Text: "stream disconnected, showing last known data", IsError: false}
		}
		return m, waitConnCmd(m.pushStates)

	case TickMsg:
		m.reproject()
		var cmd tea.Cmd
		if m.aggregator != nil && m.aggregator.Stale(m.Filter) && !m.spinnerActive {
			m.spinnerActive = true
			cmd = tea.Batch(fetchUpcomingCmd(m.aggregator, m.Filter), m.fetchSpinner.Tick)
		}
		return m, tea.Batch(tickCmd(), cmd)

	case PrefsLoadedMsg:
		if typed.Err != nil {
			if !errors.Is(typed.Err, storage.ErrNotFound) {
				m.Status = StatusBar{Text: fmt.Sprintf("error: loading preferences: %v", typed.Err), IsError: true}
			}
			return m, nil
		}
		m.applyPrefs(typed.Prefs)
		m.reproject()
		if m.aggregator != nil && m.aggregator.Stale(m.Filter) {
			m.spinnerActive = true
			return m, tea.Batch(fetchUpcomingCmd(m.aggregator, m.Filter), m.fetchSpinner.Tick)
		}
		return m, nil

	case UnreadCountMsg:
		m.Unread = typed.Count
		return m, nil

	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil

	case spinner.TickMsg:
		if m.spinnerActive {
			var cmd tea.Cmd
			m.fetchSpinner, cmd = m.fetchSpinner.Update(typed)
			return m, cmd
		}
	}

	return m, nil
}

func (m Model) handlePush(n model.Notification) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{waitPushCmd(m.pushEvents)}
	if !n.KnownKind() {
		return m, tea.Batch(cmds...)
	}
	if cmd := recordNotificationCmd(m.store, n); cmd != nil {
		cmds = append(cmds, cmd)
	}

	if n.Kind == model.NotifyTimelineEvent && n.EventID != "" {
		if sync, ok := m.Timelines[n.EventID]; ok {
			if sync.RequestRefresh() {
				cmds = append(cmds, refreshTimelineCmd(m.api, n.EventID, m.pageSize))
			}
			// Refused requests are either deferred by the sync or
			// irrelevant (nothing loaded yet).
		}
		return m, tea.Batch(cmds...)
	}

	// Any other known kind may have changed the upcoming set.
	if m.aggregator != nil {
		m.aggregator.InvalidateAll()
		if m.CurrentView == ViewBoard && !m.spinnerActive {
			m.spinnerActive = true
			cmds = append(cmds, fetchUpcomingCmd(m.aggregator, m.Filter), m.fetchSpinner.Tick)
		}
	}
	return m, tea.Batch(cmds...)
}

// drainPendingRefresh issues a refresh that was deferred while a load
// was in flight.
func (m Model) drainPendingRefresh(sync *timeline.Sync) tea.Cmd {
	if sync.TakePendingRefresh() {
		return refreshTimelineCmd(m.api, sync.ParentID(), m.pageSize)
	}
	return nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()

	if m.paletteMode {
		return m.handlePaletteKey(msg)
	}
	if m.commentMode {
		return m.handleCommentKey(msg)
	}

	switch keyStr {
	case "/":
		m.paletteMode = true
		m.paletteInput.Focus()
		m.paletteInput.SetValue("")
		m.Status = StatusBar{Text: "command palette active", IsError: false}
		return m, nil
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
		return m, nil
	case "ctrl+c", m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	case m.Keys.Refresh:
		return m.forceRefresh()
	case m.Keys.Group:
		m.ViewOpts.GroupByDay = !m.ViewOpts.GroupByDay
		m.reproject()
		return m, m.persistPrefs()
	case m.Keys.SortTime:
		m.toggleSort(view.SortByTime)
		m.reproject()
		return m, m.persistPrefs()
	case m.Keys.SortSev:
		m.toggleSort(view.SortBySeverity)
		m.reproject()
		return m, m.persistPrefs()
	}

	switch m.CurrentView {
	case ViewBoard:
		return m.handleBoardKey(keyStr)
	case ViewTimeline:
		return m.handleTimelineKey(msg, keyStr)
	}
	return m, nil
}

func (m Model) handleBoardKey(keyStr string) (tea.Model, tea.Cmd) {
	switch keyStr {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.Board.Rows)-1 {
			m.Cursor++
		}
	case m.Keys.Open:
		return m.openTimelineForSelection()
	}
	return m, nil
}

// openTimelineForSelection opens the activity log of the selected
// event row. Tasks and reminders have no timeline.
func (m Model) openTimelineForSelection() (tea.Model, tea.Cmd) {
	if m.Cursor >= len(m.Board.Rows) {
		return m, nil
	}
	row := m.Board.Rows[m.Cursor]
	if row.Item.Source != model.SourceEvent {
		m.Status = StatusBar{Text: "timeline is only available for events", IsError: false}
		return m, nil
	}
	parentID := row.Item.SourceID
	if parentID == "" {
		parentID = row.Item.ID
	}

	m.CurrentView = ViewTimeline
	m.ActiveParent = parentID
	m.ActiveTitle = row.Item.Title
	m.TimelineCursor = -1

	sync := m.syncFor(parentID)
	if sync.State() == timeline.StateEmpty {
		gen := sync.BeginInitial()
		return m, loadTimelineCmd(m.api, parentID, gen, m.pageSize)
	}
	m.refreshTimelineViewport()
	if sync.RequestRefresh() {
		return m, refreshTimelineCmd(m.api, parentID, m.pageSize)
	}
	return m, nil
}

func (m Model) handleTimelineKey(msg tea.KeyMsg, keyStr string) (tea.Model, tea.Cmd) {
	sync := m.syncFor(m.ActiveParent)
	switch keyStr {
	case m.Keys.Board:
		m.CurrentView = ViewBoard
		m.ActiveParent = ""
		m.ActiveTitle = ""
		return m, nil
	case m.Keys.LoadMore:
		beforeID, ok := sync.BeginMore()
		if !ok {
			if !sync.HasMore() {
				m.Status = StatusBar{Text: "no older entries", IsError: false}
			}
			return m, nil
		}
		return m, loadMoreCmd(m.api, m.ActiveParent, beforeID, m.pageSize)
	case m.Keys.Comment:
		m.commentMode = true
		m.editingID = ""
		m.commentInput.Focus()
		m.commentInput.SetValue("")
		return m, nil
	case "e":
		if entry, ok := m.selectedComment(sync); ok {
			m.commentMode = true
			m.editingID = entry.ID
			m.commentInput.Focus()
			m.commentInput.SetValue(entry.Body)
		}
		return m, nil
	case "d":
		if entry, ok := m.selectedComment(sync); ok {
			sync.ApplyDelete(entry.ID)
			m.TimelineCursor = -1
			m.refreshTimelineViewport()
			return m, deleteCommentCmd(m.api, m.ActiveParent, entry.ID)
		}
		return m, nil
	case "up", "k":
		m.moveTimelineCursor(sync, -1)
		m.refreshTimelineViewport()
		return m, nil
	case "down", "j":
		m.moveTimelineCursor(sync, 1)
		m.refreshTimelineViewport()
		return m, nil
	}

	var cmd tea.Cmd
	m.timelineView, cmd = m.timelineView.Update(msg)
	return m, cmd
}

// selectedComment resolves the timeline cursor to an editable entry;
// system entries are skipped.
func (m Model) selectedComment(sync *timeline.Sync) (model.TimelineEntry, bool) {
	entries := sync.Entries()
	if m.TimelineCursor < 0 || m.TimelineCursor >= len(entries) {
		return model.TimelineEntry{}, false
	}
	entry := entries[m.TimelineCursor]
	if entry.Kind != model.EntryKindComment {
		return model.TimelineEntry{}, false
	}
	return entry, true
}

func (m *Model) moveTimelineCursor(sync *timeline.Sync, delta int) {
	entries := sync.Entries()
	if len(entries) == 0 {
		m.TimelineCursor = -1
		return
	}
	if m.TimelineCursor < 0 {
		m.TimelineCursor = len(entries) - 1
		return
	}
	next := m.TimelineCursor + delta
	if next >= 0 && next < len(entries) {
		m.TimelineCursor = next
	}
}

func (m Model) handleCommentKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.commentMode = false
		m.editingID = ""
		m.commentInput.Blur()
		return m, nil
	case "enter":
		body := m.commentInput.Value()
		m.commentMode = false
		m.commentInput.Blur()
		if body == "" {
			return m, nil
		}
		if m.editingID != "" {
			entryID := m.editingID
			m.editingID = ""
			return m, editCommentCmd(m.api, m.ActiveParent, entryID, body)
		}
		return m, addCommentCmd(m.api, m.ActiveParent, body)
	}
	var cmd tea.Cmd
	m.commentInput, cmd = m.commentInput.Update(msg)
	return m, cmd
}

func (m Model) handlePaletteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.paletteMode = false
		m.paletteInput.Blur()
		m.Status = StatusBar{}
		return m, nil
	case "enter":
		m.paletteMode = false
		m.paletteInput.Blur()
		return m.executePaletteCommand(m.paletteInput.Value())
	}
	var cmd tea.Cmd
	m.paletteInput, cmd = m.paletteInput.Update(msg)
	return m, cmd
}

func (m Model) executePaletteCommand(input string) (tea.Model, tea.Cmd) {
	cmd, err := commands.Parse(input)
	if err != nil {
		m.Status = StatusBar{Text: "error: " + err.Error(), IsError: true}
		return m, nil
	}

	specChanged := false
	handlers := commands.Handlers{
		Filter: func(args commands.FilterArgs) (commands.Result, error) {
			m.Filter.Sources = args.Sources
			specChanged = true
			return commands.Result{Message: "filter updated"}, nil
		},
		Window: func(args commands.WindowArgs) (commands.Result, error) {
			m.Filter.WindowHours = args.Hours
			specChanged = true
			return commands.Result{Message: fmt.Sprintf("window set to %dh", args.Hours)}, nil
		},
		Severity: func(args commands.SeverityArgs) (commands.Result, error) {
			m.Filter.MinSeverity = args.Min
			return commands.Result{Message: fmt.Sprintf("minimum severity %d", args.Min)}, nil
		},
		Sort: func(args commands.SortArgs) (commands.Result, error) {
			m.ViewOpts.SortKey = view.SortKey(args.Key)
			m.ViewOpts.SortDir = view.SortDir(args.Dir)
			return commands.Result{Message: fmt.Sprintf("sorted by %s %s", args.Key, args.Dir)}, nil
		},
		Group: func() (commands.Result, error) {
			m.ViewOpts.GroupByDay = !m.ViewOpts.GroupByDay
			if m.ViewOpts.GroupByDay {
				return commands.Result{Message: "grouping by day"}, nil
			}
			return commands.Result{Message: "grouping off"}, nil
		},
		Refresh: func() (commands.Result, error) {
			if m.aggregator != nil {
				m.aggregator.Invalidate(m.Filter)
			}
			specChanged = true
			return commands.Result{Message: "refreshing"}, nil
		},
	}

	result, err := commands.Execute(cmd, handlers)
	if err != nil {
		m.Status = StatusBar{Text: "error: " + err.Error(), IsError: true}
		return m, nil
	}
	m.Status = StatusBar{Text: result.Message, IsError: false}
	m.reproject()

	cmds := []tea.Cmd{m.persistPrefs()}
	if specChanged && m.aggregator != nil && m.aggregator.Stale(m.Filter) {
		m.spinnerActive = true
		cmds = append(cmds, fetchUpcomingCmd(m.aggregator, m.Filter), m.fetchSpinner.Tick)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) forceRefresh() (tea.Model, tea.Cmd) {
	if m.CurrentView == ViewTimeline && m.ActiveParent != "" {
		sync := m.syncFor(m.ActiveParent)
		if sync.RequestRefresh() {
			return m, refreshTimelineCmd(m.api, m.ActiveParent, m.pageSize)
		}
		return m, nil
	}
	if m.aggregator == nil {
		return m, nil
	}
	m.aggregator.Invalidate(m.Filter)
	m.spinnerActive = true
	return m, tea.Batch(fetchUpcomingCmd(m.aggregator, m.Filter), m.fetchSpinner.Tick)
}

func (m *Model) toggleSort(key view.SortKey) {
	if m.ViewOpts.SortKey == key {
		if m.ViewOpts.SortDir == view.SortAsc {
			m.ViewOpts.SortDir = view.SortDesc
		} else {
			m.ViewOpts.SortDir = view.SortAsc
		}
		return
	}
	m.ViewOpts.SortKey = key
	m.ViewOpts.SortDir = view.SortAsc
}

func (m *Model) applyPrefs(prefs storage.BoardPrefs) {
	if prefs.WindowHours > 0 {
		m.Filter.WindowHours = prefs.WindowHours
	}
	if len(prefs.Sources) > 0 {
		sources := make([]model.Source, 0, len(prefs.Sources))
		for _, raw := range prefs.Sources {
			s := model.Source(raw)
			if s.IsValid() {
				sources = append(sources, s)
			}
		}
		if len(sources) > 0 {
			m.Filter.Sources = sources
		}
	}
	m.Filter.MinSeverity = prefs.MinSeverity
	if prefs.SortKey != "" {
		m.ViewOpts.SortKey = view.SortKey(prefs.SortKey)
	}
	if prefs.SortDir != "" {
		m.ViewOpts.SortDir = view.SortDir(prefs.SortDir)
	}
	m.ViewOpts.GroupByDay = prefs.GroupByDay
}

func (m Model) persistPrefs() tea.Cmd {
	sources := make([]string, 0, len(m.Filter.Sources))
	for _, s := range m.Filter.Sources {
		sources = append(sources, string(s))
	}
	return savePrefsCmd(m.store, storage.BoardPrefs{
		Sources:     sources,
		WindowHours: m.Filter.WindowHours,
		MinSeverity: m.Filter.MinSeverity,
		SortKey:     string(m.ViewOpts.SortKey),
		SortDir:     string(m.ViewOpts.SortDir),
		GroupByDay:  m.ViewOpts.GroupByDay,
		UpdatedAt:   m.now(),
	})
}
