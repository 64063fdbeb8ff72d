package update

import (
	"fmt"
	"time"

	"github.com/sandeepkv93/agendad/internal/timeline"
	"github.com/sandeepkv93/agendad/internal/views"
)

func (m Model) View() string {
	if m.Quitting {
		return ""
	}

	data := views.AppData{
		Header:     m.headerLine(),
		StatusLine: m.statusLine(),
		Footer:     m.footerLine(),
	}

	switch m.CurrentView {
	case ViewTimeline:
		data.Body = m.timelineView.View()
	default:
		data.Body = views.RenderBoard(m.Board, m.Cursor)
	}

	if m.commentMode {
		data.SidePane = "comment:\n" + m.commentInput.View()
	}
	if m.paletteMode {
		data.SidePane = "command:\n" + m.paletteInput.View()
	}

	return views.RenderApp(data)
}

func (m Model) headerLine() string {
	if m.CurrentView == ViewTimeline {
		title := m.ActiveTitle
		if title == "" {
			title = m.ActiveParent
		}
		return "agendad · " + title
	}
	var offset time.Duration
	if m.clock != nil {
		offset = m.clock.Offset()
	}
	stats := views.RenderStatsLine(m.Board.Stats, offset, m.Connected, m.Unread)
	return "agendad · upcoming " + m.windowLabel() + "\n" + stats
}

func (m Model) windowLabel() string {
	hours := m.Filter.WindowHours
	if hours%24 == 0 {
		return fmt.Sprintf("%dd", hours/24)
	}
	return fmt.Sprintf("%dh", hours)
}

func (m Model) statusLine() string {
	if m.spinnerActive {
		return m.fetchSpinner.View() + " fetching"
	}
	return m.Status.Text
}

func (m Model) footerLine() string {
	if m.HelpVisible {
		return m.helpModel.ShortHelpView(m.helpBindings())
	}
	if m.CurrentView == ViewTimeline {
		return "esc back · m older · c comment · e edit · d delete · ? help"
	}
	return "enter open · / command · t/s sort · g group · r refresh · ? help"
}

// refreshTimelineViewport re-renders the active timeline into the
// scrolling viewport and pins it to the newest entry.
func (m *Model) refreshTimelineViewport() {
	if m.ActiveParent == "" {
		return
	}
	sync, ok := m.Timelines[m.ActiveParent]
	if !ok {
		return
	}
	hasMore := sync.HasMore() && sync.State() != timeline.StateEmpty
	m.timelineView.SetContent(views.RenderTimeline(sync.Entries(), hasMore, m.now(), m.TimelineCursor))
	if m.TimelineCursor < 0 {
		m.timelineView.GotoBottom()
	}
}
