package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/sandeepkv93/agendad/internal/clock"
	"github.com/sandeepkv93/agendad/internal/model"
	"github.com/sandeepkv93/agendad/internal/push"
	"github.com/sandeepkv93/agendad/internal/query"
	"github.com/sandeepkv93/agendad/internal/storage"
	"github.com/sandeepkv93/agendad/internal/timeline"
	"github.com/sandeepkv93/agendad/internal/view"
)

type View string

const (
	ViewBoard    View = "Board"
	ViewTimeline View = "Timeline"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Board    string
	Open     string
	LoadMore string
	Comment  string
	Group    string
	SortTime string
	SortSev  string
	Refresh  string
	Help     string
	Quit     string
}

func defaultKeys() GlobalKeyMap {
	return GlobalKeyMap{
		Board:    "esc",
		Open:     "enter",
		LoadMore: "m",
		Comment:  "c",
		Group:    "g",
		SortTime: "t",
		SortSev:  "s",
		Refresh:  "r",
		Help:     "?",
		Quit:     "q",
	}
}

// TimelineAPI is the slice of the provider client the update loop
// needs for timeline I/O; tests substitute a fake.
type TimelineAPI interface {
	Timeline(ctx context.Context, parentID string, limit int, beforeID string) ([]model.TimelineEntry, error)
	AddComment(ctx context.Context, parentID, body string) (model.TimelineEntry, error)
	EditComment(ctx context.Context, entryID, body string) (model.TimelineEntry, error)
	DeleteComment(ctx context.Context, entryID string) error
}

type Deps struct {
	Aggregator *query.Aggregator
	Clock      *clock.Sync
	API        TimelineAPI
	Store      storage.Store
	PushEvents <-chan model.Notification
	PushStates <-chan push.ConnState
	PageSize   int
}

type Model struct {
	CurrentView  View
	Filter       model.FilterSpec
	ViewOpts     view.Options
	Board        view.ViewModel
	Cursor       int
	ActiveParent string
	ActiveTitle  string
	// TimelineCursor indexes the active timeline's entries; -1 means
	// no selection.
	TimelineCursor int
	Timelines      map[string]*timeline.Sync
	Status       StatusBar
	Connected    bool
	Unread       int
	Keys         GlobalKeyMap
	HelpVisible  bool
	Quitting     bool
	LastError    error

	aggregator *query.Aggregator
	clock      *clock.Sync
	api        TimelineAPI
	store      storage.Store
	pushEvents <-chan model.Notification
	pushStates <-chan push.ConnState
	pageSize   int

	// comment editing; a non-empty editingID means the input edits an
	// existing entry instead of creating one
	commentMode bool
	editingID   string

	paletteMode bool

	timelineView  viewport.Model
	commentInput  textinput.Model
	paletteInput  textinput.Model
	fetchSpinner  spinner.Model
	helpModel     help.Model
	spinnerActive bool
}

func NewModel(deps Deps) Model {
	pageSize := deps.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	cs := deps.Clock
	if cs == nil {
		cs = clock.New()
	}

	commentInput := textinput.New()
	commentInput.Placeholder = "write a comment"
	commentInput.CharLimit = 2000

	paletteInput := textinput.New()
	paletteInput.Placeholder = "filter task,event | window 7d | sort severity desc"
	paletteInput.CharLimit = 120

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		CurrentView:    ViewBoard,
		TimelineCursor: -1,
		Filter:         model.DefaultFilterSpec(),
		ViewOpts:       view.Options{SortKey: view.SortByTime, SortDir: view.SortAsc},
		Timelines:      make(map[string]*timeline.Sync),
		Keys:           defaultKeys(),
		aggregator:     deps.Aggregator,
		clock:          cs,
		api:            deps.API,
		store:          deps.Store,
		pushEvents:     deps.PushEvents,
		pushStates:     deps.PushStates,
		pageSize:       pageSize,
		timelineView:   viewport.New(96, 24),
		commentInput:   commentInput,
		paletteInput:   paletteInput,
		fetchSpinner:   sp,
		helpModel:      help.New(),
	}
}

func (m *Model) syncFor(parentID string) *timeline.Sync {
	s, ok := m.Timelines[parentID]
	if !ok {
		s = timeline.NewSync(parentID)
		m.Timelines[parentID] = s
	}
	return s
}

// reproject recomputes the board from whatever the cache holds; this
// is the no-refetch path behind every filter/sort/group interaction.
func (m *Model) reproject() {
	var items []model.UpcomingItem
	if m.aggregator != nil {
		if snap, ok := m.aggregator.Get(m.Filter); ok {
			items = snap.Items
		}
	}
	m.ViewOpts.MinSeverity = m.Filter.MinSeverity
	m.Board = view.Project(items, m.now(), m.ViewOpts)
	if m.Cursor >= len(m.Board.Rows) {
		m.Cursor = len(m.Board.Rows) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}

func (m Model) now() time.Time {
	if m.clock != nil {
		return m.clock.Now()
	}
	return time.Now()
}

func (m Model) helpBindings() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys(m.Keys.Open), key.WithHelp(m.Keys.Open, "open timeline")),
		key.NewBinding(key.WithKeys(m.Keys.Board), key.WithHelp(m.Keys.Board, "back to board")),
		key.NewBinding(key.WithKeys(m.Keys.LoadMore), key.WithHelp(m.Keys.LoadMore, "older entries")),
		key.NewBinding(key.WithKeys(m.Keys.Comment), key.WithHelp(m.Keys.Comment, "comment")),
		key.NewBinding(key.WithKeys(m.Keys.Group), key.WithHelp(m.Keys.Group, "group by day")),
		key.NewBinding(key.WithKeys(m.Keys.SortTime), key.WithHelp(m.Keys.SortTime, "sort by time")),
		key.NewBinding(key.WithKeys(m.Keys.SortSev), key.WithHelp(m.Keys.SortSev, "sort by severity")),
		key.NewBinding(key.WithKeys(m.Keys.Refresh), key.WithHelp(m.Keys.Refresh, "refresh")),
		key.NewBinding(key.WithKeys(m.Keys.Quit), key.WithHelp(m.Keys.Quit, "quit")),
	}
}
