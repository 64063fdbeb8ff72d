package update

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/agendad/internal/api"
	"github.com/sandeepkv93/agendad/internal/clock"
	"github.com/sandeepkv93/agendad/internal/model"
	"github.com/sandeepkv93/agendad/internal/query"
	"github.com/sandeepkv93/agendad/internal/timeline"
	"github.com/sandeepkv93/agendad/internal/view"
)

type fakeFetcher struct {
	resp  api.UpcomingResponse
	err   error
	calls int
}

func (f *fakeFetcher) Upcoming(ctx context.Context, spec model.FilterSpec) (api.UpcomingResponse, error) {
	f.calls++
	if f.err != nil {
		return api.UpcomingResponse{}, f.err
	}
	return f.resp, nil
}

type fakeTimelineAPI struct {
	entries    []model.TimelineEntry
	err        error
	addedEntry model.TimelineEntry
}

func (f *fakeTimelineAPI) Timeline(ctx context.Context, parentID string, limit int, beforeID string) ([]model.TimelineEntry, error) {
	return f.entries, f.err
}

func (f *fakeTimelineAPI) AddComment(ctx context.Context, parentID, body string) (model.TimelineEntry, error) {
	return f.addedEntry, f.err
}

func (f *fakeTimelineAPI) EditComment(ctx context.Context, entryID, body string) (model.TimelineEntry, error) {
	return f.addedEntry, f.err
}

func (f *fakeTimelineAPI) DeleteComment(ctx context.Context, entryID string) error {
	return f.err
}

func upcomingItem(id string, source model.Source, in time.Duration, now time.Time) model.UpcomingItem {
	return model.UpcomingItem{
		ID:          id,
		Source:      source,
		Title:       "item " + id,
		ScheduledAt: now.Add(in),
		SourceID:    id,
	}
}

func entry(id string, at time.Time) model.TimelineEntry {
	return model.TimelineEntry{
		ID:        id,
		ParentID:  "ev-1",
		AuthorID:  "u-1",
		Kind:      model.EntryKindComment,
		Body:      "note " + id,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func testModel(t *testing.T, fetcher *fakeFetcher, tlAPI TimelineAPI) (Model, time.Time) {
	t.Helper()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	cs := clock.NewWithNow(func() time.Time { return now })
	agg := query.NewAggregator(fetcher, cs)
	agg.SetNow(func() time.Time { return now })
	m := NewModel(Deps{
		Aggregator: agg,
		Clock:      cs,
		API:        tlAPI,
		PageSize:   3,
	})
	return m, now
}

func primeBoard(t *testing.T, m Model, now time.Time, items []model.UpcomingItem) Model {
	t.Helper()
	snap, err := m.aggregator.Fetch(context.Background(), m.Filter)
	if err != nil {
		t.Fatalf("prime fetch: %v", err)
	}
	updated, _ := m.Update(UpcomingMsg{Spec: m.Filter, Snap: snap})
	next := updated.(Model)
	if len(next.Board.Rows) != len(items) {
		t.Fatalf("expected %d rows after prime, got %d", len(items), len(next.Board.Rows))
	}
	return next
}

func TestNewModelDefaults(t *testing.T) {
	m := NewModel(Deps{})
	if m.CurrentView != ViewBoard {
		t.Fatalf("expected default view %q, got %q", ViewBoard, m.CurrentView)
	}
	if m.Filter.WindowHours != 168 {
		t.Fatalf("expected default window 168h, got %d", m.Filter.WindowHours)
	}
	if m.ViewOpts.SortKey != view.SortByTime || m.ViewOpts.SortDir != view.SortAsc {
		t.Fatalf("expected time ascending default sort, got %s %s", m.ViewOpts.SortKey, m.ViewOpts.SortDir)
	}
	if m.Keys.Quit != "q" {
		t.Fatalf("expected quit key q, got %q", m.Keys.Quit)
	}
	if m.pageSize != 50 {
		t.Fatalf("expected default page size 50, got %d", m.pageSize)
	}
}

func TestUpcomingMsgProjectsBoard(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	items := []model.UpcomingItem{
		upcomingItem("t-1", model.SourceTask, 2*time.Hour, now),
		upcomingItem("ev-1", model.SourceEvent, 4*time.Hour, now),
	}
	fetcher := &fakeFetcher{resp: api.UpcomingResponse{Items: items, Total: 2, ServerTimestamp: now.Unix()}}
	m, now := testModel(t, fetcher, &fakeTimelineAPI{})
	next := primeBoard(t, m, now, items)

	if next.Board.Stats.Total != 2 {
		t.Fatalf("expected 2 projected items, got %d", next.Board.Stats.Total)
	}
	if next.Status.IsError {
		t.Fatalf("unexpected error status: %+v", next.Status)
	}
}

func TestUpcomingErrorKeepsRows(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	items := []model.UpcomingItem{upcomingItem("t-1", model.SourceTask, 2*time.Hour, now)}
	fetcher := &fakeFetcher{resp: api.UpcomingResponse{Items: items, Total: 1, ServerTimestamp: now.Unix()}}
	m, now := testModel(t, fetcher, &fakeTimelineAPI{})
	next := primeBoard(t, m, now, items)

	fetcher.err = errors.New("connection refused")
	snap, err := next.aggregator.Fetch(context.Background(), next.Filter)
	if err == nil {
		t.Fatal("expected fetch error")
	}
	updated, _ := next.Update(UpcomingMsg{Spec: next.Filter, Snap: snap, Err: err})
	next = updated.(Model)

	if len(next.Board.Rows) != 1 {
		t.Fatalf("expected last good rows retained, got %d", len(next.Board.Rows))
	}
	if !next.Status.IsError {
		t.Fatalf("expected error status, got %+v", next.Status)
	}
}

func TestOpenTimelineOnlyForEvents(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	items := []model.UpcomingItem{
		upcomingItem("t-1", model.SourceTask, 1*time.Hour, now),
		upcomingItem("ev-1", model.SourceEvent, 2*time.Hour, now),
	}
	fetcher := &fakeFetcher{resp: api.UpcomingResponse{Items: items, Total: 2, ServerTimestamp: now.Unix()}}
	m, now := testModel(t, fetcher, &fakeTimelineAPI{})
	next := primeBoard(t, m, now, items)

	// Cursor starts on the task row; timelines are events only.
	updated, cmd := next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	next = updated.(Model)
	if next.CurrentView != ViewBoard {
		t.Fatalf("expected to stay on board, got %q", next.CurrentView)
	}
	if cmd != nil {
		t.Fatal("expected no command for non-event row")
	}

	updated, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	next = updated.(Model)
	updated, cmd = next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	next = updated.(Model)
	if next.CurrentView != ViewTimeline {
		t.Fatalf("expected timeline view, got %q", next.CurrentView)
	}
	if next.ActiveParent != "ev-1" {
		t.Fatalf("expected active parent ev-1, got %q", next.ActiveParent)
	}
	if cmd == nil {
		t.Fatal("expected initial load command")
	}
	if next.Timelines["ev-1"].State() != timeline.StateLoading {
		t.Fatalf("expected loading state, got %q", next.Timelines["ev-1"].State())
	}
}

func openEventTimeline(t *testing.T, m Model, now time.Time) Model {
	t.Helper()
	items := []model.UpcomingItem{upcomingItem("ev-1", model.SourceEvent, 2*time.Hour, now)}
	next := primeBoard(t, m, now, items)
	updated, _ := next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(Model)
}

func TestTimelinePagingFlow(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{resp: api.UpcomingResponse{
		Items:           []model.UpcomingItem{upcomingItem("ev-1", model.SourceEvent, 2*time.Hour, now)},
		Total:           1,
		ServerTimestamp: now.Unix(),
	}}
	m, now := testModel(t, fetcher, &fakeTimelineAPI{})
	next := openEventTimeline(t, m, now)

	sync := next.Timelines["ev-1"]
	gen := 1
	fullPage := []model.TimelineEntry{
		entry("c-4", now.Add(-3*time.Hour)),
		entry("c-5", now.Add(-2*time.Hour)),
		entry("c-6", now.Add(-1*time.Hour)),
	}
	updated, _ := next.Update(TimelineInitialMsg{ParentID: "ev-1", Gen: gen, Entries: fullPage})
	next = updated.(Model)
	if sync.State() != timeline.StateLoaded {
		t.Fatalf("expected loaded, got %q", sync.State())
	}
	if !sync.HasMore() {
		t.Fatal("full page should leave more older entries possible")
	}

	updated, cmd := next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'m'}})
	next = updated.(Model)
	if cmd == nil {
		t.Fatal("expected load-more command")
	}

	shortPage := []model.TimelineEntry{entry("c-1", now.Add(-6*time.Hour))}
	updated, _ = next.Update(TimelineMoreMsg{ParentID: "ev-1", Entries: shortPage})
	next = updated.(Model)
	if sync.HasMore() {
		t.Fatal("short page should mark the log exhausted")
	}
	if got := sync.Entries()[0].ID; got != "c-1" {
		t.Fatalf("expected older page prepended, got first id %q", got)
	}

	updated, cmd = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'m'}})
	next = updated.(Model)
	if cmd != nil {
		t.Fatal("expected no command once exhausted")
	}
	if !strings.Contains(next.Status.Text, "no older entries") {
		t.Fatalf("expected exhausted status, got %q", next.Status.Text)
	}
}

func TestPushTimelineEventTriggersRefresh(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{resp: api.UpcomingResponse{
		Items:           []model.UpcomingItem{upcomingItem("ev-1", model.SourceEvent, 2*time.Hour, now)},
		Total:           1,
		ServerTimestamp: now.Unix(),
	}}
	m, now := testModel(t, fetcher, &fakeTimelineAPI{})
	next := openEventTimeline(t, m, now)

	held := []model.TimelineEntry{entry("c-1", now.Add(-2*time.Hour))}
	updated, _ := next.Update(TimelineInitialMsg{ParentID: "ev-1", Gen: 1, Entries: held})
	next = updated.(Model)

	updated, cmd := next.Update(PushMsg{Notification: model.Notification{
		ID:        "n-1",
		Kind:      model.NotifyTimelineEvent,
		EventID:   "ev-1",
		CreatedAt: now,
	}})
	next = updated.(Model)
	if cmd == nil {
		t.Fatal("expected refresh command from push")
	}

	refreshed := []model.TimelineEntry{
		entry("c-1", now.Add(-2*time.Hour)),
		entry("c-2", now.Add(-1*time.Minute)),
	}
	updated, _ = next.Update(TimelineRefreshMsg{ParentID: "ev-1", Entries: refreshed})
	next = updated.(Model)

	got := next.Timelines["ev-1"].Entries()
	if len(got) != 2 {
		t.Fatalf("expected diff-merge to 2 entries, got %d", len(got))
	}
	if got[0].ID != "c-1" || got[1].ID != "c-2" {
		t.Fatalf("expected append-only merge, got %q then %q", got[0].ID, got[1].ID)
	}
}

func TestPushWhileLoadingDefersRefresh(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{resp: api.UpcomingResponse{
		Items:           []model.UpcomingItem{upcomingItem("ev-1", model.SourceEvent, 2*time.Hour, now)},
		Total:           1,
		ServerTimestamp: now.Unix(),
	}}
	m, now := testModel(t, fetcher, &fakeTimelineAPI{})
	next := openEventTimeline(t, m, now)

	// The initial load is in flight; the push must defer, not drop.
	updated, _ := next.Update(PushMsg{Notification: model.Notification{
		ID:        "n-1",
		Kind:      model.NotifyTimelineEvent,
		EventID:   "ev-1",
		CreatedAt: now,
	}})
	next = updated.(Model)

	updated, cmd := next.Update(TimelineInitialMsg{
		ParentID: "ev-1",
		Gen:      1,
		Entries:  []model.TimelineEntry{entry("c-1", now.Add(-time.Hour))},
	})
	next = updated.(Model)
	if cmd == nil {
		t.Fatal("expected deferred refresh to fire after load settles")
	}
	_ = next
}

func TestPushOtherKindInvalidatesBoard(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	items := []model.UpcomingItem{upcomingItem("t-1", model.SourceTask, 2*time.Hour, now)}
	fetcher := &fakeFetcher{resp: api.UpcomingResponse{Items: items, Total: 1, ServerTimestamp: now.Unix()}}
	m, now := testModel(t, fetcher, &fakeTimelineAPI{})
	next := primeBoard(t, m, now, items)

	if next.aggregator.Stale(next.Filter) {
		t.Fatal("expected fresh cache before push")
	}
	updated, cmd := next.Update(PushMsg{Notification: model.Notification{
		ID:        "n-2",
		Kind:      model.NotifyTaskDue,
		CreatedAt: now,
	}})
	next = updated.(Model)
	if !next.aggregator.Stale(next.Filter) {
		t.Fatal("expected cache invalidated by push")
	}
	if cmd == nil {
		t.Fatal("expected refetch command while board is visible")
	}
}

func TestSortKeysReprojectWithoutRefetch(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	items := []model.UpcomingItem{
		upcomingItem("t-1", model.SourceTask, 4*time.Hour, now),
		upcomingItem("t-2", model.SourceTask, 1*time.Hour, now),
	}
	fetcher := &fakeFetcher{resp: api.UpcomingResponse{Items: items, Total: 2, ServerTimestamp: now.Unix()}}
	m, now := testModel(t, fetcher, &fakeTimelineAPI{})
	next := primeBoard(t, m, now, items)
	callsBefore := fetcher.calls

	updated, _ := next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
	next = updated.(Model)
	if next.ViewOpts.SortKey != view.SortByTime || next.ViewOpts.SortDir != view.SortDesc {
		t.Fatalf("expected repeated key to flip direction, got %s %s", next.ViewOpts.SortKey, next.ViewOpts.SortDir)
	}
	if next.Board.Rows[0].Item.ID != "t-1" {
		t.Fatalf("expected descending time order, got %q first", next.Board.Rows[0].Item.ID)
	}

	updated, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	next = updated.(Model)
	if next.ViewOpts.SortKey != view.SortBySeverity || next.ViewOpts.SortDir != view.SortAsc {
		t.Fatalf("expected severity ascending, got %s %s", next.ViewOpts.SortKey, next.ViewOpts.SortDir)
	}

	if fetcher.calls != callsBefore {
		t.Fatalf("sort changes must not refetch, calls went %d -> %d", callsBefore, fetcher.calls)
	}
}

func TestPaletteSeverityCommandFiltersRows(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	imp := 5
	pri := 90.0
	hot := upcomingItem("t-hot", model.SourceTask, 1*time.Hour, now)
	hot.Importance = &imp
	hot.PriorityScore = &pri
	cold := upcomingItem("t-cold", model.SourceTask, 300*time.Hour, now)
	items := []model.UpcomingItem{hot, cold}

	fetcher := &fakeFetcher{resp: api.UpcomingResponse{Items: items, Total: 2, ServerTimestamp: now.Unix()}}
	m, now := testModel(t, fetcher, &fakeTimelineAPI{})
	next := primeBoard(t, m, now, items)

	updated, _ := next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	next = updated.(Model)
	if !next.paletteMode {
		t.Fatal("expected palette mode after slash")
	}
	for _, r := range "severity 14" {
		updated, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		next = updated.(Model)
	}
	updated, _ = next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	next = updated.(Model)

	if next.Filter.MinSeverity != 14 {
		t.Fatalf("expected minimum severity 14, got %d", next.Filter.MinSeverity)
	}
	if len(next.Board.Rows) != 1 || next.Board.Rows[0].Item.ID != "t-hot" {
		t.Fatalf("expected only the hot row, got %+v", next.Board.Rows)
	}
}

func TestPaletteUnknownCommandSetsError(t *testing.T) {
	fetcher := &fakeFetcher{resp: api.UpcomingResponse{ServerTimestamp: time.Now().Unix()}}
	m, _ := testModel(t, fetcher, &fakeTimelineAPI{})

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	next := updated.(Model)
	for _, r := range "frobnicate" {
		updated, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		next = updated.(Model)
	}
	updated, _ = next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	next = updated.(Model)

	if !next.Status.IsError {
		t.Fatalf("expected error status, got %+v", next.Status)
	}
	if !strings.Contains(next.Status.Text, "unknown_command") {
		t.Fatalf("expected unknown command error, got %q", next.Status.Text)
	}
}

func TestCommentLifecycleMessages(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{resp: api.UpcomingResponse{
		Items:           []model.UpcomingItem{upcomingItem("ev-1", model.SourceEvent, 2*time.Hour, now)},
		Total:           1,
		ServerTimestamp: now.Unix(),
	}}
	m, now := testModel(t, fetcher, &fakeTimelineAPI{})
	next := openEventTimeline(t, m, now)
	updated, _ := next.Update(TimelineInitialMsg{ParentID: "ev-1", Gen: 1, Entries: nil})
	next = updated.(Model)

	created := entry("c-1", now)
	updated, _ = next.Update(CommentAddedMsg{ParentID: "ev-1", Entry: created})
	next = updated.(Model)
	if got := next.Timelines["ev-1"].Entries(); len(got) != 1 || got[0].ID != "c-1" {
		t.Fatalf("expected created comment held, got %+v", got)
	}

	edited := created
	edited.Body = "revised"
	edited.UpdatedAt = now.Add(time.Minute)
	updated, _ = next.Update(CommentEditedMsg{ParentID: "ev-1", Entry: edited})
	next = updated.(Model)
	if got := next.Timelines["ev-1"].Entries()[0].Body; got != "revised" {
		t.Fatalf("expected edited body, got %q", got)
	}

	updated, _ = next.Update(CommentAddedMsg{ParentID: "ev-1", Err: errors.New("500")})
	next = updated.(Model)
	if !next.Status.IsError {
		t.Fatalf("expected error status on failed add, got %+v", next.Status)
	}
	if got := next.Timelines["ev-1"].Entries(); len(got) != 1 {
		t.Fatalf("failed add must not disturb held entries, got %d", len(got))
	}
}

func TestConnMsgTracksStreamState(t *testing.T) {
	fetcher := &fakeFetcher{resp: api.UpcomingResponse{ServerTimestamp: time.Now().Unix()}}
	m, _ := testModel(t, fetcher, &fakeTimelineAPI{})

	updated, _ := m.Update(ConnMsg{State: "connected"})
	next := updated.(Model)
	if !next.Connected {
		t.Fatal("expected connected after connect state")
	}

	updated, _ = next.Update(ConnMsg{State: "disconnected"})
	next = updated.(Model)
	if next.Connected {
		t.Fatal("expected disconnected after drop")
	}
	if next.Status.Text == "" {
		t.Fatal("expected a stale-data notice on disconnect")
	}
}

func TestQuitKey(t *testing.T) {
	fetcher := &fakeFetcher{resp: api.UpcomingResponse{ServerTimestamp: time.Now().Unix()}}
	m, _ := testModel(t, fetcher, &fakeTimelineAPI{})

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	next := updated.(Model)
	if !next.Quitting {
		t.Fatal("expected quitting flag true")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
}

func TestViewContainsBoardState(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	items := []model.UpcomingItem{upcomingItem("t-1", model.SourceTask, 2*time.Hour, now)}
	fetcher := &fakeFetcher{resp: api.UpcomingResponse{Items: items, Total: 1, ServerTimestamp: now.Unix()}}
	m, now := testModel(t, fetcher, &fakeTimelineAPI{})
	next := primeBoard(t, m, now, items)
	next.Unread = 3

	out := next.View()
	if !strings.Contains(out, "agendad") {
		t.Fatalf("expected header in output: %q", out)
	}
	if !strings.Contains(out, "item t-1") {
		t.Fatalf("expected row title in output: %q", out)
	}
	if !strings.Contains(out, "3 unread") {
		t.Fatalf("expected unread badge in output: %q", out)
	}
}

func TestUnreadCountAndStatusMsgs(t *testing.T) {
	fetcher := &fakeFetcher{resp: api.UpcomingResponse{ServerTimestamp: time.Now().Unix()}}
	m, _ := testModel(t, fetcher, &fakeTimelineAPI{})

	updated, _ := m.Update(UnreadCountMsg{Count: 7})
	next := updated.(Model)
	if next.Unread != 7 {
		t.Fatalf("expected unread 7, got %d", next.Unread)
	}

	updated, _ = next.Update(SetStatusMsg{Text: fmt.Sprintf("error: %s", "boom"), IsError: true})
	next = updated.(Model)
	if !next.Status.IsError || next.Status.Text != "error: boom" {
		t.Fatalf("unexpected status: %+v", next.Status)
	}
}
