package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sandeepkv93/agendad/internal/model"
)

func TestUpcomingBuildsQueryAndDecodes(t *testing.T) {
	var gotPath, gotQuery, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"items": [{"id":"t-1","source":"task","title":"Ship it","scheduled_at":"2026-03-02T09:00:00Z","importance":4}],
			"hours": 48, "total": 1, "server_timestamp": 1700000000,
			"stats": {"tasks":1,"events":0,"reminders":0}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret-token")
	spec := model.FilterSpec{Sources: []model.Source{model.SourceTask}, WindowHours: 48, Limit: 20}
	resp, err := client.Upcoming(context.Background(), spec)
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}

	if gotPath != "/api/unified/upcoming" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotQuery != "hours=48&limit=20&sources=task" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if gotAuth != "Bearer secret-token" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if len(resp.Items) != 1 || resp.Items[0].ID != "t-1" {
		t.Fatalf("unexpected items: %+v", resp.Items)
	}
	if resp.ServerTimestamp != 1700000000 {
		t.Fatalf("unexpected server timestamp %d", resp.ServerTimestamp)
	}
	if resp.Stats == nil || resp.Stats.Tasks != 1 {
		t.Fatalf("unexpected stats: %+v", resp.Stats)
	}
}

func TestUpcomingOmitsSourcesWhenAllSelected(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"items":[],"hours":168,"total":0,"server_timestamp":1}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	if _, err := client.Upcoming(context.Background(), model.DefaultFilterSpec()); err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if gotQuery != "hours=168" {
		t.Fatalf("expected sources omitted, got query %q", gotQuery)
	}
}

func TestServerErrorCarriesMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"database offline"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	_, err := client.Upcoming(context.Background(), model.DefaultFilterSpec())
	if !IsServer(err) {
		t.Fatalf("expected server error, got %v", err)
	}
	se := err.(*ServerError)
	if se.Status != http.StatusInternalServerError || se.Message != "database offline" {
		t.Fatalf("unexpected server error: %+v", se)
	}
}

func TestTimeoutIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClientWithHTTP(server.URL, "", &http.Client{Timeout: 20 * time.Millisecond})
	_, err := client.Upcoming(context.Background(), model.DefaultFilterSpec())
	if !IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestTimelinePaginationCursor(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"items":[{"id":"c-1","event_id":"ev-1","type":"comment","content":"hi","created_at":"2026-03-01T10:00:00Z","updated_at":"2026-03-01T10:00:00Z"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	entries, err := client.Timeline(context.Background(), "ev-1", 50, "c-7")
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if gotQuery != "before_id=c-7&limit=50" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if len(entries) != 1 || entries[0].ParentID != "ev-1" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestMutationValidationRejectsBeforeDispatch(t *testing.T) {
	dispatched := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dispatched = true
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	ctx := context.Background()

	if _, err := client.AddComment(ctx, "ev-1", "   "); !IsValidation(err) {
		t.Fatalf("expected validation error for empty body, got %v", err)
	}
	if _, err := client.EditComment(ctx, "", "text"); !IsValidation(err) {
		t.Fatalf("expected validation error for empty id, got %v", err)
	}
	if err := client.DeleteComment(ctx, ""); !IsValidation(err) {
		t.Fatalf("expected validation error for empty id, got %v", err)
	}
	if _, err := client.Timeline(ctx, "ev-1", 0, ""); !IsValidation(err) {
		t.Fatalf("expected validation error for zero limit, got %v", err)
	}
	if dispatched {
		t.Fatal("validation errors must not reach the server")
	}
}

func TestAddCommentPostsTrimmedBody(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(buf)
		gotBody = string(buf)
		_, _ = w.Write([]byte(`{"id":"c-9","event_id":"ev-1","type":"comment","content":"hello","created_at":"2026-03-01T10:00:00Z","updated_at":"2026-03-01T10:00:00Z"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	entry, err := client.AddComment(context.Background(), "ev-1", "  hello  ")
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if entry.ID != "c-9" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if gotBody != `{"content":"hello","type":"comment"}` {
		t.Fatalf("unexpected request body %q", gotBody)
	}
}
