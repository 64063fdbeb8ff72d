// Package timeline holds one parent entity's activity log under
// backward cursor pagination and push-triggered refreshes. The held
// collection is always a contiguous suffix or superset of the server
// log, which is what makes the diff-merge safe: a refresh only ever
// appends ids we have not seen, never replaces or reorders.
//
// Sync is a pure state container. All I/O lives in the caller, which
// asks for an intent (BeginInitial, BeginMore, RequestRefresh),
// performs the fetch, and applies the result. In-flight flags and a
// generation counter keep logically overlapping async continuations
// from racing; there is no parallelism to lock against.
package timeline

import "github.com/sandeepkv93/agendad/internal/model"

type State string

const (
	StateEmpty       State = "empty"
	StateLoading     State = "loading"
	StateLoaded      State = "loaded"
	StateLoadingMore State = "loading_more"
)

type Sync struct {
	parentID string
	entries  []model.TimelineEntry
	state    State

	generation     int
	inFlight       bool
	noMoreOlder    bool
	pendingRefresh bool
}

func NewSync(parentID string) *Sync {
	return &Sync{parentID: parentID, state: StateEmpty}
}

func (s *Sync) ParentID() string { return s.parentID }
func (s *Sync) State() State     { return s.state }

// Entries returns the held log, oldest first. The slice is shared;
// callers must not mutate it.
func (s *Sync) Entries() []model.TimelineEntry { return s.entries }

// HasMore reports whether older pages may still exist on the server.
func (s *Sync) HasMore() bool {
	return !s.noMoreOlder
}

// BeginInitial starts (or restarts) a wholesale load. It supersedes
// any in-flight load: the returned generation tags the request, and a
// response applied with a stale generation is discarded.
func (s *Sync) BeginInitial() int {
	s.generation++
	s.inFlight = true
	if s.state == StateEmpty {
		s.state = StateLoading
	}
	return s.generation
}

// ApplyInitial installs the most-recent page. This is the only
// transition allowed to replace held state. Stale generations are
// ignored.
func (s *Sync) ApplyInitial(gen int, entries []model.TimelineEntry, pageSize int) bool {
	if gen != s.generation {
		return false
	}
	s.inFlight = false
	s.entries = append([]model.TimelineEntry(nil), entries...)
	s.noMoreOlder = len(entries) < pageSize
	s.state = StateLoaded
	return true
}

// FailInitial clears the in-flight flag after a failed load without
// touching held entries. Stale generations are ignored.
func (s *Sync) FailInitial(gen int) {
	if gen != s.generation {
		return
	}
	s.inFlight = false
	if len(s.entries) > 0 {
		s.state = StateLoaded
	} else {
		s.state = StateEmpty
	}
}

// BeginMore starts a backward page load. The cursor is the oldest held
// id. Refused while another load is in flight, before the initial load
// completed, or once the server has run out of older entries.
func (s *Sync) BeginMore() (beforeID string, ok bool) {
	if s.inFlight || s.state != StateLoaded || s.noMoreOlder || len(s.entries) == 0 {
		return "", false
	}
	s.inFlight = true
	s.state = StateLoadingMore
	return s.entries[0].ID, true
}

// ApplyMore prepends an older page. A short page marks the terminal
// no-more-older flag for this parent.
func (s *Sync) ApplyMore(entries []model.TimelineEntry, pageSize int) {
	s.inFlight = false
	s.state = StateLoaded
	if len(entries) == 0 {
		s.noMoreOlder = true
		return
	}
	if len(entries) < pageSize {
		s.noMoreOlder = true
	}
	merged := make([]model.TimelineEntry, 0, len(entries)+len(s.entries))
	merged = append(merged, entries...)
	merged = append(merged, s.entries...)
	s.entries = merged
}

// FailMore clears the in-flight flag after a failed page load.
func (s *Sync) FailMore() {
	s.inFlight = false
	s.state = StateLoaded
}

// RequestRefresh asks to merge the server's most-recent page. It
// returns true when the refresh may run now. While a load is in
// flight the request is deferred, not dropped; TakePendingRefresh
// surfaces it once the load settles.
func (s *Sync) RequestRefresh() bool {
	if s.state == StateEmpty {
		return false
	}
	if s.inFlight {
		s.pendingRefresh = true
		return false
	}
	return true
}

// TakePendingRefresh reports and clears a deferred refresh request.
func (s *Sync) TakePendingRefresh() bool {
	if s.pendingRefresh && !s.inFlight {
		s.pendingRefresh = false
		return true
	}
	return false
}

// ApplyRefresh diff-merges the freshly fetched most-recent page:
// entries whose ids are already held are skipped, unseen ones are
// appended in server order. Held entries are never replaced or
// reordered, so edit and scroll state survive. Applying the same page
// twice is a no-op. A gap between the newest held entry and the
// server's page is tolerated, not healed.
func (s *Sync) ApplyRefresh(entries []model.TimelineEntry) int {
	held := make(map[string]bool, len(s.entries))
	for _, e := range s.entries {
		held[e.ID] = true
	}
	added := 0
	for _, e := range entries {
		if held[e.ID] {
			continue
		}
		s.entries = append(s.entries, e)
		held[e.ID] = true
		added++
	}
	if s.state == StateEmpty && len(s.entries) > 0 {
		s.state = StateLoaded
	}
	return added
}

// ApplyAdd appends an optimistically created entry. Provider failure
// is the caller's concern; there is no automatic rollback.
func (s *Sync) ApplyAdd(entry model.TimelineEntry) {
	for _, e := range s.entries {
		if e.ID == entry.ID {
			return
		}
	}
	s.entries = append(s.entries, entry)
	if s.state == StateEmpty {
		s.state = StateLoaded
	}
}

// ApplyEdit updates body and updated-at in place, the only mutation
// entries permit.
func (s *Sync) ApplyEdit(updated model.TimelineEntry) bool {
	for i, e := range s.entries {
		if e.ID == updated.ID {
			s.entries[i].Body = updated.Body
			s.entries[i].UpdatedAt = updated.UpdatedAt
			return true
		}
	}
	return false
}

// ApplyDelete removes an entry by id.
func (s *Sync) ApplyDelete(id string) bool {
	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}
