package model

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidSource     = errors.New("model: invalid item source")
	ErrInvalidImportance = errors.New("model: importance must be between 1 and 5")
	ErrInvalidPriority   = errors.New("model: priority score must be between 0 and 100")
)

type Source string

const (
	SourceTask     Source = "task"
	SourceEvent    Source = "event"
	SourceReminder Source = "reminder"
)

func (s Source) IsValid() bool {
	switch s {
	case SourceTask, SourceEvent, SourceReminder:
		return true
	default:
		return false
	}
}

func AllSources() []Source {
	return []Source{SourceTask, SourceEvent, SourceReminder}
}

type UpcomingItem struct {
	ID            string    `json:"id"`
	Source        Source    `json:"source"`
	SubType       string    `json:"sub_type,omitempty"`
	Title         string    `json:"title"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	Importance    *int      `json:"importance,omitempty"`
	PriorityScore *float64  `json:"priority_score,omitempty"`
	DetailURL     string    `json:"detail_url,omitempty"`
	SourceID      string    `json:"source_id,omitempty"`
}

func (i UpcomingItem) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return errors.New("model: item id is required")
	}
	if !i.Source.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidSource, i.Source)
	}
	if strings.TrimSpace(i.Title) == "" {
		return errors.New("model: item title is required")
	}
	if i.Importance != nil && (*i.Importance < 1 || *i.Importance > 5) {
		return fmt.Errorf("%w: %d", ErrInvalidImportance, *i.Importance)
	}
	if i.PriorityScore != nil && (*i.PriorityScore < 0 || *i.PriorityScore > 100) {
		return fmt.Errorf("%w: %v", ErrInvalidPriority, *i.PriorityScore)
	}
	return nil
}

const (
	MinWindowHours = 1
	MaxWindowHours = 2160
)

type FilterSpec struct {
	Sources     []Source
	WindowHours int
	Limit       int
	MinSeverity int
}

func DefaultFilterSpec() FilterSpec {
	return FilterSpec{
		Sources:     AllSources(),
		WindowHours: 24 * 7,
	}
}

// Normalize clamps the window, drops invalid or duplicate sources, and
// expands an empty source set to all sources. The result is canonical:
// equal specs normalize to identical values.
func (f FilterSpec) Normalize() FilterSpec {
	out := f
	if out.WindowHours < MinWindowHours {
		out.WindowHours = MinWindowHours
	}
	if out.WindowHours > MaxWindowHours {
		out.WindowHours = MaxWindowHours
	}
	if out.Limit < 0 {
		out.Limit = 0
	}
	if out.MinSeverity < 0 {
		out.MinSeverity = 0
	}
	seen := make(map[Source]bool, len(out.Sources))
	sources := make([]Source, 0, len(out.Sources))
	for _, s := range out.Sources {
		if s.IsValid() && !seen[s] {
			seen[s] = true
			sources = append(sources, s)
		}
	}
	if len(sources) == 0 {
		sources = AllSources()
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })
	out.Sources = sources
	return out
}

// Key returns the cache key for the normalized spec. MinSeverity is
// excluded: it is applied locally during projection, not by the provider.
func (f FilterSpec) Key() string {
	n := f.Normalize()
	parts := make([]string, 0, len(n.Sources))
	for _, s := range n.Sources {
		parts = append(parts, string(s))
	}
	return strings.Join(parts, ",") + "|h=" + strconv.Itoa(n.WindowHours) + "|l=" + strconv.Itoa(n.Limit)
}

// AllSourcesSelected reports whether the spec covers every source, in
// which case the sources parameter is omitted from provider requests.
func (f FilterSpec) AllSourcesSelected() bool {
	n := f.Normalize()
	return len(n.Sources) == len(AllSources())
}
