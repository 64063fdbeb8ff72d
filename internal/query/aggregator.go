// Package query owns the cached view of the upcoming-items provider.
// Responses are cached per normalized filter with a bounded staleness
// window; a failed refetch never evicts the last good snapshot.
package query

import (
	"context"
	"time"

	"github.com/sandeepkv93/agendad/internal/api"
	"github.com/sandeepkv93/agendad/internal/clock"
	"github.com/sandeepkv93/agendad/internal/model"
)

const DefaultStaleAfter = 30 * time.Second

type UpcomingFetcher interface {
	Upcoming(ctx context.Context, spec model.FilterSpec) (api.UpcomingResponse, error)
}

// Snapshot is the cached result for one filter. Err carries the most
// recent fetch failure; Items always hold the last successful fetch.
type Snapshot struct {
	Items     []model.UpcomingItem
	Stats     *api.SourceStats
	Total     int
	FetchedAt time.Time
	Err       error
}

type Aggregator struct {
	fetcher    UpcomingFetcher
	clock      *clock.Sync
	staleAfter time.Duration
	nowFn      func() time.Time
	cache      map[string]Snapshot
}

func NewAggregator(fetcher UpcomingFetcher, cs *clock.Sync) *Aggregator {
	return &Aggregator{
		fetcher:    fetcher,
		clock:      cs,
		staleAfter: DefaultStaleAfter,
		nowFn:      time.Now,
		cache:      make(map[string]Snapshot),
	}
}

// SetStaleAfter overrides the staleness bound. Zero or negative values
// keep the default.
func (a *Aggregator) SetStaleAfter(d time.Duration) {
	if d > 0 {
		a.staleAfter = d
	}
}

// SetNow injects the local time source, for tests.
func (a *Aggregator) SetNow(nowFn func() time.Time) {
	if nowFn != nil {
		a.nowFn = nowFn
	}
}

// Get returns the cached snapshot for the spec without blocking.
func (a *Aggregator) Get(spec model.FilterSpec) (Snapshot, bool) {
	snap, ok := a.cache[spec.Key()]
	return snap, ok
}

// Stale reports whether the spec needs a refetch: absent, invalidated,
// or older than the staleness bound.
func (a *Aggregator) Stale(spec model.FilterSpec) bool {
	snap, ok := a.cache[spec.Key()]
	if !ok {
		return true
	}
	if snap.FetchedAt.IsZero() {
		return true
	}
	return a.nowFn().Sub(snap.FetchedAt) > a.staleAfter
}

// Fetch performs the provider request and stores the result. On
// failure the previous items are retained and the error is recorded on
// the snapshot as well as returned.
func (a *Aggregator) Fetch(ctx context.Context, spec model.FilterSpec) (Snapshot, error) {
	key := spec.Key()
	resp, err := a.fetcher.Upcoming(ctx, spec)
	if err != nil {
		snap := a.cache[key]
		snap.Err = err
		a.cache[key] = snap
		return snap, err
	}

	if a.clock != nil {
		a.clock.Update(resp.ServerTimestamp)
	}
	snap := Snapshot{
		Items:     resp.Items,
		Stats:     resp.Stats,
		Total:     resp.Total,
		FetchedAt: a.nowFn(),
	}
	a.cache[key] = snap
	return snap, nil
}

// Invalidate marks one filter stale without discarding its items.
func (a *Aggregator) Invalidate(spec model.FilterSpec) {
	key := spec.Key()
	if snap, ok := a.cache[key]; ok {
		snap.FetchedAt = time.Time{}
		a.cache[key] = snap
	}
}

// InvalidateAll marks every cached filter stale, used when a push
// notification signals that any source may have changed.
func (a *Aggregator) InvalidateAll() {
	for key, snap := range a.cache {
		snap.FetchedAt = time.Time{}
		a.cache[key] = snap
	}
}
