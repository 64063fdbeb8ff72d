// Package view derives the render-ready board from a raw item set. The
// projection is a pure function of its inputs so interactions (sort,
// filter, group) recompute locally without touching the network.
package view

import (
	"sort"
	"time"

	"github.com/sandeepkv93/agendad/internal/model"
	"github.com/sandeepkv93/agendad/internal/severity"
)

type SortKey string

const (
	SortByTime     SortKey = "scheduled_at"
	SortBySeverity SortKey = "severity"
)

type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

type Options struct {
	MinSeverity int
	SortKey     SortKey
	SortDir     SortDir
	GroupByDay  bool
}

type Row struct {
	Item             model.UpcomingItem
	Severity         severity.Result
	CountdownSeconds int64
	Overdue          bool
}

type Group struct {
	Date string // YYYY-MM-DD, UTC
	Rows []Row
}

type Stats struct {
	Total    int
	Overdue  int
	Within24h int
	Critical int
}

type ViewModel struct {
	Rows   []Row
	Groups []Group
	Stats  Stats
}

// Project filters by minimum severity, sorts stably, optionally groups
// by UTC calendar day, and recomputes aggregate stats. now must be the
// skew-corrected clock reading.
func Project(items []model.UpcomingItem, now time.Time, opts Options) ViewModel {
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		result := severity.Score(severity.Input{
			ScheduledAt:   scheduledAt(item),
			Importance:    item.Importance,
			PriorityScore: item.PriorityScore,
		}, now)
		if result.Score < opts.MinSeverity {
			continue
		}
		delta := item.ScheduledAt.Sub(now)
		rows = append(rows, Row{
			Item:             item,
			Severity:         result,
			CountdownSeconds: int64(delta / time.Second),
			Overdue:          item.ScheduledAt.Before(now),
		})
	}

	sortRows(rows, opts)

	vm := ViewModel{Rows: rows, Stats: computeStats(rows)}
	if opts.GroupByDay {
		vm.Groups = groupByDay(rows)
	}
	return vm
}

func scheduledAt(item model.UpcomingItem) *time.Time {
	if item.ScheduledAt.IsZero() {
		return nil
	}
	at := item.ScheduledAt
	return &at
}

func sortRows(rows []Row, opts Options) {
	key := opts.SortKey
	if key == "" {
		key = SortByTime
	}
	desc := opts.SortDir == SortDesc

	sort.SliceStable(rows, func(i, j int) bool {
		var less bool
		switch key {
		case SortBySeverity:
			if rows[i].Severity.Score == rows[j].Severity.Score {
				return false
			}
			less = rows[i].Severity.Score < rows[j].Severity.Score
		default:
			if rows[i].Item.ScheduledAt.Equal(rows[j].Item.ScheduledAt) {
				return false
			}
			less = rows[i].Item.ScheduledAt.Before(rows[j].Item.ScheduledAt)
		}
		if desc {
			return !less
		}
		return less
	})
}

func computeStats(rows []Row) Stats {
	stats := Stats{Total: len(rows)}
	for _, row := range rows {
		if row.Overdue {
			stats.Overdue++
		}
		if row.CountdownSeconds >= 0 && row.CountdownSeconds <= 24*3600 {
			stats.Within24h++
		}
		if row.Severity.Tier == severity.TierCritical {
			stats.Critical++
		}
	}
	return stats
}

func groupByDay(rows []Row) []Group {
	buckets := make(map[string][]Row)
	for _, row := range rows {
		key := row.Item.ScheduledAt.UTC().Format("2006-01-02")
		buckets[key] = append(buckets[key], row)
	}
	dates := make([]string, 0, len(buckets))
	for date := range buckets {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	groups := make([]Group, 0, len(dates))
	for _, date := range dates {
		groups = append(groups, Group{Date: date, Rows: buckets[date]})
	}
	return groups
}
