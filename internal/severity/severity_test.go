package severity

import (
	"testing"
	"time"
)

var base = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func at(hours float64) *time.Time {
	t := base.Add(time.Duration(hours * float64(time.Hour)))
	return &t
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestScoreNoInputs(t *testing.T) {
	got := Score(Input{}, base)
	if got.Score != 0 || got.Tier != TierLow {
		t.Fatalf("expected score 0 tier low, got %d %s", got.Score, got.Tier)
	}
}

func TestScoreTable(t *testing.T) {
	cases := []struct {
		name      string
		in        Input
		wantScore int
		wantTier  Tier
	}{
		{"importance only", Input{Importance: intPtr(3)}, 6, TierLow},
		{"priority top bucket", Input{PriorityScore: floatPtr(85)}, 8, TierMedium},
		{"priority bucket 60", Input{PriorityScore: floatPtr(60)}, 6, TierLow},
		{"priority bucket 40", Input{PriorityScore: floatPtr(47)}, 4, TierLow},
		{"priority bucket 20", Input{PriorityScore: floatPtr(20)}, 2, TierLow},
		{"priority floor", Input{PriorityScore: floatPtr(5)}, 1, TierLow},
		{"due within a day", Input{ScheduledAt: at(6)}, 10, TierMedium},
		{"due within three days", Input{ScheduledAt: at(48)}, 6, TierLow},
		{"due within a week", Input{ScheduledAt: at(100)}, 3, TierLow},
		{"due within two weeks", Input{ScheduledAt: at(300)}, 1, TierLow},
		{"far future", Input{ScheduledAt: at(400)}, 0, TierLow},
		{"past due gets flat bump", Input{ScheduledAt: at(-1)}, 14, TierHigh},
		{
			"everything stacked",
			Input{ScheduledAt: at(2), Importance: intPtr(5), PriorityScore: floatPtr(90)},
			28, TierCritical,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(tc.in, base)
			if got.Score != tc.wantScore {
				t.Fatalf("expected score %d, got %d", tc.wantScore, got.Score)
			}
			if got.Tier != tc.wantTier {
				t.Fatalf("expected tier %s, got %s", tc.wantTier, got.Tier)
			}
		})
	}
}

// An overdue item must score exactly the past-due bonus above the same
// item still inside the 24h bracket.
func TestScorePastDueBump(t *testing.T) {
	overdue := Score(Input{Importance: intPtr(5), ScheduledAt: at(-1)}, base)
	soon := Score(Input{Importance: intPtr(5), ScheduledAt: at(1)}, base)
	if overdue.Score != 24 {
		t.Fatalf("expected overdue score 24, got %d", overdue.Score)
	}
	if overdue.Tier != TierCritical {
		t.Fatalf("expected overdue tier critical, got %s", overdue.Tier)
	}
	if overdue.Score-soon.Score != 4 {
		t.Fatalf("expected past-due bump of 4, got %d", overdue.Score-soon.Score)
	}
}

func TestTierBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  Tier
	}{
		{7, TierLow}, {8, TierMedium}, {13, TierMedium},
		{14, TierHigh}, {19, TierHigh}, {20, TierCritical},
	}
	for _, tc := range cases {
		if got := tierFor(tc.score); got != tc.want {
			t.Fatalf("score %d: expected %s, got %s", tc.score, tc.want, got)
		}
	}
}
