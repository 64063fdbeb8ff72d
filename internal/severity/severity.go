// Package severity turns an item's schedule and priority inputs into a
// numeric urgency score and a coarse tier. The weights are a fixed,
// versioned policy: changing them changes what every consumer considers
// urgent, so they live in one table rather than scattered literals.
package severity

import "time"

type Tier string

const (
	TierLow      Tier = "low"
	TierMedium   Tier = "medium"
	TierHigh     Tier = "high"
	TierCritical Tier = "critical"
)

type Input struct {
	ScheduledAt   *time.Time
	Importance    *int
	PriorityScore *float64
}

type Result struct {
	Score int
	Tier  Tier
}

// scoreTableV1 is the v1 scoring policy. Tests pin these values; bump
// the version alongside any tuning instead of editing in place.
var scoreTableV1 = struct {
	importanceWeight int

	priorityBuckets []struct {
		min   float64
		bonus int
	}
	priorityFloor int

	timeBuckets []struct {
		maxHours float64
		bonus    int
	}
	pastDueBonus int

	criticalAt int
	highAt     int
	mediumAt   int
}{
	importanceWeight: 2,
	priorityBuckets: []struct {
		min   float64
		bonus int
	}{
		{80, 8},
		{60, 6},
		{40, 4},
		{20, 2},
	},
	priorityFloor: 1,
	timeBuckets: []struct {
		maxHours float64
		bonus    int
	}{
		{24, 10},
		{72, 6},
		{168, 3},
		{336, 1},
	},
	pastDueBonus: 4,
	criticalAt:   20,
	highAt:       14,
	mediumAt:     8,
}

// Score computes the urgency of an item at the given instant. It is
// pure and O(1); callers may invoke it on every render tick. A missing
// ScheduledAt contributes nothing to the score rather than counting as
// infinitely far away.
func Score(in Input, now time.Time) Result {
	tbl := scoreTableV1
	score := 0

	if in.Importance != nil && *in.Importance > 0 {
		score += *in.Importance * tbl.importanceWeight
	}

	if in.PriorityScore != nil {
		bonus := tbl.priorityFloor
		for _, b := range tbl.priorityBuckets {
			if *in.PriorityScore >= b.min {
				bonus = b.bonus
				break
			}
		}
		score += bonus
	}

	if in.ScheduledAt != nil {
		hoursLeft := in.ScheduledAt.Sub(now).Hours()
		for _, b := range tbl.timeBuckets {
			if hoursLeft <= b.maxHours {
				score += b.bonus
				break
			}
		}
		if hoursLeft < 0 {
			score += tbl.pastDueBonus
		}
	}

	return Result{Score: score, Tier: tierFor(score)}
}

func tierFor(score int) Tier {
	tbl := scoreTableV1
	switch {
	case score >= tbl.criticalAt:
		return TierCritical
	case score >= tbl.highAt:
		return TierHigh
	case score >= tbl.mediumAt:
		return TierMedium
	default:
		return TierLow
	}
}
