// Package progress is the pure computation core of the service: it turns
// a user's weight records and goals into progress percentages, paces and
// descriptive statistics. No I/O, no logging, no clock reads; every
// time-sensitive function takes an explicit now/today argument.
package progress

import (
	"math"
	"time"

	"github.com/hvukovic/weightly/internal/goals"
	"github.com/hvukovic/weightly/internal/records"
)

// validWeight guards the computations against bad records: a single
// NaN or non-positive weight must not poison a whole dashboard.
func validWeight(w float64) bool {
	return !math.IsNaN(w) && !math.IsInf(w, 0) && w > 0
}

// CurrentWeight returns the weight of the record with the latest
// calendar date, ok=false when there are no usable records.
// On same-day ties the record later in the slice wins.
func CurrentWeight(recordsList []records.WeightRecord) (float64, bool) {
	var (
		current    float64
		currentDay time.Time
		found      bool
	)
	for _, record := range recordsList {
		if !validWeight(record.Weight) {
			continue
		}
		day := record.Date.Day()
		if !found || !day.Before(currentDay) {
			current = record.Weight
			currentDay = day
			found = true
		}
	}
	return current, found
}

// GoalProgress returns how far along a goal is, as a percentage in [0, 100].
//
// The baseline is goal.StartWeight when set, otherwise the current weight
// itself. That fallback makes the very first evaluation of a fresh goal
// report 0%, which is intentional: there is no better baseline to measure
// against until a start weight exists.
func GoalProgress(goal goals.Goal, currentWeight float64) float64 {
	startWeight := currentWeight
	if goal.StartWeight != nil && validWeight(*goal.StartWeight) {
		startWeight = *goal.StartWeight
	}
	targetWeight := goal.TargetWeight

	if startWeight == targetWeight {
		// treat as already achieved, avoids division by zero
		return 100
	}

	if targetWeight < startWeight {
		// loss goal
		if currentWeight <= targetWeight {
			return 100
		}
		return clamp((startWeight-currentWeight)/(startWeight-targetWeight)*100, 0, 100)
	}

	// gain goal
	if currentWeight >= targetWeight {
		return 100
	}
	return clamp((currentWeight-startWeight)/(targetWeight-startWeight)*100, 0, 100)
}

// DaysRemaining returns the number of whole days from today until the
// target date, rounded up, never negative.
func DaysRemaining(targetDate, today time.Time) int {
	diff := targetDate.Sub(today)
	diffDays := int(math.Ceil(diff.Hours() / 24))
	if diffDays < 0 {
		return 0
	}
	return diffDays
}

// RequiredDailyPace returns the weight that must be shed per day to hit
// the target in time. It is 0 when the deadline has passed or the
// target is already reached.
func RequiredDailyPace(currentWeight, targetWeight float64, daysRemaining int) float64 {
	if daysRemaining == 0 {
		return 0
	}
	remaining := currentWeight - targetWeight
	if remaining <= 0 {
		return 0
	}
	return remaining / float64(daysRemaining)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
