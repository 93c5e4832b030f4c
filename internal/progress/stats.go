package progress

import (
	"time"

	"github.com/hvukovic/weightly/internal/records"
)

// Stats are the descriptive statistics behind the dashboard charts.
// All values are 0 when no usable records exist.
type Stats struct {
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	// WeightChange is the loss from the heaviest recorded weight down to
	// the current one (peak-to-current), 0 with fewer than two records.
	WeightChange float64 `json:"weightChange"`
	// DaysLogged counts distinct calendar dates, not records.
	DaysLogged int `json:"daysLogged"`
	// CurrentStreak is the number of consecutive logged days ending at
	// the most recent logged day.
	CurrentStreak int `json:"currentStreak"`
}

// WeekdayBucket aggregates the records falling on one weekday.
type WeekdayBucket struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// TimeRange selects the filtering window for stats queries.
type TimeRange string

const (
	TimeRangeWeek  TimeRange = "week"
	TimeRangeMonth TimeRange = "month"
	TimeRangeYear  TimeRange = "year"
)

// Describe computes the descriptive statistics over the given records.
// Records with invalid weights are skipped, never propagated.
func Describe(recordsList []records.WeightRecord) Stats {
	var (
		sum   float64
		count int
		minW  float64
		maxW  float64
		days  = make(map[time.Time]bool)
	)

	for _, record := range recordsList {
		if !validWeight(record.Weight) {
			continue
		}
		if count == 0 {
			minW, maxW = record.Weight, record.Weight
		} else {
			if record.Weight < minW {
				minW = record.Weight
			}
			if record.Weight > maxW {
				maxW = record.Weight
			}
		}
		sum += record.Weight
		count++
		days[record.Date.Day()] = true
	}

	if count == 0 {
		return Stats{}
	}

	stats := Stats{
		Average:       sum / float64(count),
		Min:           minW,
		Max:           maxW,
		DaysLogged:    len(days),
		CurrentStreak: currentStreak(days),
	}

	if count > 1 {
		if current, ok := CurrentWeight(recordsList); ok {
			stats.WeightChange = maxW - current
		}
	}

	return stats
}

// currentStreak walks backwards from the most recent logged day while
// every previous calendar day is logged too.
func currentStreak(days map[time.Time]bool) int {
	if len(days) == 0 {
		return 0
	}

	var latest time.Time
	for day := range days {
		if day.After(latest) {
			latest = day
		}
	}

	streak := 0
	for day := latest; days[day]; day = day.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}

// WeekdayDistribution buckets records by weekday, index 0=Sunday through
// 6=Saturday (time.Weekday convention). Empty buckets report average 0.
func WeekdayDistribution(recordsList []records.WeightRecord) [7]WeekdayBucket {
	var sums [7]float64
	var buckets [7]WeekdayBucket

	for _, record := range recordsList {
		if !validWeight(record.Weight) {
			continue
		}
		weekday := int(record.Date.Weekday())
		sums[weekday] += record.Weight
		buckets[weekday].Count++
	}

	for i := range buckets {
		if buckets[i].Count > 0 {
			buckets[i].Average = sums[i] / float64(buckets[i].Count)
		}
	}

	return buckets
}

// FilterByTimeRange returns the records with date >= the range cutoff,
// preserving relative order. An unknown range returns all records.
func FilterByTimeRange(recordsList []records.WeightRecord, timeRange TimeRange, now time.Time) []records.WeightRecord {
	var cutoff time.Time
	switch timeRange {
	case TimeRangeWeek:
		cutoff = now.AddDate(0, 0, -7)
	case TimeRangeMonth:
		cutoff = now.AddDate(0, -1, 0)
	case TimeRangeYear:
		cutoff = now.AddDate(-1, 0, 0)
	default:
		return recordsList
	}

	filtered := make([]records.WeightRecord, 0, len(recordsList))
	for _, record := range recordsList {
		if !record.Date.Before(cutoff) {
			filtered = append(filtered, record)
		}
	}
	return filtered
}
