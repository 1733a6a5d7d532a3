package history

import (
	"cmp"
	"math"
	"slices"
	"time"

	"pickme/internal/models"
)

// Period splits a day into four fixed ranges of local hours.
type Period struct {
	Key   string
	Label string
}

var (
	PeriodNight     = Period{Key: "night", Label: "Night"}
	PeriodMorning   = Period{Key: "morning", Label: "Morning"}
	PeriodAfternoon = Period{Key: "afternoon", Label: "Afternoon"}
	PeriodEvening   = Period{Key: "evening", Label: "Evening"}
)

type PeriodGroup struct {
	Key     string
	Label   string
	Entries []models.HistoryEntry
}

// DayGroup holds the entries of one local calendar day. Entries is filled
// when the day falls into a single period, Periods otherwise.
type DayGroup struct {
	Key     string
	Label   string
	Entries []models.HistoryEntry
	Periods []PeriodGroup
}

// PeriodOf returns the period the local hour of t belongs to.
func PeriodOf(t time.Time) Period {
	switch h := t.Hour(); {
	case h < 6:
		return PeriodNight
	case h < 12:
		return PeriodMorning
	case h < 18:
		return PeriodAfternoon
	default:
		return PeriodEvening
	}
}

// Group sorts entries newest first and buckets them by day and period in loc.
// The input slice is not modified.
func Group(entries []models.HistoryEntry, now time.Time, loc *time.Location) []DayGroup {
	if len(entries) == 0 {
		return nil
	}
	if loc == nil {
		loc = time.Local
	}

	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b models.HistoryEntry) int {
		return cmp.Compare(b.Timestamp, a.Timestamp)
	})

	today := startOfDay(now.In(loc))
	var days []DayGroup
	var periods [][]PeriodGroup
	for _, entry := range sorted {
		at := Time(entry.Timestamp).In(loc)
		key := at.Format(time.DateOnly)
		if len(days) == 0 || days[len(days)-1].Key != key {
			days = append(days, DayGroup{Key: key, Label: DayLabel(at, today)})
			periods = append(periods, nil)
		}
		idx := len(days) - 1

		p := PeriodOf(at)
		buckets := periods[idx]
		if len(buckets) == 0 || buckets[len(buckets)-1].Key != p.Key {
			buckets = append(buckets, PeriodGroup{Key: p.Key, Label: p.Label})
		}
		last := &buckets[len(buckets)-1]
		last.Entries = append(last.Entries, entry)
		periods[idx] = buckets
	}

	for i := range days {
		if len(periods[i]) == 1 {
			days[i].Entries = periods[i][0].Entries
			continue
		}
		days[i].Periods = periods[i]
	}
	return days
}

// DayLabel names the day of t relative to today, which must be a local
// midnight in the same location.
func DayLabel(t, today time.Time) string {
	diff := int(math.Round(today.Sub(startOfDay(t)).Hours() / 24))
	switch diff {
	case 0:
		return "Today"
	case 1:
		return "Yesterday"
	case 2:
		return "Day before yesterday"
	}
	return t.Format("Jan 2 Mon")
}

// Time converts a unix timestamp in seconds with a fractional part.
func Time(ts float64) time.Time {
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
