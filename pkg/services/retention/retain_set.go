package retention

import (
	"sort"
	"time"
)

const (
	// AnchorHour is the creation hour of the weekly snapshots that receive the
	// long retention. Anchors created at any other hour are not protected.
	AnchorHour = 11

	daysPerRetentionMonth = 32
	prefixLayout          = "2006-01-02T15:"
)

// RetainSet holds the "<date>T11:" prefixes of the protected Monday anchors.
type RetainSet map[string]struct{}

// ComputeRetainSet returns every Monday between now-32*monthsBack days and now,
// both ends included, formatted to the hour prefix used by Contains.
func ComputeRetainSet(now time.Time, monthsBack int) RetainSet {
	if monthsBack < 1 {
		monthsBack = 1
	}

	set := make(RetainSet)
	span := daysPerRetentionMonth * monthsBack
	start := now.AddDate(0, 0, -span)
	for i := 0; i <= span; i++ {
		day := start.AddDate(0, 0, i)
		if day.Weekday() != time.Monday {
			continue
		}
		anchor := time.Date(day.Year(), day.Month(), day.Day(), AnchorHour, 0, 0, 0, day.Location())
		set[anchor.Format(prefixLayout)] = struct{}{}
	}
	return set
}

// Contains reports whether t falls within one of the protected anchor hours.
func (s RetainSet) Contains(t time.Time) bool {
	_, ok := s[t.Format(prefixLayout)]
	return ok
}

// Days returns the prefixes in chronological order.
func (s RetainSet) Days() []string {
	days := make([]string, 0, len(s))
	for d := range s {
		days = append(days, d)
	}
	sort.Strings(days)
	return days
}
