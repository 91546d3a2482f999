package domain

import (
	"fmt"
	"time"
)

const (
	// DefaultWindowDays is the trailing window inspected for chronic failures.
	DefaultWindowDays = 10
	// DefaultThreshold is the number of errors inside the window that disables a pair.
	DefaultThreshold = 10
)

// RecordRun appends a run's events to the log and returns the merged log sorted by
// (time, server, service). The input slices are not modified.
func RecordRun(log, events []Event) []Event {
	merged := make([]Event, 0, len(log)+len(events))
	merged = append(merged, log...)
	merged = append(merged, events...)
	SortEvents(merged)
	return merged
}

// FindChronicFailures returns the pairs with at least threshold error events whose
// calendar day, in now's location, falls on or after now minus windowDays days.
//
// Only error events count. The rule approximates "failed on windowDays distinct days"
// and assumes at most one run per pair per day; events are counted, not days.
func FindChronicFailures(log []Event, now time.Time, windowDays, threshold int) []Pair {
	if threshold <= 0 {
		return nil
	}
	cutoff := DateOf(now).AddDays(-windowDays)

	counts := make(map[Pair]int)
	for _, e := range log {
		if e.Kind != EventError {
			continue
		}
		if DateOf(e.Time.In(now.Location())).Before(cutoff) {
			continue
		}
		counts[e.Pair()]++
	}

	var chronic []Pair
	for p, n := range counts {
		if n >= threshold {
			chronic = append(chronic, p)
		}
	}
	SortPairs(chronic)
	return chronic
}

// BreakerDetail is the justification recorded when a pair is disabled.
func BreakerDetail(windowDays int) string {
	return fmt.Sprintf("after %d days of errors", windowDays)
}

// ApplyBreaker disables every chronic pair that is still enabled in the directory and
// returns the updated directory plus one servicio_deshabilitado event per pair.
//
// Pairs already disabled or whose server left the directory produce nothing, so the
// enabled → disabled transition is recorded once. There is no path back to enabled:
// re-enabling is a manual directory edit.
func ApplyBreaker(directory Directory, chronic []Pair, at time.Time, windowDays int) (Directory, []Event) {
	updated := directory.Clone()
	var events []Event

	for _, p := range chronic {
		disabled := false
		for i := range updated {
			if updated[i].Name != p.Server || !updated[i].Enabled(p.Service) {
				continue
			}
			updated[i].disable(p.Service)
			disabled = true
		}
		if !disabled {
			continue
		}
		events = append(events, Event{
			Time:    at,
			Server:  p.Server,
			Service: p.Service,
			Kind:    EventServiceDisabled,
			Detail:  BreakerDetail(windowDays),
		})
	}

	return updated, events
}
