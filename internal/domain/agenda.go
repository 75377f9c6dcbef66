package domain

import (
	"slices"
	"sort"
)

// DayLayout is the agenda bucket key format (UTC calendar date).
const DayLayout = "2006-01-02"

// Agenda maps a UTC calendar date to its events in chronological order.
// Keys sort lexically in date order, so encoding/json emits days chronologically.
type Agenda map[string][]MergedEvent

// Dates returns the agenda days in ascending order.
func (a Agenda) Dates() []string {
	dates := make([]string, 0, len(a))
	for d := range a {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Flatten returns every event in agenda order.
func (a Agenda) Flatten() []MergedEvent {
	var out []MergedEvent
	for _, d := range a.Dates() {
		out = append(out, a[d]...)
	}
	return out
}

// BuildAgenda merges the latest official and personal snapshots.
// Events with equal fullDate keep official before personal, then snapshot order.
func BuildAgenda(official, personal []Event) Agenda {
	return GroupByDay(MergeSorted(official, personal))
}

// MergeSorted performs a stable two-way merge of both sources by fullDate.
func MergeSorted(official, personal []Event) []MergedEvent {
	o := sortedByFullDate(official)
	p := sortedByFullDate(personal)

	out := make([]MergedEvent, 0, len(o)+len(p))
	i, j := 0, 0
	for i < len(o) && j < len(p) {
		if p[j].FullDate.Before(o[i].FullDate) {
			out = append(out, personalEvent(p[j]))
			j++
			continue
		}
		out = append(out, officialEvent(o[i]))
		i++
	}
	for ; i < len(o); i++ {
		out = append(out, officialEvent(o[i]))
	}
	for ; j < len(p); j++ {
		out = append(out, personalEvent(p[j]))
	}
	return out
}

// GroupByDay buckets already-ordered events by the UTC date of fullDate.
func GroupByDay(events []MergedEvent) Agenda {
	agenda := make(Agenda)
	for _, ev := range events {
		day := ev.FullDate.UTC().Format(DayLayout)
		agenda[day] = append(agenda[day], ev)
	}
	return agenda
}

func byFullDate(a, b Event) int { return a.FullDate.Compare(b.FullDate) }

// sortedByFullDate never reorders the caller's slice.
func sortedByFullDate(events []Event) []Event {
	if slices.IsSortedFunc(events, byFullDate) {
		return events
	}
	cp := slices.Clone(events)
	slices.SortStableFunc(cp, byFullDate)
	return cp
}

func officialEvent(e Event) MergedEvent {
	return MergedEvent{Event: e, IsOfficial: true, Category: e.Country}
}

func personalEvent(e Event) MergedEvent {
	return MergedEvent{Event: e, IsOfficial: false, Category: CategoryPersonal}
}
