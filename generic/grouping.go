package generic

import (
	"sort"
)

// =============================================================================
// DAY GROUPER - One bucket per calendar date
// =============================================================================

// DayBucket holds the events of one calendar date, sorted ascending by time.
// Events is never nil; a date without points has an empty slice.
type DayBucket struct {
	Date    Date
	Weekday string
	Events  []ClockEvent
}

// IsEmpty reports whether no point was registered on the date.
func (b DayBucket) IsEmpty() bool { return len(b.Events) == 0 }

// GroupByDay partitions events into one bucket per date of period, in
// ascending date order, including dates with no events. An event belongs to
// the bucket whose date equals its date in cal's timezone; events outside the
// period are dropped.
//
// Returns InvalidRangeError if period.Start is after period.End.
func GroupByDay(events []ClockEvent, period Period, cal Calendar) ([]DayBucket, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	days := period.Days()
	buckets := make([]DayBucket, len(days))
	for i, day := range days {
		buckets[i] = DayBucket{
			Date:    day,
			Weekday: cal.WeekdayLabel(day),
			Events:  []ClockEvent{},
		}
	}

	for _, e := range events {
		day := cal.DateOf(e.At)
		if !period.Contains(day) {
			continue
		}
		idx := DaysBetween(period.Start, day)
		buckets[idx].Events = append(buckets[idx].Events, e)
	}

	// Stable so equal timestamps keep the store's insertion order.
	for i := range buckets {
		events := buckets[i].Events
		sort.SliceStable(events, func(a, b int) bool {
			return events[a].At.Before(events[b].At)
		})
	}

	return buckets, nil
}
