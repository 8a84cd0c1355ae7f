package generic

import "time"

// =============================================================================
// WORKED-HOURS CALCULATOR - Deterministic in/out pairing
// =============================================================================

// Interval is one accepted in -> out pair.
type Interval struct {
	In  ClockEvent
	Out ClockEvent
}

func (iv Interval) Duration() time.Duration { return iv.Out.At.Sub(iv.In.At) }

// WorkedIntervals scans the bucket's sorted events left to right. Whenever
// an "in" is immediately followed by an "out" the pair is accepted and both
// are consumed; any other event is skipped on its own and never paired with
// a later event.
func WorkedIntervals(bucket DayBucket) []Interval {
	events := bucket.Events
	var intervals []Interval
	i := 0
	for i < len(events)-1 {
		start, end := events[i], events[i+1]
		if start.Kind == KindIn && end.Kind == KindOut {
			intervals = append(intervals, Interval{In: start, Out: end})
			i += 2
			continue
		}
		i++
	}
	return intervals
}

// WorkedDuration returns the exact worked time of one day. Never negative.
func WorkedDuration(bucket DayBucket) time.Duration {
	var worked time.Duration
	for _, iv := range WorkedIntervals(bucket) {
		if d := iv.Duration(); d > 0 {
			worked += d
		}
	}
	return worked
}

// TotalWorked sums WorkedDuration across buckets with no intermediate
// rounding.
func TotalWorked(buckets []DayBucket) time.Duration {
	var total time.Duration
	for _, b := range buckets {
		total += WorkedDuration(b)
	}
	return total
}
