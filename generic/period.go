package generic

import "time"

// =============================================================================
// PERIOD - The closed date range every calculation runs over
// =============================================================================

// Period is the inclusive range [Start, End] of calendar dates.
// Worked and expected hours are always computed for a period, never for an
// open-ended interval.
type Period struct {
	Start Date
	End   Date
}

// NewPeriod returns InvalidRangeError when start is after end.
func NewPeriod(start, end Date) (Period, error) {
	p := Period{Start: start, End: end}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// SingleDay is the period covering only d.
func SingleDay(d Date) Period { return Period{Start: d, End: d} }

// ParsePeriod parses two YYYY-MM-DD strings into a validated period.
func ParsePeriod(start, end string) (Period, error) {
	s, err := ParseDate(start)
	if err != nil {
		return Period{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return Period{}, err
	}
	return NewPeriod(s, e)
}

func (p Period) Validate() error {
	if p.Start.After(p.End) {
		return &InvalidRangeError{Start: p.Start, End: p.End}
	}
	return nil
}

// ValidateLength is Validate plus a limit on the number of days. A
// non-positive maxDays means no limit.
func (p Period) ValidateLength(maxDays int) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if maxDays > 0 && p.DayCount() > maxDays {
		return &InvalidRangeError{Start: p.Start, End: p.End, MaxDays: maxDays}
	}
	return nil
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Date) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// DayCount is (End - Start).days + 1.
func (p Period) DayCount() int {
	return DaysBetween(p.Start, p.End) + 1
}

// Days returns every date of the period in ascending order.
func (p Period) Days() []Date {
	days := make([]Date, 0, p.DayCount())
	for current := p.Start; !current.After(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// Bounds returns the half-open instant range [from, to) covering the period
// in loc. Point stores are queried with these bounds.
func (p Period) Bounds(loc *time.Location) (from, to time.Time) {
	return p.Start.StartIn(loc), p.End.AddDays(1).StartIn(loc)
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
