package generic

import (
	"strings"
	"time"
)

// =============================================================================
// DATE - A calendar day, independent of any timezone
// =============================================================================

// Date is a civil calendar date. The wrapped time is always midnight UTC so
// that arithmetic and comparisons never depend on a zone's DST rules.
type Date struct {
	t time.Time
}

const DateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t as observed in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return NewDate(local.Year(), local.Month(), local.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, &MalformedTimestampError{Value: s, Err: err}
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

// Comparison
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }
func (d Date) After(other Date) bool  { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool  { return d.t.Equal(other.t) }
func (d Date) IsZero() bool           { return d.t.IsZero() }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

// WeekdayIndex returns Monday=0 .. Sunday=6.
func (d Date) WeekdayIndex() int { return WeekdayIndex(d.Weekday()) }

// StartIn returns the first instant of the date in loc.
func (d Date) StartIn(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

func (d Date) String() string { return d.t.Format(DateLayout) }

// Format formats the date with a time layout (e.g. "02/01/2006").
func (d Date) Format(layout string) string { return d.t.Format(layout) }

// WeekdayIndex maps time.Weekday (Sunday=0) onto Monday=0 .. Sunday=6.
func WeekdayIndex(wd time.Weekday) int { return (int(wd) + 6) % 7 }

const secondsPerDay = 24 * 60 * 60

// DaysBetween returns the signed number of days from -> to. Both dates are
// UTC midnights, so the Unix second difference is an exact multiple of a day.
// time.Duration saturates past ~292 years and cannot be used here.
func DaysBetween(from, to Date) int {
	return int((to.t.Unix() - from.t.Unix()) / secondsPerDay)
}

// =============================================================================
// CALENDAR - Explicit timezone and locale
// =============================================================================

// Locale names weekdays for DayBucket labels.
type Locale string

const (
	LocaleEnglish    Locale = "en"
	LocalePortuguese Locale = "pt-BR"
)

var weekdayNames = map[Locale][7]string{
	LocaleEnglish:    {"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"},
	LocalePortuguese: {"domingo", "segunda-feira", "terça-feira", "quarta-feira", "quinta-feira", "sexta-feira", "sábado"},
}

func (l Locale) Valid() bool {
	_, ok := weekdayNames[l]
	return ok
}

// WeekdayName returns the lowercase weekday label. Unknown locales fall back
// to English.
func (l Locale) WeekdayName(wd time.Weekday) string {
	names, ok := weekdayNames[l]
	if !ok {
		names = weekdayNames[LocaleEnglish]
	}
	return names[wd]
}

// Calendar carries the timezone that decides which date an instant belongs
// to and the locale used for weekday labels. It is passed explicitly to
// every date-sensitive operation.
type Calendar struct {
	Location *time.Location
	Locale   Locale
}

// DefaultCalendar is UTC with English weekday names.
func DefaultCalendar() Calendar {
	return Calendar{Location: time.UTC, Locale: LocaleEnglish}
}

// NewCalendar loads the named IANA zone.
func NewCalendar(timezone string, locale Locale) (Calendar, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return Calendar{}, err
	}
	return Calendar{Location: loc, Locale: locale}, nil
}

func (c Calendar) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// DateOf returns the calendar date of t in this calendar's zone.
func (c Calendar) DateOf(t time.Time) Date { return DateOf(t, c.location()) }

// Today returns the current date in this calendar's zone.
func (c Calendar) Today(now time.Time) Date { return c.DateOf(now) }

// WeekdayLabel returns the localized weekday label of d.
func (c Calendar) WeekdayLabel(d Date) string { return c.Locale.WeekdayName(d.Weekday()) }

// =============================================================================
// TIMESTAMP PARSING
// =============================================================================

// offsetLayouts carry their own UTC offset, with or without a colon.
var offsetLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04-07:00",
	"2006-01-02T15:04-0700",
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	DateLayout,
}

// ParseTimestamp parses an ISO-8601 timestamp. Values without an offset are
// interpreted in the calendar's zone; a bare date is its local midnight.
func (c Calendar) ParseTimestamp(s string) (time.Time, error) {
	value := strings.TrimSpace(s)
	if value == "" {
		return time.Time{}, &MalformedTimestampError{Value: s}
	}
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	var lastErr error
	for _, layout := range naiveLayouts {
		t, err := time.ParseInLocation(layout, value, c.location())
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, &MalformedTimestampError{Value: s, Err: lastErr}
}
