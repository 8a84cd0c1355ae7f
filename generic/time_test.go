package generic_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timeclock-engine/generic"
)

func TestParsePeriod(t *testing.T) {
	p, err := generic.ParsePeriod("2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, 31, p.DayCount())
	assert.Equal(t, "[2024-01-01, 2024-01-31]", p.String())

	_, err = generic.ParsePeriod("2024-02-01", "2024-01-31")
	assert.ErrorIs(t, err, generic.ErrInvalidRange)

	_, err = generic.ParsePeriod("01/02/2024", "2024-01-31")
	assert.ErrorIs(t, err, generic.ErrMalformedTimestamp)
}

func TestPeriod_BoundsAreHalfOpenInZone(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	from, to := generic.SingleDay(monday).Bounds(loc)
	assert.Equal(t, time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC), from.UTC())
	assert.Equal(t, 24*time.Hour, to.Sub(from))
}

func TestDaysBetween_CrossesMonthsAndYears(t *testing.T) {
	assert.Equal(t, 366, generic.DaysBetween(monday, generic.NewDate(2025, time.January, 1)))
	assert.Equal(t, -1, generic.DaysBetween(monday, monday.AddDays(-1)))
}

func TestDaysBetween_BeyondDurationRange(t *testing.T) {
	old := generic.NewDate(1700, time.January, 1)
	day := generic.NewDate(2024, time.January, 15)

	assert.Equal(t, 118352, generic.DaysBetween(old, day))
	assert.Equal(t, -118352, generic.DaysBetween(day, old))
	assert.Equal(t, 3652058, generic.DaysBetween(generic.NewDate(1, time.January, 1), generic.NewDate(9999, time.December, 31)))
}

func TestPeriod_ValidateLength(t *testing.T) {
	year, err := generic.ParsePeriod("2024-01-01", "2024-12-31")
	require.NoError(t, err)
	assert.NoError(t, year.ValidateLength(366))
	assert.NoError(t, year.ValidateLength(0))

	// GIVEN: one day over the limit
	err = year.ValidateLength(365)
	assert.ErrorIs(t, err, generic.ErrInvalidRange)
	var rangeErr *generic.InvalidRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, 365, rangeErr.MaxDays)

	// GIVEN: an inverted range, it is reported as such
	inverted := generic.Period{Start: year.End, End: year.Start}
	err = inverted.ValidateLength(366)
	require.ErrorAs(t, err, &rangeErr)
	assert.Zero(t, rangeErr.MaxDays)
}

func TestCalendar_ParseTimestamp(t *testing.T) {
	cal, err := generic.NewCalendar("America/Sao_Paulo", generic.LocaleEnglish)
	require.NoError(t, err)

	// GIVEN: an explicit offset, it wins over the calendar zone
	ts, err := cal.ParseTimestamp("2024-01-01T08:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 8, ts.UTC().Hour())

	// GIVEN: a naive value, it is read in the calendar zone
	ts, err = cal.ParseTimestamp("2024-01-01T08:00:00")
	require.NoError(t, err)
	assert.Equal(t, 11, ts.UTC().Hour())

	ts, err = cal.ParseTimestamp("2024-01-01 08:00")
	require.NoError(t, err)
	assert.Equal(t, 11, ts.UTC().Hour())

	// GIVEN: an offset without a colon
	ts, err = cal.ParseTimestamp("2024-01-01T08:00:00-0300")
	require.NoError(t, err)
	assert.Equal(t, 11, ts.UTC().Hour())

	// GIVEN: a bare date, it is local midnight
	ts, err = cal.ParseTimestamp("2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 3, 0, 0, 0, time.UTC), ts.UTC())

	for _, bad := range []string{"", "yesterday", "2024-13-01T08:00:00"} {
		_, err = cal.ParseTimestamp(bad)
		assert.ErrorIs(t, err, generic.ErrMalformedTimestamp, bad)
	}
}

func TestLocale_WeekdayName(t *testing.T) {
	assert.Equal(t, "sunday", generic.LocaleEnglish.WeekdayName(time.Sunday))
	assert.Equal(t, "sábado", generic.LocalePortuguese.WeekdayName(time.Saturday))
	assert.Equal(t, "friday", generic.Locale("xx").WeekdayName(time.Friday))
	assert.False(t, generic.Locale("xx").Valid())
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "invalid_range", generic.ErrorKind(&generic.InvalidRangeError{}))
	assert.Equal(t, "unknown_schedule", generic.ErrorKind(&generic.UnknownScheduleError{Code: "x"}))
	assert.Equal(t, "lock_timeout", generic.ErrorKind(generic.ErrLockTimeout))
	assert.Equal(t, "unexpected", generic.ErrorKind(assert.AnError))
	assert.Equal(t, "", generic.ErrorKind(nil))
	assert.True(t, generic.IsRetryable(generic.ErrLockTimeout))
	assert.True(t, generic.IsNotFound(generic.ErrUserNotFound))
}
