package generic_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timeclock-engine/generic"
)

func TestResolver_DefaultWeekdayTable(t *testing.T) {
	resolver := generic.DefaultScheduleResolver(monday)
	sixByOne := 7*time.Hour + 20*time.Minute

	cases := []struct {
		code    generic.ScheduleCode
		weekday int
		want    time.Duration
	}{
		{generic.Schedule5x1, 0, 8 * time.Hour},
		{generic.Schedule5x1, 4, 8 * time.Hour},
		{generic.Schedule5x1, 5, 0},
		{generic.Schedule5x1, 6, 0},
		{generic.Schedule6x1, 0, sixByOne},
		{generic.Schedule6x1, 5, sixByOne},
		{generic.Schedule6x1, 6, 0},
		{generic.Schedule4h, 5, 4 * time.Hour},
		{generic.Schedule4h, 6, 0},
		{generic.Schedule6h, 2, 6 * time.Hour},
		{generic.Schedule6h, 6, 0},
	}
	for _, tc := range cases {
		got, err := resolver.ExpectedForWeekday(tc.code, tc.weekday)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s weekday %d", tc.code, tc.weekday)
	}
}

func TestResolver_UnknownScheduleIsAnError(t *testing.T) {
	resolver := generic.DefaultScheduleResolver(monday)

	for _, code := range []generic.ScheduleCode{"", "7x0", "5X1"} {
		_, err := resolver.Resolve(code, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, generic.ErrUnknownSchedule)
		var unknown *generic.UnknownScheduleError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, code, unknown.Code)
	}
	assert.False(t, resolver.Known(""))
	assert.True(t, generic.IsClientError(&generic.UnknownScheduleError{}))
}

func TestResolver_WeekdayIndexOutOfRange(t *testing.T) {
	resolver := generic.DefaultScheduleResolver(monday)
	_, err := resolver.ExpectedForWeekday(generic.Schedule5x1, 7)
	assert.Error(t, err)
}

func TestResolver_CycleHasNoWeekdayAnswer(t *testing.T) {
	resolver := generic.DefaultScheduleResolver(monday)
	_, err := resolver.ExpectedForWeekday(generic.Schedule12x36, 0)
	assert.ErrorIs(t, err, generic.ErrScheduleNotWeekly)
}

func TestCycleSchedule_AlternatesFromAnchorInBothDirections(t *testing.T) {
	// GIVEN: a 12x36 cycle anchored on a Wednesday
	anchor := monday.AddDays(2)
	resolver := generic.DefaultScheduleResolver(monday)
	schedule, err := resolver.Resolve(generic.Schedule12x36, &anchor)
	require.NoError(t, err)

	// THEN: on-days are every other day, ignoring weekdays
	for offset := -5; offset <= 5; offset++ {
		want := time.Duration(0)
		if offset%2 == 0 {
			want = 12 * time.Hour
		}
		assert.Equal(t, want, schedule.Expected(anchor.AddDays(offset)), "offset %d", offset)
	}
}

func TestCycleSchedule_FarPastAnchorStillAlternates(t *testing.T) {
	// GIVEN: an anchor more than three centuries back (an even day count before 2024-01-15)
	anchor := generic.NewDate(1700, time.January, 1)
	resolver := generic.DefaultScheduleResolver(monday)
	schedule, err := resolver.Resolve(generic.Schedule12x36, &anchor)
	require.NoError(t, err)

	// THEN: consecutive days alternate on and off
	day := generic.NewDate(2024, time.January, 15)
	assert.Equal(t, 12*time.Hour, schedule.Expected(day))
	assert.Zero(t, schedule.Expected(day.AddDays(1)))
	assert.Equal(t, 12*time.Hour, schedule.Expected(day.AddDays(2)))
}

func TestCycleSchedule_FallsBackToDefaultAnchor(t *testing.T) {
	resolver := generic.DefaultScheduleResolver(monday)

	schedule, err := resolver.Resolve(generic.Schedule12x36, nil)
	require.NoError(t, err)
	assert.Equal(t, 12*time.Hour, schedule.Expected(monday))
	assert.Zero(t, schedule.Expected(monday.AddDays(1)))

	zero := generic.Date{}
	schedule, err = resolver.Resolve(generic.Schedule12x36, &zero)
	require.NoError(t, err)
	assert.Equal(t, 12*time.Hour, schedule.Expected(monday))
}

func TestDefinition_Validate(t *testing.T) {
	week := [7]time.Duration{}
	tooLong := [7]time.Duration{25 * time.Hour}

	assert.NoError(t, generic.ScheduleDefinition{Code: "x", Weekly: &week}.Validate())
	assert.NoError(t, generic.ScheduleDefinition{Code: "x", Cycle: []time.Duration{time.Hour}}.Validate())
	assert.Error(t, generic.ScheduleDefinition{Weekly: &week}.Validate(), "code required")
	assert.Error(t, generic.ScheduleDefinition{Code: "x"}.Validate(), "neither table")
	assert.Error(t, generic.ScheduleDefinition{Code: "x", Weekly: &week, Cycle: []time.Duration{0}}.Validate(), "both tables")
	assert.Error(t, generic.ScheduleDefinition{Code: "x", Weekly: &tooLong}.Validate())
}

func TestResolver_DefinitionsAreSorted(t *testing.T) {
	defs := generic.DefaultScheduleResolver(monday).Definitions()
	require.Len(t, defs, 5)
	for i := 1; i < len(defs); i++ {
		assert.Less(t, string(defs[i-1].Code), string(defs[i].Code))
	}
}
