package timesheet_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timeclock-engine/generic"
	"github.com/warp/timeclock-engine/generic/store"
	"github.com/warp/timeclock-engine/timesheet"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// monday is 2024-01-01, a Monday.
var monday = generic.NewDate(2024, time.January, 1)

type fixture struct {
	svc    *timesheet.Service
	points *store.TxMemory
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	points := store.NewTxMemory()
	cal := generic.DefaultCalendar()
	f := &fixture{points: points, now: time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)}

	registrar := generic.NewRegistrar(points, cal, generic.ScopeDay)
	registrar.Now = func() time.Time { return f.now }

	f.svc = timesheet.NewService(points, timesheet.NewMemoryUsers(),
		generic.DefaultScheduleResolver(monday), registrar, cal, nil)
	f.svc.Now = func() time.Time { return f.now }
	return f
}

func (f *fixture) user(t *testing.T, code generic.ScheduleCode) *timesheet.User {
	t.Helper()
	u, err := f.svc.CreateUser(context.Background(), timesheet.CreateUserInput{
		FirstName:    "Ana",
		LastName:     "Souza",
		Email:        "ana@example.com",
		ScheduleCode: code,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) clock(t *testing.T, u *timesheet.User, d generic.Date, times ...string) {
	t.Helper()
	for _, hm := range times {
		ts, err := time.Parse("2006-01-02 15:04", d.String()+" "+hm)
		require.NoError(t, err)
		_, err = f.svc.RegisterPoint(context.Background(), generic.RegisterInput{UserID: u.ID, At: &ts})
		require.NoError(t, err)
	}
}

func week() generic.Period {
	return generic.Period{Start: monday, End: monday.AddDays(6)}
}

// =============================================================================
// REPORTS
// =============================================================================

func TestReport_WeekWithOneWorkedDay(t *testing.T) {
	// GIVEN: a 5x1 user who clocked a full Monday
	f := newFixture(t)
	u := f.user(t, generic.Schedule5x1)
	f.clock(t, u, monday, "08:00", "12:00", "13:00", "17:00")

	// WHEN: reporting the week
	report, err := f.svc.Report(context.Background(), u.ID, week())
	require.NoError(t, err)

	// THEN: seven days, one worked, 32h remaining
	require.Len(t, report.Days, 7)
	assert.Len(t, report.Points, 4)
	assert.Len(t, report.Days[0].Intervals, 2)
	assert.Equal(t, 8*time.Hour, report.Days[0].Balance.Worked)
	assert.True(t, report.Days[0].Balance.Complete())
	assert.Equal(t, 1, report.WorkedDays())

	totals := report.Totals()
	assert.Equal(t, "8.00", totals.Worked.String())
	assert.Equal(t, "32.00", totals.Remaining.String())
	assert.True(t, totals.Extra.IsZero())
	assert.False(t, report.IsComplete())
	assert.Equal(t, generic.Schedule5x1, report.Schedule)
}

func TestReport_KindsAreDerivedFromRegistrationOrder(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, generic.Schedule6h)
	f.clock(t, u, monday, "08:00", "14:30")

	report, err := f.svc.Report(context.Background(), u.ID, generic.SingleDay(monday))
	require.NoError(t, err)

	require.Len(t, report.Points, 2)
	assert.Equal(t, generic.KindIn, report.Points[0].Kind)
	assert.Equal(t, generic.KindOut, report.Points[1].Kind)
	assert.Equal(t, 30*time.Minute, report.Balance.Extra)
}

func TestReport_UserWithoutScheduleFails(t *testing.T) {
	// GIVEN: a user created without a schedule
	f := newFixture(t)
	u := f.user(t, "")

	// WHEN: reporting
	_, err := f.svc.Report(context.Background(), u.ID, week())

	// THEN: no default schedule is assumed
	assert.ErrorIs(t, err, generic.ErrUnknownSchedule)
}

func TestReport_Errors(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, generic.Schedule5x1)
	ctx := context.Background()

	_, err := f.svc.Report(ctx, "missing", week())
	assert.ErrorIs(t, err, generic.ErrUserNotFound)

	_, err = f.svc.Report(ctx, u.ID, generic.Period{Start: monday.AddDays(1), End: monday})
	assert.ErrorIs(t, err, generic.ErrInvalidRange)
}

func TestReport_PeriodLongerThanLimitIsRejected(t *testing.T) {
	// GIVEN: a user and a limit of one week
	f := newFixture(t)
	u := f.user(t, generic.Schedule5x1)
	f.svc.MaxPeriodDays = 7
	ctx := context.Background()

	// WHEN: asking for eight days
	long := generic.Period{Start: monday, End: monday.AddDays(7)}
	_, err := f.svc.Report(ctx, u.ID, long)

	// THEN: the range is invalid for reports and listings alike
	assert.ErrorIs(t, err, generic.ErrInvalidRange)
	_, err = f.svc.ListPoints(ctx, u.ID, long)
	assert.ErrorIs(t, err, generic.ErrInvalidRange)

	_, err = f.svc.Report(ctx, u.ID, week())
	assert.NoError(t, err)
}

func TestReport_DefaultLimitIsOneLeapYear(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, generic.Schedule5x1)
	ctx := context.Background()
	assert.Equal(t, timesheet.DefaultMaxPeriodDays, f.svc.MaxPeriodDays)

	_, err := f.svc.Report(ctx, u.ID, generic.Period{Start: monday, End: monday.AddDays(365)})
	assert.NoError(t, err)

	_, err = f.svc.Report(ctx, u.ID, generic.Period{
		Start: generic.NewDate(1, time.January, 1),
		End:   generic.NewDate(9999, time.December, 31),
	})
	assert.ErrorIs(t, err, generic.ErrInvalidRange)
}

func TestReport_TwelveByThirtySixUsesUserAnchor(t *testing.T) {
	// GIVEN: a 12x36 user whose on-days start on Tuesday
	f := newFixture(t)
	u := f.user(t, generic.Schedule12x36)
	anchor := monday.AddDays(1)
	_, err := f.svc.UpdateSchedule(context.Background(), u.ID, generic.Schedule12x36, &anchor)
	require.NoError(t, err)

	// WHEN: reporting Monday..Thursday
	report, err := f.svc.Report(context.Background(), u.ID, generic.Period{Start: monday, End: monday.AddDays(3)})
	require.NoError(t, err)

	// THEN: Tuesday and Thursday are on-days
	var expected []time.Duration
	for _, d := range report.Days {
		expected = append(expected, d.Balance.Expected)
	}
	assert.Equal(t, []time.Duration{0, 12 * time.Hour, 0, 12 * time.Hour}, expected)
}

func TestDailySummary_UsesToday(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, generic.Schedule5x1)
	f.clock(t, u, monday, "09:00", "13:00")

	report, err := f.svc.DailySummary(context.Background(), u.ID)
	require.NoError(t, err)

	require.Len(t, report.Days, 1)
	assert.True(t, report.Period.Start.Equal(monday))
	assert.Equal(t, "4.00", report.Totals().Remaining.String())
}

// =============================================================================
// USERS AND REGISTRATION
// =============================================================================

func TestCreateUser_RejectsUnknownSchedule(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateUser(context.Background(), timesheet.CreateUserInput{ScheduleCode: "9x9"})
	assert.ErrorIs(t, err, generic.ErrUnknownSchedule)

	_, err = f.svc.UpdateSchedule(context.Background(), "missing", generic.Schedule5x1, nil)
	assert.ErrorIs(t, err, generic.ErrUserNotFound)
}

func TestRegisterPoint_UnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RegisterPoint(context.Background(), generic.RegisterInput{UserID: "ghost"})
	assert.ErrorIs(t, err, generic.ErrUserNotFound)
}

func TestListPoints(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, generic.Schedule5x1)
	f.clock(t, u, monday, "08:00", "12:00")
	f.clock(t, u, monday.AddDays(2), "08:00")

	points, err := f.svc.ListPoints(context.Background(), u.ID, generic.SingleDay(monday))
	require.NoError(t, err)
	assert.Len(t, points, 2)

	points, err = f.svc.ListPoints(context.Background(), u.ID, week())
	require.NoError(t, err)
	assert.Len(t, points, 3)
	assert.Equal(t, generic.KindIn, points[2].Kind, "a new day starts with in")
}

func TestListUsers_OrderedByCreation(t *testing.T) {
	f := newFixture(t)
	first := f.user(t, generic.Schedule5x1)
	f.now = f.now.Add(time.Minute)
	second := f.user(t, generic.Schedule6x1)

	users, err := f.svc.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, first.ID, users[0].ID)
	assert.Equal(t, second.ID, users[1].ID)
	assert.Equal(t, "Ana Souza", users[0].FullName())
}
