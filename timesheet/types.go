// Package timesheet assembles worked-hours reports for users.
// It uses the generic engine with a user's schedule and stored points.
package timesheet

import (
	"context"
	"strings"
	"time"

	"github.com/warp/timeclock-engine/generic"
)

// =============================================================================
// USER
// =============================================================================

// User is an employee whose points are tracked.
// ShiftAnchor is an on-day for cycle schedules (12x36); nil uses the
// resolver's default anchor.
type User struct {
	ID           generic.UserID
	FirstName    string
	LastName     string
	Email        string
	ScheduleCode generic.ScheduleCode
	ShiftAnchor  *generic.Date
	CreatedAt    time.Time
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// UserStore is the schedule source: it resolves a user to a schedule code.
type UserStore interface {
	CreateUser(ctx context.Context, u User) error
	// GetUser returns generic.ErrUserNotFound for unknown IDs.
	GetUser(ctx context.Context, id generic.UserID) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateSchedule(ctx context.Context, id generic.UserID, code generic.ScheduleCode, anchor *generic.Date) error
}

// =============================================================================
// REPORT
// =============================================================================

// Report is the assembled result for one user over one period.
type Report struct {
	User        User
	Period      generic.Period
	Schedule    generic.ScheduleCode
	Days        []DayReport
	Points      []generic.ClockEvent
	Balance     generic.Balance
	GeneratedAt time.Time
}

// DayReport is one date of a report. Every date of the period has one.
type DayReport struct {
	Date      generic.Date
	Weekday   string
	Events    []generic.ClockEvent
	Intervals []generic.Interval
	Balance   generic.Balance
}

// Totals are the period figures in hours, rounded to 2 places.
func (r *Report) Totals() generic.BalanceDisplay { return r.Balance.ToDisplay(2) }

func (r *Report) IsComplete() bool { return r.Balance.Complete() }

// WorkedDays counts dates with any worked time.
func (r *Report) WorkedDays() int {
	n := 0
	for _, d := range r.Days {
		if d.Balance.Worked > 0 {
			n++
		}
	}
	return n
}
