/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types keep the
  engine's records (time.Duration hours, generic.Date) out of the wire
  contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Response wrappers

FORMATS:
  Dates shown to people use dd/mm/yyyy; machine fields use YYYY-MM-DD.
  Hours are decimal strings with 2 places ("7.33").
  Timestamps are RFC 3339 in the calendar timezone.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/schedule.go: ScheduleJSON returned by /api/schedules
*/
package api

import (
	"time"

	"github.com/warp/timeclock-engine/generic"
	"github.com/warp/timeclock-engine/timesheet"
)

const displayDate = "02/01/2006"

// =============================================================================
// USERS
// =============================================================================

type UserDTO struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Schedule    string `json:"schedule"`
	ShiftAnchor string `json:"shift_anchor,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

type CreateUserRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Schedule    string `json:"schedule"`
	ShiftAnchor string `json:"shift_anchor"`
}

type UpdateScheduleRequest struct {
	Schedule    string `json:"schedule"`
	ShiftAnchor string `json:"shift_anchor"`
}

// UserRefDTO is the short user block embedded in reports.
type UserRefDTO struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func toUserDTO(u timesheet.User) UserDTO {
	dto := UserDTO{
		ID:        string(u.ID),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Schedule:  string(u.ScheduleCode),
	}
	if u.ShiftAnchor != nil {
		dto.ShiftAnchor = u.ShiftAnchor.String()
	}
	if !u.CreatedAt.IsZero() {
		dto.CreatedAt = u.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// POINTS
// =============================================================================

// RegisterPointRequest registers "now". Both coordinates are required.
type RegisterPointRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// ManualPointRequest registers at an ISO-8601 timestamp. Values without an
// offset are read in the calendar timezone.
type ManualPointRequest struct {
	Timestamp string `json:"timestamp"`
}

type PointDTO struct {
	ID        string   `json:"id"`
	UserID    string   `json:"user_id"`
	Timestamp string   `json:"timestamp"`
	Type      string   `json:"type"`
	Source    string   `json:"source"`
	Weekday   string   `json:"weekday"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

type RegisterPointResponse struct {
	Detail string `json:"detail"`
	PointDTO
}

func toPointDTO(e generic.ClockEvent, cal generic.Calendar) PointDTO {
	dto := PointDTO{
		ID:        string(e.ID),
		UserID:    string(e.UserID),
		Timestamp: e.At.In(calendarLocation(cal)).Format(time.RFC3339),
		Type:      string(e.Kind),
		Source:    string(e.Source),
		Weekday:   cal.WeekdayLabel(cal.DateOf(e.At)),
	}
	if e.Location != nil {
		lat, long := e.Location.Latitude, e.Location.Longitude
		dto.Latitude, dto.Longitude = &lat, &long
	}
	return dto
}

func toPointDTOs(events []generic.ClockEvent, cal generic.Calendar) []PointDTO {
	dtos := make([]PointDTO, len(events))
	for i, e := range events {
		dtos[i] = toPointDTO(e, cal)
	}
	return dtos
}

// =============================================================================
// REPORTS
// =============================================================================

type PeriodDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// EntryDTO is one point inside a day, shown as local wall-clock time.
type EntryDTO struct {
	Time string `json:"time"`
	Type string `json:"type"`
}

type DayDTO struct {
	Date       string     `json:"date_point"`
	ISODate    string     `json:"date"`
	Weekday    string     `json:"weekday"`
	Entries    []EntryDTO `json:"timestamp"`
	Worked     string     `json:"worked_hours"`
	Expected   string     `json:"expected_hours"`
	IsComplete bool       `json:"is_complete"`
}

type ReportDTO struct {
	User           UserRefDTO `json:"user"`
	StartDate      string     `json:"start_date"`
	EndDate        string     `json:"end_date"`
	Period         PeriodDTO  `json:"period"`
	Schedule       string     `json:"schedule"`
	Days           []DayDTO   `json:"days"`
	Points         []PointDTO `json:"points"`
	TotalWorked    string     `json:"total_worked"`
	ExpectedHours  string     `json:"expected_hours"`
	RemainingHours string     `json:"remaining_hours"`
	ExtraHours     string     `json:"extra_hours"`
	WorkedDays     int        `json:"worked_days"`
	IsComplete     bool       `json:"is_complete"`
	GeneratedAt    string     `json:"generated_at"`
}

// SummaryDTO is the daily summary: today's points and whether the day's
// expected hours are met.
type SummaryDTO struct {
	Date           string     `json:"date"`
	Weekday        string     `json:"weekday"`
	Points         []PointDTO `json:"points"`
	TotalWorked    string     `json:"total_worked"`
	ExpectedHours  string     `json:"expected_hours"`
	RemainingHours string     `json:"remaining_hours"`
	IsComplete     bool       `json:"is_complete"`
}

func toReportDTO(r *timesheet.Report, cal generic.Calendar) ReportDTO {
	loc := calendarLocation(cal)
	days := make([]DayDTO, len(r.Days))
	for i, d := range r.Days {
		entries := make([]EntryDTO, len(d.Events))
		for j, e := range d.Events {
			entries[j] = EntryDTO{Time: e.At.In(loc).Format("15:04:05"), Type: string(e.Kind)}
		}
		shown := d.Balance.ToDisplay(2)
		days[i] = DayDTO{
			Date:       d.Date.Format(displayDate),
			ISODate:    d.Date.String(),
			Weekday:    d.Weekday,
			Entries:    entries,
			Worked:     shown.Worked.String(),
			Expected:   shown.Expected.String(),
			IsComplete: shown.Complete,
		}
	}

	totals := r.Totals()
	return ReportDTO{
		User: UserRefDTO{
			ID:        string(r.User.ID),
			FirstName: r.User.FirstName,
			LastName:  r.User.LastName,
		},
		StartDate:      r.Period.Start.Format(displayDate),
		EndDate:        r.Period.End.Format(displayDate),
		Period:         PeriodDTO{Start: r.Period.Start.String(), End: r.Period.End.String()},
		Schedule:       string(r.Schedule),
		Days:           days,
		Points:         toPointDTOs(r.Points, cal),
		TotalWorked:    totals.Worked.String(),
		ExpectedHours:  totals.Expected.String(),
		RemainingHours: totals.Remaining.String(),
		ExtraHours:     totals.Extra.String(),
		WorkedDays:     r.WorkedDays(),
		IsComplete:     totals.Complete,
		GeneratedAt:    r.GeneratedAt.In(loc).Format(time.RFC3339),
	}
}

func toSummaryDTO(r *timesheet.Report, cal generic.Calendar) SummaryDTO {
	totals := r.Totals()
	dto := SummaryDTO{
		Date:           r.Period.Start.Format(displayDate),
		Points:         toPointDTOs(r.Points, cal),
		TotalWorked:    totals.Worked.String(),
		ExpectedHours:  totals.Expected.String(),
		RemainingHours: totals.Remaining.String(),
		IsComplete:     totals.Complete,
	}
	if len(r.Days) > 0 {
		dto.Weekday = r.Days[0].Weekday
	}
	return dto
}

func calendarLocation(cal generic.Calendar) *time.Location {
	if cal.Location == nil {
		return time.UTC
	}
	return cal.Location
}

// =============================================================================
// SCENARIOS & ERRORS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// LoadScenarioResponse lists the users the scenario created and the period
// its points cover.
type LoadScenarioResponse struct {
	Status   string    `json:"status"`
	Scenario string    `json:"scenario"`
	Period   PeriodDTO `json:"period"`
	Users    []UserDTO `json:"users"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
