/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	users and a month of clock points. Each scenario shows one schedule's
	balance behaviour in the reports.

AVAILABLE SCENARIOS:

	full-time:     5x1 user working exactly 8h every weekday (complete)
	overtime:      6x1 user working 8h Monday to Saturday (extra hours)
	part-time:     4h user clocking weekdays only (Saturdays remain owed)
	shift-worker:  12x36 user working 07:00-19:00 on every on-day (complete)
	team:          all of the above

HOW SCENARIOS WORK:
 1. Reset database (clear all users and points)
 2. Create users through the service (schedule codes are validated)
 3. Register points for every working day of the previous calendar month,
    through the same registrar the API uses, so in/out kinds are derived

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "team"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler and error mapping
  - generic/ledger.go: Registrar used to seed points
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/warp/timeclock-engine/generic"
	"github.com/warp/timeclock-engine/timesheet"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// shift is one in/out pair as offsets from local midnight.
type shift struct {
	in, out time.Duration
}

func hm(h, m int) time.Duration { return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute }

var officeHours = []shift{{hm(8, 0), hm(12, 0)}, {hm(13, 0), hm(17, 0)}}

type seedUser struct {
	firstName, lastName, email string
	schedule                   generic.ScheduleCode
	// anchored users get the period's first day as their 12x36 on-day.
	anchored bool
	shifts   []shift
	// works reports whether the user clocks in on d.
	works func(d generic.Date, s generic.Schedule) bool
}

type scenario struct {
	ScenarioDTO
	users []seedUser
}

func onScheduledDays(d generic.Date, s generic.Schedule) bool { return s.Expected(d) > 0 }

func onWeekdays(d generic.Date, _ generic.Schedule) bool { return d.WeekdayIndex() < 5 }

var (
	fullTimeUser = seedUser{
		firstName: "Ana", lastName: "Souza", email: "ana.souza@example.com",
		schedule: generic.Schedule5x1, shifts: officeHours, works: onScheduledDays,
	}
	overtimeUser = seedUser{
		firstName: "Bruno", lastName: "Lima", email: "bruno.lima@example.com",
		schedule: generic.Schedule6x1, shifts: officeHours, works: onScheduledDays,
	}
	partTimeUser = seedUser{
		firstName: "Carla", lastName: "Dias", email: "carla.dias@example.com",
		schedule: generic.Schedule4h, shifts: []shift{{hm(5, 54), hm(9, 54)}}, works: onWeekdays,
	}
	shiftWorker = seedUser{
		firstName: "Diego", lastName: "Alves", email: "diego.alves@example.com",
		schedule: generic.Schedule12x36, anchored: true,
		shifts: []shift{{hm(7, 0), hm(19, 0)}}, works: onScheduledDays,
	}
)

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "full-time",
			Name:        "Full Time (5x1)",
			Description: "8h every weekday; the month closes with no hours owed",
			Category:    "weekly",
		},
		users: []seedUser{fullTimeUser},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "overtime",
			Name:        "Overtime (6x1)",
			Description: "8h Monday to Saturday against 7h20 expected; extra hours accumulate",
			Category:    "weekly",
		},
		users: []seedUser{overtimeUser},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "part-time",
			Name:        "Part Time (4h)",
			Description: "05:54-09:54 on weekdays only; Saturdays stay owed",
			Category:    "weekly",
		},
		users: []seedUser{partTimeUser},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "shift-worker",
			Name:        "Shift Worker (12x36)",
			Description: "07:00-19:00 on every other day, anchored on the 1st",
			Category:    "cycle",
		},
		users: []seedUser{shiftWorker},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "team",
			Name:        "Team",
			Description: "One user per schedule",
			Category:    "mixed",
		},
		users: []seedUser{fullTimeUser, overtimeUser, partTimeUser, shiftWorker},
	},
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the last loaded scenario, or null.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	s, ok := findScenario(current)
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, s.ScenarioDTO)
}

// LoadScenario resets the database and seeds the requested scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	s, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("scenario %q", req.ScenarioID))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		h.writeServiceError(w, r, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	period := previousMonth(h.Service.Calendar.Today(h.Service.Now()))
	users, err := h.loadScenario(ctx, s, period)
	if err != nil {
		h.writeServiceError(w, r, "Failed to load scenario", err)
		return
	}
	h.currentScenario = s.ID

	h.Logger.Info("scenario loaded",
		zap.String("scenario", s.ID),
		zap.Stringer("period", period),
		zap.Int("users", len(users)))

	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = toUserDTO(u)
	}
	writeJSON(w, http.StatusOK, LoadScenarioResponse{
		Status:   "loaded",
		Scenario: s.ID,
		Period:   PeriodDTO{Start: period.Start.String(), End: period.End.String()},
		Users:    dtos,
	})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadScenario(ctx context.Context, s scenario, period generic.Period) ([]timesheet.User, error) {
	users := make([]timesheet.User, 0, len(s.users))
	for _, seed := range s.users {
		u, err := h.seedUser(ctx, seed, period)
		if err != nil {
			return nil, fmt.Errorf("seed %s %s: %w", seed.firstName, seed.lastName, err)
		}
		users = append(users, *u)
	}
	return users, nil
}

func (h *Handler) seedUser(ctx context.Context, seed seedUser, period generic.Period) (*timesheet.User, error) {
	in := timesheet.CreateUserInput{
		FirstName:    seed.firstName,
		LastName:     seed.lastName,
		Email:        seed.email,
		ScheduleCode: seed.schedule,
	}
	if seed.anchored {
		anchor := period.Start
		in.ShiftAnchor = &anchor
	}
	user, err := h.Service.CreateUser(ctx, in)
	if err != nil {
		return nil, err
	}

	schedule, err := h.Service.Resolver.Resolve(user.ScheduleCode, user.ShiftAnchor)
	if err != nil {
		return nil, err
	}

	loc := calendarLocation(h.Service.Calendar)
	for _, d := range period.Days() {
		if !seed.works(d, schedule) {
			continue
		}
		midnight := d.StartIn(loc)
		for _, sh := range seed.shifts {
			for _, offset := range []time.Duration{sh.in, sh.out} {
				ts := midnight.Add(offset)
				if _, err := h.Service.RegisterPoint(ctx, generic.RegisterInput{UserID: user.ID, At: &ts}); err != nil {
					return nil, err
				}
			}
		}
	}
	return user, nil
}

// previousMonth is the full calendar month before today's.
func previousMonth(today generic.Date) generic.Period {
	firstOfMonth := generic.NewDate(today.Year(), today.Month(), 1)
	end := firstOfMonth.AddDays(-1)
	return generic.Period{Start: generic.NewDate(end.Year(), end.Month(), 1), End: end}
}
