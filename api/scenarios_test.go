/*
scenarios_test.go - Tests for demo scenarios

PURPOSE:
	Each scenario seeds the previous calendar month. With "now" fixed in
	February 2024, the month is January 2024: 23 weekdays, 4 Saturdays,
	4 Sundays, and 16 odd dates for a 12x36 worker anchored on the 1st.
*/
package api_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timeclock-engine/api"
)

func loadScenario(t *testing.T, ts *testServer, id string) api.LoadScenarioResponse {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/scenarios/load", api.LoadScenarioRequest{ScenarioID: id})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[api.LoadScenarioResponse](t, rec)
}

func januaryReport(t *testing.T, ts *testServer, userID string) api.ReportDTO {
	t.Helper()
	rec := ts.do(t, http.MethodGet, "/api/users/"+userID+"/report?start_date=2024-01-01&end_date=2024-01-31", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[api.ReportDTO](t, rec)
}

func TestScenario_Team(t *testing.T) {
	// GIVEN "now" in mid February 2024
	ts := newTestServer(t)
	ts.now = time.Date(2024, time.February, 15, 12, 0, 0, 0, time.UTC)

	// WHEN loading the team scenario
	loaded := loadScenario(t, ts, "team")

	// THEN January is seeded for one user per schedule
	assert.Equal(t, "loaded", loaded.Status)
	assert.Equal(t, api.PeriodDTO{Start: "2024-01-01", End: "2024-01-31"}, loaded.Period)
	require.Len(t, loaded.Users, 4)

	bySchedule := map[string]api.UserDTO{}
	for _, u := range loaded.Users {
		bySchedule[u.Schedule] = u
	}

	tests := []struct {
		schedule  string
		worked    string
		expected  string
		remaining string
		extra     string
		complete  bool
		days      int
	}{
		// 23 weekdays x 8h
		{"5x1", "184.00", "184.00", "0.00", "0.00", true, 23},
		// 27 days x 8h against 27 x 7h20
		{"6x1", "216.00", "198.00", "0.00", "18.00", true, 27},
		// 23 weekdays x 4h against 27 x 4h
		{"4h", "92.00", "108.00", "16.00", "0.00", false, 23},
		// 16 on-days x 12h
		{"12x36", "192.00", "192.00", "0.00", "0.00", true, 16},
	}
	for _, tt := range tests {
		t.Run(tt.schedule, func(t *testing.T) {
			u, ok := bySchedule[tt.schedule]
			require.True(t, ok)

			report := januaryReport(t, ts, u.ID)
			assert.Equal(t, tt.worked, report.TotalWorked)
			assert.Equal(t, tt.expected, report.ExpectedHours)
			assert.Equal(t, tt.remaining, report.RemainingHours)
			assert.Equal(t, tt.extra, report.ExtraHours)
			assert.Equal(t, tt.complete, report.IsComplete)
			assert.Equal(t, tt.days, report.WorkedDays)
		})
	}

	assert.Equal(t, "2024-01-01", bySchedule["12x36"].ShiftAnchor)

	// AND the current scenario is reported
	rec := ts.do(t, http.MethodGet, "/api/scenarios/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "team", decode[api.ScenarioDTO](t, rec).ID)
}

func TestScenario_LoadResetsPreviousData(t *testing.T) {
	ts := newTestServer(t)
	ts.now = time.Date(2024, time.February, 15, 12, 0, 0, 0, time.UTC)

	// GIVEN a user created by hand and a loaded scenario
	ts.createUser(t, "5x1")
	loadScenario(t, ts, "full-time")

	// WHEN another scenario is loaded
	loaded := loadScenario(t, ts, "shift-worker")

	// THEN only its user remains
	users := decode[[]api.UserDTO](t, ts.do(t, http.MethodGet, "/api/users", nil))
	require.Len(t, users, 1)
	assert.Equal(t, loaded.Users[0].ID, users[0].ID)
	assert.Equal(t, "12x36", users[0].Schedule)
}

func TestScenario_PointsAlternateEachDay(t *testing.T) {
	ts := newTestServer(t)
	ts.now = time.Date(2024, time.February, 15, 12, 0, 0, 0, time.UTC)
	loaded := loadScenario(t, ts, "full-time")

	rec := ts.do(t, http.MethodGet, "/api/users/"+loaded.Users[0].ID+"/points?start_date=2024-01-02&end_date=2024-01-02", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	points := decode[[]api.PointDTO](t, rec)

	require.Len(t, points, 4)
	for i, p := range points {
		want := "in"
		if i%2 == 1 {
			want = "out"
		}
		assert.Equal(t, want, p.Type)
		assert.Equal(t, "manual", p.Source)
	}
}

func TestScenario_ListAndUnknown(t *testing.T) {
	ts := newTestServer(t)

	list := decode[[]api.ScenarioDTO](t, ts.do(t, http.MethodGet, "/api/scenarios", nil))
	ids := make([]string, len(list))
	for i, s := range list {
		ids[i] = s.ID
	}
	assert.Equal(t, []string{"full-time", "overtime", "part-time", "shift-worker", "team"}, ids)

	rec := ts.do(t, http.MethodGet, "/api/scenarios/current", nil)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))

	rec = ts.do(t, http.MethodPost, "/api/scenarios/load", api.LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
