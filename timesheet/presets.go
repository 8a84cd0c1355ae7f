package timesheet

import (
	"encoding/json"
	"fmt"
)

// Preset names accepted by schedule.preset.
const (
	PresetDefault         = "default"
	PresetWorkingSaturday = "working-saturday"
)

// PresetSchedulesJSON returns the schedules document registered at startup
// on top of the built-in table.
func PresetSchedulesJSON(name string) (string, error) {
	switch name {
	case PresetDefault, "":
		return DefaultSchedulesJSON(), nil
	case PresetWorkingSaturday:
		return WorkingSaturdaySchedulesJSON(), nil
	}
	return "", fmt.Errorf("unknown schedule preset %q", name)
}

// =============================================================================
// SCHEDULE PRESETS - JSON documents for factory.ScheduleFactory
// =============================================================================

// WeeklyScheduleJSON returns JSON for a weekday-periodic schedule. Hours
// are decimal; Monday to Friday share weekday.
func WeeklyScheduleJSON(code, name string, weekday, saturday, sunday float64) string {
	sj := map[string]interface{}{
		"code": code,
		"name": name,
		"weekly": map[string]interface{}{
			"monday":    weekday,
			"tuesday":   weekday,
			"wednesday": weekday,
			"thursday":  weekday,
			"friday":    weekday,
			"saturday":  saturday,
			"sunday":    sunday,
		},
	}
	b, _ := json.MarshalIndent(sj, "", "  ")
	return string(b)
}

// CycleScheduleJSON returns JSON for a schedule that repeats pattern day by
// day from a user's anchor.
func CycleScheduleJSON(code, name string, pattern ...float64) string {
	sj := map[string]interface{}{
		"code":  code,
		"name":  name,
		"cycle": pattern,
	}
	b, _ := json.MarshalIndent(sj, "", "  ")
	return string(b)
}

// DefaultSchedulesJSON is the built-in table as a schedules document.
func DefaultSchedulesJSON() string {
	return schedulesDocument(
		WeeklyScheduleJSON("5x1", "5 days on, weekend off", 8, 0, 0),
		sixByOneJSON(),
		WeeklyScheduleJSON("4h", "4 hours, Monday to Saturday", 4, 4, 0),
		WeeklyScheduleJSON("6h", "6 hours, Monday to Saturday", 6, 6, 0),
		CycleScheduleJSON("12x36", "12 hours on, 36 off", 12, 0),
	)
}

// WorkingSaturdaySchedulesJSON replaces 5x1 with a table that expects 8h on
// Saturday as well.
func WorkingSaturdaySchedulesJSON() string {
	return schedulesDocument(
		WeeklyScheduleJSON("5x1", "5x1 with working Saturday", 8, 8, 0),
	)
}

// sixByOneJSON spells 7h20m as a duration string; 7.33 hours would drift.
func sixByOneJSON() string {
	day := "7h20m"
	sj := map[string]interface{}{
		"code": "6x1",
		"name": "6 days on, 1 off",
		"weekly": map[string]interface{}{
			"monday": day, "tuesday": day, "wednesday": day,
			"thursday": day, "friday": day, "saturday": day,
			"sunday": 0,
		},
	}
	b, _ := json.MarshalIndent(sj, "", "  ")
	return string(b)
}

func schedulesDocument(schedules ...string) string {
	raw := make([]json.RawMessage, len(schedules))
	for i, s := range schedules {
		raw[i] = json.RawMessage(s)
	}
	b, _ := json.MarshalIndent(map[string]interface{}{"schedules": raw}, "", "  ")
	return string(b)
}
