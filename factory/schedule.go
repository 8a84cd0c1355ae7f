/*
Package factory provides JSON to Go schedule conversion.

PURPOSE:
  Converts JSON schedule definitions into generic.ScheduleDefinition values.
  The expected-hours table is data: a deployment can replace or extend the
  built-in 5x1/6x1/12x36/4h/6h table without code changes.

JSON SCHEMA:
  [
    {
      "code": "5x1",
      "name": "5 days on, weekend off",
      "weekly": {"monday": 8, "tuesday": 8, "wednesday": 8,
                 "thursday": 8, "friday": 8, "saturday": 0, "sunday": 0}
    },
    {
      "code": "6x1",
      "weekly": {"monday": "7h20m", "tuesday": "7h20m", ...}
    },
    {
      "code": "12x36",
      "cycle": [12, 0]
    }
  ]

  A document may also be an object {"schedules": [...]}.

HOURS:
  Numbers are decimal hours (7.5). Strings are Go durations ("7h20m") or
  decimal hours ("7.5"). Missing weekdays are 0.

USAGE:
  f := factory.NewScheduleFactory()
  defs, err := f.LoadFile("schedules.json")
  for _, def := range defs {
      resolver.Register(def)
  }

SEE ALSO:
  - generic/schedule.go: ScheduleDefinition, ScheduleResolver
  - timesheet/presets.go: ready-made JSON documents
*/
package factory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/timeclock-engine/generic"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ScheduleJSON is the JSON representation of a schedule definition.
type ScheduleJSON struct {
	Code   string      `json:"code"`
	Name   string      `json:"name,omitempty"`
	Weekly *WeeklyJSON `json:"weekly,omitempty"`
	Cycle  []Hours     `json:"cycle,omitempty"`
}

// WeeklyJSON holds expected hours per weekday.
type WeeklyJSON struct {
	Monday    Hours `json:"monday"`
	Tuesday   Hours `json:"tuesday"`
	Wednesday Hours `json:"wednesday"`
	Thursday  Hours `json:"thursday"`
	Friday    Hours `json:"friday"`
	Saturday  Hours `json:"saturday"`
	Sunday    Hours `json:"sunday"`
}

type schedulesDocument struct {
	Schedules []ScheduleJSON `json:"schedules"`
}

// Hours is a duration that reads decimal hours or Go duration strings.
type Hours time.Duration

var nanosPerHour = decimal.NewFromInt(int64(time.Hour))

func (h *Hours) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*h = 0
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return h.parse(s)
	}
	return h.parse(raw)
}

func (h *Hours) parse(s string) error {
	s = strings.TrimSpace(s)
	if d, err := decimal.NewFromString(s); err == nil {
		*h = Hours(d.Mul(nanosPerHour).IntPart())
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid hours %q: want decimal hours or a duration like 7h20m", s)
	}
	*h = Hours(d)
	return nil
}

// MarshalJSON writes decimal hours rounded to 4 places.
func (h Hours) MarshalJSON() ([]byte, error) {
	return []byte(generic.HoursFromDuration(time.Duration(h)).Value.Round(4).String()), nil
}

// =============================================================================
// SCHEDULE FACTORY
// =============================================================================

// ScheduleFactory converts JSON schedules to Go structs.
type ScheduleFactory struct{}

// NewScheduleFactory creates a new schedule factory.
func NewScheduleFactory() *ScheduleFactory {
	return &ScheduleFactory{}
}

// ParseSchedule parses a single JSON schedule.
func (f *ScheduleFactory) ParseSchedule(jsonStr string) (generic.ScheduleDefinition, error) {
	var sj ScheduleJSON
	if err := json.Unmarshal([]byte(jsonStr), &sj); err != nil {
		return generic.ScheduleDefinition{}, fmt.Errorf("failed to parse schedule JSON: %w", err)
	}
	return f.FromJSON(sj)
}

// ParseSchedules parses a JSON array of schedules, or {"schedules": [...]}.
func (f *ScheduleFactory) ParseSchedules(data []byte) ([]generic.ScheduleDefinition, error) {
	var list []ScheduleJSON
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("{")) {
		var doc schedulesDocument
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse schedules JSON: %w", err)
		}
		list = doc.Schedules
	} else if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, fmt.Errorf("failed to parse schedules JSON: %w", err)
	}

	seen := make(map[string]bool, len(list))
	defs := make([]generic.ScheduleDefinition, 0, len(list))
	for _, sj := range list {
		if seen[sj.Code] {
			return nil, fmt.Errorf("schedule %s defined twice", sj.Code)
		}
		seen[sj.Code] = true

		def, err := f.FromJSON(sj)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// LoadFile reads and parses a schedules document from disk.
func (f *ScheduleFactory) LoadFile(path string) ([]generic.ScheduleDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedules file: %w", err)
	}
	return f.ParseSchedules(data)
}

// FromJSON converts ScheduleJSON to a validated generic.ScheduleDefinition.
func (f *ScheduleFactory) FromJSON(sj ScheduleJSON) (generic.ScheduleDefinition, error) {
	def := generic.ScheduleDefinition{
		Code: generic.ScheduleCode(strings.TrimSpace(sj.Code)),
		Name: sj.Name,
	}
	if sj.Weekly != nil {
		w := sj.Weekly
		hours := [7]time.Duration{
			time.Duration(w.Monday),
			time.Duration(w.Tuesday),
			time.Duration(w.Wednesday),
			time.Duration(w.Thursday),
			time.Duration(w.Friday),
			time.Duration(w.Saturday),
			time.Duration(w.Sunday),
		}
		def.Weekly = &hours
	}
	for _, h := range sj.Cycle {
		def.Cycle = append(def.Cycle, time.Duration(h))
	}
	if err := def.Validate(); err != nil {
		return generic.ScheduleDefinition{}, err
	}
	return def, nil
}

// ToJSON is the inverse of FromJSON.
func ToJSON(def generic.ScheduleDefinition) ScheduleJSON {
	sj := ScheduleJSON{Code: string(def.Code), Name: def.Name}
	if def.Weekly != nil {
		w := def.Weekly
		sj.Weekly = &WeeklyJSON{
			Monday:    Hours(w[0]),
			Tuesday:   Hours(w[1]),
			Wednesday: Hours(w[2]),
			Thursday:  Hours(w[3]),
			Friday:    Hours(w[4]),
			Saturday:  Hours(w[5]),
			Sunday:    Hours(w[6]),
		}
	}
	for _, h := range def.Cycle {
		sj.Cycle = append(sj.Cycle, Hours(h))
	}
	return sj
}
