/*
schedule.go - Schedule Policy Resolver

PURPOSE:
  Maps a user's schedule code to the hours they are expected to work on
  each calendar date. Most codes are weekday-periodic tables; 12x36
  (twelve hours on, thirty-six off) is a two-day cycle anchored to a
  known on-day and does NOT follow the weekday.

DEFAULT TABLE (Monday..Sunday):
  5x1    8h 8h 8h 8h 8h 0 0
  6x1    7h20m x6, 0
  4h     4h x6, 0
  6h     6h x6, 0
  12x36  [12h, 0] repeating from the anchor date

  The table is data, not code. factory.ParseSchedules builds replacement
  definitions from JSON and ScheduleResolver.Register swaps them in.

ANCHORS:
  A cycle schedule needs the date of one on-day. Users may carry their own
  anchor; otherwise the resolver's default anchor is used.

SEE ALSO:
  - balance.go: Consumes Schedule.Expected per day
  - factory/schedule.go: JSON definitions
*/
package generic

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// =============================================================================
// SCHEDULE CODES
// =============================================================================

type ScheduleCode string

const (
	Schedule5x1   ScheduleCode = "5x1"
	Schedule6x1   ScheduleCode = "6x1"
	Schedule12x36 ScheduleCode = "12x36"
	Schedule4h    ScheduleCode = "4h"
	Schedule6h    ScheduleCode = "6h"
)

// Schedule answers how long a user is expected to work on a date.
type Schedule interface {
	Code() ScheduleCode
	Expected(d Date) time.Duration
}

// =============================================================================
// WEEKLY SCHEDULE - Weekday-periodic table
// =============================================================================

// WeeklySchedule indexes expected hours by weekday, Monday=0 .. Sunday=6.
type WeeklySchedule struct {
	ScheduleCode ScheduleCode
	Hours        [7]time.Duration
}

func (w WeeklySchedule) Code() ScheduleCode { return w.ScheduleCode }

func (w WeeklySchedule) Expected(d Date) time.Duration { return w.Hours[d.WeekdayIndex()] }

// ForWeekday returns the expected hours for a Monday=0 .. Sunday=6 index.
func (w WeeklySchedule) ForWeekday(index int) (time.Duration, error) {
	if index < 0 || index > 6 {
		return 0, fmt.Errorf("weekday index %d out of range 0..6", index)
	}
	return w.Hours[index], nil
}

// =============================================================================
// CYCLE SCHEDULE - Repeating pattern anchored to a date
// =============================================================================

// CycleSchedule repeats Pattern day by day starting at Anchor (pattern
// index 0). Dates before the anchor continue the cycle backwards.
type CycleSchedule struct {
	ScheduleCode ScheduleCode
	Pattern      []time.Duration
	Anchor       Date
}

func (c CycleSchedule) Code() ScheduleCode { return c.ScheduleCode }

func (c CycleSchedule) position(d Date) int {
	n := len(c.Pattern)
	return ((DaysBetween(c.Anchor, d) % n) + n) % n
}

func (c CycleSchedule) Expected(d Date) time.Duration {
	if len(c.Pattern) == 0 {
		return 0
	}
	return c.Pattern[c.position(d)]
}

// IsOnDay reports whether any work is expected on d.
func (c CycleSchedule) IsOnDay(d Date) bool { return c.Expected(d) > 0 }

// =============================================================================
// SCHEDULE DEFINITION - A registered, anchor-free entry
// =============================================================================

// ScheduleDefinition describes a schedule before an anchor is bound.
// Exactly one of Weekly or Cycle is set.
type ScheduleDefinition struct {
	Code   ScheduleCode
	Name   string
	Weekly *[7]time.Duration
	Cycle  []time.Duration
}

func (d ScheduleDefinition) IsCycle() bool { return d.Weekly == nil }

func (d ScheduleDefinition) Validate() error {
	if d.Code == "" {
		return fmt.Errorf("schedule definition: code is required")
	}
	if (d.Weekly == nil) == (len(d.Cycle) == 0) {
		return fmt.Errorf("schedule %s: exactly one of weekly or cycle must be set", d.Code)
	}
	hours := d.Cycle
	if d.Weekly != nil {
		hours = d.Weekly[:]
	}
	for _, h := range hours {
		if h < 0 || h > 24*time.Hour {
			return fmt.Errorf("schedule %s: expected hours %v out of range", d.Code, h)
		}
	}
	return nil
}

func weekly(code ScheduleCode, name string, weekday, saturday, sunday time.Duration) ScheduleDefinition {
	hours := [7]time.Duration{weekday, weekday, weekday, weekday, weekday, saturday, sunday}
	return ScheduleDefinition{Code: code, Name: name, Weekly: &hours}
}

// DefaultDefinitions returns the built-in expected-hours table.
func DefaultDefinitions() []ScheduleDefinition {
	sixByOne := 7*time.Hour + 20*time.Minute
	return []ScheduleDefinition{
		weekly(Schedule5x1, "5 days on, weekend off", 8*time.Hour, 0, 0),
		weekly(Schedule6x1, "6 days on, 1 off", sixByOne, sixByOne, 0),
		weekly(Schedule4h, "4 hours, Monday to Saturday", 4*time.Hour, 4*time.Hour, 0),
		weekly(Schedule6h, "6 hours, Monday to Saturday", 6*time.Hour, 6*time.Hour, 0),
		{Code: Schedule12x36, Name: "12 hours on, 36 off", Cycle: []time.Duration{12 * time.Hour, 0}},
	}
}

// =============================================================================
// SCHEDULE RESOLVER - Registry of definitions
// =============================================================================

// ScheduleResolver maps codes to definitions. Safe for concurrent use.
type ScheduleResolver struct {
	mu            sync.RWMutex
	definitions   map[ScheduleCode]ScheduleDefinition
	defaultAnchor Date
}

// NewScheduleResolver creates a resolver holding defs. defaultAnchor is the
// on-day used for cycle schedules when the caller has none.
func NewScheduleResolver(defaultAnchor Date, defs ...ScheduleDefinition) (*ScheduleResolver, error) {
	r := &ScheduleResolver{
		definitions:   make(map[ScheduleCode]ScheduleDefinition),
		defaultAnchor: defaultAnchor,
	}
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultScheduleResolver holds DefaultDefinitions.
func DefaultScheduleResolver(defaultAnchor Date) *ScheduleResolver {
	r, err := NewScheduleResolver(defaultAnchor, DefaultDefinitions()...)
	if err != nil {
		panic(err)
	}
	return r
}

// Register adds or replaces a definition.
func (r *ScheduleResolver) Register(def ScheduleDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.definitions[def.Code] = def
	return nil
}

// Lookup returns UnknownScheduleError for unregistered or empty codes.
func (r *ScheduleResolver) Lookup(code ScheduleCode) (ScheduleDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[code]
	if !ok {
		return ScheduleDefinition{}, &UnknownScheduleError{Code: code}
	}
	return def, nil
}

// Resolve binds code to a Schedule. anchor is only used by cycle schedules;
// nil selects the resolver's default anchor.
func (r *ScheduleResolver) Resolve(code ScheduleCode, anchor *Date) (Schedule, error) {
	def, err := r.Lookup(code)
	if err != nil {
		return nil, err
	}
	if !def.IsCycle() {
		return WeeklySchedule{ScheduleCode: def.Code, Hours: *def.Weekly}, nil
	}
	a := r.DefaultAnchor()
	if anchor != nil && !anchor.IsZero() {
		a = *anchor
	}
	pattern := make([]time.Duration, len(def.Cycle))
	copy(pattern, def.Cycle)
	return CycleSchedule{ScheduleCode: def.Code, Pattern: pattern, Anchor: a}, nil
}

// ExpectedForWeekday answers the weekday table for weekday-periodic codes
// (Monday=0 .. Sunday=6). Cycle schedules have no weekday answer.
func (r *ScheduleResolver) ExpectedForWeekday(code ScheduleCode, weekday int) (time.Duration, error) {
	def, err := r.Lookup(code)
	if err != nil {
		return 0, err
	}
	if def.IsCycle() {
		return 0, fmt.Errorf("schedule %s is not weekday-periodic: %w", code, ErrScheduleNotWeekly)
	}
	return WeeklySchedule{ScheduleCode: def.Code, Hours: *def.Weekly}.ForWeekday(weekday)
}

func (r *ScheduleResolver) DefaultAnchor() Date {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultAnchor
}

// Definitions lists registered definitions ordered by code.
func (r *ScheduleResolver) Definitions() []ScheduleDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]ScheduleDefinition, 0, len(r.definitions))
	for _, def := range r.definitions {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Code < defs[j].Code })
	return defs
}

// Known reports whether code is registered.
func (r *ScheduleResolver) Known(code ScheduleCode) bool {
	_, err := r.Lookup(code)
	return err == nil
}
