/*
Package generic provides the worked-hours accrual engine.

PURPOSE:
  This package contains the domain types and pure algorithms that turn a
  user's clock-in/clock-out points into worked, expected, remaining and
  extra hours for a period. Storage, HTTP and rendering live elsewhere;
  they feed ordered ClockEvents in and format the results that come out.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity of hours backed by decimal.Decimal
  - ClockEvent: An immutable clock-in or clock-out point
  - PointKind: "in" or "out", always derived, never caller-supplied
  - UserID / PointID: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Immutability: ClockEvents are appended, never edited or deleted
  2. Precision: Durations accumulate exactly; decimals only for display
  3. Type Safety: Strong typing for IDs and kinds
  4. Determinism: Every calculator is a pure function of its input

USAGE:
  buckets, err := generic.GroupByDay(events, period, cal)
  worked := generic.TotalWorked(buckets)
  hours := generic.HoursFromDuration(worked).Round(2)

SEE ALSO:
  - grouping.go: Day Grouper
  - worked.go: Worked-Hours Calculator
  - schedule.go: Schedule Policy Resolver
  - balance.go: Balance Calculator
  - ledger.go: Point Registration state machine
*/
package generic

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity of time with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitHours   Unit = "hours"
	UnitMinutes Unit = "minutes"
)

var nanosPerHour = decimal.NewFromInt(int64(time.Hour))

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

// HoursFromDuration converts an exact duration into hours without rounding.
func HoursFromDuration(d time.Duration) Amount {
	return Amount{Value: decimal.NewFromInt(int64(d)).Div(nanosPerHour), Unit: UnitHours}
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (a Amount) Add(b Amount) Amount { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) Neg() Amount { return Amount{Value: a.Value.Neg(), Unit: a.Unit} }
func (a Amount) IsZero() bool { return a.Value.IsZero() }
func (a Amount) IsPositive() bool { return a.Value.IsPositive() }
func (a Amount) IsNegative() bool { return a.Value.IsNegative() }
func (a Amount) Equal(b Amount) bool { return a.Value.Equal(b.Value) }
func (a Amount) GreaterThan(b Amount) bool { return a.Value.GreaterThan(b.Value) }
func (a Amount) Round(places int32) Amount { return Amount{Value: a.Value.Round(places), Unit: a.Unit} }
func (a Amount) Float64() float64 { f, _ := a.Value.Float64(); return f }
func (a Amount) String() string { return a.Value.StringFixed(2) }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID string
type PointID string

// =============================================================================
// CLOCK EVENT - One recorded clock-in or clock-out action
// =============================================================================

type PointKind string

const (
	KindIn  PointKind = "in"
	KindOut PointKind = "out"
)

// Opposite returns the kind that follows k in the in/out alternation.
func (k PointKind) Opposite() PointKind {
	if k == KindIn {
		return KindOut
	}
	return KindIn
}

func (k PointKind) Valid() bool { return k == KindIn || k == KindOut }

// PointSource records how a point entered the system.
type PointSource string

const (
	SourceAuto   PointSource = "auto"   // registered "now" by the user
	SourceManual PointSource = "manual" // registered at an explicit timestamp
)

// GeoLocation is where an automatic point was registered.
type GeoLocation struct {
	Latitude  float64
	Longitude float64
}

// Valid reports whether the coordinates are inside WGS84 bounds.
func (g GeoLocation) Valid() bool {
	return g.Latitude >= -90 && g.Latitude <= 90 && g.Longitude >= -180 && g.Longitude <= 180
}

// ClockEvent is immutable once created. Events of one user are ordered by At.
type ClockEvent struct {
	ID             PointID
	UserID         UserID
	At             time.Time
	Kind           PointKind
	Source         PointSource
	Location       *GeoLocation
	IdempotencyKey string
	CreatedAt      time.Time
}
