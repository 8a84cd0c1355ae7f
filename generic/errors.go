/*
errors.go - Centralized error types for the accrual engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Outer packages wrap or translate these; the engine itself never catches
  and ignores a classification error.

ERROR CATEGORIES:
  1. Input errors - invalid ranges, unknown schedules, malformed timestamps
  2. Registration errors - idempotency replays, lock timeouts
  3. Lookup errors - missing users

USAGE:
  if errors.Is(err, generic.ErrUnknownSchedule) {
      // reject the request, never default the schedule
  }

SEE ALSO:
  - period.go: InvalidRangeError
  - schedule.go: UnknownScheduleError
  - api/handlers.go: HTTP status mapping
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRange is returned when a period's start is after its end or
	// the period is longer than the configured limit.
	ErrInvalidRange = errors.New("invalid range")

	// ErrUnknownSchedule is returned for schedule codes outside the registered
	// set, including an unset schedule.
	ErrUnknownSchedule = errors.New("unknown schedule")

	// ErrMalformedTimestamp is returned when an external date or timestamp
	// cannot be parsed.
	ErrMalformedTimestamp = errors.New("malformed timestamp")

	// ErrUserNotFound is returned when a referenced user doesn't exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateIdempotencyKey is returned by stores when a point with the
	// same idempotency key already exists.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrLockTimeout is returned when the per-user registration lock cannot
	// be acquired in time.
	ErrLockTimeout = errors.New("registration lock timeout")

	// ErrInvalidLocation is returned for coordinates outside WGS84 bounds.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrScheduleNotWeekly is returned when a weekday lookup is made against
	// a cycle schedule such as 12x36.
	ErrScheduleNotWeekly = errors.New("schedule is not weekday-periodic")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidRangeError reports a period whose start is after its end, or one
// longer than MaxDays when a limit applies.
type InvalidRangeError struct {
	Start   Date
	End     Date
	MaxDays int
}

func (e *InvalidRangeError) Error() string {
	if e.MaxDays > 0 {
		return fmt.Sprintf("invalid range: %s to %s spans more than %d days", e.Start, e.End, e.MaxDays)
	}
	return fmt.Sprintf("invalid range: start %s is after end %s", e.Start, e.End)
}

func (e *InvalidRangeError) Unwrap() error { return ErrInvalidRange }

// UnknownScheduleError reports a schedule code that cannot be resolved.
type UnknownScheduleError struct {
	Code ScheduleCode
}

func (e *UnknownScheduleError) Error() string {
	if e.Code == "" {
		return "unknown schedule: schedule not set"
	}
	return fmt.Sprintf("unknown schedule: %q", string(e.Code))
}

func (e *UnknownScheduleError) Unwrap() error { return ErrUnknownSchedule }

// MalformedTimestampError reports an unparsable date or timestamp.
type MalformedTimestampError struct {
	Value string
	Err   error
}

func (e *MalformedTimestampError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed timestamp %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("malformed timestamp %q", e.Value)
}

func (e *MalformedTimestampError) Unwrap() error { return ErrMalformedTimestamp }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrUnknownSchedule) ||
		errors.Is(err, ErrMalformedTimestamp) ||
		errors.Is(err, ErrInvalidLocation) ||
		errors.Is(err, ErrScheduleNotWeekly)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

// IsRetryable returns true if the caller may safely re-invoke the operation.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLockTimeout)
}

// ErrorKind maps an error to a stable label for logs.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRange):
		return "invalid_range"
	case errors.Is(err, ErrUnknownSchedule):
		return "unknown_schedule"
	case errors.Is(err, ErrMalformedTimestamp):
		return "malformed_timestamp"
	case errors.Is(err, ErrInvalidLocation):
		return "invalid_location"
	case errors.Is(err, ErrUserNotFound):
		return "not_found"
	case errors.Is(err, ErrDuplicateIdempotencyKey):
		return "duplicate"
	case errors.Is(err, ErrLockTimeout):
		return "lock_timeout"
	}
	return "unexpected"
}
