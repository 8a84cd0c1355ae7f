/*
balance.go - Worked vs expected hours for a period

PURPOSE:
  Combines the worked total of a period with the schedule's expected hours
  for each of its days and answers "how much is still owed?" and "how much
  overtime was done?".

KEY INSIGHT:
  Deficit and surplus net against each other across the WHOLE period, not
  per day. A short Monday and a long Tuesday cancel out. Consequently a
  balance is never simultaneously short and over:

    Remaining = max(0, Expected - Worked)
    Extra     = max(0, Worked - Expected)

COMPLETION:
  A period (or day) is complete iff Remaining == 0.

PRECISION:
  Everything here is time.Duration. Conversion to decimal hours and
  rounding to 2 places only happens in ToDisplay.

SEE ALSO:
  - worked.go: TotalWorked
  - schedule.go: Schedule.Expected
*/
package generic

import "time"

// =============================================================================
// BALANCE - Computed for a PERIOD
// =============================================================================

type Balance struct {
	Worked    time.Duration
	Expected  time.Duration
	Remaining time.Duration
	Extra     time.Duration
}

// Complete reports whether nothing remains to be worked.
func (b Balance) Complete() bool { return b.Remaining == 0 }

// CalculateBalance nets worked against the sum of expectedPerDay.
func CalculateBalance(worked time.Duration, expectedPerDay []time.Duration) Balance {
	if worked < 0 {
		worked = 0
	}
	var expected time.Duration
	for _, e := range expectedPerDay {
		expected += e
	}

	b := Balance{Worked: worked, Expected: expected}
	if expected > worked {
		b.Remaining = expected - worked
	} else {
		b.Extra = worked - expected
	}
	return b
}

// ExpectedPerDay returns schedule.Expected for each bucket's date.
func ExpectedPerDay(schedule Schedule, buckets []DayBucket) []time.Duration {
	expected := make([]time.Duration, len(buckets))
	for i, b := range buckets {
		expected[i] = schedule.Expected(b.Date)
	}
	return expected
}

// PeriodBalance is the balance of a whole set of buckets.
func PeriodBalance(schedule Schedule, buckets []DayBucket) Balance {
	return CalculateBalance(TotalWorked(buckets), ExpectedPerDay(schedule, buckets))
}

// DayBalance is the balance of a single bucket.
func DayBalance(schedule Schedule, bucket DayBucket) Balance {
	return CalculateBalance(WorkedDuration(bucket), []time.Duration{schedule.Expected(bucket.Date)})
}

// =============================================================================
// USER-FACING BALANCE DISPLAY
// =============================================================================

// BalanceDisplay is what reports show: hours rounded for display.
type BalanceDisplay struct {
	Worked    Amount
	Expected  Amount
	Remaining Amount
	Extra     Amount
	Complete  bool
}

// ToDisplay converts to decimal hours rounded to places.
func (b Balance) ToDisplay(places int32) BalanceDisplay {
	return BalanceDisplay{
		Worked:    HoursFromDuration(b.Worked).Round(places),
		Expected:  HoursFromDuration(b.Expected).Round(places),
		Remaining: HoursFromDuration(b.Remaining).Round(places),
		Extra:     HoursFromDuration(b.Extra).Round(places),
		Complete:  b.Complete(),
	}
}
