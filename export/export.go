/*
Package export renders timesheet reports as downloadable documents.

FORMATS:
  WritePDF:  one-page-per-month A4 summary (go-pdf/fpdf)
  WriteXLSX: workbook with a per-day sheet and a raw points sheet (excelize)

Both renderers only format what timesheet.Report already computed; no
hours are recalculated here. Times are shown in the given location.

SEE ALSO:
  - timesheet/service.go: Report assembly
  - api/handlers.go: /report/pdf and /report/xlsx
*/
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/warp/timeclock-engine/generic"
	"github.com/warp/timeclock-engine/timesheet"
)

const (
	dateLayout = "02/01/2006"
	timeLayout = "15:04"
)

// Filename suggests a download name such as
// timesheet_ana-souza_2024-01-01_2024-01-31.pdf.
func Filename(r *timesheet.Report, ext string) string {
	name := strings.ToLower(strings.Join(strings.Fields(r.User.FullName()), "-"))
	if name == "" {
		name = string(r.User.ID)
	}
	return fmt.Sprintf("timesheet_%s_%s_%s.%s", name, r.Period.Start, r.Period.End, ext)
}

func hoursText(d time.Duration) string {
	return generic.HoursFromDuration(d).Round(2).String()
}

func periodText(p generic.Period) string {
	return p.Start.Format(dateLayout) + " - " + p.End.Format(dateLayout)
}

// pointsText lists a day's points as "08:00 in, 12:00 out".
func pointsText(events []generic.ClockEvent, loc *time.Location) string {
	parts := make([]string, len(events))
	for i, e := range events {
		parts[i] = e.At.In(location(loc)).Format(timeLayout) + " " + string(e.Kind)
	}
	return strings.Join(parts, ", ")
}

func statusText(b generic.Balance) string {
	switch {
	case b.Extra > 0:
		return "+" + hoursText(b.Extra)
	case b.Remaining > 0:
		return "-" + hoursText(b.Remaining)
	}
	return "0.00"
}

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
