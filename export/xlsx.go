package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/warp/timeclock-engine/generic"
	"github.com/warp/timeclock-engine/timesheet"
)

const (
	daysSheet   = "Timesheet"
	pointsSheet = "Points"
)

// WriteXLSX renders r as a workbook with a per-day sheet and a points sheet.
func WriteXLSX(w io.Writer, r *timesheet.Report, loc *time.Location) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(daysSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")
	if _, err := f.NewSheet(pointsSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	boldStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})

	// Title block
	f.SetCellValue(daysSheet, "A1", "Timesheet - "+r.User.FullName())
	f.SetCellStyle(daysSheet, "A1", "A1", boldStyle)
	f.SetCellValue(daysSheet, "A2", "Period")
	f.SetCellValue(daysSheet, "B2", periodText(r.Period))
	f.SetCellValue(daysSheet, "A3", "Schedule")
	f.SetCellValue(daysSheet, "B3", string(r.Schedule))

	// Per-day table
	headers := []string{"Date", "Weekday", "Points", "Worked (h)", "Expected (h)", "Balance (h)"}
	const headerRow = 5
	for i, h := range headers {
		cell(f, daysSheet, i+1, headerRow, h)
	}
	f.SetCellStyle(daysSheet, cellName(1, headerRow), cellName(len(headers), headerRow), headerStyle)
	f.SetColWidth(daysSheet, "A", "B", 14)
	f.SetColWidth(daysSheet, "C", "C", 48)
	f.SetColWidth(daysSheet, "D", "F", 14)

	row := headerRow + 1
	for _, day := range r.Days {
		cell(f, daysSheet, 1, row, day.Date.Format(dateLayout))
		cell(f, daysSheet, 2, row, day.Weekday)
		cell(f, daysSheet, 3, row, pointsText(day.Events, loc))
		cell(f, daysSheet, 4, row, hoursValue(day.Balance.Worked))
		cell(f, daysSheet, 5, row, hoursValue(day.Balance.Expected))
		cell(f, daysSheet, 6, row, statusText(day.Balance))
		row++
	}

	// Totals
	totals := r.Totals()
	row++
	for _, t := range []struct {
		label string
		value interface{}
	}{
		{"Total worked", totals.Worked.Float64()},
		{"Expected", totals.Expected.Float64()},
		{"Remaining", totals.Remaining.Float64()},
		{"Extra", totals.Extra.Float64()},
		{"Complete", totals.Complete},
	} {
		cell(f, daysSheet, 1, row, t.label)
		cell(f, daysSheet, 4, row, t.value)
		f.SetCellStyle(daysSheet, cellName(1, row), cellName(1, row), boldStyle)
		row++
	}

	// Raw points
	pointHeaders := []string{"Date", "Time", "Kind", "Source", "Latitude", "Longitude", "ID"}
	for i, h := range pointHeaders {
		cell(f, pointsSheet, i+1, 1, h)
	}
	f.SetCellStyle(pointsSheet, cellName(1, 1), cellName(len(pointHeaders), 1), headerStyle)
	f.SetColWidth(pointsSheet, "A", "F", 12)
	f.SetColWidth(pointsSheet, "G", "G", 38)
	for i, p := range r.Points {
		at := p.At.In(location(loc))
		row := i + 2
		cell(f, pointsSheet, 1, row, at.Format(dateLayout))
		cell(f, pointsSheet, 2, row, at.Format(timeLayout))
		cell(f, pointsSheet, 3, row, string(p.Kind))
		cell(f, pointsSheet, 4, row, string(p.Source))
		if p.Location != nil {
			cell(f, pointsSheet, 5, row, p.Location.Latitude)
			cell(f, pointsSheet, 6, row, p.Location.Longitude)
		}
		cell(f, pointsSheet, 7, row, string(p.ID))
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("render xlsx: %w", err)
	}
	return nil
}

func hoursValue(d time.Duration) float64 {
	return generic.HoursFromDuration(d).Round(2).Float64()
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func cell(f *excelize.File, sheet string, col, row int, value interface{}) {
	f.SetCellValue(sheet, cellName(col, row), value)
}
