package export

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/warp/timeclock-engine/timesheet"
)

var pdfColumns = []struct {
	title string
	width float64
	align string
}{
	{"Date", 24, "L"},
	{"Weekday", 30, "L"},
	{"Points", 76, "L"},
	{"Worked", 20, "R"},
	{"Expected", 20, "R"},
}

// WritePDF renders r as an A4 document.
func WritePDF(w io.Writer, r *timesheet.Report, loc *time.Location) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Timesheet "+r.User.FullName(), true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Timesheet", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr("Employee: "+r.User.FullName()), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr("Email: "+r.User.Email), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Period: "+periodText(r.Period), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Schedule: "+string(r.Schedule), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	writeHeader := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(68, 114, 196)
		pdf.SetTextColor(255, 255, 255)
		for _, c := range pdfColumns {
			pdf.CellFormat(c.width, 7, c.title, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "", 9)
	}
	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			writeHeader()
		}
	})
	writeHeader()

	for _, day := range r.Days {
		cells := []string{
			day.Date.Format(dateLayout),
			tr(day.Weekday),
			pointsText(day.Events, loc),
			hoursText(day.Balance.Worked),
			hoursText(day.Balance.Expected),
		}
		for i, c := range pdfColumns {
			pdf.CellFormat(c.width, 6, cells[i], "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	totals := r.Totals()
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 10)
	summary := []struct{ label, value string }{
		{"Total worked", totals.Worked.String() + " h"},
		{"Expected", totals.Expected.String() + " h"},
		{"Remaining", totals.Remaining.String() + " h"},
		{"Extra", totals.Extra.String() + " h"},
		{"Complete", fmt.Sprintf("%t", totals.Complete)},
	}
	for _, s := range summary {
		pdf.CellFormat(40, 6, s.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, s.value, "", 1, "R", false, 0, "")
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(0, 5, "Generated "+r.GeneratedAt.In(location(loc)).Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}
