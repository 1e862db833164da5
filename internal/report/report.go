package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"campusattend/internal/attendance"
)

// Format is an attendance report output format.
type Format string

const (
	JSON Format = "json"
	CSV  Format = "csv"
)

// ParseFormat resolves a query value. Anything but csv, including the pdf and
// excel formats older clients still request, renders as JSON.
func ParseFormat(s string) Format {
	if Format(strings.ToLower(strings.TrimSpace(s))) == CSV {
		return CSV
	}
	return JSON
}

// Filename is the attachment name for a course report.
func Filename(courseCode string, f Format) string {
	return courseCode + "_attendance_report." + string(f)
}

// Header lists the CSV columns in order.
var Header = []string{"Student", "Status", "Date", "Time", "Location", "Verified"}

// WriteCSV renders rows with one line per record, timestamps in UTC.
func WriteCSV(w io.Writer, rows []attendance.ReportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		ts := r.CreatedAt.UTC()
		if err := cw.Write([]string{
			r.StudentID,
			string(r.Status),
			ts.Format("2006-01-02"),
			ts.Format("15:04:05"),
			formatCoord(r.Latitude) + ", " + formatCoord(r.Longitude),
			strconv.FormatBool(r.Verified),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
