package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/staffdesk/internal/api"
)

// AttendanceToCSV writes one row per attendance record.
func AttendanceToCSV(records []api.AttendanceRecord, path string) error {
	rows := [][]string{{"ID", "Date", "Check-ins", "First In", "Last Out", "Total Hours", "Duration", "Status"}}
	for _, r := range records {
		first, last := span(r)
		rows = append(rows, []string{
			r.ID,
			r.Day(),
			strconv.Itoa(len(r.TimeLogs)),
			first,
			last,
			strconv.FormatFloat(r.TotalHours, 'f', 2, 64),
			formatDuration(hoursToSecs(r.TotalHours)),
			r.Status,
		})
	}
	return writeCSV(rows, path)
}

// LeavesToCSV writes one row per leave request.
func LeavesToCSV(requests []api.LeaveRequest, path string) error {
	rows := [][]string{{"ID", "Employee", "Type", "Start", "End", "Status", "Reason", "Created"}}
	for _, l := range requests {
		rows = append(rows, []string{
			l.ID,
			l.Employee.Label(),
			string(l.Type),
			l.StartDate,
			l.EndDate,
			string(l.Status),
			l.Reason,
			formatTime(l.CreatedAt),
		})
	}
	return writeCSV(rows, path)
}

// OTToCSV writes one row per OT report.
func OTToCSV(reports []api.OTReport, path string) error {
	rows := [][]string{{"ID", "Employee", "Date", "Start", "End", "Hours", "Project", "Tasks", "Status", "Reason"}}
	for _, o := range reports {
		rows = append(rows, []string{
			o.ID,
			o.Employee.Label(),
			api.DatePart(o.Date),
			o.StartTime,
			o.EndTime,
			strconv.FormatFloat(o.TotalHours, 'f', 2, 64),
			o.Project,
			o.Tasks,
			string(o.Status),
			o.Reason,
		})
	}
	return writeCSV(rows, path)
}

func writeCSV(rows [][]string, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// span returns the first check-in and last check-out of r, local time.
func span(r api.AttendanceRecord) (first, last string) {
	if len(r.TimeLogs) == 0 {
		return "", ""
	}
	first = formatTime(r.TimeLogs[0].CheckIn)
	if out := r.TimeLogs[len(r.TimeLogs)-1].CheckOut; out != nil {
		last = formatTime(*out)
	}
	return first, last
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(time.RFC3339)
}

func hoursToSecs(h float64) int64 {
	return int64(h*3600 + 0.5)
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
