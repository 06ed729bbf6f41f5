package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/staffdesk/internal/api"
)

type jsonExport[T any] struct {
	ExportedAt string `json:"exported_at"`
	Kind       string `json:"kind"`
	Count      int    `json:"count"`
	Items      []T    `json:"items"`
}

type jsonAttendance struct {
	ID         string  `json:"id"`
	Date       string  `json:"date"`
	CheckIns   int     `json:"check_ins"`
	FirstIn    string  `json:"first_in,omitempty"`
	LastOut    string  `json:"last_out,omitempty"`
	TotalHours float64 `json:"total_hours"`
	Duration   string  `json:"duration"`
	Status     string  `json:"status"`
}

func AttendanceToJSON(records []api.AttendanceRecord, path string) error {
	var items []jsonAttendance
	for _, r := range records {
		first, last := span(r)
		items = append(items, jsonAttendance{
			ID:         r.ID,
			Date:       r.Day(),
			CheckIns:   len(r.TimeLogs),
			FirstIn:    first,
			LastOut:    last,
			TotalHours: r.TotalHours,
			Duration:   formatDuration(hoursToSecs(r.TotalHours)),
			Status:     r.Status,
		})
	}
	return writeJSON("attendance", items, path)
}

// LeavesToJSON and OTToJSON write the records as the API returned them.
func LeavesToJSON(requests []api.LeaveRequest, path string) error {
	return writeJSON("leave", requests, path)
}

func OTToJSON(reports []api.OTReport, path string) error {
	return writeJSON("overtime", reports, path)
}

func writeJSON[T any](kind string, items []T, path string) error {
	export := jsonExport[T]{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Kind:       kind,
		Count:      len(items),
		Items:      items,
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

// FileName builds "staffdesk-<kind>-<date>.<ext>".
func FileName(kind, ext string, now time.Time) string {
	return fmt.Sprintf("staffdesk-%s-%s.%s", kind, now.Format("2006-01-02"), ext)
}
