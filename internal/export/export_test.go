package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sadopc/staffdesk/internal/api"
)

func sampleAttendance() []api.AttendanceRecord {
	in := time.Date(2026, 10, 13, 9, 0, 0, 0, time.UTC)
	out := in.Add(8 * time.Hour)
	return []api.AttendanceRecord{
		{
			ID:         "a1",
			Date:       "2026-10-13T00:00:00.000Z",
			TimeLogs:   []api.TimeLog{{CheckIn: in, CheckOut: &out, Duration: 8}},
			TotalHours: 8,
			Status:     api.AttendanceCompleted,
		},
		{
			ID:       "a2",
			Date:     "2026-10-14",
			TimeLogs: []api.TimeLog{{CheckIn: in.Add(24 * time.Hour)}}, // still open
			Status:   api.AttendancePending,
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return records
}

// ============================================================
// CSV
// ============================================================

func TestAttendanceToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attendance.csv")
	if err := AttendanceToCSV(sampleAttendance(), path); err != nil {
		t.Fatalf("AttendanceToCSV: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 3 {
		t.Fatalf("expected 3 rows (1 header + 2 data), got %d", len(records))
	}

	expectedHeader := []string{"ID", "Date", "Check-ins", "First In", "Last Out", "Total Hours", "Duration", "Status"}
	for i, h := range expectedHeader {
		if records[0][i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}

	row := records[1]
	if row[1] != "2026-10-13" {
		t.Fatalf("Date = %q, want 2026-10-13", row[1])
	}
	if row[2] != "1" {
		t.Fatalf("Check-ins = %q, want 1", row[2])
	}
	if row[5] != "8.00" {
		t.Fatalf("Total Hours = %q, want 8.00", row[5])
	}
	if row[6] != "08:00:00" {
		t.Fatalf("Duration = %q, want 08:00:00", row[6])
	}

	// Open record has no check-out yet.
	if records[2][4] != "" {
		t.Fatalf("open record should have empty last out, got %q", records[2][4])
	}
}

func TestAttendanceToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := AttendanceToCSV(nil, path); err != nil {
		t.Fatal(err)
	}
	if records := readCSV(t, path); len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestLeavesToCSV(t *testing.T) {
	leaves := []api.LeaveRequest{{
		ID:        "l1",
		Employee:  api.EmployeeRef{ID: "e1", Email: "ana@example.com"},
		Type:      api.LeaveAnnual,
		Reason:    `trip with "family", abroad`,
		StartDate: "2026-11-02",
		EndDate:   "2026-11-04",
		Status:    api.StatusPending,
	}}
	path := filepath.Join(t.TempDir(), "leave.csv")
	if err := LeavesToCSV(leaves, path); err != nil {
		t.Fatal(err)
	}

	records := readCSV(t, path)
	row := records[1]
	if row[1] != "ana@example.com" {
		t.Fatalf("Employee = %q", row[1])
	}
	if row[6] != `trip with "family", abroad` {
		t.Fatalf("Reason not round-tripped: %q", row[6])
	}
	if row[7] != "" {
		t.Fatalf("zero CreatedAt should be empty, got %q", row[7])
	}
}

func TestOTToCSV(t *testing.T) {
	reports := []api.OTReport{{
		ID:         "o1",
		Employee:   api.EmployeeRef{ID: "e1"},
		Date:       "2026-10-10T00:00:00Z",
		StartTime:  "18:00",
		EndTime:    "20:30",
		TotalHours: 2.5,
		Project:    "Payroll",
		Status:     api.StatusApproved,
	}}
	path := filepath.Join(t.TempDir(), "ot.csv")
	if err := OTToCSV(reports, path); err != nil {
		t.Fatal(err)
	}

	row := readCSV(t, path)[1]
	if row[1] != "e1" {
		t.Fatalf("Employee = %q, want id fallback", row[1])
	}
	if row[2] != "2026-10-10" {
		t.Fatalf("Date = %q", row[2])
	}
	if row[5] != "2.50" {
		t.Fatalf("Hours = %q", row[5])
	}
}

func TestToCSVBadPath(t *testing.T) {
	if err := AttendanceToCSV(nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// JSON
// ============================================================

func TestAttendanceToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attendance.json")
	if err := AttendanceToJSON(sampleAttendance(), path); err != nil {
		t.Fatalf("AttendanceToJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var result jsonExport[jsonAttendance]
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if result.Kind != "attendance" {
		t.Fatalf("kind = %q", result.Kind)
	}
	if result.Count != 2 || len(result.Items) != 2 {
		t.Fatalf("count = %d, items = %d", result.Count, len(result.Items))
	}
	if result.ExportedAt == "" {
		t.Fatal("exported_at should not be empty")
	}
	if result.Items[0].Duration != "08:00:00" {
		t.Fatalf("duration = %q", result.Items[0].Duration)
	}
	if result.Items[1].LastOut != "" {
		t.Fatalf("open record should have no last_out, got %q", result.Items[1].LastOut)
	}
}

func TestLeavesToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leave.json")
	leaves := []api.LeaveRequest{{ID: "l1", Type: api.LeaveSick, Status: api.StatusRejected, RejectReason: "No cover"}}
	if err := LeavesToJSON(leaves, path); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	var result jsonExport[api.LeaveRequest]
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatal(err)
	}
	if result.Count != 1 || result.Items[0].RejectReason != "No cover" {
		t.Fatalf("unexpected export: %+v", result)
	}
}

func TestToJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := OTToJSON(nil, path); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	var result jsonExport[api.OTReport]
	json.Unmarshal(data, &result)
	if result.Count != 0 {
		t.Fatalf("expected count 0, got %d", result.Count)
	}
}

func TestToJSONBadPath(t *testing.T) {
	if err := LeavesToJSON(nil, "/nonexistent/dir/file.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// HELPERS
// ============================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		hours float64
		want  string
	}{
		{0, "00:00:00"},
		{0.5, "00:30:00"},
		{1.25, "01:15:00"},
		{7.999, "07:59:56"},
		{25, "25:00:00"},
	}
	for _, tt := range tests {
		got := formatDuration(hoursToSecs(tt.hours))
		if got != tt.want {
			t.Errorf("formatDuration(%v h) = %q, want %q", tt.hours, got, tt.want)
		}
	}
}

func TestFileName(t *testing.T) {
	got := FileName("leave", "csv", time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC))
	if got != "staffdesk-leave-2026-10-14.csv" {
		t.Fatalf("FileName = %q", got)
	}
}
