package api

import (
	"context"
	"net/http"
	"time"
)

// Check toggles check-in/check-out for today and returns the updated record.
func (c *Client) Check(ctx context.Context, token string) (*AttendanceRecord, error) {
	return send[AttendanceRecord](ctx, c, http.MethodPost, "/attendance/check", nil, token, nil)
}

func (c *Client) History(ctx context.Context, token string, opts ListOptions) (*AttendancePage, error) {
	return send[AttendancePage](ctx, c, http.MethodGet, "/attendance/history", opts.values(), token, nil)
}

func (c *Client) AdminAttendance(ctx context.Context, token string, opts ListOptions) (*AdminAttendancePage, error) {
	return send[AdminAttendancePage](ctx, c, http.MethodGet, "/attendance/admin/all", opts.values(), token, nil)
}

// TodayRecord picks the record whose date is now's local calendar day.
func TodayRecord(records []AttendanceRecord, now time.Time) (AttendanceRecord, bool) {
	today := now.Format("2006-01-02")
	for _, r := range records {
		if r.Day() == today {
			return r, true
		}
	}
	return AttendanceRecord{}, false
}
