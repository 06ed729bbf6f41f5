package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sadopc/staffdesk/internal/validator"
)

type CreateScheduleInput struct {
	WeekStart string        `json:"weekStart"`
	WeekEnd   string        `json:"weekEnd"`
	Days      []ScheduleDay `json:"days"`
}

func (in CreateScheduleInput) Validate() error {
	var errs validator.ValidationErrors
	start, okStart := validator.IsValidDate(in.WeekStart)
	if !okStart {
		errs.Add("weekStart", "weekStart must be YYYY-MM-DD")
	}
	end, okEnd := validator.IsValidDate(in.WeekEnd)
	if !okEnd {
		errs.Add("weekEnd", "weekEnd must be YYYY-MM-DD")
	}
	if okStart && okEnd && end.Before(start) {
		errs.Add("weekEnd", "weekEnd must not be before weekStart")
	}
	if len(in.Days) == 0 {
		errs.Add("days", "days is required")
	}
	for i, d := range in.Days {
		if _, ok := validator.IsValidDate(d.Date); !ok {
			errs.Add(fmt.Sprintf("days[%d].date", i), "day date must be YYYY-MM-DD")
			continue
		}
		for _, slot := range append(append([]ShiftSlot{}, d.Shifts.Morning...), d.Shifts.Afternoon...) {
			if validator.IsEmpty(slot.EmployeeID) {
				errs.Add(fmt.Sprintf("days[%d]", i), d.Date+": every shift entry needs an employee id")
				break
			}
		}
	}
	return errs.Err()
}

// NextWeekInput returns an empty schedule for the week starting next
// Sunday: seven days, no shifts assigned.
func NextWeekInput(now time.Time) CreateScheduleInput {
	y, m, d := now.Date()
	start := time.Date(y, m, d+7-int(now.Weekday()), 0, 0, 0, 0, now.Location())
	in := CreateScheduleInput{
		WeekStart: start.Format("2006-01-02"),
		WeekEnd:   start.AddDate(0, 0, 6).Format("2006-01-02"),
	}
	for i := range 7 {
		in.Days = append(in.Days, ScheduleDay{
			Date:   start.AddDate(0, 0, i).Format("2006-01-02"),
			Shifts: Shifts{Morning: []ShiftSlot{}, Afternoon: []ShiftSlot{}},
		})
	}
	return in
}

func (c *Client) CurrentSchedule(ctx context.Context, token string) (*Schedule, error) {
	return send[Schedule](ctx, c, http.MethodGet, "/schedules/current", nil, token, nil)
}

func (c *Client) CreateSchedule(ctx context.Context, token string, in CreateScheduleInput) (*Schedule, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return send[Schedule](ctx, c, http.MethodPost, "/schedules", nil, token, in)
}
