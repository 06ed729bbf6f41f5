package api

import (
	"encoding/json"
	"fmt"
	"time"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Status is the approval lifecycle shared by leave requests and OT reports.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

type LeaveType string

const (
	LeaveSick   LeaveType = "sick"
	LeaveAnnual LeaveType = "annual"
)

var LeaveTypes = []string{string(LeaveSick), string(LeaveAnnual)}

// Attendance record statuses.
const (
	AttendancePending   = "pending"
	AttendanceCompleted = "completed"
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// UnmarshalJSON accepts both "id" and "_id".
func (u *User) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID    string `json:"id"`
		MID   string `json:"_id"`
		Email string `json:"email"`
		Role  Role   `json:"role"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	u.ID, u.Email, u.Role = raw.ID, raw.Email, raw.Role
	if u.ID == "" {
		u.ID = raw.MID
	}
	return nil
}

// EmployeeRef is an employee as embedded in another record. The server sends
// either a bare id string or a populated object.
type EmployeeRef struct {
	ID    string `json:"_id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

func (e *EmployeeRef) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &e.ID)
	}
	if string(b) == "null" {
		return nil
	}
	type plain EmployeeRef
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*e = EmployeeRef(p)
	return nil
}

// Label is what a list row shows for the employee.
func (e EmployeeRef) Label() string {
	switch {
	case e.Email != "":
		return e.Email
	case e.Name != "":
		return e.Name
	default:
		return e.ID
	}
}

type LeaveRequest struct {
	ID           string      `json:"_id"`
	Employee     EmployeeRef `json:"employeeId"`
	Type         LeaveType   `json:"type"`
	Reason       string      `json:"reason"`
	StartDate    string      `json:"startDate"`
	EndDate      string      `json:"endDate"`
	Status       Status      `json:"status"`
	Note         string      `json:"note,omitempty"`
	RejectReason string      `json:"rejectReason,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
}

func (l *LeaveRequest) validate() error {
	if l.ID == "" {
		return fmt.Errorf("leave request without _id")
	}
	if l.Status == "" {
		return fmt.Errorf("leave request %s without status", l.ID)
	}
	return nil
}

type OTReport struct {
	ID           string      `json:"_id"`
	Employee     EmployeeRef `json:"employeeId"`
	Date         string      `json:"date"`
	StartTime    string      `json:"startTime"`
	EndTime      string      `json:"endTime"`
	TotalHours   float64     `json:"totalHours"`
	Reason       string      `json:"reason"`
	Project      string      `json:"project"`
	Tasks        string      `json:"tasks"`
	Status       Status      `json:"status"`
	Note         string      `json:"note,omitempty"`
	RejectReason string      `json:"rejectReason,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
}

func (o *OTReport) validate() error {
	if o.ID == "" {
		return fmt.Errorf("ot report without _id")
	}
	if o.Status == "" {
		return fmt.Errorf("ot report %s without status", o.ID)
	}
	return nil
}

type TimeLog struct {
	ID       string     `json:"_id,omitempty"`
	CheckIn  time.Time  `json:"checkIn"`
	CheckOut *time.Time `json:"checkOut"`
	Duration float64    `json:"duration"` // hours
}

type AttendanceRecord struct {
	ID         string      `json:"_id"`
	Employee   EmployeeRef `json:"employeeId"`
	Date       string      `json:"date"`
	TimeLogs   []TimeLog   `json:"timeLogs"`
	TotalHours float64     `json:"totalHours"`
	Status     string      `json:"status"`
}

func (a *AttendanceRecord) validate() error {
	if a.ID == "" {
		return fmt.Errorf("attendance record without _id")
	}
	if a.Date == "" {
		return fmt.Errorf("attendance record %s without date", a.ID)
	}
	return nil
}

// Day returns the YYYY-MM-DD part of the record date.
func (a AttendanceRecord) Day() string { return DatePart(a.Date) }

// CheckedIn reports whether the last time log is still open.
func (a AttendanceRecord) CheckedIn() bool {
	if len(a.TimeLogs) == 0 {
		return false
	}
	return a.TimeLogs[len(a.TimeLogs)-1].CheckOut == nil
}

// AdminAttendanceRecord is a record as listed to administrators.
type AdminAttendanceRecord struct {
	AttendanceRecord
	EmployeeInfo EmployeeRef `json:"employee"`
}

// EmployeeLabel prefers the populated employee object.
func (a AdminAttendanceRecord) EmployeeLabel() string {
	if l := a.EmployeeInfo.Label(); l != "" {
		return l
	}
	return a.Employee.Label()
}

type AttendanceStatistics struct {
	TotalEmployees     int     `json:"totalEmployees"`
	AverageHoursPerDay float64 `json:"averageHoursPerDay"`
	PresentToday       int     `json:"presentToday"`
}

type ShiftSlot struct {
	EmployeeID string `json:"employeeId"`
	Name       string `json:"name"`
	Position   string `json:"position"`
}

type Shifts struct {
	Morning   []ShiftSlot `json:"morning"`
	Afternoon []ShiftSlot `json:"afternoon"`
}

type ScheduleDay struct {
	Date   string `json:"date"`
	Shifts Shifts `json:"shifts"`
}

type Schedule struct {
	ID        string        `json:"_id"`
	WeekStart string        `json:"weekStart"`
	WeekEnd   string        `json:"weekEnd"`
	Days      []ScheduleDay `json:"days"`
}

func (s *Schedule) validate() error {
	if s.WeekStart == "" || s.WeekEnd == "" {
		return fmt.Errorf("schedule without week bounds")
	}
	return nil
}

type Notification struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

func (n *Notification) validate() error {
	if n.ID == "" {
		return fmt.Errorf("notification without _id")
	}
	return nil
}

// DatePart trims an ISO timestamp down to its date.
func DatePart(s string) string {
	if len(s) >= 10 {
		return s[:10]
	}
	return s
}
