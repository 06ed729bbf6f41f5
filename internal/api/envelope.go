package api

import (
	"encoding/json"
	"fmt"
)

// envelope is the {success, message?, data} wrapper every endpoint uses.
// The older backend omitted success; a nil Success with data present is accepted.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e *envelope) hasData() bool {
	return len(e.Data) > 0 && string(e.Data) != "null"
}

func (e *envelope) message() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Error != nil {
		return e.Error.Message
	}
	return ""
}

// Pagination is the list metadata. Leave lists call the total "totalRecords",
// OT lists "totalItems"; both land in Total.
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	Total       int `json:"totalRecords"`
	Limit       int `json:"limit"`
}

func (p *Pagination) UnmarshalJSON(b []byte) error {
	var raw struct {
		CurrentPage  int  `json:"currentPage"`
		TotalPages   int  `json:"totalPages"`
		TotalRecords *int `json:"totalRecords"`
		TotalItems   *int `json:"totalItems"`
		Limit        int  `json:"limit"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p.CurrentPage, p.TotalPages, p.Limit = raw.CurrentPage, raw.TotalPages, raw.Limit
	switch {
	case raw.TotalRecords != nil:
		p.Total = *raw.TotalRecords
	case raw.TotalItems != nil:
		p.Total = *raw.TotalItems
	default:
		p.Total = 0
	}
	return nil
}

// ListOptions selects a page. Zero values let the server pick.
// Status narrows admin lists to one approval status.
type ListOptions struct {
	Page   int
	Limit  int
	Status Status
}

type LeavePage struct {
	Requests   []LeaveRequest `json:"requests"`
	Pagination Pagination     `json:"pagination"`
}

func (p *LeavePage) validate() error {
	if p.Requests == nil {
		return fmt.Errorf("missing requests")
	}
	for i := range p.Requests {
		if err := p.Requests[i].validate(); err != nil {
			return err
		}
	}
	return nil
}

type OTPage struct {
	Reports    []OTReport `json:"reports"`
	Pagination Pagination `json:"pagination"`
}

func (p *OTPage) validate() error {
	if p.Reports == nil {
		return fmt.Errorf("missing reports")
	}
	for i := range p.Reports {
		if err := p.Reports[i].validate(); err != nil {
			return err
		}
	}
	return nil
}

type AttendancePage struct {
	Records    []AttendanceRecord `json:"records"`
	Pagination Pagination         `json:"pagination"`
}

func (p *AttendancePage) validate() error {
	if p.Records == nil {
		return fmt.Errorf("missing records")
	}
	for i := range p.Records {
		if err := p.Records[i].validate(); err != nil {
			return err
		}
	}
	return nil
}

type AdminAttendancePage struct {
	Records    []AdminAttendanceRecord `json:"records"`
	Statistics AttendanceStatistics    `json:"statistics"`
	Pagination Pagination              `json:"pagination"`
}

func (p *AdminAttendancePage) validate() error {
	if p.Records == nil {
		return fmt.Errorf("missing records")
	}
	for i := range p.Records {
		if err := p.Records[i].validate(); err != nil {
			return err
		}
	}
	return nil
}

type NotificationPage struct {
	Notifications []Notification `json:"notifications"`
	Pagination    Pagination     `json:"pagination"`
}

func (p *NotificationPage) validate() error {
	if p.Notifications == nil {
		return fmt.Errorf("missing notifications")
	}
	for i := range p.Notifications {
		if err := p.Notifications[i].validate(); err != nil {
			return err
		}
	}
	return nil
}

// Unread counts notifications not yet read.
func (p NotificationPage) Unread() int {
	n := 0
	for _, note := range p.Notifications {
		if !note.IsRead {
			n++
		}
	}
	return n
}
