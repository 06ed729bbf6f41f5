package api

import (
	"context"
	"net/http"

	"github.com/sadopc/staffdesk/internal/validator"
)

// DefaultApproveNote is sent when an administrator approves without a note.
const DefaultApproveNote = "Request approved"

type LeaveInput struct {
	Type      LeaveType `json:"type"`
	Reason    string    `json:"reason"`
	StartDate string    `json:"startDate"`
	EndDate   string    `json:"endDate"`
}

func (in LeaveInput) Validate() error {
	var errs validator.ValidationErrors
	errs.Required("type", string(in.Type))
	errs.Required("reason", in.Reason)
	errs.Required("startDate", in.StartDate)
	errs.Required("endDate", in.EndDate)
	if len(errs) > 0 {
		return errs
	}

	if !validator.IsInSlice(string(in.Type), LeaveTypes) {
		errs.Add("type", "type must be sick or annual")
	}
	start, okStart := validator.IsValidDate(in.StartDate)
	if !okStart {
		errs.Add("startDate", "startDate must be YYYY-MM-DD")
	}
	end, okEnd := validator.IsValidDate(in.EndDate)
	if !okEnd {
		errs.Add("endDate", "endDate must be YYYY-MM-DD")
	}
	if okStart && okEnd && end.Before(start) {
		errs.Add("endDate", "endDate must not be before startDate")
	}
	return errs.Err()
}

type ApproveInput struct {
	Note string `json:"note"`
}

type RejectInput struct {
	Reason string `json:"reason"`
}

func (in RejectInput) Validate() error {
	var errs validator.ValidationErrors
	errs.Required("reason", in.Reason)
	return errs.Err()
}

func (c *Client) ListLeaves(ctx context.Context, token string, opts ListOptions) (*LeavePage, error) {
	return send[LeavePage](ctx, c, http.MethodGet, "/leave-requests/leaves", opts.values(), token, nil)
}

func (c *Client) CreateLeave(ctx context.Context, token string, in LeaveInput) (*LeaveRequest, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return send[LeaveRequest](ctx, c, http.MethodPost, "/leave-requests", nil, token, in)
}

func (c *Client) GetLeave(ctx context.Context, token, id string) (*LeaveRequest, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return send[LeaveRequest](ctx, c, http.MethodGet, "/leave-requests/"+escape(id), nil, token, nil)
}

// UpdateLeave edits a request. The server only accepts this while it is pending.
func (c *Client) UpdateLeave(ctx context.Context, token, id string, in LeaveInput) (*LeaveRequest, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return send[LeaveRequest](ctx, c, http.MethodPut, "/leave-requests/"+escape(id), nil, token, in)
}

func (c *Client) DeleteLeave(ctx context.Context, token, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return c.exec(ctx, http.MethodDelete, "/leave-requests/"+escape(id), token, nil)
}

func (c *Client) AdminListLeaves(ctx context.Context, token string, opts ListOptions) (*LeavePage, error) {
	return send[LeavePage](ctx, c, http.MethodGet, "/leave-requests/admin/all", opts.values(), token, nil)
}

func (c *Client) AdminGetLeave(ctx context.Context, token, id string) (*LeaveRequest, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return send[LeaveRequest](ctx, c, http.MethodGet, "/leave-requests/admin/details/"+escape(id), nil, token, nil)
}

// ApproveLeave approves a pending request. An empty note becomes DefaultApproveNote.
func (c *Client) ApproveLeave(ctx context.Context, token, id string, in ApproveInput) error {
	if err := requireID(id); err != nil {
		return err
	}
	if validator.IsEmpty(in.Note) {
		in.Note = DefaultApproveNote
	}
	return c.exec(ctx, http.MethodPost, "/leave-requests/admin/approve/"+escape(id), token, in)
}

func (c *Client) RejectLeave(ctx context.Context, token, id string, in RejectInput) error {
	if err := requireID(id); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	return c.exec(ctx, http.MethodPost, "/leave-requests/admin/reject/"+escape(id), token, in)
}
