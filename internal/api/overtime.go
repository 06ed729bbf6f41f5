package api

import (
	"context"
	"net/http"

	"github.com/sadopc/staffdesk/internal/validator"
)

// OTInput is the body of an OT create or update. Every field is required.
type OTInput struct {
	Date       string  `json:"date"`
	StartTime  string  `json:"startTime"`
	EndTime    string  `json:"endTime"`
	TotalHours float64 `json:"totalHours"`
	Reason     string  `json:"reason"`
	Project    string  `json:"project"`
	Tasks      string  `json:"tasks"`
}

func (in OTInput) Validate() error {
	var errs validator.ValidationErrors
	errs.Required("date", in.Date)
	errs.Required("startTime", in.StartTime)
	errs.Required("endTime", in.EndTime)
	if in.TotalHours <= 0 {
		errs.Add("totalHours", "totalHours must be greater than 0")
	}
	errs.Required("reason", in.Reason)
	errs.Required("project", in.Project)
	errs.Required("tasks", in.Tasks)
	if len(errs) > 0 {
		return errs
	}

	if _, ok := validator.IsValidDate(in.Date); !ok {
		errs.Add("date", "date must be YYYY-MM-DD")
	}
	if !validator.IsValidClock(in.StartTime) {
		errs.Add("startTime", "startTime must be HH:MM")
	}
	if !validator.IsValidClock(in.EndTime) {
		errs.Add("endTime", "endTime must be HH:MM")
	}
	return errs.Err()
}

func (c *Client) ListOT(ctx context.Context, token string, opts ListOptions) (*OTPage, error) {
	return send[OTPage](ctx, c, http.MethodGet, "/ot-reports", opts.values(), token, nil)
}

func (c *Client) CreateOT(ctx context.Context, token string, in OTInput) (*OTReport, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return send[OTReport](ctx, c, http.MethodPost, "/ot-reports", nil, token, in)
}

func (c *Client) GetOT(ctx context.Context, token, id string) (*OTReport, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return send[OTReport](ctx, c, http.MethodGet, "/ot-reports/"+escape(id), nil, token, nil)
}

func (c *Client) UpdateOT(ctx context.Context, token, id string, in OTInput) (*OTReport, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return send[OTReport](ctx, c, http.MethodPut, "/ot-reports/"+escape(id), nil, token, in)
}

func (c *Client) AdminListOT(ctx context.Context, token string, opts ListOptions) (*OTPage, error) {
	return send[OTPage](ctx, c, http.MethodGet, "/ot-reports/admin/all", opts.values(), token, nil)
}

func (c *Client) AdminGetOT(ctx context.Context, token, id string) (*OTReport, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return send[OTReport](ctx, c, http.MethodGet, "/ot-reports/admin/details/"+escape(id), nil, token, nil)
}

func (c *Client) ApproveOT(ctx context.Context, token, id string, in ApproveInput) error {
	if err := requireID(id); err != nil {
		return err
	}
	if validator.IsEmpty(in.Note) {
		in.Note = DefaultApproveNote
	}
	return c.exec(ctx, http.MethodPost, "/ot-reports/admin/approve/"+escape(id), token, in)
}

func (c *Client) RejectOT(ctx context.Context, token, id string, in RejectInput) error {
	if err := requireID(id); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	return c.exec(ctx, http.MethodPost, "/ot-reports/admin/reject/"+escape(id), token, in)
}
