package mockapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sadopc/staffdesk/internal/api"
)

func pageParams(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}

func statusParam(r *http.Request) api.Status {
	return api.Status(r.URL.Query().Get("status"))
}

// otPagination spells the total the way the OT endpoints always have.
type otPagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalItems  int `json:"totalItems"`
	Limit       int `json:"limit"`
}

func toOTPagination(p api.Pagination) otPagination {
	return otPagination{CurrentPage: p.CurrentPage, TotalPages: p.TotalPages, TotalItems: p.Total, Limit: p.Limit}
}

// decodeOptional decodes a body that may be empty.
func decodeOptional(r *http.Request, v any) error {
	if err := decode(r, v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ============================================================
// Leave requests
// ============================================================

func (s *Server) listMyLeaves(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	items, p := s.data.listLeaves(callerFrom(r).ID, "", page, limit)
	success(w, "", api.LeavePage{Requests: items, Pagination: p})
}

func (s *Server) createLeave(w http.ResponseWriter, r *http.Request) {
	var in api.LeaveInput
	if err := decode(r, &in); err != nil {
		badRequest(w, "Invalid request format")
		return
	}
	if err := in.Validate(); err != nil {
		handleError(w, err)
		return
	}
	created(w, "Leave request created", s.data.createLeave(callerFrom(r).ID, in))
}

func (s *Server) getMyLeave(w http.ResponseWriter, r *http.Request) {
	l, err := s.data.getLeave(chi.URLParam(r, "id"), callerFrom(r).ID)
	if err != nil {
		handleError(w, err)
		return
	}
	success(w, "", l)
}

func (s *Server) updateLeave(w http.ResponseWriter, r *http.Request) {
	var in api.LeaveInput
	if err := decode(r, &in); err != nil {
		badRequest(w, "Invalid request format")
		return
	}
	if err := in.Validate(); err != nil {
		handleError(w, err)
		return
	}
	l, err := s.data.updateLeave(chi.URLParam(r, "id"), callerFrom(r).ID, in)
	if err != nil {
		handleError(w, err)
		return
	}
	success(w, "Leave request updated", l)
}

func (s *Server) deleteLeave(w http.ResponseWriter, r *http.Request) {
	if err := s.data.deleteLeave(chi.URLParam(r, "id"), callerFrom(r).ID); err != nil {
		handleError(w, err)
		return
	}
	success(w, "Leave request deleted", nil)
}

func (s *Server) listAllLeaves(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	items, p := s.data.listLeaves("", statusParam(r), page, limit)
	success(w, "", api.LeavePage{Requests: items, Pagination: p})
}

func (s *Server) getAnyLeave(w http.ResponseWriter, r *http.Request) {
	l, err := s.data.getLeave(chi.URLParam(r, "id"), "")
	if err != nil {
		handleError(w, err)
		return
	}
	success(w, "", l)
}

func (s *Server) approveLeave(w http.ResponseWriter, r *http.Request) {
	var in api.ApproveInput
	if err := decodeOptional(r, &in); err != nil {
		badRequest(w, "Invalid request format")
		return
	}
	l, err := s.data.decideLeave(chi.URLParam(r, "id"), api.StatusApproved, in.Note, "")
	if err != nil {
		handleError(w, err)
		return
	}
	success(w, "Leave request approved", l)
}

func (s *Server) rejectLeave(w http.ResponseWriter, r *http.Request) {
	var in api.RejectInput
	if err := decodeOptional(r, &in); err != nil {
		badRequest(w, "Invalid request format")
		return
	}
	if err := in.Validate(); err != nil {
		handleError(w, err)
		return
	}
	l, err := s.data.decideLeave(chi.URLParam(r, "id"), api.StatusRejected, "", in.Reason)
	if err != nil {
		handleError(w, err)
		return
	}
	success(w, "Leave request rejected", l)
}

// ============================================================
// OT reports
// ============================================================

type otPage struct {
	Reports    []api.OTReport `json:"reports"`
	Pagination otPagination   `json:"pagination"`
}

func (s *Server) listMyOT(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	items, p := s.data.listOT(callerFrom(r).ID, "", page, limit)
	success(w, "", otPage{Reports: items, Pagination: toOTPagination(p)})
}

func (s *Server) createOT(w http.ResponseWriter, r *http.Request) {
	var in api.OTInput
	if err := decode(r, &in); err != nil {
		badRequest(w, "Invalid request format")
		return
	}
	if err := in.Validate(); err != nil {
		handleError(w, err)
		return
	}
	created(w, "OT report created", s.data.createOT(callerFrom(r).ID, in))
}

func (s *Server) getMyOT(w http.ResponseWriter, r *http.Request) {
	o, err := s.data.getOT(chi.URLParam(r, "id"), callerFrom(r).ID)
	if err != nil {
		handleError(w, err)
		return
	}
	success(w, "", o)
}

func (s *Server) updateOT(w http.ResponseWriter, r *http.Request) {
	var in api.OTInput
	if err := decode(r, &in); err != nil {
		badRequest(w, "Invalid request format")
		return
	}
	if err := in.Validate(); err != nil {
		handleError(w, err)
		return
	}
	o, err := s.data.updateOT(chi.URLParam(r, "id"), callerFrom(r).ID, in)
	if err != nil {
		handleError(w, err)
		return
	}
	success(w, "OT report updated", o)
}

func (s *Server) listAllOT(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	items, p := s.data.listOT("", statusParam(r), page, limit)
	success(w, "", otPage{Reports: items, Pagination: toOTPagination(p)})
}

func (s *Server) getAnyOT(w http.ResponseWriter, r *http.Request) {
	o, err := s.data.getOT(chi.URLParam(r, "id"), "")
	if err != nil {
		handleError(w, err)
		return
	}
	success(w, "", o)
}

func (s *Server) approveOT(w http.ResponseWriter, r *http.Request) {
	var in api.ApproveInput
	if err := decodeOptional(r, &in); err != nil {
		badRequest(w, "Invalid request format")
		return
	}
	o, err := s.data.decideOT(chi.URLParam(r, "id"), api.StatusApproved, in.Note, "")
	if err != nil {
		handleError(w, err)
		return
	}
	success(w, "OT report approved", o)
}

func (s *Server) rejectOT(w http.ResponseWriter, r *http.Request) {
	var in api.RejectInput
	if err := decodeOptional(r, &in); err != nil {
		badRequest(w, "Invalid request format")
		return
	}
	if err := in.Validate(); err != nil {
		handleError(w, err)
		return
	}
	o, err := s.data.decideOT(chi.URLParam(r, "id"), api.StatusRejected, "", in.Reason)
	if err != nil {
		handleError(w, err)
		return
	}
	success(w, "OT report rejected", o)
}

// ============================================================
// Attendance
// ============================================================

func (s *Server) check(w http.ResponseWriter, r *http.Request) {
	rec := s.data.check(callerFrom(r).ID)
	msg := "Checked in"
	if !rec.CheckedIn() {
		msg = "Checked out"
	}
	success(w, msg, rec)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	items, p := s.data.history(callerFrom(r).ID, page, limit)
	success(w, "", api.AttendancePage{Records: items, Pagination: p})
}

func (s *Server) allAttendance(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	items, stats, p := s.data.allAttendance(page, limit)
	success(w, "", api.AdminAttendancePage{Records: items, Statistics: stats, Pagination: p})
}

// ============================================================
// Schedules and notifications
// ============================================================

func (s *Server) currentSchedule(w http.ResponseWriter, r *http.Request) {
	sc, err := s.data.currentSchedule()
	if err != nil {
		handleError(w, err)
		return
	}
	success(w, "", sc)
}

func (s *Server) createSchedule(w http.ResponseWriter, r *http.Request) {
	var in api.CreateScheduleInput
	if err := decode(r, &in); err != nil {
		badRequest(w, "Invalid request format")
		return
	}
	if err := in.Validate(); err != nil {
		handleError(w, err)
		return
	}
	sc, err := s.data.createSchedule(in)
	if err != nil {
		handleError(w, err)
		return
	}
	created(w, "Schedule created", sc)
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	items, p := s.data.notifications(callerFrom(r).ID, page, limit)
	success(w, "", api.NotificationPage{Notifications: items, Pagination: p})
}
