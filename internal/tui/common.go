package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/staffdesk/internal/api"
	"github.com/sadopc/staffdesk/internal/session"
	"github.com/sadopc/staffdesk/internal/store"
	"github.com/sadopc/staffdesk/internal/validator"
)

// Backend is the part of *api.Client the screens use.
type Backend interface {
	Check(ctx context.Context, token string) (*api.AttendanceRecord, error)
	History(ctx context.Context, token string, opts api.ListOptions) (*api.AttendancePage, error)
	AdminAttendance(ctx context.Context, token string, opts api.ListOptions) (*api.AdminAttendancePage, error)

	ListLeaves(ctx context.Context, token string, opts api.ListOptions) (*api.LeavePage, error)
	CreateLeave(ctx context.Context, token string, in api.LeaveInput) (*api.LeaveRequest, error)
	GetLeave(ctx context.Context, token, id string) (*api.LeaveRequest, error)
	UpdateLeave(ctx context.Context, token, id string, in api.LeaveInput) (*api.LeaveRequest, error)
	DeleteLeave(ctx context.Context, token, id string) error
	AdminListLeaves(ctx context.Context, token string, opts api.ListOptions) (*api.LeavePage, error)
	AdminGetLeave(ctx context.Context, token, id string) (*api.LeaveRequest, error)
	ApproveLeave(ctx context.Context, token, id string, in api.ApproveInput) error
	RejectLeave(ctx context.Context, token, id string, in api.RejectInput) error

	ListOT(ctx context.Context, token string, opts api.ListOptions) (*api.OTPage, error)
	CreateOT(ctx context.Context, token string, in api.OTInput) (*api.OTReport, error)
	GetOT(ctx context.Context, token, id string) (*api.OTReport, error)
	UpdateOT(ctx context.Context, token, id string, in api.OTInput) (*api.OTReport, error)
	AdminListOT(ctx context.Context, token string, opts api.ListOptions) (*api.OTPage, error)
	AdminGetOT(ctx context.Context, token, id string) (*api.OTReport, error)
	ApproveOT(ctx context.Context, token, id string, in api.ApproveInput) error
	RejectOT(ctx context.Context, token, id string, in api.RejectInput) error

	CurrentSchedule(ctx context.Context, token string) (*api.Schedule, error)
	CreateSchedule(ctx context.Context, token string, in api.CreateScheduleInput) (*api.Schedule, error)

	ListNotifications(ctx context.Context, token string, opts api.ListOptions) (*api.NotificationPage, error)
}

// Sessions is satisfied by *session.Manager.
type Sessions interface {
	Login(ctx context.Context, email, password string) (*session.Session, error)
	Current() (*session.Session, error)
	Logout(s *session.Session) error
	LastEmail() string
}

// Settings is satisfied by *store.Store.
type Settings interface {
	GetSetting(key string) (string, error)
	GetSettingInt(key string, fallback int) int
	SetSetting(key, value string) error
	GetAllSettings() ([]store.Setting, error)
}

// env is shared by every screen. session changes at login and logout.
type env struct {
	backend  Backend
	sessions Sessions
	settings Settings
	session  *session.Session
	logger   *slog.Logger
	now      func() time.Time
	spin     spinner.Model
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// pageSize reads the page_size setting; a hand-edited value out of range
// falls back to the default or is capped.
func (e *env) pageSize() int {
	n := e.settings.GetSettingInt("page_size", defaultPageSize)
	if n < 1 {
		return defaultPageSize
	}
	return min(n, maxPageSize)
}

func (e *env) listOptions(page int) api.ListOptions {
	return api.ListOptions{Page: page, Limit: e.pageSize()}
}

// --- Messages ---

type loadedMsg[T any] struct {
	seq  uint64
	data T
	err  error
}

type submittedMsg struct {
	seq  uint64
	err  error
	text string // status shown on success
	data any    // result of a submitResult call
}

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

type loggedInMsg struct {
	session *session.Session
}

type logoutMsg struct{}

type sessionExpiredMsg struct{}

func setStatus(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: isError} }
}

// --- Remote state ---

type loadState int

const (
	stateLoading loadState = iota
	stateReady
	stateError
	stateSubmitting
)

var seqCounter atomic.Uint64

func nextSeq() uint64 { return seqCounter.Add(1) }

// remote is the Loading/Ready/Error/Submitting machine every screen embeds.
// Only the result carrying the current seq is applied.
type remote struct {
	state  loadState
	seq    uint64
	err    error
	notice string
	ctx    context.Context
}

func newRemote() remote {
	return remote{state: stateLoading, ctx: context.Background()}
}

func (r *remote) activate(ctx context.Context) {
	r.ctx = ctx
	r.notice = ""
}

func (r remote) ready() bool      { return r.state == stateReady }
func (r remote) failed() bool     { return r.state == stateError }
func (r remote) submitting() bool { return r.state == stateSubmitting }

// fetch enters Loading and returns the command that performs call.
func fetch[T any](r *remote, sess *session.Session, call func(ctx context.Context, token string) (T, error)) tea.Cmd {
	r.state = stateLoading
	r.err = nil
	r.seq = nextSeq()
	seq, ctx, token := r.seq, r.ctx, sess.Token()
	return func() tea.Msg {
		data, err := call(ctx, token)
		if sess.Observe(err) {
			return sessionExpiredMsg{}
		}
		return loadedMsg[T]{seq: seq, data: data, err: err}
	}
}

// loaded applies a fetch outcome and reports whether it was current.
func (r *remote) loaded(seq uint64, err error) bool {
	if seq != r.seq {
		return false
	}
	r.err = err
	if err != nil {
		r.state = stateError
	} else {
		r.state = stateReady
	}
	return true
}

// submit enters Submitting and returns the command that performs call.
// A mutation is not cancelled when the screen is left.
func submit(r *remote, sess *session.Session, done string, call func(ctx context.Context, token string) error) tea.Cmd {
	return submitResult(r, sess, func(struct{}) string { return done }, func(ctx context.Context, token string) (struct{}, error) {
		return struct{}{}, call(ctx, token)
	})
}

// submitResult is submit for a call whose result the screen keeps. The
// status text is derived from the result.
func submitResult[T any](r *remote, sess *session.Session, done func(T) string, call func(ctx context.Context, token string) (T, error)) tea.Cmd {
	r.state = stateSubmitting
	r.notice = ""
	r.seq = nextSeq()
	seq, ctx, token := r.seq, context.WithoutCancel(r.ctx), sess.Token()
	return func() tea.Msg {
		data, err := call(ctx, token)
		if sess.Observe(err) {
			return sessionExpiredMsg{}
		}
		msg := submittedMsg{seq: seq, err: err}
		if err == nil {
			msg.text, msg.data = done(data), data
		}
		return msg
	}
}

// submitted applies a mutation outcome and reports whether it was current.
// Either way the screen is Ready again; a failure becomes the notice.
func (r *remote) submitted(msg submittedMsg) bool {
	if msg.seq != r.seq {
		return false
	}
	r.state = stateReady
	r.notice = errorText(msg.err)
	return true
}

// reject records a validation failure. No call is made.
func (r *remote) reject(err error) tea.Cmd {
	r.notice = errorText(err)
	return setStatus(r.notice, true)
}

// render draws the state around the ready content.
func (r remote) render(spin spinner.Model, ready func() string) string {
	switch r.state {
	case stateLoading:
		return spin.View() + " " + mutedStyle.Render("Loading...")
	case stateError:
		return errorStyle.Render(errorText(r.err)) + "\n\n" + mutedStyle.Render("r: retry")
	}
	out := ready()
	if r.state == stateSubmitting {
		out += "\n\n" + spin.View() + " " + mutedStyle.Render("Submitting...")
	}
	if r.notice != "" {
		out += "\n\n" + errorStyle.Render(r.notice)
	}
	return out
}

// --- Helpers ---

// errorText is the message a user sees for err.
func errorText(err error) string {
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs.First()
	}
	if errors.Is(err, session.ErrNoRole) {
		return "This account has no role. Contact your administrator."
	}
	if errors.Is(err, api.ErrTransport) {
		return "Could not reach the server. Check your connection and try again."
	}
	if msg := api.ServerMessage(err); msg != "" {
		return msg
	}
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, api.ErrForbidden):
		return "You are not allowed to do that."
	case errors.Is(err, api.ErrNotFound):
		return "Not found."
	case errors.Is(err, api.ErrMalformedResponse):
		return "The server sent an unexpected response."
	}
	return "Something went wrong. Please try again."
}

func statusText(s api.Status) string {
	switch s {
	case api.StatusApproved:
		return "Approved"
	case api.StatusRejected:
		return "Rejected"
	default:
		return "Pending"
	}
}

func renderStatus(s api.Status) string {
	switch s {
	case api.StatusApproved:
		return successStyle.Render(statusText(s))
	case api.StatusRejected:
		return errorStyle.Render(statusText(s))
	default:
		return warningStyle.Render(statusText(s))
	}
}

func leaveTypeText(t api.LeaveType) string {
	switch t {
	case api.LeaveSick:
		return "Sick leave"
	case api.LeaveAnnual:
		return "Annual leave"
	default:
		return string(t)
	}
}

func formatHours(h float64) string {
	return fmt.Sprintf("%.1fh", h)
}

func formatClock(t time.Time) string {
	if t.IsZero() {
		return "--:--"
	}
	return t.Local().Format("15:04")
}

// formatDay renders a YYYY-MM-DD (or ISO timestamp) as "Mon 02 Jan".
func formatDay(s string) string {
	d, ok := validator.IsValidDate(api.DatePart(s))
	if !ok {
		return s
	}
	return d.Format("Mon 02 Jan")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
