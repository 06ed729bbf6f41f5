package tui

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/staffdesk/internal/api"
	"github.com/sadopc/staffdesk/internal/session"
	"github.com/sadopc/staffdesk/internal/store"
)

// fakeBackend keeps leave and OT state in memory and counts every call.
type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int
	opts  map[string]api.ListOptions // last options per list call
	fail  error                      // returned by every call while set

	leaves  []api.LeaveRequest
	reports []api.OTReport
	history []api.AttendanceRecord

	adminAttendance *api.AdminAttendancePage
	schedule        *api.Schedule
	notifications   []api.Notification

	approveNotes []string
	created      []api.CreateScheduleInput
	nextID       int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{calls: make(map[string]int), opts: make(map[string]api.ListOptions)}
}

func (f *fakeBackend) hit(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.fail
}

func (f *fakeBackend) list(name string, opts api.ListOptions) error {
	f.mu.Lock()
	f.opts[name] = opts
	f.mu.Unlock()
	return f.hit(name)
}

func (f *fakeBackend) lastOpts(name string) api.ListOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opts[name]
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeBackend) setFail(err error) {
	f.mu.Lock()
	f.fail = err
	f.mu.Unlock()
}

func (f *fakeBackend) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s%d", prefix, f.nextID)
}

func pagination(n int) api.Pagination {
	return api.Pagination{CurrentPage: 1, TotalPages: 1, Total: n, Limit: 20}
}

// Check toggles today's record in history the way the server does.
func (f *fakeBackend) Check(_ context.Context, _ string) (*api.AttendanceRecord, error) {
	if err := f.hit("Check"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	day := testNow.Format("2006-01-02")
	for i := range f.history {
		r := &f.history[i]
		if r.Day() != day {
			continue
		}
		logs := append([]api.TimeLog{}, r.TimeLogs...)
		if r.CheckedIn() {
			out := testNow
			logs[len(logs)-1].CheckOut = &out
			r.Status = api.AttendanceCompleted
		} else {
			logs = append(logs, api.TimeLog{CheckIn: testNow})
			r.Status = api.AttendancePending
		}
		r.TimeLogs = logs
		c := *r
		c.TimeLogs = append([]api.TimeLog{}, logs...)
		return &c, nil
	}
	rec := api.AttendanceRecord{ID: f.id("a"), Date: day, Status: api.AttendancePending, TimeLogs: []api.TimeLog{{CheckIn: testNow}}}
	f.history = append([]api.AttendanceRecord{rec}, f.history...)
	c := rec
	c.TimeLogs = append([]api.TimeLog{}, rec.TimeLogs...)
	return &c, nil
}

// History pages newest first when a limit is given.
func (f *fakeBackend) History(_ context.Context, _ string, opts api.ListOptions) (*api.AttendancePage, error) {
	if err := f.list("History", opts); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if opts.Limit <= 0 {
		records := append([]api.AttendanceRecord{}, f.history...)
		return &api.AttendancePage{Records: records, Pagination: pagination(len(records))}, nil
	}
	page := max(opts.Page, 1)
	total := len(f.history)
	from := min((page-1)*opts.Limit, total)
	to := min(from+opts.Limit, total)
	return &api.AttendancePage{
		Records: append([]api.AttendanceRecord{}, f.history[from:to]...),
		Pagination: api.Pagination{
			CurrentPage: page,
			TotalPages:  max((total+opts.Limit-1)/opts.Limit, 1),
			Total:       total,
			Limit:       opts.Limit,
		},
	}, nil
}

func (f *fakeBackend) AdminAttendance(_ context.Context, _ string, _ api.ListOptions) (*api.AdminAttendancePage, error) {
	if err := f.hit("AdminAttendance"); err != nil {
		return nil, err
	}
	if f.adminAttendance != nil {
		return f.adminAttendance, nil
	}
	return &api.AdminAttendancePage{Records: []api.AdminAttendanceRecord{}}, nil
}

// --- Leave ---

func (f *fakeBackend) ListLeaves(_ context.Context, _ string, _ api.ListOptions) (*api.LeavePage, error) {
	if err := f.hit("ListLeaves"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	requests := append([]api.LeaveRequest{}, f.leaves...)
	return &api.LeavePage{Requests: requests, Pagination: pagination(len(requests))}, nil
}

func (f *fakeBackend) CreateLeave(_ context.Context, _ string, in api.LeaveInput) (*api.LeaveRequest, error) {
	if err := f.hit("CreateLeave"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	l := api.LeaveRequest{
		ID: f.id("l"), Type: in.Type, Reason: in.Reason,
		StartDate: in.StartDate, EndDate: in.EndDate, Status: api.StatusPending,
	}
	f.leaves = append(f.leaves, l)
	return &l, nil
}

func (f *fakeBackend) findLeave(id string) (*api.LeaveRequest, error) {
	for i := range f.leaves {
		if f.leaves[i].ID == id {
			return &f.leaves[i], nil
		}
	}
	return nil, fmt.Errorf("leave %s: %w", id, api.ErrNotFound)
}

func (f *fakeBackend) GetLeave(_ context.Context, _ string, id string) (*api.LeaveRequest, error) {
	if err := f.hit("GetLeave"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	l, err := f.findLeave(id)
	if err != nil {
		return nil, err
	}
	c := *l
	return &c, nil
}

func (f *fakeBackend) UpdateLeave(_ context.Context, _ string, id string, in api.LeaveInput) (*api.LeaveRequest, error) {
	if err := f.hit("UpdateLeave"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	l, err := f.findLeave(id)
	if err != nil {
		return nil, err
	}
	l.Type, l.Reason, l.StartDate, l.EndDate = in.Type, in.Reason, in.StartDate, in.EndDate
	c := *l
	return &c, nil
}

func (f *fakeBackend) DeleteLeave(_ context.Context, _ string, id string) error {
	if err := f.hit("DeleteLeave"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.leaves {
		if f.leaves[i].ID == id {
			f.leaves = append(f.leaves[:i], f.leaves[i+1:]...)
			return nil
		}
	}
	return api.ErrNotFound
}

func (f *fakeBackend) AdminListLeaves(_ context.Context, _ string, opts api.ListOptions) (*api.LeavePage, error) {
	if err := f.list("AdminListLeaves", opts); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	requests := []api.LeaveRequest{}
	for _, l := range f.leaves {
		if opts.Status == "" || l.Status == opts.Status {
			requests = append(requests, l)
		}
	}
	return &api.LeavePage{Requests: requests, Pagination: pagination(len(requests))}, nil
}

func (f *fakeBackend) AdminGetLeave(_ context.Context, _ string, id string) (*api.LeaveRequest, error) {
	if err := f.hit("AdminGetLeave"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	l, err := f.findLeave(id)
	if err != nil {
		return nil, err
	}
	c := *l
	return &c, nil
}

func (f *fakeBackend) ApproveLeave(_ context.Context, _ string, id string, in api.ApproveInput) error {
	if err := f.hit("ApproveLeave"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	l, err := f.findLeave(id)
	if err != nil {
		return err
	}
	l.Status, l.Note = api.StatusApproved, in.Note
	f.approveNotes = append(f.approveNotes, in.Note)
	return nil
}

func (f *fakeBackend) RejectLeave(_ context.Context, _ string, id string, in api.RejectInput) error {
	if err := f.hit("RejectLeave"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	l, err := f.findLeave(id)
	if err != nil {
		return err
	}
	l.Status, l.RejectReason = api.StatusRejected, in.Reason
	return nil
}

// --- Overtime ---

func (f *fakeBackend) ListOT(_ context.Context, _ string, _ api.ListOptions) (*api.OTPage, error) {
	if err := f.hit("ListOT"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	reports := append([]api.OTReport{}, f.reports...)
	return &api.OTPage{Reports: reports, Pagination: pagination(len(reports))}, nil
}

func (f *fakeBackend) CreateOT(_ context.Context, _ string, in api.OTInput) (*api.OTReport, error) {
	if err := f.hit("CreateOT"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	o := api.OTReport{
		ID: f.id("o"), Date: in.Date, StartTime: in.StartTime, EndTime: in.EndTime,
		TotalHours: in.TotalHours, Reason: in.Reason, Project: in.Project, Tasks: in.Tasks,
		Status: api.StatusPending,
	}
	f.reports = append(f.reports, o)
	return &o, nil
}

func (f *fakeBackend) findOT(id string) (*api.OTReport, error) {
	for i := range f.reports {
		if f.reports[i].ID == id {
			return &f.reports[i], nil
		}
	}
	return nil, fmt.Errorf("ot %s: %w", id, api.ErrNotFound)
}

func (f *fakeBackend) GetOT(_ context.Context, _ string, id string) (*api.OTReport, error) {
	if err := f.hit("GetOT"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	o, err := f.findOT(id)
	if err != nil {
		return nil, err
	}
	c := *o
	return &c, nil
}

func (f *fakeBackend) UpdateOT(_ context.Context, _ string, id string, in api.OTInput) (*api.OTReport, error) {
	if err := f.hit("UpdateOT"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	o, err := f.findOT(id)
	if err != nil {
		return nil, err
	}
	o.Date, o.StartTime, o.EndTime, o.TotalHours = in.Date, in.StartTime, in.EndTime, in.TotalHours
	o.Reason, o.Project, o.Tasks = in.Reason, in.Project, in.Tasks
	c := *o
	return &c, nil
}

func (f *fakeBackend) AdminListOT(_ context.Context, _ string, opts api.ListOptions) (*api.OTPage, error) {
	if err := f.list("AdminListOT", opts); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	reports := []api.OTReport{}
	for _, o := range f.reports {
		if opts.Status == "" || o.Status == opts.Status {
			reports = append(reports, o)
		}
	}
	return &api.OTPage{Reports: reports, Pagination: pagination(len(reports))}, nil
}

func (f *fakeBackend) AdminGetOT(_ context.Context, _ string, id string) (*api.OTReport, error) {
	if err := f.hit("AdminGetOT"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	o, err := f.findOT(id)
	if err != nil {
		return nil, err
	}
	c := *o
	return &c, nil
}

func (f *fakeBackend) ApproveOT(_ context.Context, _ string, id string, in api.ApproveInput) error {
	if err := f.hit("ApproveOT"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	o, err := f.findOT(id)
	if err != nil {
		return err
	}
	o.Status, o.Note = api.StatusApproved, in.Note
	f.approveNotes = append(f.approveNotes, in.Note)
	return nil
}

func (f *fakeBackend) RejectOT(_ context.Context, _ string, id string, in api.RejectInput) error {
	if err := f.hit("RejectOT"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	o, err := f.findOT(id)
	if err != nil {
		return err
	}
	o.Status, o.RejectReason = api.StatusRejected, in.Reason
	return nil
}

// --- Schedule, notifications ---

func (f *fakeBackend) CurrentSchedule(_ context.Context, _ string) (*api.Schedule, error) {
	if err := f.hit("CurrentSchedule"); err != nil {
		return nil, err
	}
	if f.schedule != nil {
		return f.schedule, nil
	}
	return &api.Schedule{}, nil
}

func (f *fakeBackend) CreateSchedule(_ context.Context, _ string, in api.CreateScheduleInput) (*api.Schedule, error) {
	if err := f.hit("CreateSchedule"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, in)
	return &api.Schedule{ID: "s1", WeekStart: in.WeekStart, WeekEnd: in.WeekEnd, Days: in.Days}, nil
}

func (f *fakeBackend) ListNotifications(_ context.Context, _ string, _ api.ListOptions) (*api.NotificationPage, error) {
	if err := f.hit("ListNotifications"); err != nil {
		return nil, err
	}
	notes := append([]api.Notification{}, f.notifications...)
	return &api.NotificationPage{Notifications: notes, Pagination: pagination(len(notes))}, nil
}

// fakeAuth signs anyone in; addresses starting with "admin" get the admin role.
type fakeAuth struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (a *fakeAuth) Login(_ context.Context, req api.LoginRequest) (*api.LoginResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	role := api.RoleUser
	if len(req.Email) >= 5 && req.Email[:5] == "admin" {
		role = api.RoleAdmin
	}
	return &api.LoginResponse{Token: "tok-" + req.Email, User: api.User{ID: "u-" + req.Email, Email: req.Email, Role: role}}, nil
}

func (a *fakeAuth) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// ============================================================
// Harness
// ============================================================

var testNow = time.Date(2026, 3, 11, 10, 0, 0, 0, time.Local)

type harness struct {
	backend *fakeBackend
	auth    *fakeAuth
	store   *store.Store
	manager *session.Manager
	env     *env
	router  *router
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// newHarness builds a router over fakes. A non-empty email signs in first.
func newHarness(t *testing.T, email string) *harness {
	t.Helper()
	h := &harness{backend: newFakeBackend(), auth: &fakeAuth{}, store: newTestStore(t)}
	h.manager = session.NewManager(h.store, h.auth, "device", nil)
	h.env = &env{
		backend:  h.backend,
		sessions: h.manager,
		settings: h.store,
		logger:   slog.New(slog.DiscardHandler),
		now:      func() time.Time { return testNow },
		spin:     spinner.New(),
	}
	if email != "" {
		h.env.session = h.login(t, email)
	}
	h.router = newRouter(h.env)
	h.router.setSize(120, 40)
	return h
}

func (h *harness) login(t *testing.T, email string) *session.Session {
	t.Helper()
	s, err := h.manager.Login(context.Background(), email, "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return s
}

// open resets the router to a route and applies its initial fetch.
func (h *harness) open(t *testing.T, to route, p routeParams) screen {
	t.Helper()
	cmd := h.router.reset(to, p)
	h.apply(cmd)
	return h.router.top().screen
}

// apply runs cmd, feeding everything it produces back into the router,
// and returns every message seen on the way. Navigation is applied too.
// Only use it on commands that do not start a form.
func (h *harness) apply(cmd tea.Cmd) []tea.Msg {
	var out []tea.Msg
	for _, msg := range collect(cmd) {
		out = append(out, msg)
		switch msg := msg.(type) {
		case navigateMsg:
			out = append(out, h.apply(h.router.navigate(msg))...)
		case statusMsg:
		default:
			out = append(out, h.apply(h.router.update(msg))...)
		}
	}
	return out
}

// collect runs cmd and flattens batches.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func keyPress(k string) tea.KeyMsg {
	switch k {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func findStatus(msgs []tea.Msg) (statusMsg, bool) {
	for _, m := range msgs {
		if s, ok := m.(statusMsg); ok {
			return s, true
		}
	}
	return statusMsg{}, false
}
