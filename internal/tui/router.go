package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/staffdesk/internal/api"
)

// screen is one controller on the navigation stack.
type screen interface {
	// refresh is called on every activation with a context that is
	// cancelled when the router leaves the screen.
	refresh(ctx context.Context) tea.Cmd
	update(msg tea.Msg) tea.Cmd
	view() string
	setSize(w, h int)
	// capturing reports whether a form owns the keyboard.
	capturing() bool
}

type route int

const (
	routeSignIn route = iota
	routeAttendance
	routeLeave
	routeLeaveDetail
	routeLeaveForm
	routeOvertime
	routeOvertimeDetail
	routeOvertimeForm
	routeSchedule
	routeNotifications
	routeProfile
	routeAdminHome
	routeAdminLeave
	routeAdminLeaveDetail
	routeAdminOvertime
	routeAdminOvertimeDetail
	routeAdminAttendance
	routeAdminSchedule
	routeAdminScheduleForm
)

// routeParams are the typed parameters of detail and edit routes.
type routeParams struct {
	ID string
}

type routeDef struct {
	name  string
	auth  bool
	admin bool
	build func(e *env, p routeParams) screen
}

var routes = map[route]routeDef{
	routeSignIn: {name: "Sign in", build: newSignInScreen},

	routeAttendance:     {name: "Attendance", auth: true, build: newAttendanceScreen},
	routeLeave:          {name: "Leave", auth: true, build: newLeaveListScreen},
	routeLeaveDetail:    {name: "Leave request", auth: true, build: newLeaveDetailScreen},
	routeLeaveForm:      {name: "Leave form", auth: true, build: newLeaveFormScreen},
	routeOvertime:       {name: "Overtime", auth: true, build: newOTListScreen},
	routeOvertimeDetail: {name: "OT report", auth: true, build: newOTDetailScreen},
	routeOvertimeForm:   {name: "OT form", auth: true, build: newOTFormScreen},
	routeSchedule:       {name: "Schedule", auth: true, build: newScheduleScreen},
	routeNotifications:  {name: "Notifications", auth: true, build: newNotificationsScreen},
	routeProfile:        {name: "Profile", auth: true, build: newProfileScreen},

	routeAdminHome:           {name: "Admin", auth: true, admin: true, build: newAdminHomeScreen},
	routeAdminLeave:          {name: "Leave requests", auth: true, admin: true, build: newAdminLeaveListScreen},
	routeAdminLeaveDetail:    {name: "Review leave", auth: true, admin: true, build: newAdminLeaveDetailScreen},
	routeAdminOvertime:       {name: "OT reports", auth: true, admin: true, build: newAdminOTListScreen},
	routeAdminOvertimeDetail: {name: "Review OT", auth: true, admin: true, build: newAdminOTDetailScreen},
	routeAdminAttendance:     {name: "Attendance", auth: true, admin: true, build: newAdminAttendanceScreen},
	routeAdminSchedule:       {name: "Schedule", auth: true, admin: true, build: newAdminScheduleScreen},
	routeAdminScheduleForm:   {name: "New schedule", auth: true, admin: true, build: newScheduleFormScreen},
}

// employeeTabs is the employee tree; each tab is a stack root.
var employeeTabs = []route{
	routeAttendance, routeLeave, routeOvertime, routeSchedule, routeNotifications, routeProfile,
}

// homeFor picks the initial route for a signed-in role.
func homeFor(role api.Role) route {
	if role == api.RoleAdmin {
		return routeAdminHome
	}
	return routeAttendance
}

// --- Navigation messages ---

type navKind int

const (
	navPush navKind = iota
	navReplace
	navPop
	navReset
)

type navigateMsg struct {
	kind   navKind
	to     route
	params routeParams
}

func push(to route, p routeParams) tea.Cmd {
	return func() tea.Msg { return navigateMsg{kind: navPush, to: to, params: p} }
}

func back() tea.Cmd {
	return func() tea.Msg { return navigateMsg{kind: navPop} }
}

// backWith pops and shows a status line.
func backWith(text string) tea.Cmd {
	return tea.Batch(back(), setStatus(text, false))
}

// --- Router ---

type entry struct {
	route  route
	params routeParams
	screen screen
}

type router struct {
	env    *env
	stack  []entry
	cancel context.CancelFunc
	width  int
	height int
}

func newRouter(e *env) *router {
	return &router{env: e}
}

func (r *router) build(to route, p routeParams) entry {
	s := routes[to].build(r.env, p)
	s.setSize(r.width, r.height)
	return entry{route: to, params: p, screen: s}
}

func (r *router) push(to route, p routeParams) tea.Cmd {
	r.stack = append(r.stack, r.build(to, p))
	return r.activate()
}

func (r *router) replace(to route, p routeParams) tea.Cmd {
	if len(r.stack) == 0 {
		return r.reset(to, p)
	}
	r.stack[len(r.stack)-1] = r.build(to, p)
	return r.activate()
}

func (r *router) reset(to route, p routeParams) tea.Cmd {
	r.stack = []entry{r.build(to, p)}
	return r.activate()
}

func (r *router) pop() tea.Cmd {
	if len(r.stack) <= 1 {
		return nil
	}
	r.stack = r.stack[:len(r.stack)-1]
	return r.activate()
}

func (r *router) navigate(msg navigateMsg) tea.Cmd {
	switch msg.kind {
	case navPush:
		return r.push(msg.to, msg.params)
	case navReplace:
		return r.replace(msg.to, msg.params)
	case navReset:
		return r.reset(msg.to, msg.params)
	default:
		return r.pop()
	}
}

// activate focuses the top of the stack. Authenticated routes need a valid
// session, admin routes an admin one; otherwise the stack is replaced
// before the screen can issue any call.
func (r *router) activate() tea.Cmd {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}

	top := r.stack[len(r.stack)-1]
	def := routes[top.route]
	switch {
	case def.auth && !r.env.session.Valid():
		r.stack = []entry{r.build(routeSignIn, routeParams{})}
	case def.admin && !r.env.session.IsAdmin():
		r.stack = []entry{r.build(homeFor(r.env.session.Role()), routeParams{})}
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	return r.top().screen.refresh(ctx)
}

func (r *router) top() *entry {
	return &r.stack[len(r.stack)-1]
}

func (r *router) current() route {
	if len(r.stack) == 0 {
		return routeSignIn
	}
	return r.top().route
}

func (r *router) root() route {
	if len(r.stack) == 0 {
		return routeSignIn
	}
	return r.stack[0].route
}

func (r *router) depth() int { return len(r.stack) }

func (r *router) update(msg tea.Msg) tea.Cmd {
	if len(r.stack) == 0 {
		return nil
	}
	return r.top().screen.update(msg)
}

func (r *router) view() string {
	if len(r.stack) == 0 {
		return ""
	}
	return r.top().screen.view()
}

func (r *router) capturing() bool {
	return len(r.stack) > 0 && r.top().screen.capturing()
}

func (r *router) setSize(w, h int) {
	r.width, r.height = w, h
	for _, e := range r.stack {
		e.screen.setSize(w, h)
	}
}

// breadcrumb names the stack from root to top.
func (r *router) breadcrumb() []string {
	names := make([]string, 0, len(r.stack))
	for _, e := range r.stack {
		names = append(names, routes[e.route].name)
	}
	return names
}
