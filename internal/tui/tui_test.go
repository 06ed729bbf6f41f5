package tui

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/staffdesk/internal/api"
	"github.com/sadopc/staffdesk/internal/session"
	"github.com/sadopc/staffdesk/internal/validator"
)

// ============================================================
// Text helpers
// ============================================================

func TestStatusText(t *testing.T) {
	tests := []struct {
		in   api.Status
		want string
	}{
		{api.StatusApproved, "Approved"},
		{api.StatusRejected, "Rejected"},
		{api.StatusPending, "Pending"},
		{"", "Pending"},
	}
	for _, tt := range tests {
		if got := statusText(tt.in); got != tt.want {
			t.Errorf("statusText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLeaveTypeText(t *testing.T) {
	if got := leaveTypeText(api.LeaveSick); got != "Sick leave" {
		t.Errorf("sick = %q", got)
	}
	if got := leaveTypeText(api.LeaveAnnual); got != "Annual leave" {
		t.Errorf("annual = %q", got)
	}
	if got := leaveTypeText("unpaid"); got != "unpaid" {
		t.Errorf("unknown type = %q, want raw value", got)
	}
}

func TestFormatHours(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0h"},
		{1.5, "1.5h"},
		{7.96, "8.0h"},
	}
	for _, tt := range tests {
		if got := formatHours(tt.in); got != tt.want {
			t.Errorf("formatHours(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDay(t *testing.T) {
	if got := formatDay("2026-03-11"); got != "Wed 11 Mar" {
		t.Errorf("date = %q", got)
	}
	if got := formatDay("2026-03-11T00:00:00.000Z"); got != "Wed 11 Mar" {
		t.Errorf("timestamp = %q", got)
	}
	if got := formatDay("soon"); got != "soon" {
		t.Errorf("invalid = %q, want it unchanged", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncate("a long reason", 6); got != "a lon…" {
		t.Errorf("got %q", got)
	}
	if got := truncate("ab", 1); got != "a" {
		t.Errorf("got %q", got)
	}
}

func TestErrorText(t *testing.T) {
	var verrs validator.ValidationErrors
	verrs.Required("reason", "")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"validation", verrs, "reason is required"},
		{"no role", session.ErrNoRole, "This account has no role. Contact your administrator."},
		{"transport", fmt.Errorf("GET /x: %w", api.ErrTransport), "Could not reach the server. Check your connection and try again."},
		{"unauthorized", fmt.Errorf("wrapped: %w", api.ErrUnauthorized), "Your session has expired. Please sign in again."},
		{"forbidden", api.ErrForbidden, "You are not allowed to do that."},
		{"not found", api.ErrNotFound, "Not found."},
		{"malformed", api.ErrMalformedResponse, "The server sent an unexpected response."},
		{"other", errors.New("boom"), "Something went wrong. Please try again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorText(tt.err); got != tt.want {
				t.Errorf("errorText = %q, want %q", got, tt.want)
			}
		})
	}
}

// ============================================================
// Parsers
// ============================================================

func TestClockSpan(t *testing.T) {
	tests := []struct {
		start, end string
		want       float64
	}{
		{"18:00", "21:30", 3.5},
		{"22:00", "02:00", 4},
		{"09:00", "09:00", 0},
		{"9am", "10:00", 0},
		{"", "", 0},
	}
	for _, tt := range tests {
		if got := clockSpan(tt.start, tt.end); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("clockSpan(%q, %q) = %v, want %v", tt.start, tt.end, got, tt.want)
		}
	}
}

func TestParseShiftSlots(t *testing.T) {
	slots, err := parseShiftSlots(" u1/Ana/Cashier, u2 ,u3/Bo ")
	if err != nil {
		t.Fatal(err)
	}
	want := []api.ShiftSlot{
		{EmployeeID: "u1", Name: "Ana", Position: "Cashier"},
		{EmployeeID: "u2"},
		{EmployeeID: "u3", Name: "Bo"},
	}
	if len(slots) != len(want) {
		t.Fatalf("got %d slots, want %d", len(slots), len(want))
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Errorf("slot %d = %+v, want %+v", i, slots[i], want[i])
		}
	}
}

func TestParseShiftSlotsEmpty(t *testing.T) {
	slots, err := parseShiftSlots("  ,  ")
	if err != nil {
		t.Fatal(err)
	}
	if slots == nil || len(slots) != 0 {
		t.Fatalf("empty input should give an empty, non-nil list, got %#v", slots)
	}
}

func TestParseShiftSlotsMissingID(t *testing.T) {
	if _, err := parseShiftSlots("u1/Ana, /Bo/Cook"); err == nil {
		t.Fatal("entry without id should fail")
	}
}

func TestValidPageSize(t *testing.T) {
	for _, v := range []string{"1", "20", "100"} {
		if err := validPageSize(v); err != nil {
			t.Errorf("%s should be valid: %v", v, err)
		}
	}
	for _, v := range []string{"0", "101", "ten", ""} {
		if err := validPageSize(v); err == nil {
			t.Errorf("%q should be rejected", v)
		}
	}
}

// ============================================================
// Chart
// ============================================================

func TestHoursByDay(t *testing.T) {
	records := []api.AttendanceRecord{
		{ID: "1", Date: "2026-03-02T00:00:00Z", TotalHours: 8},
		{ID: "2", Date: "2026-03-01", TotalHours: 4},
		{ID: "3", Date: "2026-03-02", TotalHours: 1.5},
	}
	days := hoursByDay(records)
	if len(days) != 2 {
		t.Fatalf("got %d days, want 2", len(days))
	}
	if days[0].day != "2026-03-01" || days[0].hours != 4 {
		t.Errorf("first = %+v", days[0])
	}
	if days[1].day != "2026-03-02" || days[1].hours != 9.5 {
		t.Errorf("second = %+v", days[1])
	}
}

func TestHoursByDayKeepsLatestWeek(t *testing.T) {
	var records []api.AttendanceRecord
	for d := 1; d <= 10; d++ {
		records = append(records, api.AttendanceRecord{ID: fmt.Sprint(d), Date: fmt.Sprintf("2026-03-%02d", d), TotalHours: 1})
	}
	days := hoursByDay(records)
	if len(days) != chartDays {
		t.Fatalf("got %d days, want %d", len(days), chartDays)
	}
	if days[0].day != "2026-03-04" || days[len(days)-1].day != "2026-03-10" {
		t.Errorf("window = %s..%s", days[0].day, days[len(days)-1].day)
	}
}

func TestBuildHoursChartRenders(t *testing.T) {
	chart := buildHoursChart(60, 10, []dayHours{{day: "2026-03-10", hours: 8}, {day: "2026-03-11", hours: 3}})
	if chart.View() == "" {
		t.Error("chart should render")
	}
}

// ============================================================
// Pager
// ============================================================

func TestPager(t *testing.T) {
	p := newPager()
	p.set(api.Pagination{CurrentPage: 1, TotalPages: 3, Total: 25}, 10)

	if p.move(keyPress("left"), 10) {
		t.Error("no page before the first")
	}
	p.move(keyPress("down"), 10)
	p.move(keyPress("down"), 10)
	if p.cursor != 2 {
		t.Errorf("cursor = %d, want 2", p.cursor)
	}
	if !p.move(keyPress("right"), 10) || p.page != 2 || p.cursor != 0 {
		t.Errorf("right should go to page 2 and reset the cursor, got page %d cursor %d", p.page, p.cursor)
	}
	p.page = 3
	if p.move(keyPress("right"), 10) {
		t.Error("no page after the last")
	}
	if !strings.Contains(p.footer(), "Page 3 of 3, 25 total") {
		t.Errorf("footer = %q", p.footer())
	}
}

func TestPagerClampsCursor(t *testing.T) {
	p := newPager()
	p.cursor = 7
	p.set(api.Pagination{TotalPages: 0}, 3)
	if p.cursor != 2 {
		t.Errorf("cursor = %d, want 2", p.cursor)
	}
	if p.pages != 1 {
		t.Errorf("pages = %d, want 1", p.pages)
	}
}

// ============================================================
// App
// ============================================================

func newTestApp(t *testing.T, email string) (App, *harness) {
	t.Helper()
	h := newHarness(t, email)
	app := NewApp(h.backend, h.manager, h.store, nil)
	app.env.now = h.env.now
	return app, h
}

func update(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(msg)
	app, ok := m.(App)
	if !ok {
		t.Fatalf("Update returned %T", m)
	}
	return app, cmd
}

func TestNewAppWithoutSessionOpensSignIn(t *testing.T) {
	app, h := newTestApp(t, "")
	if app.router.current() != routeSignIn {
		t.Fatalf("route = %v, want sign-in", app.router.current())
	}
	if h.backend.total() != 0 {
		t.Errorf("no API call expected before sign-in, got %d", h.backend.total())
	}
}

func TestNewAppRestoresSessionByRole(t *testing.T) {
	tests := []struct {
		email string
		want  route
	}{
		{"admin@example.com", routeAdminHome},
		{"ana@example.com", routeAttendance},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			app, _ := newTestApp(t, tt.email)
			if app.router.current() != tt.want {
				t.Errorf("route = %v, want %v", app.router.current(), tt.want)
			}
			if !app.env.session.Valid() {
				t.Error("restored session should be valid")
			}
		})
	}
}

func TestAppSignInFlow(t *testing.T) {
	app, h := newTestApp(t, "")
	s := app.router.top().screen.(*signInScreen)

	*s.email = "ana@example.com"
	*s.password = "secret"
	msg := s.submit()()
	logged, ok := msg.(loggedInMsg)
	if !ok {
		t.Fatalf("submit produced %T", msg)
	}

	app, cmd := update(t, app, logged)
	if app.router.current() != routeAttendance {
		t.Fatalf("route = %v, want attendance", app.router.current())
	}
	if !strings.Contains(app.status, "ana@example.com") {
		t.Errorf("status = %q", app.status)
	}
	for _, m := range collect(cmd) {
		app, _ = update(t, app, m)
	}
	if h.backend.count("History") != 1 {
		t.Errorf("History calls = %d, want 1", h.backend.count("History"))
	}
}

func TestAppSignInInvalidMakesNoCall(t *testing.T) {
	app, h := newTestApp(t, "")
	s := app.router.top().screen.(*signInScreen)

	*s.email = "not-an-email"
	*s.password = ""
	_ = s.submit()

	if h.auth.count() != 0 {
		t.Errorf("login calls = %d, want 0", h.auth.count())
	}
	if s.remote.notice == "" {
		t.Error("validation failure should leave a notice")
	}
	if s.remote.submitting() {
		t.Error("invalid input must not enter Submitting")
	}
}

func TestAppSignInFailureStaysOnForm(t *testing.T) {
	app, h := newTestApp(t, "")
	h.auth.err = fmt.Errorf("POST /auth/login: %w", api.ErrUnauthorized)
	s := app.router.top().screen.(*signInScreen)

	*s.email = "ana@example.com"
	*s.password = "wrong"
	msg := s.submit()()
	if _, ok := msg.(submittedMsg); !ok {
		t.Fatalf("failed login produced %T", msg)
	}
	app, _ = update(t, app, msg)
	if app.router.current() != routeSignIn {
		t.Errorf("route = %v, want sign-in", app.router.current())
	}
	if s.remote.notice == "" || *s.password != "" {
		t.Errorf("notice = %q, password should be cleared", s.remote.notice)
	}
}

func TestAppLogout(t *testing.T) {
	app, h := newTestApp(t, "ana@example.com")
	sess := app.env.session

	app, _ = update(t, app, logoutMsg{})
	if app.router.current() != routeSignIn {
		t.Fatalf("route = %v, want sign-in", app.router.current())
	}
	if sess.Valid() {
		t.Error("old session should be invalid after logout")
	}
	if _, err := h.manager.Current(); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("stored session should be gone, got %v", err)
	}
}

func TestAppSessionExpired(t *testing.T) {
	app, h := newTestApp(t, "ana@example.com")
	h.backend.setFail(fmt.Errorf("GET /attendance/history: %w", api.ErrUnauthorized))

	msg := app.initCmd()
	if _, ok := msg.(sessionExpiredMsg); !ok {
		t.Fatalf("401 produced %T, want sessionExpiredMsg", msg)
	}
	app, _ = update(t, app, msg)
	if app.router.current() != routeSignIn {
		t.Errorf("route = %v, want sign-in", app.router.current())
	}
	if !app.statusErr || !strings.Contains(app.status, "expired") {
		t.Errorf("status = %q", app.status)
	}
	if app.env.session.Valid() {
		t.Error("session should be invalidated by the 401")
	}
}

func TestAppTabKeys(t *testing.T) {
	app, h := newTestApp(t, "ana@example.com")

	app, cmd := update(t, app, keyPress("3"))
	if app.router.root() != routeOvertime {
		t.Fatalf("root = %v, want overtime", app.router.root())
	}
	collect(cmd)
	if h.backend.count("ListOT") != 1 {
		t.Errorf("ListOT calls = %d", h.backend.count("ListOT"))
	}

	app, _ = update(t, app, keyPress("tab"))
	if app.router.root() != routeSchedule {
		t.Errorf("tab should move to schedule, got %v", app.router.root())
	}
}

func TestAppTabKeysIgnoredForAdmin(t *testing.T) {
	app, _ := newTestApp(t, "admin@example.com")
	app, _ = update(t, app, keyPress("2"))
	if app.router.current() != routeAdminHome {
		t.Errorf("admin should stay on home, got %v", app.router.current())
	}
}

func TestAppBackPops(t *testing.T) {
	app, _ := newTestApp(t, "admin@example.com")
	app, _ = update(t, app, navigateMsg{kind: navPush, to: routeAdminAttendance})
	if app.router.depth() != 2 {
		t.Fatalf("depth = %d", app.router.depth())
	}
	app, _ = update(t, app, keyPress("esc"))
	if app.router.depth() != 1 || app.router.current() != routeAdminHome {
		t.Errorf("esc should pop to home, got %v depth %d", app.router.current(), app.router.depth())
	}
}

func TestAppQuit(t *testing.T) {
	app, _ := newTestApp(t, "ana@example.com")
	_, cmd := update(t, app, keyPress("ctrl+c"))
	if cmd == nil {
		t.Fatal("ctrl+c should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should return tea.Quit")
	}
}

func TestAppLoadingState(t *testing.T) {
	app, _ := newTestApp(t, "")
	if view := app.View(); view != "Loading..." {
		t.Errorf("before the first resize View = %q", view)
	}
}

func TestAppViewHeaderAndFooter(t *testing.T) {
	app, _ := newTestApp(t, "ana@example.com")
	app, _ = update(t, app, tea.WindowSizeMsg{Width: 160, Height: 40})

	header := app.renderHeader()
	for _, name := range []string{"staffdesk", "Attendance", "Leave", "Overtime", "Schedule", "Notifications", "Profile"} {
		if !strings.Contains(header, name) {
			t.Errorf("header missing %q", name)
		}
	}

	app, _ = update(t, app, statusMsg{text: "Saved", isError: false})
	if !strings.Contains(app.renderFooter(), "Saved") {
		t.Error("footer should show the status")
	}
	if app.View() == "" {
		t.Error("View should render")
	}
}

func TestAppAdminHeaderShowsBreadcrumb(t *testing.T) {
	app, _ := newTestApp(t, "admin@example.com")
	app, _ = update(t, app, tea.WindowSizeMsg{Width: 160, Height: 40})
	app, _ = update(t, app, navigateMsg{kind: navPush, to: routeAdminAttendance})

	header := app.renderHeader()
	if !strings.Contains(header, "Admin") || !strings.Contains(header, "Attendance") {
		t.Errorf("header = %q", header)
	}
	if strings.Contains(header, "Notifications") {
		t.Error("admin header should not show employee tabs")
	}
}

func TestAppExportPicker(t *testing.T) {
	app, h := newTestApp(t, "ana@example.com")
	for _, m := range collect(app.initCmd) {
		app, _ = update(t, app, m)
	}

	if err := h.store.SetSetting("export_format", "json"); err != nil {
		t.Fatal(err)
	}
	app, _ = update(t, app, keyPress("e"))
	if !app.exportPicking {
		t.Fatal("e should open the picker on an exportable screen")
	}
	if exportFormats[app.exportCursor] != "json" {
		t.Errorf("picker should start at the saved format, got %s", exportFormats[app.exportCursor])
	}
	app, _ = update(t, app, keyPress("esc"))
	if app.exportPicking {
		t.Error("esc should close the picker")
	}
	if app.router.current() != routeAttendance {
		t.Error("esc in the picker must not navigate")
	}
}

func TestAppExportIgnoredWhereNothingToExport(t *testing.T) {
	app, _ := newTestApp(t, "admin@example.com")
	app, _ = update(t, app, keyPress("e"))
	if app.exportPicking {
		t.Error("admin home has nothing to export")
	}
}

func TestExportRowsPicksWriter(t *testing.T) {
	var got string
	csvFn := func(_ []int, p string) error { got = "csv:" + p; return nil }
	jsonFn := func(_ []int, p string) error { got = "json:" + p; return nil }

	if err := exportRows([]int{1}, "json", csvFn, jsonFn)("out"); err != nil || got != "json:out" {
		t.Errorf("json: got %q, %v", got, err)
	}
	if err := exportRows([]int{1}, "csv", csvFn, jsonFn)("out"); err != nil || got != "csv:out" {
		t.Errorf("csv: got %q, %v", got, err)
	}
}

// ============================================================
// Keys and styles
// ============================================================

func TestKeyMapShortHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Error("ShortHelp should not be empty")
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) == 0 {
		t.Fatal("FullHelp should not be empty")
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Errorf("FullHelp group %d is empty", i)
		}
	}
	if len(tabKeys) != len(employeeTabs) {
		t.Errorf("%d tab keys for %d tabs", len(tabKeys), len(employeeTabs))
	}
}

func TestStylesRender(t *testing.T) {
	styles := []struct {
		name   string
		render func(...string) string
	}{
		{"activeTab", activeTabStyle.Render},
		{"inactiveTab", inactiveTabStyle.Render},
		{"panel", panelStyle.Render},
		{"title", titleStyle.Render},
		{"success", successStyle.Render},
		{"warning", warningStyle.Render},
		{"error", errorStyle.Render},
		{"muted", mutedStyle.Render},
	}
	for _, s := range styles {
		if s.render("test") == "" {
			t.Errorf("%s style rendered empty string", s.name)
		}
	}
}

func TestRoutesAreComplete(t *testing.T) {
	for r := routeSignIn; r <= routeAdminScheduleForm; r++ {
		def, ok := routes[r]
		if !ok || def.build == nil || def.name == "" {
			t.Errorf("route %d is not registered", r)
		}
		if def.admin && !def.auth {
			t.Errorf("admin route %s must require auth", def.name)
		}
	}
	if homeFor(api.RoleAdmin) != routeAdminHome || homeFor(api.RoleUser) != routeAttendance {
		t.Error("homeFor picks the wrong tree")
	}
}
