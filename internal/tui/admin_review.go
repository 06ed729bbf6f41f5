package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/staffdesk/internal/api"
	"github.com/sadopc/staffdesk/internal/export"
)

// statusFilters is the cycle of the f key on admin lists. "" shows all.
// The filter is sent with the list call; visible re-applies it for servers
// that ignore the parameter.
var statusFilters = []api.Status{"", api.StatusPending, api.StatusApproved, api.StatusRejected}

func filterLabel(f api.Status) string {
	if f == "" {
		return "All"
	}
	return statusText(f)
}

// ===== DECISION FORM =====

// decision is the approve/reject prompt shared by the review screens.
type decision struct {
	active    bool
	approving bool
	form      *huh.Form
	text      *string
}

func newDecision() decision {
	text := ""
	return decision{text: &text}
}

func (d *decision) open(approve bool) tea.Cmd {
	*d.text = ""
	d.approving = approve
	var f huh.Field
	if approve {
		f = huh.NewInput().Title("Note (optional)").Placeholder(api.DefaultApproveNote).Value(d.text)
	} else {
		f = huh.NewText().Title("Reason for rejection").Value(d.text)
	}
	d.form = huh.NewForm(huh.NewGroup(f)).WithShowHelp(true).WithShowErrors(true)
	d.active = true
	return d.form.Init()
}

func (d *decision) close() {
	d.active = false
	d.form = nil
}

// update drives the form. done is true once it was completed.
func (d *decision) update(msg tea.Msg) (cmd tea.Cmd, done bool) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		d.close()
		return nil, false
	}
	form, cmd := d.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		d.form = f
	}
	if d.form.State == huh.StateCompleted {
		d.close()
		return nil, true
	}
	return cmd, false
}

func (d decision) view(title string) string {
	heading := "Approve " + title
	if !d.approving {
		heading = "Reject " + title
	}
	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(heading), "", d.form.View())
}

func decisionHint(pending bool) string {
	if pending {
		return "  a: approve  x: reject  esc: back  r: refresh"
	}
	return "  esc: back  r: refresh"
}

// ===== LEAVE LIST =====

type adminLeaveListScreen struct {
	env    *env
	width  int
	height int

	remote   remote
	pager    pager
	filter   int
	requests []api.LeaveRequest
}

func newAdminLeaveListScreen(e *env, _ routeParams) screen {
	return &adminLeaveListScreen{env: e, remote: newRemote(), pager: newPager()}
}

func (s *adminLeaveListScreen) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s *adminLeaveListScreen) capturing() bool { return false }

func (s *adminLeaveListScreen) refresh(ctx context.Context) tea.Cmd {
	s.remote.activate(ctx)
	return s.load()
}

func (s *adminLeaveListScreen) load() tea.Cmd {
	b, opts := s.env.backend, s.env.listOptions(s.pager.page)
	opts.Status = statusFilters[s.filter]
	return fetch(&s.remote, s.env.session, func(ctx context.Context, token string) (*api.LeavePage, error) {
		return b.AdminListLeaves(ctx, token, opts)
	})
}

func (s *adminLeaveListScreen) visible() []api.LeaveRequest {
	want := statusFilters[s.filter]
	if want == "" {
		return s.requests
	}
	var out []api.LeaveRequest
	for _, l := range s.requests {
		if l.Status == want {
			out = append(out, l)
		}
	}
	return out
}

func (s *adminLeaveListScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loadedMsg[*api.LeavePage]:
		if !s.remote.loaded(msg.seq, msg.err) || msg.err != nil {
			return nil
		}
		s.requests = msg.data.Requests
		s.pager.set(msg.data.Pagination, len(s.visible()))
		return nil

	case tea.KeyMsg:
		rows := s.visible()
		switch {
		case key.Matches(msg, keys.Retry):
			if s.remote.state != stateLoading {
				return s.load()
			}
		case key.Matches(msg, keys.Filter):
			s.filter = (s.filter + 1) % len(statusFilters)
			s.pager.page, s.pager.cursor = 1, 0
			return s.load()
		case key.Matches(msg, keys.Enter):
			if s.remote.ready() && len(rows) > 0 {
				return push(routeAdminLeaveDetail, routeParams{ID: rows[s.pager.cursor].ID})
			}
		default:
			if s.remote.ready() && s.pager.move(msg, len(rows)) {
				return s.load()
			}
		}
	}
	return nil
}

func (s *adminLeaveListScreen) exportKind() string { return "leave-all" }

func (s *adminLeaveListScreen) exportFunc(format string) func(string) error {
	return exportRows(s.visible(), format, export.LeavesToCSV, export.LeavesToJSON)
}

func (s *adminLeaveListScreen) view() string {
	w := s.width - 4
	title := titleStyle.Render("Leave requests") + "  " + mutedStyle.Render("filter: "+filterLabel(statusFilters[s.filter]))
	body := s.remote.render(s.env.spin, func() string {
		rows := s.visible()
		if len(rows) == 0 {
			return mutedStyle.Render("No leave requests match.") + "\n\n" + mutedStyle.Render("  f: filter  r: refresh")
		}
		lines := []string{mutedStyle.Render(fmt.Sprintf("  %-26s %-13s %-12s %-12s %s", "Employee", "Type", "From", "To", "Status"))}
		for i, l := range rows {
			lines = append(lines, listRow(i == s.pager.cursor, fmt.Sprintf("%-26s %-13s %-12s %-12s %s",
				truncate(l.Employee.Label(), 26), leaveTypeText(l.Type), api.DatePart(l.StartDate), api.DatePart(l.EndDate), statusText(l.Status))))
		}
		lines = append(lines, "", s.pager.footer(), "",
			mutedStyle.Render("  enter: review  f: filter  ←/→: page  e: export  esc: back"))
		return strings.Join(lines, "\n")
	})
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body))
}

// ===== LEAVE DETAIL =====

type adminLeaveDetailScreen struct {
	env    *env
	width  int
	height int
	id     string

	remote   remote
	request  *api.LeaveRequest
	decision decision
}

func newAdminLeaveDetailScreen(e *env, p routeParams) screen {
	return &adminLeaveDetailScreen{env: e, id: p.ID, remote: newRemote(), decision: newDecision()}
}

func (s *adminLeaveDetailScreen) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s *adminLeaveDetailScreen) capturing() bool { return s.decision.active }

func (s *adminLeaveDetailScreen) refresh(ctx context.Context) tea.Cmd {
	s.remote.activate(ctx)
	return s.load()
}

func (s *adminLeaveDetailScreen) load() tea.Cmd {
	b, id := s.env.backend, s.id
	return fetch(&s.remote, s.env.session, func(ctx context.Context, token string) (*api.LeaveRequest, error) {
		return b.AdminGetLeave(ctx, token, id)
	})
}

func (s *adminLeaveDetailScreen) pending() bool {
	return s.request != nil && s.request.Status == api.StatusPending
}

func (s *adminLeaveDetailScreen) approve(note string) tea.Cmd {
	b, id := s.env.backend, s.id
	in := api.ApproveInput{Note: strings.TrimSpace(note)}
	return submit(&s.remote, s.env.session, "Leave request approved", func(ctx context.Context, token string) error {
		return b.ApproveLeave(ctx, token, id, in)
	})
}

// reject needs a reason; without one no call is made.
func (s *adminLeaveDetailScreen) reject(reason string) tea.Cmd {
	in := api.RejectInput{Reason: strings.TrimSpace(reason)}
	if err := in.Validate(); err != nil {
		return s.remote.reject(err)
	}
	b, id := s.env.backend, s.id
	return submit(&s.remote, s.env.session, "Leave request rejected", func(ctx context.Context, token string) error {
		return b.RejectLeave(ctx, token, id, in)
	})
}

func (s *adminLeaveDetailScreen) update(msg tea.Msg) tea.Cmd {
	if s.decision.active {
		cmd, done := s.decision.update(msg)
		if !done {
			return cmd
		}
		if s.decision.approving {
			return s.approve(*s.decision.text)
		}
		return s.reject(*s.decision.text)
	}

	switch msg := msg.(type) {
	case loadedMsg[*api.LeaveRequest]:
		if s.remote.loaded(msg.seq, msg.err) && msg.err == nil {
			s.request = msg.data
		}
		return nil

	case submittedMsg:
		if !s.remote.submitted(msg) {
			return nil
		}
		if msg.err != nil {
			return setStatus(s.remote.notice, true)
		}
		return tea.Batch(setStatus(msg.text, false), s.load())

	case tea.KeyMsg:
		if s.remote.submitting() {
			return nil
		}
		switch {
		case key.Matches(msg, keys.Retry):
			if s.remote.state != stateLoading {
				return s.load()
			}
		case key.Matches(msg, keys.Approve):
			if s.remote.ready() && s.pending() {
				return s.decision.open(true)
			}
		case key.Matches(msg, keys.Reject):
			if s.remote.ready() && s.pending() {
				return s.decision.open(false)
			}
		}
	}
	return nil
}

func (s *adminLeaveDetailScreen) view() string {
	w := s.width - 4
	if s.decision.active {
		return activePanelStyle.Width(w).Render(s.decision.view("leave request"))
	}

	title := titleStyle.Render("Review leave request")
	body := s.remote.render(s.env.spin, func() string {
		if s.request == nil {
			return ""
		}
		l := s.request
		rows := []string{
			field("Employee", l.Employee.Label()),
			field("Type", leaveTypeText(l.Type)),
			field("From", api.DatePart(l.StartDate)),
			field("To", api.DatePart(l.EndDate)),
			field("Reason", l.Reason),
			field("Status", renderStatus(l.Status)),
		}
		if l.Note != "" {
			rows = append(rows, field("Note", l.Note))
		}
		if l.RejectReason != "" {
			rows = append(rows, field("Rejected for", l.RejectReason))
		}
		rows = append(rows, "", mutedStyle.Render(decisionHint(s.pending())))
		return strings.Join(rows, "\n")
	})
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body))
}

// ===== OT LIST =====

type adminOTListScreen struct {
	env    *env
	width  int
	height int

	remote  remote
	pager   pager
	filter  int
	reports []api.OTReport
}

func newAdminOTListScreen(e *env, _ routeParams) screen {
	return &adminOTListScreen{env: e, remote: newRemote(), pager: newPager()}
}

func (s *adminOTListScreen) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s *adminOTListScreen) capturing() bool { return false }

func (s *adminOTListScreen) refresh(ctx context.Context) tea.Cmd {
	s.remote.activate(ctx)
	return s.load()
}

func (s *adminOTListScreen) load() tea.Cmd {
	b, opts := s.env.backend, s.env.listOptions(s.pager.page)
	opts.Status = statusFilters[s.filter]
	return fetch(&s.remote, s.env.session, func(ctx context.Context, token string) (*api.OTPage, error) {
		return b.AdminListOT(ctx, token, opts)
	})
}

func (s *adminOTListScreen) visible() []api.OTReport {
	want := statusFilters[s.filter]
	if want == "" {
		return s.reports
	}
	var out []api.OTReport
	for _, o := range s.reports {
		if o.Status == want {
			out = append(out, o)
		}
	}
	return out
}

func (s *adminOTListScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loadedMsg[*api.OTPage]:
		if !s.remote.loaded(msg.seq, msg.err) || msg.err != nil {
			return nil
		}
		s.reports = msg.data.Reports
		s.pager.set(msg.data.Pagination, len(s.visible()))
		return nil

	case tea.KeyMsg:
		rows := s.visible()
		switch {
		case key.Matches(msg, keys.Retry):
			if s.remote.state != stateLoading {
				return s.load()
			}
		case key.Matches(msg, keys.Filter):
			s.filter = (s.filter + 1) % len(statusFilters)
			s.pager.page, s.pager.cursor = 1, 0
			return s.load()
		case key.Matches(msg, keys.Enter):
			if s.remote.ready() && len(rows) > 0 {
				return push(routeAdminOvertimeDetail, routeParams{ID: rows[s.pager.cursor].ID})
			}
		default:
			if s.remote.ready() && s.pager.move(msg, len(rows)) {
				return s.load()
			}
		}
	}
	return nil
}

func (s *adminOTListScreen) exportKind() string { return "overtime-all" }

func (s *adminOTListScreen) exportFunc(format string) func(string) error {
	return exportRows(s.visible(), format, export.OTToCSV, export.OTToJSON)
}

func (s *adminOTListScreen) view() string {
	w := s.width - 4
	title := titleStyle.Render("Overtime reports") + "  " + mutedStyle.Render("filter: "+filterLabel(statusFilters[s.filter]))
	body := s.remote.render(s.env.spin, func() string {
		rows := s.visible()
		if len(rows) == 0 {
			return mutedStyle.Render("No OT reports match.") + "\n\n" + mutedStyle.Render("  f: filter  r: refresh")
		}
		lines := []string{mutedStyle.Render(fmt.Sprintf("  %-26s %-12s %6s  %-18s %s", "Employee", "Date", "Hours", "Project", "Status"))}
		for i, o := range rows {
			lines = append(lines, listRow(i == s.pager.cursor, fmt.Sprintf("%-26s %-12s %6s  %-18s %s",
				truncate(o.Employee.Label(), 26), api.DatePart(o.Date), formatHours(o.TotalHours), truncate(o.Project, 18), statusText(o.Status))))
		}
		lines = append(lines, "", s.pager.footer(), "",
			mutedStyle.Render("  enter: review  f: filter  ←/→: page  e: export  esc: back"))
		return strings.Join(lines, "\n")
	})
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body))
}

// ===== OT DETAIL =====

type adminOTDetailScreen struct {
	env    *env
	width  int
	height int
	id     string

	remote   remote
	report   *api.OTReport
	decision decision
}

func newAdminOTDetailScreen(e *env, p routeParams) screen {
	return &adminOTDetailScreen{env: e, id: p.ID, remote: newRemote(), decision: newDecision()}
}

func (s *adminOTDetailScreen) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s *adminOTDetailScreen) capturing() bool { return s.decision.active }

func (s *adminOTDetailScreen) refresh(ctx context.Context) tea.Cmd {
	s.remote.activate(ctx)
	return s.load()
}

func (s *adminOTDetailScreen) load() tea.Cmd {
	b, id := s.env.backend, s.id
	return fetch(&s.remote, s.env.session, func(ctx context.Context, token string) (*api.OTReport, error) {
		return b.AdminGetOT(ctx, token, id)
	})
}

func (s *adminOTDetailScreen) pending() bool {
	return s.report != nil && s.report.Status == api.StatusPending
}

func (s *adminOTDetailScreen) approve(note string) tea.Cmd {
	b, id := s.env.backend, s.id
	in := api.ApproveInput{Note: strings.TrimSpace(note)}
	return submit(&s.remote, s.env.session, "OT report approved", func(ctx context.Context, token string) error {
		return b.ApproveOT(ctx, token, id, in)
	})
}

// reject needs a reason; without one no call is made.
func (s *adminOTDetailScreen) reject(reason string) tea.Cmd {
	in := api.RejectInput{Reason: strings.TrimSpace(reason)}
	if err := in.Validate(); err != nil {
		return s.remote.reject(err)
	}
	b, id := s.env.backend, s.id
	return submit(&s.remote, s.env.session, "OT report rejected", func(ctx context.Context, token string) error {
		return b.RejectOT(ctx, token, id, in)
	})
}

func (s *adminOTDetailScreen) update(msg tea.Msg) tea.Cmd {
	if s.decision.active {
		cmd, done := s.decision.update(msg)
		if !done {
			return cmd
		}
		if s.decision.approving {
			return s.approve(*s.decision.text)
		}
		return s.reject(*s.decision.text)
	}

	switch msg := msg.(type) {
	case loadedMsg[*api.OTReport]:
		if s.remote.loaded(msg.seq, msg.err) && msg.err == nil {
			s.report = msg.data
		}
		return nil

	case submittedMsg:
		if !s.remote.submitted(msg) {
			return nil
		}
		if msg.err != nil {
			return setStatus(s.remote.notice, true)
		}
		return tea.Batch(setStatus(msg.text, false), s.load())

	case tea.KeyMsg:
		if s.remote.submitting() {
			return nil
		}
		switch {
		case key.Matches(msg, keys.Retry):
			if s.remote.state != stateLoading {
				return s.load()
			}
		case key.Matches(msg, keys.Approve):
			if s.remote.ready() && s.pending() {
				return s.decision.open(true)
			}
		case key.Matches(msg, keys.Reject):
			if s.remote.ready() && s.pending() {
				return s.decision.open(false)
			}
		}
	}
	return nil
}

func (s *adminOTDetailScreen) view() string {
	w := s.width - 4
	if s.decision.active {
		return activePanelStyle.Width(w).Render(s.decision.view("OT report"))
	}

	title := titleStyle.Render("Review OT report")
	body := s.remote.render(s.env.spin, func() string {
		if s.report == nil {
			return ""
		}
		rows := append([]string{field("Employee", s.report.Employee.Label())}, otFields(s.report)...)
		rows = append(rows, "", mutedStyle.Render(decisionHint(s.pending())))
		return strings.Join(rows, "\n")
	})
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body))
}
