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

// ===== LIST =====

type leaveListScreen struct {
	env    *env
	width  int
	height int

	remote   remote
	pager    pager
	requests []api.LeaveRequest
}

func newLeaveListScreen(e *env, _ routeParams) screen {
	return &leaveListScreen{env: e, remote: newRemote(), pager: newPager()}
}

func (s *leaveListScreen) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s *leaveListScreen) capturing() bool { return false }

func (s *leaveListScreen) refresh(ctx context.Context) tea.Cmd {
	s.remote.activate(ctx)
	return s.load()
}

func (s *leaveListScreen) load() tea.Cmd {
	b, opts := s.env.backend, s.env.listOptions(s.pager.page)
	return fetch(&s.remote, s.env.session, func(ctx context.Context, token string) (*api.LeavePage, error) {
		return b.ListLeaves(ctx, token, opts)
	})
}

func (s *leaveListScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loadedMsg[*api.LeavePage]:
		if !s.remote.loaded(msg.seq, msg.err) || msg.err != nil {
			return nil
		}
		s.requests = msg.data.Requests
		s.pager.set(msg.data.Pagination, len(s.requests))
		return nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Retry):
			if s.remote.state != stateLoading {
				return s.load()
			}
		case key.Matches(msg, keys.New):
			return push(routeLeaveForm, routeParams{})
		case key.Matches(msg, keys.Enter):
			if s.remote.ready() && len(s.requests) > 0 {
				return push(routeLeaveDetail, routeParams{ID: s.requests[s.pager.cursor].ID})
			}
		default:
			if s.remote.ready() && s.pager.move(msg, len(s.requests)) {
				return s.load()
			}
		}
	}
	return nil
}

func (s *leaveListScreen) exportKind() string { return "leave" }

func (s *leaveListScreen) exportFunc(format string) func(string) error {
	return exportRows(s.requests, format, export.LeavesToCSV, export.LeavesToJSON)
}

func (s *leaveListScreen) view() string {
	w := s.width - 4
	title := titleStyle.Render("Leave requests")
	body := s.remote.render(s.env.spin, func() string {
		if len(s.requests) == 0 {
			return mutedStyle.Render("No leave requests yet. Press n to create one.")
		}
		rows := []string{mutedStyle.Render(fmt.Sprintf("  %-13s %-12s %-12s %-9s %s", "Type", "From", "To", "Status", "Reason"))}
		for i, l := range s.requests {
			rows = append(rows, listRow(i == s.pager.cursor, fmt.Sprintf("%-13s %-12s %-12s %-9s %s",
				leaveTypeText(l.Type), api.DatePart(l.StartDate), api.DatePart(l.EndDate), statusText(l.Status), truncate(l.Reason, 30))))
		}
		rows = append(rows, "", s.pager.footer(), "",
			mutedStyle.Render("  n: new  enter: details  ←/→: page  e: export  r: refresh"))
		return strings.Join(rows, "\n")
	})
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body))
}

// ===== DETAIL =====

type leaveDetailScreen struct {
	env    *env
	width  int
	height int
	id     string

	remote  remote
	request *api.LeaveRequest

	confirming bool
	form       *huh.Form
	confirmed  *bool
}

func newLeaveDetailScreen(e *env, p routeParams) screen {
	confirmed := false
	return &leaveDetailScreen{env: e, id: p.ID, remote: newRemote(), confirmed: &confirmed}
}

func (s *leaveDetailScreen) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s *leaveDetailScreen) capturing() bool { return s.confirming }

func (s *leaveDetailScreen) refresh(ctx context.Context) tea.Cmd {
	s.remote.activate(ctx)
	return s.load()
}

func (s *leaveDetailScreen) load() tea.Cmd {
	b, id := s.env.backend, s.id
	return fetch(&s.remote, s.env.session, func(ctx context.Context, token string) (*api.LeaveRequest, error) {
		return b.GetLeave(ctx, token, id)
	})
}

func (s *leaveDetailScreen) pending() bool {
	return s.request != nil && s.request.Status == api.StatusPending
}

func (s *leaveDetailScreen) update(msg tea.Msg) tea.Cmd {
	if s.confirming && s.form != nil {
		return s.updateConfirm(msg)
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
		return backWith(msg.text)

	case tea.KeyMsg:
		if s.remote.submitting() {
			return nil
		}
		switch {
		case key.Matches(msg, keys.Retry):
			if s.remote.state != stateLoading {
				return s.load()
			}
		case key.Matches(msg, keys.Edit):
			if s.remote.ready() && s.pending() {
				return push(routeLeaveForm, routeParams{ID: s.id})
			}
		case key.Matches(msg, keys.Delete):
			if s.remote.ready() && s.pending() {
				return s.showConfirm()
			}
		}
	}
	return nil
}

func (s *leaveDetailScreen) showConfirm() tea.Cmd {
	*s.confirmed = false
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().Title("Delete this leave request?").Affirmative("Delete").Negative("Keep").Value(s.confirmed),
		),
	).WithShowHelp(true).WithShowErrors(true)
	s.confirming = true
	return s.form.Init()
}

func (s *leaveDetailScreen) updateConfirm(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		s.confirming = false
		s.form = nil
		return nil
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}
	if s.form.State == huh.StateCompleted {
		s.confirming = false
		s.form = nil
		if *s.confirmed {
			return s.delete()
		}
		return nil
	}
	return cmd
}

func (s *leaveDetailScreen) delete() tea.Cmd {
	b, id := s.env.backend, s.id
	return submit(&s.remote, s.env.session, "Leave request deleted", func(ctx context.Context, token string) error {
		return b.DeleteLeave(ctx, token, id)
	})
}

func (s *leaveDetailScreen) view() string {
	w := s.width - 4
	title := titleStyle.Render("Leave request")
	if s.confirming && s.form != nil {
		return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()))
	}

	body := s.remote.render(s.env.spin, func() string {
		if s.request == nil {
			return ""
		}
		l := s.request
		rows := []string{
			field("Type", leaveTypeText(l.Type)),
			field("From", api.DatePart(l.StartDate)),
			field("To", api.DatePart(l.EndDate)),
			field("Status", renderStatus(l.Status)),
			field("Reason", l.Reason),
		}
		if l.Note != "" {
			rows = append(rows, field("Note", l.Note))
		}
		if l.RejectReason != "" {
			rows = append(rows, field("Rejected for", l.RejectReason))
		}
		if !l.CreatedAt.IsZero() {
			rows = append(rows, field("Submitted", l.CreatedAt.Local().Format("2006-01-02 15:04")))
		}
		hint := "  esc: back  r: refresh"
		if s.pending() {
			hint = "  u: edit  d: delete  esc: back  r: refresh"
		}
		rows = append(rows, "", mutedStyle.Render(hint))
		return strings.Join(rows, "\n")
	})
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body))
}

// ===== FORM =====

// leaveFormScreen creates a request, or edits one when given an id.
type leaveFormScreen struct {
	env    *env
	width  int
	height int
	id     string

	remote remote
	form   *huh.Form

	// Form field pointers (survive value copies)
	leaveType *string
	reason    *string
	startDate *string
	endDate   *string
}

func newLeaveFormScreen(e *env, p routeParams) screen {
	lt, reason, start, end := string(api.LeaveSick), "", "", ""
	return &leaveFormScreen{
		env:       e,
		id:        p.ID,
		remote:    newRemote(),
		leaveType: &lt,
		reason:    &reason,
		startDate: &start,
		endDate:   &end,
	}
}

func (s *leaveFormScreen) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s *leaveFormScreen) editing() bool { return s.id != "" }

func (s *leaveFormScreen) capturing() bool { return s.form != nil && !s.remote.submitting() }

func (s *leaveFormScreen) refresh(ctx context.Context) tea.Cmd {
	s.remote.activate(ctx)
	if !s.editing() {
		today := s.env.now().Format("2006-01-02")
		*s.startDate, *s.endDate = today, today
		s.remote.state = stateReady
		return s.buildForm()
	}
	b, id := s.env.backend, s.id
	return fetch(&s.remote, s.env.session, func(ctx context.Context, token string) (*api.LeaveRequest, error) {
		return b.GetLeave(ctx, token, id)
	})
}

func (s *leaveFormScreen) buildForm() tea.Cmd {
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Type").
				Options(
					huh.NewOption(leaveTypeText(api.LeaveSick), string(api.LeaveSick)),
					huh.NewOption(leaveTypeText(api.LeaveAnnual), string(api.LeaveAnnual)),
				).Value(s.leaveType),
			huh.NewInput().Title("Reason").Value(s.reason),
			huh.NewInput().Title("Start date").Placeholder("YYYY-MM-DD").Value(s.startDate),
			huh.NewInput().Title("End date").Placeholder("YYYY-MM-DD").Value(s.endDate),
		),
	).WithShowHelp(true).WithShowErrors(true)
	return s.form.Init()
}

func (s *leaveFormScreen) input() api.LeaveInput {
	return api.LeaveInput{
		Type:      api.LeaveType(*s.leaveType),
		Reason:    strings.TrimSpace(*s.reason),
		StartDate: strings.TrimSpace(*s.startDate),
		EndDate:   strings.TrimSpace(*s.endDate),
	}
}

// submit validates the form and saves it. Invalid input makes no call.
func (s *leaveFormScreen) submit() tea.Cmd {
	in := s.input()
	if err := in.Validate(); err != nil {
		return tea.Batch(s.remote.reject(err), s.buildForm())
	}

	b, id := s.env.backend, s.id
	if s.editing() {
		return submit(&s.remote, s.env.session, "Leave request updated", func(ctx context.Context, token string) error {
			_, err := b.UpdateLeave(ctx, token, id, in)
			return err
		})
	}
	return submit(&s.remote, s.env.session, "Leave request submitted", func(ctx context.Context, token string) error {
		_, err := b.CreateLeave(ctx, token, in)
		return err
	})
}

func (s *leaveFormScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loadedMsg[*api.LeaveRequest]:
		if !s.remote.loaded(msg.seq, msg.err) || msg.err != nil {
			return nil
		}
		l := msg.data
		*s.leaveType = string(l.Type)
		*s.reason = l.Reason
		*s.startDate = api.DatePart(l.StartDate)
		*s.endDate = api.DatePart(l.EndDate)
		return s.buildForm()

	case submittedMsg:
		if !s.remote.submitted(msg) {
			return nil
		}
		if msg.err != nil {
			return tea.Batch(setStatus(s.remote.notice, true), s.buildForm())
		}
		return backWith(msg.text)

	case tea.KeyMsg:
		if msg.String() == "esc" && !s.remote.submitting() {
			return back()
		}
		if s.remote.failed() && key.Matches(msg, keys.Retry) {
			return s.refresh(s.remote.ctx)
		}
	}

	if s.form == nil || !s.remote.ready() {
		return nil
	}
	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}
	if s.form.State == huh.StateCompleted {
		return s.submit()
	}
	return cmd
}

func (s *leaveFormScreen) view() string {
	w := s.width - 4
	title := titleStyle.Render("New leave request")
	if s.editing() {
		title = titleStyle.Render("Edit leave request")
	}
	body := s.remote.render(s.env.spin, func() string {
		if s.form == nil {
			return ""
		}
		return s.form.View()
	})
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body))
}
