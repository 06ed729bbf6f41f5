package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/staffdesk/internal/api"
	"github.com/sadopc/staffdesk/internal/export"
	"github.com/sadopc/staffdesk/internal/validator"
)

// ===== LIST =====

type otListScreen struct {
	env    *env
	width  int
	height int

	remote  remote
	pager   pager
	reports []api.OTReport
}

func newOTListScreen(e *env, _ routeParams) screen {
	return &otListScreen{env: e, remote: newRemote(), pager: newPager()}
}

func (s *otListScreen) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s *otListScreen) capturing() bool { return false }

func (s *otListScreen) refresh(ctx context.Context) tea.Cmd {
	s.remote.activate(ctx)
	return s.load()
}

func (s *otListScreen) load() tea.Cmd {
	b, opts := s.env.backend, s.env.listOptions(s.pager.page)
	return fetch(&s.remote, s.env.session, func(ctx context.Context, token string) (*api.OTPage, error) {
		return b.ListOT(ctx, token, opts)
	})
}

func (s *otListScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loadedMsg[*api.OTPage]:
		if !s.remote.loaded(msg.seq, msg.err) || msg.err != nil {
			return nil
		}
		s.reports = msg.data.Reports
		s.pager.set(msg.data.Pagination, len(s.reports))
		return nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Retry):
			if s.remote.state != stateLoading {
				return s.load()
			}
		case key.Matches(msg, keys.New):
			return push(routeOvertimeForm, routeParams{})
		case key.Matches(msg, keys.Enter):
			if s.remote.ready() && len(s.reports) > 0 {
				return push(routeOvertimeDetail, routeParams{ID: s.reports[s.pager.cursor].ID})
			}
		default:
			if s.remote.ready() && s.pager.move(msg, len(s.reports)) {
				return s.load()
			}
		}
	}
	return nil
}

func (s *otListScreen) exportKind() string { return "overtime" }

func (s *otListScreen) exportFunc(format string) func(string) error {
	return exportRows(s.reports, format, export.OTToCSV, export.OTToJSON)
}

func (s *otListScreen) view() string {
	w := s.width - 4
	title := titleStyle.Render("Overtime reports")
	body := s.remote.render(s.env.spin, func() string {
		if len(s.reports) == 0 {
			return mutedStyle.Render("No OT reports yet. Press n to create one.")
		}
		rows := []string{mutedStyle.Render(fmt.Sprintf("  %-12s %-13s %6s  %-9s %s", "Date", "Time", "Hours", "Status", "Project"))}
		for i, o := range s.reports {
			rows = append(rows, listRow(i == s.pager.cursor, fmt.Sprintf("%-12s %-13s %6s  %-9s %s",
				api.DatePart(o.Date), o.StartTime+"-"+o.EndTime, formatHours(o.TotalHours), statusText(o.Status), truncate(o.Project, 24))))
		}
		rows = append(rows, "", s.pager.footer(), "",
			mutedStyle.Render("  n: new  enter: details  ←/→: page  e: export  r: refresh"))
		return strings.Join(rows, "\n")
	})
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body))
}

// ===== DETAIL =====

type otDetailScreen struct {
	env    *env
	width  int
	height int
	id     string

	remote remote
	report *api.OTReport
}

func newOTDetailScreen(e *env, p routeParams) screen {
	return &otDetailScreen{env: e, id: p.ID, remote: newRemote()}
}

func (s *otDetailScreen) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s *otDetailScreen) capturing() bool { return false }

func (s *otDetailScreen) refresh(ctx context.Context) tea.Cmd {
	s.remote.activate(ctx)
	return s.load()
}

func (s *otDetailScreen) load() tea.Cmd {
	b, id := s.env.backend, s.id
	return fetch(&s.remote, s.env.session, func(ctx context.Context, token string) (*api.OTReport, error) {
		return b.GetOT(ctx, token, id)
	})
}

func (s *otDetailScreen) pending() bool {
	return s.report != nil && s.report.Status == api.StatusPending
}

func (s *otDetailScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loadedMsg[*api.OTReport]:
		if s.remote.loaded(msg.seq, msg.err) && msg.err == nil {
			s.report = msg.data
		}
		return nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Retry):
			if s.remote.state != stateLoading {
				return s.load()
			}
		case key.Matches(msg, keys.Edit):
			if s.remote.ready() && s.pending() {
				return push(routeOvertimeForm, routeParams{ID: s.id})
			}
		}
	}
	return nil
}

func (s *otDetailScreen) view() string {
	w := s.width - 4
	title := titleStyle.Render("OT report")
	body := s.remote.render(s.env.spin, func() string {
		if s.report == nil {
			return ""
		}
		rows := otFields(s.report)
		hint := "  esc: back  r: refresh"
		if s.pending() {
			hint = "  u: edit  esc: back  r: refresh"
		}
		rows = append(rows, "", mutedStyle.Render(hint))
		return strings.Join(rows, "\n")
	})
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body))
}

func otFields(o *api.OTReport) []string {
	rows := []string{
		field("Date", api.DatePart(o.Date)),
		field("Time", o.StartTime+" - "+o.EndTime),
		field("Hours", formatHours(o.TotalHours)),
		field("Project", o.Project),
		field("Tasks", o.Tasks),
		field("Reason", o.Reason),
		field("Status", renderStatus(o.Status)),
	}
	if o.Note != "" {
		rows = append(rows, field("Note", o.Note))
	}
	if o.RejectReason != "" {
		rows = append(rows, field("Rejected for", o.RejectReason))
	}
	return rows
}

// ===== FORM =====

type otFormScreen struct {
	env    *env
	width  int
	height int
	id     string

	remote remote
	form   *huh.Form

	// Form field pointers (survive value copies)
	date      *string
	startTime *string
	endTime   *string
	hours     *string
	reason    *string
	project   *string
	tasks     *string
}

func newOTFormScreen(e *env, p routeParams) screen {
	date, start, end, hours := "", "", "", ""
	reason, project, tasks := "", "", ""
	return &otFormScreen{
		env:       e,
		id:        p.ID,
		remote:    newRemote(),
		date:      &date,
		startTime: &start,
		endTime:   &end,
		hours:     &hours,
		reason:    &reason,
		project:   &project,
		tasks:     &tasks,
	}
}

func (s *otFormScreen) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s *otFormScreen) editing() bool { return s.id != "" }

func (s *otFormScreen) capturing() bool { return s.form != nil && !s.remote.submitting() }

func (s *otFormScreen) refresh(ctx context.Context) tea.Cmd {
	s.remote.activate(ctx)
	if !s.editing() {
		*s.date = s.env.now().Format("2006-01-02")
		s.remote.state = stateReady
		return s.buildForm()
	}
	b, id := s.env.backend, s.id
	return fetch(&s.remote, s.env.session, func(ctx context.Context, token string) (*api.OTReport, error) {
		return b.GetOT(ctx, token, id)
	})
}

func (s *otFormScreen) buildForm() tea.Cmd {
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Date").Placeholder("YYYY-MM-DD").Value(s.date),
			huh.NewInput().Title("Start time").Placeholder("HH:MM").Value(s.startTime),
			huh.NewInput().Title("End time").Placeholder("HH:MM").Value(s.endTime),
			huh.NewInput().Title("Total hours").Description("Leave blank to use the time range").Value(s.hours),
		).Title("When"),
		huh.NewGroup(
			huh.NewInput().Title("Project").Value(s.project),
			huh.NewInput().Title("Tasks").Value(s.tasks),
			huh.NewText().Title("Reason").Value(s.reason),
		).Title("What"),
	).WithShowHelp(true).WithShowErrors(true)
	return s.form.Init()
}

func (s *otFormScreen) input() api.OTInput {
	in := api.OTInput{
		Date:      strings.TrimSpace(*s.date),
		StartTime: strings.TrimSpace(*s.startTime),
		EndTime:   strings.TrimSpace(*s.endTime),
		Reason:    strings.TrimSpace(*s.reason),
		Project:   strings.TrimSpace(*s.project),
		Tasks:     strings.TrimSpace(*s.tasks),
	}
	if validator.IsEmpty(*s.hours) {
		in.TotalHours = clockSpan(in.StartTime, in.EndTime)
	} else if h, ok := validator.IsPositiveNumber(strings.TrimSpace(*s.hours)); ok {
		in.TotalHours = h
	}
	return in
}

// submit validates the form and saves it. Invalid input makes no call.
func (s *otFormScreen) submit() tea.Cmd {
	in := s.input()
	if err := in.Validate(); err != nil {
		return tea.Batch(s.remote.reject(err), s.buildForm())
	}

	b, id := s.env.backend, s.id
	if s.editing() {
		return submit(&s.remote, s.env.session, "OT report updated", func(ctx context.Context, token string) error {
			_, err := b.UpdateOT(ctx, token, id, in)
			return err
		})
	}
	return submit(&s.remote, s.env.session, "OT report submitted", func(ctx context.Context, token string) error {
		_, err := b.CreateOT(ctx, token, in)
		return err
	})
}

func (s *otFormScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loadedMsg[*api.OTReport]:
		if !s.remote.loaded(msg.seq, msg.err) || msg.err != nil {
			return nil
		}
		o := msg.data
		*s.date = api.DatePart(o.Date)
		*s.startTime = o.StartTime
		*s.endTime = o.EndTime
		*s.hours = strconv.FormatFloat(o.TotalHours, 'f', -1, 64)
		*s.reason = o.Reason
		*s.project = o.Project
		*s.tasks = o.Tasks
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

func (s *otFormScreen) view() string {
	w := s.width - 4
	title := titleStyle.Render("New OT report")
	if s.editing() {
		title = titleStyle.Render("Edit OT report")
	}
	body := s.remote.render(s.env.spin, func() string {
		if s.form == nil {
			return ""
		}
		return s.form.View()
	})
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body))
}

// clockSpan returns the hours from start to end (HH:MM), wrapping past
// midnight. It is 0 when either clock is invalid.
func clockSpan(start, end string) float64 {
	if !validator.IsValidClock(start) || !validator.IsValidClock(end) {
		return 0
	}
	s, _ := time.Parse("15:04", start)
	e, _ := time.Parse("15:04", end)
	d := e.Sub(s)
	if d < 0 {
		d += 24 * time.Hour
	}
	return d.Hours()
}
