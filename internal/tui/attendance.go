package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/staffdesk/internal/api"
	"github.com/sadopc/staffdesk/internal/export"
)

type attendanceScreen struct {
	env    *env
	width  int
	height int

	remote  remote
	pager   pager
	records []api.AttendanceRecord
	chart   barchart.Model

	// today is kept apart from records, which hold only the page shown.
	// Page 1 loads and check results set it.
	today *api.AttendanceRecord
}

func newAttendanceScreen(e *env, _ routeParams) screen {
	return &attendanceScreen{
		env:    e,
		remote: newRemote(),
		pager:  newPager(),
		chart:  barchart.New(60, 10),
	}
}

func (s *attendanceScreen) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s *attendanceScreen) capturing() bool { return false }

func (s *attendanceScreen) refresh(ctx context.Context) tea.Cmd {
	s.remote.activate(ctx)
	return s.load()
}

func (s *attendanceScreen) load() tea.Cmd {
	b, opts := s.env.backend, s.env.listOptions(s.pager.page)
	return fetch(&s.remote, s.env.session, func(ctx context.Context, token string) (*api.AttendancePage, error) {
		return b.History(ctx, token, opts)
	})
}

// check toggles today's check-in. The server's record decides the status.
func (s *attendanceScreen) check() tea.Cmd {
	guess := "Checked in"
	if s.today != nil && s.today.CheckedIn() {
		guess = "Checked out"
	}
	b := s.env.backend
	done := func(rec *api.AttendanceRecord) string {
		switch {
		case rec == nil:
			return guess
		case rec.CheckedIn():
			return "Checked in"
		default:
			return "Checked out"
		}
	}
	return submitResult(&s.remote, s.env.session, done, func(ctx context.Context, token string) (*api.AttendanceRecord, error) {
		return b.Check(ctx, token)
	})
}

func (s *attendanceScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loadedMsg[*api.AttendancePage]:
		if !s.remote.loaded(msg.seq, msg.err) || msg.err != nil {
			return nil
		}
		s.records = msg.data.Records
		s.pager.set(msg.data.Pagination, len(s.records))
		if s.pager.page == 1 {
			s.today = nil
			if rec, ok := api.TodayRecord(s.records, s.env.now()); ok {
				s.today = &rec
			}
		}
		s.buildChart()
		return nil

	case submittedMsg:
		if !s.remote.submitted(msg) {
			return nil
		}
		if msg.err != nil {
			return setStatus(s.remote.notice, true)
		}
		if rec, ok := msg.data.(*api.AttendanceRecord); ok && rec != nil {
			s.today = rec
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
		case key.Matches(msg, keys.Check):
			if s.remote.ready() {
				return s.check()
			}
		default:
			if s.remote.ready() && s.pager.move(msg, len(s.records)) {
				return s.load()
			}
		}
	}
	return nil
}

func (s *attendanceScreen) buildChart() {
	s.chart = buildHoursChart(s.width-8, chartHeight(s.height), hoursByDay(s.records))
}

func (s *attendanceScreen) exportKind() string { return "attendance" }

func (s *attendanceScreen) exportFunc(format string) func(string) error {
	return exportRows(s.records, format, export.AttendanceToCSV, export.AttendanceToJSON)
}

func (s *attendanceScreen) view() string {
	w := s.width - 4
	title := titleStyle.Render("Attendance")
	body := s.remote.render(s.env.spin, func() string {
		parts := []string{s.renderToday(), ""}
		if len(s.records) > 0 {
			parts = append(parts, mutedStyle.Render("Hours per day"), s.chart.View(), "")
		}
		parts = append(parts, s.renderHistory(), "", s.pager.footer(), "",
			mutedStyle.Render("  c: check in/out  ←/→: page  e: export  r: refresh"))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	})
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body))
}

func (s *attendanceScreen) renderToday() string {
	rec := s.today
	var line string
	switch {
	case rec == nil || len(rec.TimeLogs) == 0:
		line = warningStyle.Render("Not checked in today")
	case rec.CheckedIn():
		last := rec.TimeLogs[len(rec.TimeLogs)-1]
		line = successStyle.Render("Checked in since " + formatClock(last.CheckIn))
	default:
		last := rec.TimeLogs[len(rec.TimeLogs)-1]
		line = highlightStyle.Render(fmt.Sprintf("Checked out at %s, %s today", formatClock(*last.CheckOut), formatHours(rec.TotalHours)))
	}
	return statCardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Today"), line))
}

func (s *attendanceScreen) renderHistory() string {
	if len(s.records) == 0 {
		return mutedStyle.Render("  No attendance records yet")
	}

	rows := []string{
		mutedStyle.Render(fmt.Sprintf("  %-12s %-9s %-8s %-8s %7s  %s", "Date", "Check-ins", "In", "Out", "Hours", "Status")),
		rule(s.width, 62),
	}
	for _, r := range s.records {
		in, out := "--:--", "--:--"
		if len(r.TimeLogs) > 0 {
			in = formatClock(r.TimeLogs[0].CheckIn)
			if co := r.TimeLogs[len(r.TimeLogs)-1].CheckOut; co != nil {
				out = formatClock(*co)
			}
		}
		rows = append(rows, fmt.Sprintf("  %-12s %-9d %-8s %-8s %7s  %s",
			formatDay(r.Date), len(r.TimeLogs), in, out, formatHours(r.TotalHours), attendanceStatusText(r.Status)))
	}
	return strings.Join(rows, "\n")
}

func attendanceStatusText(status string) string {
	if status == api.AttendanceCompleted {
		return successStyle.Render("Completed")
	}
	return warningStyle.Render("In progress")
}
