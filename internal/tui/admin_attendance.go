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

type adminAttendanceScreen struct {
	env    *env
	width  int
	height int

	remote remote
	pager  pager
	page   *api.AdminAttendancePage
	chart  barchart.Model
}

func newAdminAttendanceScreen(e *env, _ routeParams) screen {
	return &adminAttendanceScreen{env: e, remote: newRemote(), pager: newPager(), chart: barchart.New(60, 10)}
}

func (s *adminAttendanceScreen) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s *adminAttendanceScreen) capturing() bool { return false }

func (s *adminAttendanceScreen) refresh(ctx context.Context) tea.Cmd {
	s.remote.activate(ctx)
	return s.load()
}

func (s *adminAttendanceScreen) load() tea.Cmd {
	b, opts := s.env.backend, s.env.listOptions(s.pager.page)
	return fetch(&s.remote, s.env.session, func(ctx context.Context, token string) (*api.AdminAttendancePage, error) {
		return b.AdminAttendance(ctx, token, opts)
	})
}

func (s *adminAttendanceScreen) records() []api.AttendanceRecord {
	if s.page == nil {
		return nil
	}
	out := make([]api.AttendanceRecord, len(s.page.Records))
	for i, r := range s.page.Records {
		out[i] = r.AttendanceRecord
	}
	return out
}

func (s *adminAttendanceScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loadedMsg[*api.AdminAttendancePage]:
		if !s.remote.loaded(msg.seq, msg.err) || msg.err != nil {
			return nil
		}
		s.page = msg.data
		s.pager.set(msg.data.Pagination, len(msg.data.Records))
		s.chart = buildHoursChart(s.width-8, chartHeight(s.height), hoursByDay(s.records()))
		return nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Retry) {
			if s.remote.state != stateLoading {
				return s.load()
			}
			return nil
		}
		if s.remote.ready() && s.page != nil && s.pager.move(msg, len(s.page.Records)) {
			return s.load()
		}
	}
	return nil
}

func (s *adminAttendanceScreen) exportKind() string { return "attendance-all" }

func (s *adminAttendanceScreen) exportFunc(format string) func(string) error {
	return exportRows(s.records(), format, export.AttendanceToCSV, export.AttendanceToJSON)
}

func (s *adminAttendanceScreen) view() string {
	w := s.width - 4
	title := titleStyle.Render("Attendance")
	body := s.remote.render(s.env.spin, func() string {
		if s.page == nil {
			return ""
		}
		parts := []string{s.renderStats(), ""}
		if len(s.page.Records) > 0 {
			parts = append(parts, mutedStyle.Render("Hours per day, all employees"), s.chart.View(), "")
		}
		parts = append(parts, s.renderTable(), "", s.pager.footer(), "",
			mutedStyle.Render("  ←/→: page  e: export  esc: back  r: refresh"))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	})
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body))
}

func (s *adminAttendanceScreen) renderStats() string {
	st := s.page.Statistics
	card := func(label, value string) string {
		return statCardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, mutedStyle.Render(label), statValueStyle.Render(value)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Employees", fmt.Sprintf("%d", st.TotalEmployees)),
		card("Present today", fmt.Sprintf("%d", st.PresentToday)),
		card("Avg hours/day", formatHours(st.AverageHoursPerDay)),
	)
}

func (s *adminAttendanceScreen) renderTable() string {
	if len(s.page.Records) == 0 {
		return mutedStyle.Render("  No attendance records")
	}
	rows := []string{
		mutedStyle.Render(fmt.Sprintf("  %-26s %-12s %-9s %7s  %s", "Employee", "Date", "Check-ins", "Hours", "Status")),
		rule(s.width, 68),
	}
	for _, r := range s.page.Records {
		rows = append(rows, fmt.Sprintf("  %-26s %-12s %-9d %7s  %s",
			truncate(r.EmployeeLabel(), 26), formatDay(r.Date), len(r.TimeLogs), formatHours(r.TotalHours), attendanceStatusText(r.Status)))
	}
	return strings.Join(rows, "\n")
}
