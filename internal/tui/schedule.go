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
	"github.com/sadopc/staffdesk/internal/validator"
)

// ===== WEEK VIEW =====

// scheduleScreen shows the current week. Administrators can also start a
// schedule for next week from it.
type scheduleScreen struct {
	env    *env
	width  int
	height int
	admin  bool

	remote   remote
	schedule *api.Schedule
}

func newScheduleScreen(e *env, _ routeParams) screen {
	return &scheduleScreen{env: e, remote: newRemote()}
}

func newAdminScheduleScreen(e *env, _ routeParams) screen {
	return &scheduleScreen{env: e, remote: newRemote(), admin: true}
}

func (s *scheduleScreen) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s *scheduleScreen) capturing() bool { return false }

func (s *scheduleScreen) refresh(ctx context.Context) tea.Cmd {
	s.remote.activate(ctx)
	return s.load()
}

func (s *scheduleScreen) load() tea.Cmd {
	b := s.env.backend
	return fetch(&s.remote, s.env.session, func(ctx context.Context, token string) (*api.Schedule, error) {
		return b.CurrentSchedule(ctx, token)
	})
}

func (s *scheduleScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loadedMsg[*api.Schedule]:
		if s.remote.loaded(msg.seq, msg.err) && msg.err == nil {
			s.schedule = msg.data
		}
		return nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Retry):
			if s.remote.state != stateLoading {
				return s.load()
			}
		case key.Matches(msg, keys.New):
			if s.admin {
				return push(routeAdminScheduleForm, routeParams{})
			}
		}
	}
	return nil
}

func (s *scheduleScreen) view() string {
	w := s.width - 4
	title := titleStyle.Render("Schedule")
	body := s.remote.render(s.env.spin, func() string {
		hint := "  r: refresh"
		if s.admin {
			hint = "  n: schedule next week  esc: back  r: refresh"
		}
		if s.schedule == nil || len(s.schedule.Days) == 0 {
			return mutedStyle.Render("No schedule for this week.") + "\n\n" + mutedStyle.Render(hint)
		}

		me := s.env.session.User().ID
		rows := []string{
			mutedStyle.Render(fmt.Sprintf("Week %s to %s", api.DatePart(s.schedule.WeekStart), api.DatePart(s.schedule.WeekEnd))),
			"",
			mutedStyle.Render(fmt.Sprintf("  %-12s %-30s %s", "Day", "Morning", "Afternoon")),
		}
		for _, d := range s.schedule.Days {
			rows = append(rows, fmt.Sprintf("  %-12s %-30s %s",
				formatDay(d.Date), slotNames(d.Shifts.Morning, me, 30), slotNames(d.Shifts.Afternoon, me, 30)))
		}
		if !s.admin {
			rows = append(rows, "", highlightStyle.Render("  * your shifts"))
		}
		rows = append(rows, "", mutedStyle.Render(hint))
		return strings.Join(rows, "\n")
	})
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body))
}

// slotNames lists who works a shift, marking the signed-in user.
func slotNames(slots []api.ShiftSlot, me string, width int) string {
	if len(slots) == 0 {
		return "-"
	}
	names := make([]string, 0, len(slots))
	for _, sl := range slots {
		name := sl.Name
		if name == "" {
			name = sl.EmployeeID
		}
		if me != "" && sl.EmployeeID == me {
			name = "*" + name
		}
		names = append(names, name)
	}
	return truncate(strings.Join(names, ", "), width)
}

// ===== CREATE FORM =====

// scheduleFormScreen builds next week's schedule. Each shift is entered as
// comma-separated "id/name/position" entries.
type scheduleFormScreen struct {
	env    *env
	width  int
	height int

	remote remote
	form   *huh.Form
	input  api.CreateScheduleInput

	// One pair of entries per day (survive value copies)
	morning   []*string
	afternoon []*string
}

func newScheduleFormScreen(e *env, _ routeParams) screen {
	return &scheduleFormScreen{env: e, remote: newRemote()}
}

func (s *scheduleFormScreen) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s *scheduleFormScreen) capturing() bool { return s.form != nil && !s.remote.submitting() }

func (s *scheduleFormScreen) refresh(ctx context.Context) tea.Cmd {
	s.remote.activate(ctx)
	s.remote.state = stateReady
	s.input = api.NextWeekInput(s.env.now())
	s.morning = make([]*string, len(s.input.Days))
	s.afternoon = make([]*string, len(s.input.Days))
	for i := range s.input.Days {
		m, a := "", ""
		s.morning[i], s.afternoon[i] = &m, &a
	}
	return s.buildForm()
}

func (s *scheduleFormScreen) buildForm() tea.Cmd {
	groups := make([]*huh.Group, 0, len(s.input.Days))
	for i, d := range s.input.Days {
		groups = append(groups, huh.NewGroup(
			huh.NewInput().Title("Morning").Placeholder("id/name/position, ...").Value(s.morning[i]),
			huh.NewInput().Title("Afternoon").Placeholder("id/name/position, ...").Value(s.afternoon[i]),
		).Title(formatDay(d.Date)))
	}
	s.form = huh.NewForm(groups...).WithShowHelp(true).WithShowErrors(true)
	return s.form.Init()
}

// build turns the entries into the request body.
func (s *scheduleFormScreen) build() (api.CreateScheduleInput, error) {
	in := api.CreateScheduleInput{WeekStart: s.input.WeekStart, WeekEnd: s.input.WeekEnd}
	var errs validator.ValidationErrors
	for i, d := range s.input.Days {
		morning, err := parseShiftSlots(*s.morning[i])
		if err != nil {
			errs.Add(d.Date, formatDay(d.Date)+" morning: "+err.Error())
		}
		afternoon, err := parseShiftSlots(*s.afternoon[i])
		if err != nil {
			errs.Add(d.Date, formatDay(d.Date)+" afternoon: "+err.Error())
		}
		in.Days = append(in.Days, api.ScheduleDay{
			Date:   d.Date,
			Shifts: api.Shifts{Morning: morning, Afternoon: afternoon},
		})
	}
	if err := errs.Err(); err != nil {
		return in, err
	}
	return in, in.Validate()
}

// submit validates the week and creates it. Invalid input makes no call.
func (s *scheduleFormScreen) submit() tea.Cmd {
	in, err := s.build()
	if err != nil {
		return tea.Batch(s.remote.reject(err), s.buildForm())
	}
	b := s.env.backend
	return submit(&s.remote, s.env.session, "Schedule created", func(ctx context.Context, token string) error {
		_, err := b.CreateSchedule(ctx, token, in)
		return err
	})
}

func (s *scheduleFormScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
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

func (s *scheduleFormScreen) view() string {
	w := s.width - 4
	title := titleStyle.Render(fmt.Sprintf("Schedule for %s to %s", s.input.WeekStart, s.input.WeekEnd))
	body := s.remote.render(s.env.spin, func() string {
		if s.form == nil {
			return ""
		}
		return s.form.View()
	})
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body))
}

// parseShiftSlots reads "id/name/position, id/name/position". Name and
// position may be left out; the id may not.
func parseShiftSlots(s string) ([]api.ShiftSlot, error) {
	slots := []api.ShiftSlot{}
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "/", 3)
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if parts[0] == "" {
			return nil, fmt.Errorf("%q has no employee id", entry)
		}
		slot := api.ShiftSlot{EmployeeID: parts[0]}
		if len(parts) > 1 {
			slot.Name = parts[1]
		}
		if len(parts) > 2 {
			slot.Position = parts[2]
		}
		slots = append(slots, slot)
	}
	return slots, nil
}
