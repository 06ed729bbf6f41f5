package tui

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/staffdesk/internal/store"
)

var settingLabels = map[string]string{
	"last_email":    "Last sign-in email",
	"page_size":     "Rows per page",
	"export_format": "Export format",
}

// profileScreen shows the signed-in user, the local settings and sign out.
type profileScreen struct {
	env    *env
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	pageSize     *string
	exportFormat *string
}

func newProfileScreen(e *env, _ routeParams) screen {
	ps, ef := "", ""
	return &profileScreen{env: e, pageSize: &ps, exportFormat: &ef}
}

func (s *profileScreen) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s *profileScreen) capturing() bool { return s.formActive }

type settingsDataMsg struct {
	settings []store.Setting
}

func (s *profileScreen) refresh(_ context.Context) tea.Cmd {
	st := s.env.settings
	return func() tea.Msg {
		settings, _ := st.GetAllSettings()
		return settingsDataMsg{settings: settings}
	}
}

func (s *profileScreen) update(msg tea.Msg) tea.Cmd {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		case key.Matches(msg, keys.Logout):
			return func() tea.Msg { return logoutMsg{} }
		}
	}
	return nil
}

func (s *profileScreen) showForm() tea.Cmd {
	*s.pageSize = strconv.Itoa(s.env.pageSize())
	*s.exportFormat = s.getVal("export_format", "csv")

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Rows per page").Value(s.pageSize).Validate(validPageSize),
			huh.NewSelect[string]().Title("Export format").
				Options(
					huh.NewOption("CSV", "csv"),
					huh.NewOption("JSON", "json"),
				).Value(s.exportFormat),
		).Title("Settings"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s.form.Init()
}

func validPageSize(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > maxPageSize {
		return fmt.Errorf("enter a number from 1 to %d", maxPageSize)
	}
	return nil
}

func (s *profileScreen) updateForm(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		if err := s.saveSettings(); err != nil {
			return setStatus("Could not save settings: "+err.Error(), true)
		}
		return tea.Batch(setStatus("Settings saved", false), s.refresh(context.Background()))
	}

	return cmd
}

func (s *profileScreen) saveSettings() error {
	if err := s.env.settings.SetSetting("page_size", *s.pageSize); err != nil {
		return err
	}
	return s.env.settings.SetSetting("export_format", *s.exportFormat)
}

func (s *profileScreen) getVal(k, fallback string) string {
	v, err := s.env.settings.GetSetting(k)
	if err != nil {
		return fallback
	}
	return v
}

func (s *profileScreen) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	user := s.env.session.User()
	rows := []string{
		titleStyle.Render("Profile"),
		"",
		field("Email", user.Email),
		field("Role", string(user.Role)),
		field("User ID", user.ID),
		"",
		titleStyle.Render("Settings"),
		"",
	}
	for _, setting := range s.settings {
		label := settingLabels[setting.Key]
		if label == "" {
			label = setting.Key
		}
		rows = append(rows, fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(22).Render(label), highlightStyle.Render(setting.Value)))
	}
	rows = append(rows, "", mutedStyle.Render("Press enter to edit settings, o to sign out"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
