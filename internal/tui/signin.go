package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/staffdesk/internal/api"
)

type signInScreen struct {
	env    *env
	width  int
	height int

	remote remote
	form   *huh.Form

	// Form field pointers (survive value copies)
	email    *string
	password *string
}

func newSignInScreen(e *env, _ routeParams) screen {
	email, password := "", ""
	return &signInScreen{env: e, remote: newRemote(), email: &email, password: &password}
}

func (s *signInScreen) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s *signInScreen) capturing() bool { return !s.remote.submitting() }

func (s *signInScreen) refresh(ctx context.Context) tea.Cmd {
	s.remote.activate(ctx)
	s.remote.state = stateReady
	if *s.email == "" {
		*s.email = s.env.sessions.LastEmail()
	}
	*s.password = ""
	return s.buildForm()
}

func (s *signInScreen) buildForm() tea.Cmd {
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Email").Placeholder("you@company.com").Value(s.email),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(s.password),
		),
	).WithShowHelp(true).WithShowErrors(true)
	return s.form.Init()
}

func (s *signInScreen) update(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(submittedMsg); ok {
		if !s.remote.submitted(msg) {
			return nil
		}
		*s.password = ""
		return tea.Batch(setStatus(s.remote.notice, true), s.buildForm())
	}

	if s.remote.submitting() || s.form == nil {
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

// submit validates the credentials and signs in. Invalid input makes no call.
func (s *signInScreen) submit() tea.Cmd {
	req := api.LoginRequest{Email: strings.TrimSpace(*s.email), Password: *s.password}
	if err := req.Validate(); err != nil {
		return tea.Batch(s.remote.reject(err), s.buildForm())
	}

	s.remote.state = stateSubmitting
	s.remote.notice = ""
	s.remote.seq = nextSeq()
	seq, ctx, sessions := s.remote.seq, context.WithoutCancel(s.remote.ctx), s.env.sessions
	return func() tea.Msg {
		sess, err := sessions.Login(ctx, req.Email, req.Password)
		if err != nil {
			return submittedMsg{seq: seq, err: err}
		}
		return loggedInMsg{session: sess}
	}
}

func (s *signInScreen) view() string {
	w := min(s.width-4, 64)
	title := titleStyle.Render("Sign in to staffdesk")
	body := s.remote.render(s.env.spin, func() string {
		if s.form == nil {
			return ""
		}
		return s.form.View()
	})
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body))
}
