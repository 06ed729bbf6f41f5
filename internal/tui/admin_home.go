package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/sadopc/staffdesk/internal/api"
)

// countWindow is how many of the latest items the home counts look at.
const countWindow = 100

type adminCounts struct {
	pendingLeave int
	pendingOT    int
	presentToday int
	employees    int
}

type menuItem struct {
	label string
	to    route
	badge func(c adminCounts) string
}

var adminMenu = []menuItem{
	{label: "Leave requests", to: routeAdminLeave, badge: func(c adminCounts) string { return pendingBadge(c.pendingLeave) }},
	{label: "Overtime reports", to: routeAdminOvertime, badge: func(c adminCounts) string { return pendingBadge(c.pendingOT) }},
	{label: "Attendance", to: routeAdminAttendance, badge: func(c adminCounts) string {
		return mutedStyle.Render(fmt.Sprintf("%d of %d present today", c.presentToday, c.employees))
	}},
	{label: "Schedule", to: routeAdminSchedule},
	{label: "Profile", to: routeProfile},
}

func pendingBadge(n int) string {
	if n == 0 {
		return mutedStyle.Render("nothing pending")
	}
	return warningStyle.Render(fmt.Sprintf("%d pending", n))
}

type adminHomeScreen struct {
	env    *env
	width  int
	height int

	remote remote
	cursor int
	counts adminCounts
}

func newAdminHomeScreen(e *env, _ routeParams) screen {
	return &adminHomeScreen{env: e, remote: newRemote()}
}

func (s *adminHomeScreen) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s *adminHomeScreen) capturing() bool { return false }

func (s *adminHomeScreen) refresh(ctx context.Context) tea.Cmd {
	s.remote.activate(ctx)
	return s.load()
}

func (s *adminHomeScreen) load() tea.Cmd {
	b := s.env.backend
	return fetch(&s.remote, s.env.session, func(ctx context.Context, token string) (adminCounts, error) {
		return loadAdminCounts(ctx, b, token)
	})
}

// loadAdminCounts fetches the three summaries concurrently.
func loadAdminCounts(ctx context.Context, b Backend, token string) (adminCounts, error) {
	var c adminCounts
	opts := api.ListOptions{Page: 1, Limit: countWindow}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		page, err := b.AdminListLeaves(ctx, token, opts)
		if err != nil {
			return err
		}
		for _, l := range page.Requests {
			if l.Status == api.StatusPending {
				c.pendingLeave++
			}
		}
		return nil
	})
	g.Go(func() error {
		page, err := b.AdminListOT(ctx, token, opts)
		if err != nil {
			return err
		}
		for _, o := range page.Reports {
			if o.Status == api.StatusPending {
				c.pendingOT++
			}
		}
		return nil
	})
	g.Go(func() error {
		page, err := b.AdminAttendance(ctx, token, api.ListOptions{Page: 1, Limit: 1})
		if err != nil {
			return err
		}
		c.presentToday = page.Statistics.PresentToday
		c.employees = page.Statistics.TotalEmployees
		return nil
	})

	if err := g.Wait(); err != nil {
		return adminCounts{}, err
	}
	return c, nil
}

func (s *adminHomeScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loadedMsg[adminCounts]:
		if s.remote.loaded(msg.seq, msg.err) && msg.err == nil {
			s.counts = msg.data
		}
		return nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Retry):
			if s.remote.state != stateLoading {
				return s.load()
			}
		case key.Matches(msg, keys.Up):
			if s.cursor > 0 {
				s.cursor--
			}
		case key.Matches(msg, keys.Down):
			if s.cursor < len(adminMenu)-1 {
				s.cursor++
			}
		case key.Matches(msg, keys.Enter):
			return push(adminMenu[s.cursor].to, routeParams{})
		case key.Matches(msg, keys.Logout):
			return func() tea.Msg { return logoutMsg{} }
		}
	}
	return nil
}

func (s *adminHomeScreen) view() string {
	w := s.width - 4
	title := titleStyle.Render("Administration")
	greeting := mutedStyle.Render("Signed in as " + s.env.session.User().Email)

	var rows []string
	for i, item := range adminMenu {
		badge := ""
		if item.badge != nil {
			switch {
			case s.remote.ready():
				badge = item.badge(s.counts)
			case s.remote.state == stateLoading:
				badge = s.env.spin.View()
			}
		}
		rows = append(rows, listRow(i == s.cursor, fmt.Sprintf("%-20s", item.label))+" "+badge)
	}
	if s.remote.failed() {
		rows = append(rows, "", errorStyle.Render(errorText(s.remote.err))+mutedStyle.Render("  r: retry"))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: open  o: sign out  r: refresh"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, greeting, "", strings.Join(rows, "\n")))
}
