package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/staffdesk/internal/api"
)

type notificationsScreen struct {
	env    *env
	width  int
	height int

	remote remote
	pager  pager
	page   *api.NotificationPage
}

func newNotificationsScreen(e *env, _ routeParams) screen {
	return &notificationsScreen{env: e, remote: newRemote(), pager: newPager()}
}

func (s *notificationsScreen) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s *notificationsScreen) capturing() bool { return false }

func (s *notificationsScreen) refresh(ctx context.Context) tea.Cmd {
	s.remote.activate(ctx)
	return s.load()
}

func (s *notificationsScreen) load() tea.Cmd {
	b, opts := s.env.backend, s.env.listOptions(s.pager.page)
	return fetch(&s.remote, s.env.session, func(ctx context.Context, token string) (*api.NotificationPage, error) {
		return b.ListNotifications(ctx, token, opts)
	})
}

func (s *notificationsScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loadedMsg[*api.NotificationPage]:
		if !s.remote.loaded(msg.seq, msg.err) || msg.err != nil {
			return nil
		}
		s.page = msg.data
		s.pager.set(msg.data.Pagination, len(msg.data.Notifications))
		return nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Retry) {
			if s.remote.state != stateLoading {
				return s.load()
			}
			return nil
		}
		if s.remote.ready() && s.page != nil && s.pager.move(msg, len(s.page.Notifications)) {
			return s.load()
		}
	}
	return nil
}

func (s *notificationsScreen) view() string {
	w := s.width - 4
	title := titleStyle.Render("Notifications")
	if s.page != nil {
		if n := s.page.Unread(); n > 0 {
			title += " " + warningStyle.Render(fmt.Sprintf("(%d unread)", n))
		}
	}

	body := s.remote.render(s.env.spin, func() string {
		if s.page == nil || len(s.page.Notifications) == 0 {
			return mutedStyle.Render("Nothing here yet")
		}
		var rows []string
		for i, n := range s.page.Notifications {
			mark := " "
			if !n.IsRead {
				mark = "●"
			}
			when := ""
			if !n.CreatedAt.IsZero() {
				when = mutedStyle.Render(" " + n.CreatedAt.Local().Format("Jan 02 15:04"))
			}
			rows = append(rows, listRow(i == s.pager.cursor, mark+" "+n.Title)+when)
			if i == s.pager.cursor && n.Body != "" {
				rows = append(rows, mutedStyle.Render("      "+n.Body))
			}
		}
		rows = append(rows, "", s.pager.footer(), "", mutedStyle.Render("  ↑/↓: select  ←/→: page  r: refresh"))
		return strings.Join(rows, "\n")
	})
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body))
}
