package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/staffdesk/internal/api"
)

// pager is the cursor and page of a paginated list.
type pager struct {
	cursor int
	page   int
	pages  int
	total  int
}

func newPager() pager {
	return pager{page: 1, pages: 1}
}

// set applies the server's pagination for a page holding n rows.
func (p *pager) set(pg api.Pagination, n int) {
	p.pages = max(pg.TotalPages, 1)
	p.total = pg.Total
	if pg.CurrentPage > 0 {
		p.page = pg.CurrentPage
	}
	if p.cursor >= n {
		p.cursor = max(0, n-1)
	}
}

// move handles list keys and reports whether the page changed.
func (p *pager) move(msg tea.KeyMsg, n int) bool {
	switch {
	case key.Matches(msg, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(msg, keys.Down):
		if p.cursor < n-1 {
			p.cursor++
		}
	case key.Matches(msg, keys.Left):
		if p.page > 1 {
			p.page--
			p.cursor = 0
			return true
		}
	case key.Matches(msg, keys.Right):
		if p.page < p.pages {
			p.page++
			p.cursor = 0
			return true
		}
	}
	return false
}

func (p pager) footer() string {
	return mutedStyle.Render(fmt.Sprintf("  Page %d of %d, %d total", p.page, p.pages, p.total))
}

func listRow(selected bool, text string) string {
	if selected {
		return selectedItemStyle.Render("> " + text)
	}
	return normalItemStyle.Render("  " + text)
}

func field(label, value string) string {
	if value == "" {
		value = mutedStyle.Render("-")
	}
	return labelStyle.Render(label) + " " + value
}

// rule is the muted separator under a table header, at most n wide.
func rule(width, n int) string {
	return mutedStyle.Render("  " + strings.Repeat("─", max(0, min(width-10, n))))
}
