package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/staffdesk/internal/export"
	"github.com/sadopc/staffdesk/internal/session"
)

var exportFormats = []string{"csv", "json"}

// exportable screens can write what they show to a file.
type exportable interface {
	exportKind() string
	// exportFunc captures the rows on screen now.
	exportFunc(format string) func(path string) error
}

func exportRows[T any](rows []T, format string, toCSV, toJSON func([]T, string) error) func(string) error {
	write := toCSV
	if format == "json" {
		write = toJSON
	}
	return func(path string) error { return write(rows, path) }
}

// App is the root Bubble Tea model.
type App struct {
	env    *env
	router *router
	width  int
	height int

	showHelp      bool
	exportPicking bool
	exportCursor  int

	help      help.Model
	status    string
	statusErr bool
	initCmd   tea.Cmd
}

// NewApp restores the persisted session, if there is one, and opens the
// home screen for its role. Without a session it opens sign-in.
func NewApp(b Backend, sessions Sessions, settings Settings, logger *slog.Logger) App {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := help.New()
	h.ShowAll = false

	e := &env{
		backend:  b,
		sessions: sessions,
		settings: settings,
		logger:   logger,
		now:      time.Now,
		spin: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(colorPrimary)),
		),
	}
	a := App{env: e, router: newRouter(e), help: h}

	start := routeSignIn
	sess, err := sessions.Current()
	switch {
	case err == nil:
		e.session = sess
		start = homeFor(sess.Role())
	case !errors.Is(err, session.ErrNoSession):
		logger.Warn("restore session", "error", err)
	}
	a.initCmd = a.router.reset(start, routeParams{})
	return a
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.initCmd, a.env.spin.Tick)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.router.setSize(a.width, a.height-4) // header + footer
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.env.spin, cmd = a.env.spin.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}
		// A form on the active screen gets every key.
		if a.router.capturing() {
			return a, a.router.update(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Export):
			if _, ok := a.router.top().screen.(exportable); ok {
				a.exportPicking = true
				a.exportCursor = a.defaultExportFormat()
				return a, nil
			}
		case key.Matches(msg, keys.Back):
			return a, a.router.pop()
		case key.Matches(msg, keys.Tab):
			if i := a.tabIndex(); i >= 0 {
				return a, a.router.reset(employeeTabs[(i+1)%len(employeeTabs)], routeParams{})
			}
		default:
			if a.tabIndex() >= 0 {
				for i, k := range tabKeys {
					if key.Matches(msg, k) {
						return a, a.router.reset(employeeTabs[i], routeParams{})
					}
				}
			}
		}

	case navigateMsg:
		return a, a.router.navigate(msg)

	case loggedInMsg:
		a.env.session = msg.session
		a.setStatus("Signed in as "+msg.session.User().Email, false)
		return a, a.router.reset(homeFor(msg.session.Role()), routeParams{})

	case logoutMsg:
		if err := a.env.sessions.Logout(a.env.session); err != nil {
			a.env.logger.Error("logout", "error", err)
		}
		a.env.session = nil
		a.setStatus("Signed out", false)
		return a, a.router.reset(routeSignIn, routeParams{})

	case sessionExpiredMsg:
		a.setStatus("Your session has expired. Please sign in again.", true)
		if a.router.current() == routeSignIn {
			return a, nil
		}
		return a, a.router.reset(routeSignIn, routeParams{})

	case statusMsg:
		a.setStatus(msg.text, msg.isError)
		return a, nil

	case exportDoneMsg:
		a.setStatus("Exported to "+msg.path, false)
		a.exportPicking = false
		return a, nil
	}

	return a, a.router.update(msg)
}

func (a *App) setStatus(text string, isError bool) {
	a.status = text
	a.statusErr = isError
}

// tabIndex is the active employee tab, or -1 outside the employee tree.
func (a App) tabIndex() int {
	if !a.env.session.Valid() || a.env.session.IsAdmin() {
		return -1
	}
	return slices.Index(employeeTabs, a.router.root())
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(a.height-headerHeight-footerHeight, 1)

	content := a.router.view()
	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var nav string
	if active := a.tabIndex(); active >= 0 {
		var tabs []string
		for i, r := range employeeTabs {
			name := routes[r].name
			if i == active {
				tabs = append(tabs, activeTabStyle.Render(name))
			} else {
				tabs = append(tabs, inactiveTabStyle.Render(name))
			}
		}
		nav = lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)
		if a.router.depth() > 1 {
			nav = lipgloss.JoinVertical(lipgloss.Right, nav, mutedStyle.Render(strings.Join(a.router.breadcrumb()[1:], " › ")))
		}
	} else {
		nav = activeTabStyle.Render(strings.Join(a.router.breadcrumb(), " › "))
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("staffdesk")
	if a.env.session.Valid() {
		title += mutedStyle.Render("  " + a.env.session.User().Email)
	}
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(nav)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, nav),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		if a.statusErr {
			status = errorStyle.Render(" " + a.status)
		} else {
			status = mutedStyle.Render(" " + a.status)
		}
	}

	left := footerStyle.Render(helpView)
	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(status)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, status)
}

func (a App) defaultExportFormat() int {
	v, err := a.env.settings.GetSetting("export_format")
	if err != nil {
		return 0
	}
	return max(slices.Index(exportFormats, v), 0)
}

func (a App) renderExportPicker() string {
	rows := []string{titleStyle.Render("Export Format"), ""}
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+strings.ToUpper(f)))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(exportFormats[a.exportCursor])
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// doExport writes the active screen's rows to the home directory.
func (a App) doExport(format string) tea.Cmd {
	ex, ok := a.router.top().screen.(exportable)
	if !ok {
		return nil
	}
	write := ex.exportFunc(format)
	name := export.FileName(ex.exportKind(), format, a.env.now())

	return func() tea.Msg {
		home, err := os.UserHomeDir()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		path := filepath.Join(home, name)
		if err := write(path); err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}
