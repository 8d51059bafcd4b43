// Package app owns the root Bubble Tea model: the screen stack, the
// frame around it, and global keys.
package app

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/azizbek/lektor/internal/api"
	"github.com/azizbek/lektor/internal/assessment"
	"github.com/azizbek/lektor/internal/coach"
	"github.com/azizbek/lektor/internal/config"
	"github.com/azizbek/lektor/internal/identity"
	"github.com/azizbek/lektor/internal/router"
	"github.com/azizbek/lektor/internal/screen"
	"github.com/azizbek/lektor/internal/screens/course"
	"github.com/azizbek/lektor/internal/screens/notice"
	"github.com/azizbek/lektor/internal/store"
	"github.com/azizbek/lektor/internal/ui/layout"
)

// Options carries everything the TUI needs, assembled by the command
// layer.
type Options struct {
	Client  *api.Client
	Store   *store.Store
	Engine  *assessment.Engine
	Coach   *coach.Coach
	Student *identity.Session
	Config  config.Config
	Log     *zap.Logger
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	opts   Options
	router *router.Router
	root   *course.CourseScreen
	width  int
	height int
}

func newAppModel(opts Options) AppModel {
	root := course.New(course.Deps{
		Client: opts.Client,
		Store:  opts.Store,
		Engine: opts.Engine,
		Coach:  opts.Coach,
		Config: opts.Config,
		Log:    opts.Log,
	})
	return AppModel{
		opts:   opts,
		router: router.New(root),
		root:   root,
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.root.Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() <= 1 {
				return m, nil
			}
			if c, ok := m.router.Active().(screen.EscClaimer); ok && c.ClaimsEsc() {
				// The screen runs its own esc flow; fall through to
				// the router so it receives the key.
				break
			}
			// Lock states may change while away, so the exposed
			// screen is told to refetch.
			return m, func() tea.Msg {
				return router.PopScreenMsg{Result: notice.RefreshMsg{}}
			}
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	// Focus events drive the course screen's refetch when the terminal
	// regains focus; without this the terminal never sends them.
	v.ReportFocus = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	student := ""
	if m.opts.Student != nil {
		student = m.opts.Student.Name
	}
	done, total := m.root.Progress()

	header := layout.RenderHeader(title, student, done, total, m.width)

	var footerHints []layout.KeyHint
	if provider, ok := active.(screen.KeyHintProvider); ok {
		footerHints = provider.KeyHints()
	}
	if len(footerHints) == 0 {
		footerHints = []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	p := tea.NewProgram(newAppModel(opts))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
