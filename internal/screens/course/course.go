// Package course shows the lesson list with per-lesson lock state and
// is the entry screen of the client.
package course

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/azizbek/lektor/internal/api"
	"github.com/azizbek/lektor/internal/assessment"
	"github.com/azizbek/lektor/internal/coach"
	"github.com/azizbek/lektor/internal/config"
	"github.com/azizbek/lektor/internal/router"
	"github.com/azizbek/lektor/internal/screen"
	"github.com/azizbek/lektor/internal/screens/lesson"
	"github.com/azizbek/lektor/internal/screens/notice"
	"github.com/azizbek/lektor/internal/store"
	"github.com/azizbek/lektor/internal/ui/components"
	"github.com/azizbek/lektor/internal/ui/layout"
	"github.com/azizbek/lektor/internal/ui/theme"
)

// Deps bundles what every screen below the course needs.
type Deps struct {
	Client *api.Client
	Store  *store.Store
	Engine *assessment.Engine
	Coach  *coach.Coach
	Config config.Config
	Log    *zap.Logger
}

// CourseScreen lists the course's lessons.
type CourseScreen struct {
	deps Deps

	course     *api.Course
	menu       components.Menu
	spin       components.Spinner
	loading    bool
	errMsg     string
	banner     notice.Msg
	showBanner bool
}

var _ screen.Screen = (*CourseScreen)(nil)
var _ screen.KeyHintProvider = (*CourseScreen)(nil)

func New(deps Deps) *CourseScreen {
	return &CourseScreen{
		deps:    deps,
		spin:    components.NewSpinner("Loading course..."),
		loading: true,
	}
}

func (c *CourseScreen) Init() tea.Cmd {
	return tea.Batch(c.fetchCourse(), c.drainPending(), c.spin.Init())
}

func (c *CourseScreen) Title() string {
	if c.course != nil && c.course.Title != "" {
		return c.course.Title
	}
	return "Course"
}

func (c *CourseScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Open lesson"},
		{Key: "r", Description: "Refresh"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

// Progress returns completed and total lesson counts for the header.
func (c *CourseScreen) Progress() (done, total int) {
	if c.course == nil {
		return 0, 0
	}
	for _, l := range c.course.Lessons {
		if l.Progress.LastScorePercent > 0 {
			done++
		}
	}
	return done, len(c.course.Lessons)
}

func (c *CourseScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case courseLoadedMsg:
		c.loading = false
		if msg.Err != nil {
			c.errMsg = msg.Err.Error()
			return c, nil
		}
		c.errMsg = ""
		c.course = msg.Course
		c.rebuildMenu()
		return c, nil

	case pendingDrainedMsg:
		if msg.Synced > 0 {
			c.showBanner = true
			c.banner = notice.Msg{
				Level: notice.LevelInfo,
				Text:  fmt.Sprintf("Synced %d saved attempt(s) from the last run", msg.Synced),
			}
			// Lock states may have moved once attempts landed.
			return c, c.fetchCourse()
		}
		return c, nil

	case notice.Msg:
		c.showBanner = true
		c.banner = msg
		return c, c.fetchCourse()

	case notice.RefreshMsg:
		return c, c.fetchCourse()

	case tea.FocusMsg:
		// The backend may have unlocked lessons while we were away.
		return c, c.fetchCourse()

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			c.loading = c.course == nil
			return c, c.fetchCourse()
		}
		if c.showBanner {
			c.showBanner = false
		}
		var cmd tea.Cmd
		c.menu, cmd = c.menu.Update(msg)
		return c, cmd
	}

	if c.loading {
		var cmd tea.Cmd
		c.spin, cmd = c.spin.Update(msg)
		return c, cmd
	}

	return c, nil
}

func (c *CourseScreen) rebuildMenu() {
	selected := c.menu.Selected
	items := make([]components.MenuItem, 0, len(c.course.Lessons))
	for _, l := range c.course.Lessons {
		l := l
		items = append(items, components.MenuItem{
			Label:    l.Title,
			Badge:    lessonBadge(l),
			Disabled: !l.Progress.Status.CanOpen(),
			Action: func() tea.Cmd {
				return func() tea.Msg {
					return router.PushScreenMsg{
						Screen: lesson.New(lesson.Deps{
							Client: c.deps.Client,
							Store:  c.deps.Store,
							Engine: c.deps.Engine,
							Coach:  c.deps.Coach,
							Config: c.deps.Config,
							Log:    c.deps.Log,
						}, l.ID),
					}
				}
			},
		})
	}
	c.menu = components.NewMenu(items)
	if selected < len(items) {
		c.menu.Selected = selected
	}
}

func lessonBadge(l api.Lesson) string {
	switch {
	case !l.Progress.Status.CanOpen():
		return "· " + l.Progress.Status.Reason()
	case l.Progress.LastScorePercent > 0:
		return fmt.Sprintf("· best %d%%", l.Progress.LastScorePercent)
	case l.HasQuiz:
		return "· quiz"
	default:
		return ""
	}
}

func (c *CourseScreen) View(width, height int) string {
	if c.loading {
		return "\n  " + c.spin.View()
	}
	if c.errMsg != "" {
		return "\n  " + theme.Incorrect.Render("Could not load the course") +
			"\n\n  " + theme.Body.Render(c.errMsg) +
			"\n\n  " + theme.Hint.Render("Press r to retry")
	}
	if c.course == nil || len(c.course.Lessons) == 0 {
		return "\n  " + theme.Hint.Render("This course has no lessons yet.")
	}

	out := "\n"
	if c.showBanner {
		out += "  " + bannerStyle(c.banner.Level).Render(c.banner.Text) + "\n\n"
	}
	out += c.menu.View()

	if cur := c.menu.Current(); cur != nil && cur.Disabled {
		out += "\n  " + theme.Blocked.Render(strings.TrimPrefix(cur.Badge, "· "))
	}
	return out
}

func bannerStyle(level notice.Level) lipgloss.Style {
	switch level {
	case notice.LevelWarn:
		return theme.Blocked
	case notice.LevelError:
		return theme.Incorrect
	default:
		return theme.Correct
	}
}

func (c *CourseScreen) fetchCourse() tea.Cmd {
	client := c.deps.Client
	id := c.deps.Config.CourseID
	timeout := c.deps.Config.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout*4)
		defer cancel()
		course, err := client.Course(ctx, id)
		return courseLoadedMsg{Course: course, Err: err}
	}
}

// drainPending re-posts submissions that failed to save in an earlier
// run. Every queued attempt goes back through the engine so success and
// failure land in the journal the same way a live submit would.
func (c *CourseScreen) drainPending() tea.Cmd {
	st := c.deps.Store
	engine := c.deps.Engine
	timeout := c.deps.Config.RequestTimeout
	log := c.deps.Log
	if st == nil || engine == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout*4)
		defer cancel()

		pending, err := st.PendingSubmissions(ctx)
		if err != nil {
			log.Warn("load pending submissions", zap.Error(err))
			return nil
		}
		if len(pending) == 0 {
			return nil
		}

		synced := 0
		for _, sub := range pending {
			outcome := engine.Submit(ctx, sub)
			switch outcome.Kind {
			case assessment.OutcomeGraded:
				synced++
			case assessment.OutcomeBlocked:
				// The backend refused this attempt outright; keeping it
				// queued would just refail forever.
				_ = st.RemovePending(ctx, sub.AttemptID)
			}
		}
		return pendingDrainedMsg{Synced: synced, Left: len(pending) - synced}
	}
}
