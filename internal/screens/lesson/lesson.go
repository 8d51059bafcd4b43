// Package lesson is the content player: it steps through a lesson's
// playlist, resolves how each item is presented, and opens the
// end-of-lesson options once the last item is reached.
package lesson

import (
	"context"
	"net/http"
	"time"

	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"github.com/azizbek/lektor/internal/api"
	"github.com/azizbek/lektor/internal/assessment"
	"github.com/azizbek/lektor/internal/catalog"
	"github.com/azizbek/lektor/internal/coach"
	"github.com/azizbek/lektor/internal/config"
	"github.com/azizbek/lektor/internal/router"
	"github.com/azizbek/lektor/internal/screen"
	"github.com/azizbek/lektor/internal/screens/quiz"
	"github.com/azizbek/lektor/internal/sequencer"
	"github.com/azizbek/lektor/internal/store"
	"github.com/azizbek/lektor/internal/ui/components"
	"github.com/azizbek/lektor/internal/ui/layout"
	"github.com/azizbek/lektor/internal/viewer"
)

// Deps is what the player needs from the outside.
type Deps struct {
	Client *api.Client
	Store  *store.Store
	Engine *assessment.Engine
	Coach  *coach.Coach
	Config config.Config
	Log    *zap.Logger
}

// LessonScreen plays one lesson.
type LessonScreen struct {
	deps     Deps
	lessonID string

	lesson *api.Lesson
	seq    *sequencer.Sequencer
	view   *viewer.Resolver

	spin    components.Spinner
	loading bool
	errMsg  string

	choiceOpen   bool
	choiceCursor int
}

var _ screen.Screen = (*LessonScreen)(nil)
var _ screen.KeyHintProvider = (*LessonScreen)(nil)

func New(deps Deps, lessonID string) *LessonScreen {
	return &LessonScreen{
		deps:     deps,
		lessonID: lessonID,
		seq:      sequencer.New(),
		view:     viewer.NewResolver(),
		spin:     components.NewSpinner("Loading lesson..."),
		loading:  true,
	}
}

func (l *LessonScreen) Init() tea.Cmd {
	return tea.Batch(l.fetchLesson(), l.spin.Init())
}

func (l *LessonScreen) Title() string {
	if l.lesson != nil && l.lesson.Title != "" {
		return l.lesson.Title
	}
	return "Lesson"
}

func (l *LessonScreen) KeyHints() []layout.KeyHint {
	if l.choiceOpen {
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Choose"},
			{Key: "Enter", Description: "Select"},
			{Key: "c", Description: "Close"},
		}
	}
	hints := []layout.KeyHint{
		{Key: "n/p", Description: "Next / previous"},
	}
	if item, ok := l.seq.Current(); ok && item.Kind == catalog.KindVideo {
		hints = append(hints, layout.KeyHint{Key: "w", Description: "Mark watched"})
	}
	if l.seq.Phase() == sequencer.PhaseChoice {
		hints = append(hints, layout.KeyHint{Key: "c", Description: "Lesson options"})
	}
	hints = append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
	return hints
}

func (l *LessonScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case lessonLoadedMsg:
		return l.handleLoaded(msg)

	case viewerProbeMsg:
		return l.handleProbe(msg)

	case tea.KeyMsg:
		return l.handleKey(msg)
	}

	if l.loading {
		var cmd tea.Cmd
		l.spin, cmd = l.spin.Update(msg)
		return l, cmd
	}

	return l, nil
}

func (l *LessonScreen) handleLoaded(msg lessonLoadedMsg) (screen.Screen, tea.Cmd) {
	l.loading = false
	if msg.Err != nil {
		l.errMsg = msg.Err.Error()
		return l, nil
	}
	l.lesson = msg.Lesson
	items := catalog.Build(msg.Lesson.Content, l.deps.Config.FilesBase)
	l.seq.Load(items)
	if l.seq.Phase() == sequencer.PhaseChoice && l.seq.Len() == 0 {
		l.choiceOpen = true
	}
	return l, l.probeCurrent()
}

// handleProbe applies an embed reachability result to the fallback
// chain. Results for any item other than the active one are dropped.
func (l *LessonScreen) handleProbe(msg viewerProbeMsg) (screen.Screen, tea.Cmd) {
	item, ok := l.seq.Current()
	if !ok || item.URL != msg.URL {
		return l, nil
	}
	if msg.OK {
		return l, nil
	}
	l.view.MarkFailed(msg.URL)
	return l, l.probeCurrent()
}

func (l *LessonScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if l.errMsg != "" {
		return l, popBack()
	}
	if l.lesson == nil {
		return l, nil
	}

	if l.choiceOpen {
		return l.handleChoiceKey(key)
	}

	switch key {
	case "n", "right":
		if l.seq.Next() {
			l.resetCurrent()
			if l.seq.Phase() == sequencer.PhaseChoice && len(l.choices()) > 0 {
				l.choiceOpen = true
			}
			return l, l.probeCurrent()
		}
	case "p", "left":
		if l.seq.Previous() {
			l.resetCurrent()
			return l, l.probeCurrent()
		}
	case "w":
		l.seq.ReportVideoEnded()
	case "c":
		if l.seq.Phase() == sequencer.PhaseChoice && len(l.choices()) > 0 {
			l.choiceOpen = true
			l.choiceCursor = 0
		}
	}

	return l, nil
}

func (l *LessonScreen) handleChoiceKey(key string) (screen.Screen, tea.Cmd) {
	options := l.choices()

	switch key {
	case "c":
		l.choiceOpen = false
	case "up", "k":
		if l.choiceCursor > 0 {
			l.choiceCursor--
		}
	case "down", "j":
		if l.choiceCursor < len(options)-1 {
			l.choiceCursor++
		}
	case "enter":
		if l.choiceCursor >= len(options) {
			return l, nil
		}
		switch options[l.choiceCursor] {
		case sequencer.ChoiceCaseStudy:
			// The case study is the final playlist item; closing the
			// overlay leaves the player on it.
			l.choiceOpen = false
		case sequencer.ChoiceAssessment:
			l.choiceOpen = false
			return l, l.startQuiz()
		}
	}

	return l, nil
}

func (l *LessonScreen) choices() []sequencer.Choice {
	if l.lesson == nil {
		return nil
	}
	return l.seq.Choices(l.lesson.HasCaseStudy(), l.lesson.HasQuiz)
}

// resetCurrent clears viewer failure state for the newly active item.
func (l *LessonScreen) resetCurrent() {
	if item, ok := l.seq.Current(); ok {
		l.view.Reset(item.URL)
	}
}

func (l *LessonScreen) startQuiz() tea.Cmd {
	deps := l.deps
	lessonID := l.lessonID
	title := l.Title()
	return func() tea.Msg {
		return router.PushScreenMsg{
			Screen: quiz.New(quiz.Deps{
				Client: deps.Client,
				Store:  deps.Store,
				Engine: deps.Engine,
				Coach:  deps.Coach,
				Config: deps.Config,
				Log:    deps.Log,
			}, lessonID, title),
		}
	}
}

func (l *LessonScreen) fetchLesson() tea.Cmd {
	client := l.deps.Client
	id := l.lessonID
	timeout := l.deps.Config.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout*4)
		defer cancel()
		lesson, err := client.Lesson(ctx, id)
		return lessonLoadedMsg{Lesson: lesson, Err: err}
	}
}

// probeCurrent issues a reachability check when the active item renders
// through an external embed provider. A failed probe advances the
// fallback chain for that item only.
func (l *LessonScreen) probeCurrent() tea.Cmd {
	item, ok := l.seq.Current()
	if !ok {
		return nil
	}
	plan := l.view.Plan(item.URL)
	if plan.Mode != viewer.ModeEmbedPrimary && plan.Mode != viewer.ModeEmbedSecondary {
		return nil
	}

	sourceURL := item.URL
	probeURL := plan.ViewURL
	return func() tea.Msg {
		client := &http.Client{Timeout: 5 * time.Second}
		req, err := http.NewRequest(http.MethodHead, probeURL, nil)
		if err != nil {
			return viewerProbeMsg{URL: sourceURL, OK: false}
		}
		resp, err := client.Do(req)
		if err != nil {
			return viewerProbeMsg{URL: sourceURL, OK: false}
		}
		_ = resp.Body.Close()
		return viewerProbeMsg{URL: sourceURL, OK: resp.StatusCode < 400}
	}
}

func popBack() tea.Cmd {
	return func() tea.Msg {
		return router.PopScreenMsg{}
	}
}
